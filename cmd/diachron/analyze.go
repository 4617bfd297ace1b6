package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/diachron/analysis"
	"github.com/revelaction/diachron/annotate"
	"github.com/revelaction/diachron/classify"
	"github.com/revelaction/diachron/config"
	"github.com/revelaction/diachron/construction"
	"github.com/revelaction/diachron/render"
	sent "github.com/revelaction/diachron/sentence"
	"github.com/revelaction/diachron/stat"
	"github.com/revelaction/diachron/storage"
)

func analyzeCommand(c *cli.Context, opts AnalyzeOptions, ui UI) error {
	cfg := opts.Config
	logger := newLogger(ui.Err, opts.Verbose)
	logger.DebugContext(c.Context, "analysis starting", "env", cfg.Env(), "corpus", cfg.Corpus, "workers", cfg.Workers)

	pool := &Pool{}
	defer pool.Close()

	repo, err := NewDocRepository(pool, cfg)
	if err != nil {
		return err
	}

	pg := newProgress(!opts.NoProgress)
	defer pg.Stop()

	docs, err := readDocs(repo, cfg, pg)
	if err != nil {
		return err
	}

	lexicon, err := loadLexicon(cfg)
	if err != nil {
		return err
	}
	defer lexicon.Close()

	handler, err := newHandler(cfg)
	if err != nil {
		return err
	}

	bar := pg.Bar(len(docs))
	pipeline := analysis.New(lexicon, handler, logger, analysis.Options{
		Workers: cfg.Workers,
		Periods: cfg.PeriodNames(),
		Counts:  cfg.Metrics,
		Compare: cfg.CompareOptions(),
		Progress: func(done, total int, title string) {
			bar.Incr()
		},
	})

	report, err := pipeline.Run(c.Context, docs)
	pg.Stop()
	if err != nil {
		return err
	}

	if !opts.NoSave {
		if err := saveReport(pool, cfg.Database, report); err != nil {
			return err
		}
		logger.InfoContext(c.Context, "report saved", "run_id", report.RunID, "database", cfg.Database)
	}

	return renderReport(report, opts.Format, !opts.NoColor, opts.Candidates, opts.Features, ui)
}

// readDocs reads every doc of the repository, preloading when supported.
// Docs without a language take the language of their period.
func readDocs(repo storage.DocReader, cfg *config.Config, pg *progress) ([]sent.Doc, error) {
	if pl, ok := repo.(storage.Preloader); ok {
		var bar *progressBar
		err := pl.Preload(func(current, total int, name string) {
			if bar == nil {
				bar = pg.Bar(total)
			}
			bar.Incr()
		})
		if err != nil {
			return nil, err
		}
	}

	list, err := repo.List()
	if err != nil {
		return nil, err
	}

	docs := make([]sent.Doc, 0, len(list))
	for _, meta := range list {
		doc, err := repo.Read(meta.Id)
		if err != nil {
			return nil, fmt.Errorf("failed to read doc %s: %w", meta.Title, err)
		}

		if doc.Language == "" {
			doc.Language, _ = cfg.PeriodLanguage(doc.Period)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func loadLexicon(cfg *config.Config) (*annotate.Lexicon, error) {
	lexicon := annotate.NewLexicon()
	for lang, path := range cfg.Lexicons {
		if err := lexicon.Load(lang, path); err != nil {
			lexicon.Close()
			return nil, fmt.Errorf("lexicon %s: %w", lang, err)
		}
	}
	return lexicon, nil
}

func newClassifier(cfg *config.Config) (*classify.Classifier, error) {
	return classify.New(cfg.Rules())
}

func newHandler(cfg *config.Config) (*stat.Handler, error) {
	classifier, err := newClassifier(cfg)
	if err != nil {
		return nil, err
	}

	detector := construction.NewDetector(cfg.Construction.Window, cfg.Construction.Languages, classifier)
	return stat.NewHandler(classifier, detector), nil
}

func saveReport(pool *Pool, path string, report *analysis.Report) error {
	reports, err := NewReportRepository(pool, path)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}

	run := storage.Run{
		Id:      report.RunID,
		Created: report.Created,
		Seed:    report.Seed,
		NumDocs: len(report.Documents),
	}
	return reports.WriteReport(run, payload)
}

func renderReport(report *analysis.Report, format string, color, candidates, features bool, ui UI) error {
	if format == formatJSON {
		r := render.NewJSONRenderer(ui.Out)
		r.Indent = true
		return r.Render(report)
	}

	r := newRenderer(ui.Out, color)
	r.Candidates = candidates
	r.Features = features
	r.Report(report)
	return nil
}
