// Package analysis runs the batch pipeline: every document is annotated and
// aggregated, its counts are turned into rates and the rates are compared
// across periods.
//
// Per-document failures never abort a run. They become a status entry of the
// report; only engine level failures (no documents, no periods) and context
// cancellation are returned as errors.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/revelaction/diachron/annotate"
	"github.com/revelaction/diachron/classify"
	"github.com/revelaction/diachron/compare"
	sent "github.com/revelaction/diachron/sentence"
	"github.com/revelaction/diachron/stat"
)

// Document statuses.
const (
	StatusOK                    = "ok"
	StatusUnsupportedLanguage   = "skipped_unsupported_language"
	StatusAnnotationUnavailable = "skipped_annotation_unavailable"
	StatusAnnotationFailed      = "skipped_annotation_failed"
	StatusMalformed             = "malformed"
)

// UnassignedPeriod groups documents without a period.
const UnassignedPeriod = "unassigned"

var ErrNoDocuments = errors.New("no documents")

// DocReport is the outcome of one document. Metrics is nil unless Status is
// StatusOK.
type DocReport struct {
	Title    string `json:"title"`
	Period   string `json:"period"`
	Language string `json:"language"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`

	Metrics *stat.Metrics `json:"metrics,omitempty"`
}

// Report is the result of a run.
type Report struct {
	RunID   string    `json:"run_id"`
	Created time.Time `json:"created"`
	Seed    uint64    `json:"seed"`

	// Periods in report order: configured chronology first, then unknown
	// periods by name.
	Periods []string `json:"periods"`

	Documents []DocReport `json:"documents"`

	// Comparisons holds one cross-period comparison per count name.
	Comparisons map[string]compare.Comparison `json:"comparisons"`

	Notes []string `json:"notes"`
}

// NumOK returns the number of documents that entered the statistics.
func (r *Report) NumOK() int {
	n := 0
	for _, d := range r.Documents {
		if d.Status == StatusOK {
			n++
		}
	}
	return n
}

// Options configures a Pipeline.
type Options struct {
	// Workers bounds the documents analyzed concurrently. 1 is sequential.
	Workers int

	// Periods is the chronological order of the known periods.
	Periods []string

	// Counts are the stat count names compared across periods.
	Counts []string

	Compare compare.Options

	// Progress, when set, is called after each document.
	Progress func(done, total int, title string)
}

// Pipeline holds the collaborators of a run. The annotator lifecycle is
// managed by the caller.
type Pipeline struct {
	annotator annotate.Annotator
	handler   *stat.Handler
	logger    *slog.Logger
	opts      Options
}

func New(a annotate.Annotator, h *stat.Handler, logger *slog.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if len(opts.Counts) == 0 {
		opts.Counts = stat.CountNames()
	}

	return &Pipeline{
		annotator: a,
		handler:   h,
		logger:    logger,
		opts:      opts,
	}
}

// Run analyzes docs and compares their rates across periods. The report is
// the same for any number of workers.
func (p *Pipeline) Run(ctx context.Context, docs []sent.Doc) (*Report, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	p.logger.InfoContext(ctx, "analysis started", "documents", len(docs), "workers", p.opts.Workers)

	results := make([]DocReport, len(docs))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i := range docs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			res, err := p.analyze(gctx, docs[i])
			if err != nil {
				return err
			}
			results[i] = res

			if p.opts.Progress != nil {
				mu.Lock()
				done++
				p.opts.Progress(done, len(docs), res.Title)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}

	periods := OrderPeriods(p.opts.Periods, results)

	report := &Report{
		RunID:       uuid.NewString(),
		Created:     time.Now().UTC(),
		Seed:        p.opts.Compare.Seed,
		Periods:     periods,
		Documents:   results,
		Comparisons: make(map[string]compare.Comparison, len(p.opts.Counts)),
	}

	for _, count := range p.opts.Counts {
		groups, err := Groups(results, count, periods)
		if err != nil {
			return nil, err
		}

		cmp, err := compare.Compare(groups, p.opts.Compare)
		if err != nil {
			return nil, fmt.Errorf("compare %s: %w", count, err)
		}
		report.Comparisons[count] = cmp
	}

	report.Notes = p.notes(report)

	p.logger.InfoContext(ctx, "analysis finished",
		"run_id", report.RunID,
		"ok", report.NumOK(),
		"skipped", len(results)-report.NumOK(),
	)

	return report, nil
}

// analyze annotates and aggregates one doc. Only context errors are
// returned, every other failure is a status.
func (p *Pipeline) analyze(ctx context.Context, doc sent.Doc) (DocReport, error) {
	res := DocReport{
		Title:    doc.Title,
		Period:   doc.Period,
		Language: doc.Language,
	}
	if res.Period == "" {
		res.Period = UnassignedPeriod
	}

	annotated := doc
	if !doc.IsAnnotated() {
		if p.annotator == nil {
			return p.skip(ctx, res, StatusAnnotationUnavailable, fmt.Errorf("%w: no annotator", annotate.ErrAnnotationUnavailable)), nil
		}

		a, err := annotate.Doc(ctx, p.annotator, doc)
		switch {
		case ctx.Err() != nil:
			return DocReport{}, ctx.Err()
		case errors.Is(err, annotate.ErrAnnotationUnavailable):
			return p.skip(ctx, res, StatusAnnotationUnavailable, err), nil
		case err != nil:
			return p.skip(ctx, res, StatusAnnotationFailed, err), nil
		}
		annotated = a
	}

	m, err := p.handler.Aggregate(annotated)
	switch {
	case errors.Is(err, classify.ErrUnsupportedLanguage):
		return p.skip(ctx, res, StatusUnsupportedLanguage, err), nil
	case errors.Is(err, sent.ErrMalformedDocument):
		return p.skip(ctx, res, StatusMalformed, err), nil
	case err != nil:
		return DocReport{}, err
	}

	m.Period = res.Period
	res.Status = StatusOK
	res.Metrics = &m

	p.logger.DebugContext(ctx, "document aggregated",
		"title", res.Title,
		"period", res.Period,
		"words", m.WordCount,
		"articles", m.TotalArticles(),
		"constructions", len(m.Constructions),
	)

	return res, nil
}

func (p *Pipeline) skip(ctx context.Context, res DocReport, status string, err error) DocReport {
	res.Status = status
	res.Reason = err.Error()

	p.logger.WarnContext(ctx, "document skipped",
		"title", res.Title,
		"period", res.Period,
		"status", status,
		"error", err,
	)

	return res
}

func (p *Pipeline) notes(r *Report) []string {
	notes := []string{
		fmt.Sprintf("pairwise p-values are not corrected for multiple comparisons (correction: %s)", compare.CorrectionNone),
	}

	skipped := map[string]int{}
	for _, d := range r.Documents {
		if d.Status != StatusOK {
			skipped[d.Status]++
		}
	}

	statuses := make([]string, 0, len(skipped))
	for s := range skipped {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)

	for _, s := range statuses {
		notes = append(notes, fmt.Sprintf("%d document(s) excluded from rates: %s", skipped[s], s))
	}

	minN := p.opts.Compare.MinReliableN
	if minN <= 0 {
		minN = compare.DefaultMinReliableN
	}
	notes = append(notes, fmt.Sprintf("tests on periods with fewer than %d documents are flagged small_sample", minN))

	return notes
}

// OrderPeriods returns the configured periods in their order followed by the
// periods of docs that are not configured, sorted by name.
func OrderPeriods(configured []string, docs []DocReport) []string {
	known := map[string]bool{}
	periods := make([]string, 0, len(configured))
	for _, p := range configured {
		if !known[p] {
			known[p] = true
			periods = append(periods, p)
		}
	}

	var unknown []string
	for _, d := range docs {
		if !known[d.Period] {
			known[d.Period] = true
			unknown = append(unknown, d.Period)
		}
	}
	sort.Strings(unknown)

	return append(periods, unknown...)
}

// Groups builds the rate sample of every period for the named count. Only
// successfully aggregated documents with words contribute a rate.
func Groups(docs []DocReport, count string, periods []string) ([]compare.Group, error) {
	index := make(map[string]int, len(periods))
	groups := make([]compare.Group, len(periods))
	for i, p := range periods {
		index[p] = i
		groups[i] = compare.Group{Period: p, Rates: []float64{}}
	}

	for _, d := range docs {
		if d.Status != StatusOK || d.Metrics == nil {
			continue
		}

		i, ok := index[d.Period]
		if !ok {
			continue
		}

		n, err := d.Metrics.Count(count)
		if err != nil {
			return nil, err
		}

		rate, ok := compare.Rate(n, d.Metrics.WordCount)
		if !ok {
			continue
		}

		groups[i].Rates = append(groups[i].Rates, rate)
	}

	return groups, nil
}
