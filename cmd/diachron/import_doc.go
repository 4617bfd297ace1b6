package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/diachron/annotate"
	"github.com/revelaction/diachron/storage/filesystem"
	"github.com/revelaction/diachron/storage/sqlite/zombiezen"
)

func importDocCommand(c *cli.Context, opts ImportDocOptions, ui UI) error {
	cfg := opts.Config
	logger := newLogger(ui.Err, c.Bool("verbose"))

	src, err := filesystem.NewDocStore(opts.From, periodLanguages(cfg))
	if err != nil {
		return err
	}

	pool := &Pool{}
	defer pool.Close()

	dst, err := pool.Open(opts.To)
	if err != nil {
		return err
	}

	if err := zombiezen.CreateDocTables(dst); err != nil {
		return fmt.Errorf("failed to create docs table: %w", err)
	}

	store := zombiezen.NewDocStore(dst)

	lexicon, err := loadLexicon(cfg)
	if err != nil {
		return err
	}
	defer lexicon.Close()

	fmt.Fprintf(ui.Out, "Reading docs from %s...\n", opts.From)
	docs, err := src.List()
	if err != nil {
		return err
	}

	pg := newProgress(!opts.NoProgress)
	bar := pg.Bar(len(docs))

	count := 0
	for _, docMeta := range docs {
		doc, err := src.Read(docMeta.Id)
		if err != nil {
			pg.Stop()
			return fmt.Errorf("failed to read doc %s: %w", docMeta.Title, err)
		}

		if opts.Annotate && !doc.IsAnnotated() {
			annotated, err := annotate.Doc(c.Context, lexicon, doc)
			switch {
			case errors.Is(err, annotate.ErrAnnotationUnavailable):
				// stored as raw text, annotated at analysis time
				logger.WarnContext(c.Context, "document not annotated", "title", doc.Title, "error", err)
			case err != nil:
				pg.Stop()
				return fmt.Errorf("failed to annotate doc %s: %w", doc.Title, err)
			default:
				doc = annotated
			}
		}

		if err := store.Write(doc); err != nil {
			pg.Stop()
			return fmt.Errorf("failed to write doc %s: %w", docMeta.Title, err)
		}
		count++
		bar.Incr()
	}
	pg.Stop()

	fmt.Fprintf(ui.Out, "Successfully imported %d docs from %s to %s\n", count, opts.From, opts.To)
	return nil
}
