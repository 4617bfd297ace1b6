package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/diachron/search"
	"github.com/revelaction/diachron/storage"
)

func determinersCommand(c *cli.Context, opts DeterminersOptions, ui UI) error {
	cfg := opts.Config

	pool := &Pool{}
	defer pool.Close()

	repo, err := NewDocRepository(pool, cfg)
	if err != nil {
		return err
	}

	classifier, err := newClassifier(cfg)
	if err != nil {
		return err
	}

	lexicon, err := loadLexicon(cfg)
	if err != nil {
		return err
	}
	defer lexicon.Close()

	s := search.New(repo, classifier).WithAnnotator(lexicon)
	if opts.Doc != nil {
		s = s.WithDocID(*opts.Doc)
	}

	r := newRenderer(ui.Out, !opts.NoColor)

	n := 0
	cursor := storage.Cursor(0)
	for {
		newCursor, err := s.Determiners(c.Context, opts.Lemmas, cursor, 500, func(hit search.Hit) error {
			n++
			_, err := fmt.Fprintf(ui.Out, "%-20s %s\n", hit.Title, r.Decision(hit.Sentence, hit.Token, hit.Decision))
			return err
		})
		if err != nil {
			return err
		}
		if newCursor == cursor {
			break
		}
		cursor = newCursor
	}

	fmt.Fprintf(ui.Out, "✍  %d determiners\n", n)
	return nil
}
