package main

import (
	"github.com/urfave/cli/v2"

	"github.com/revelaction/diachron/config"
	"github.com/revelaction/diachron/query"
)

func inspectCommand(c *cli.Context, cfg *config.Config, color bool, ui UI) error {
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

	h := query.NewHandler(repo, classifier, newRenderer(ui.Out, color))
	h.Annotator = lexicon

	// now present the REPL
	return h.Run(c.Context, query.Suggestions(cfg.Rules()))
}
