package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/diachron/config"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// Option structs for subcommands that have flags
type AnalyzeOptions struct {
	Config     *config.Config
	Format     string
	Candidates bool
	Features   bool
	NoColor    bool
	NoSave     bool
	NoProgress bool
	Verbose    bool
}

type DeterminersOptions struct {
	Config  *config.Config
	Lemmas  []string
	Doc     *int // nil = not set
	NoColor bool
}

type ImportDocOptions struct {
	Config     *config.Config
	From       string
	To         string
	Annotate   bool
	NoProgress bool
}

func parseAnalyzeArgs(c *cli.Context) (AnalyzeOptions, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return AnalyzeOptions{}, err
	}

	if v := c.String("corpus"); v != "" {
		cfg.Corpus = v
	}
	if v := c.String("database"); v != "" {
		cfg.Database = v
	}
	if c.IsSet("workers") {
		if c.Int("workers") < 1 {
			return AnalyzeOptions{}, errors.New("workers must be at least 1")
		}
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("seed") {
		cfg.Bootstrap.Seed = c.Uint64("seed")
	}

	opts := AnalyzeOptions{
		Config:     cfg,
		Format:     c.String("format"),
		Candidates: c.Bool("candidates"),
		Features:   c.Bool("features"),
		NoColor:    c.Bool("no-color"),
		NoSave:     c.Bool("no-save"),
		NoProgress: c.Bool("no-progress"),
		Verbose:    c.Bool("verbose"),
	}

	if err := checkFormat(opts.Format); err != nil {
		return opts, err
	}

	return opts, nil
}

func parseDeterminersArgs(c *cli.Context) (DeterminersOptions, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return DeterminersOptions{}, err
	}

	if v := c.String("corpus"); v != "" {
		cfg.Corpus = v
	}

	opts := DeterminersOptions{
		Config:  cfg,
		Lemmas:  c.Args().Slice(),
		NoColor: c.Bool("no-color"),
	}

	if id := c.Int("doc"); id >= 0 {
		opts.Doc = &id
	}

	if opts.Doc == nil && len(opts.Lemmas) == 0 {
		return opts, errors.New("determiners command needs at least one lemma or --doc")
	}

	return opts, nil
}

func parseImportDocArgs(c *cli.Context) (ImportDocOptions, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return ImportDocOptions{}, err
	}

	opts := ImportDocOptions{
		Config:     cfg,
		From:       c.String("from"),
		To:         c.String("to"),
		Annotate:   c.Bool("annotate"),
		NoProgress: c.Bool("no-progress"),
	}

	if opts.From == "" {
		opts.From = cfg.Corpus
	}

	if opts.From == opts.To {
		return opts, fmt.Errorf("source and destination are the same: %s", opts.From)
	}

	return opts, nil
}

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	}
	return fmt.Errorf("allowed formats are %s, %s", formatText, formatJSON)
}
