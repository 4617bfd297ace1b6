package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/diachron/config"
	"github.com/revelaction/diachron/render"
)

// UI contains the output streams for the application.
// Used for injecting buffers during testing.
type UI struct {
	Out io.Writer
	Err io.Writer
}

func main() {
	ui := UI{Out: os.Stdout, Err: os.Stderr}

	if err := newApp(ui).Run(os.Args); err != nil {
		fprintErr(ui.Err, err)
		os.Exit(1)
	}
}

func fprintErr(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "diachron: %v\n", err)
}

func newApp(ui UI) *cli.App {
	return &cli.App{
		Name:      "diachron",
		Usage:     "Track article emergence and analytical constructions across historical periods",
		Writer:    ui.Out,
		ErrWriter: ui.Err,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.BaseConfigFile,
				EnvVars: []string{"DIACHRON_CONFIG"},
				Usage:   "Path to the TOML configuration file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log per document details",
			},
		},
		// errors are printed once by main
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "Classify, aggregate and compare all documents of the corpus",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "corpus", Aliases: []string{"d"}, Usage: "Corpus directory or SQLite file (overrides config)"},
					&cli.StringFlag{Name: "database", Usage: "SQLite file for the run reports (overrides config)"},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Documents analyzed concurrently (overrides config)"},
					&cli.Uint64Flag{Name: "seed", Usage: "Bootstrap seed (overrides config)"},
					formatFlag(),
					&cli.BoolFlag{Name: "candidates", Usage: "List the construction candidates of every document"},
					&cli.BoolFlag{Name: "features", Usage: "List the verb feature counts of every document"},
					&cli.BoolFlag{Name: "no-color", Usage: "Show the report without formatting (color)"},
					&cli.BoolFlag{Name: "no-save", Usage: "Do not store the report"},
					&cli.BoolFlag{Name: "no-progress", Usage: "Do not show progress bars"},
				},
				Action: func(c *cli.Context) error {
					opts, err := parseAnalyzeArgs(c)
					if err != nil {
						return err
					}
					return analyzeCommand(c, opts, ui)
				},
			},
			{
				Name:      "determiners",
				Usage:     "Explain the classification of determiner lemmas",
				ArgsUsage: "<lemma> ...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "corpus", Aliases: []string{"d"}, Usage: "Corpus directory or SQLite file (overrides config)"},
					&cli.IntFlag{Name: "doc", Value: -1, Usage: "Limit the search to the doc with this id"},
					&cli.BoolFlag{Name: "no-color", Usage: "Show matches without formatting (color)"},
				},
				Action: func(c *cli.Context) error {
					opts, err := parseDeterminersArgs(c)
					if err != nil {
						return err
					}
					return determinersCommand(c, opts, ui)
				},
			},
			{
				Name:  "inspect",
				Usage: "Interactive determiner diagnosis",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "corpus", Aliases: []string{"d"}, Usage: "Corpus directory or SQLite file (overrides config)"},
					&cli.BoolFlag{Name: "no-color", Usage: "Show matches without formatting (color)"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					if corpus := c.String("corpus"); corpus != "" {
						cfg.Corpus = corpus
					}
					return inspectCommand(c, cfg, !c.Bool("no-color"), ui)
				},
			},
			{
				Name:  "import-doc",
				Usage: "Import the corpus directory into a SQLite file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "Corpus directory (default: config corpus)"},
					&cli.StringFlag{Name: "to", Required: true, Usage: "SQLite file"},
					&cli.BoolFlag{Name: "annotate", Usage: "Annotate raw texts with the configured lexicons"},
					&cli.BoolFlag{Name: "no-progress", Usage: "Do not show progress bars"},
				},
				Action: func(c *cli.Context) error {
					opts, err := parseImportDocArgs(c)
					if err != nil {
						return err
					}
					return importDocCommand(c, opts, ui)
				},
			},
			{
				Name:      "runs",
				Usage:     "List stored runs, or show the report of one run",
				ArgsUsage: "[run id]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "database", Usage: "SQLite file for the run reports (overrides config)"},
					formatFlag(),
					&cli.BoolFlag{Name: "no-color", Usage: "Show the report without formatting (color)"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					if db := c.String("database"); db != "" {
						cfg.Database = db
					}
					if c.NArg() > 1 {
						return fmt.Errorf("runs command accepts at most one argument")
					}
					return runsCommand(cfg.Database, c.Args().First(), c.String("format"), !c.Bool("no-color"), ui)
				},
			},
			{
				Name:  "version",
				Usage: "Show the version",
				Action: func(c *cli.Context) error {
					return versionCommand(ui)
				},
			},
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   formatText,
		Usage:   "Output format: " + formatText + " or " + formatJSON,
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(c.String("config"))
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newRenderer(w io.Writer, color bool) *render.Renderer {
	r := render.NewRenderer(w)
	r.HasColor = color
	return r
}
