package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/revelaction/diachron/classify"
	"github.com/revelaction/diachron/compare"
	"github.com/revelaction/diachron/construction"
	"github.com/revelaction/diachron/stat"
)

const (
	BaseConfigFile       = "diachron.toml"
	OverlayConfigPattern = "diachron.%s.toml"

	EnvDiachronEnv       = "DIACHRON_ENV"
	EnvDiachronCorpus    = "DIACHRON_CORPUS"
	EnvDiachronDatabase  = "DIACHRON_DATABASE"
	EnvDiachronWorkers   = "DIACHRON_WORKERS"
	EnvDiachronSeed      = "DIACHRON_SEED"
	EnvDiachronResamples = "DIACHRON_RESAMPLES"
	EnvDiachronWindow    = "DIACHRON_WINDOW"
)

// Config is the root configuration of an analysis run.
type Config struct {
	// Corpus is a period directory tree or a SQLite database.
	Corpus string `toml:"corpus"`

	// Database stores the reports of past runs.
	Database string `toml:"database"`

	Workers int `toml:"workers"`

	// Metrics are the counts compared across periods.
	Metrics []string `toml:"metrics"`

	// Periods in chronological order.
	Periods []Period `toml:"periods"`

	// Languages overrides or extends the built-in classifier rule sets.
	Languages map[string]classify.Rules `toml:"languages"`

	// Lexicons maps a language code to a lexicon file.
	Lexicons map[string]string `toml:"lexicons"`

	Construction ConstructionConfig `toml:"construction"`
	Bootstrap    BootstrapConfig    `toml:"bootstrap"`
}

// Period binds a period name to the language of its texts.
type Period struct {
	Name     string `toml:"name"`
	Language string `toml:"language"`
}

type ConstructionConfig struct {
	Window int `toml:"window"`

	// Languages undergoing the synthetic to analytical shift.
	Languages []string `toml:"languages"`
}

type BootstrapConfig struct {
	Resamples    int     `toml:"resamples"`
	Lower        float64 `toml:"lower"`
	Upper        float64 `toml:"upper"`
	Seed         uint64  `toml:"seed"`
	MinReliableN int     `toml:"min_reliable_n"`
}

// Env returns the DIACHRON_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvDiachronEnv); env != "" {
		return env
	}
	return "local"
}

// Load reads the base config at path (if present), applies the environment
// overlay next to it and finalizes all values. Without a config file,
// defaults and environment variables provide all configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		path = BaseConfigFile
	}

	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(filepath.Dir(path)); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Default returns the finalized configuration without any file.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Corpus != "" {
		c.Corpus = overlay.Corpus
	}
	if overlay.Database != "" {
		c.Database = overlay.Database
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if len(overlay.Metrics) > 0 {
		c.Metrics = overlay.Metrics
	}
	if len(overlay.Periods) > 0 {
		c.Periods = overlay.Periods
	}

	for lang, r := range overlay.Languages {
		if c.Languages == nil {
			c.Languages = map[string]classify.Rules{}
		}
		c.Languages[lang] = r
	}

	for lang, path := range overlay.Lexicons {
		if c.Lexicons == nil {
			c.Lexicons = map[string]string{}
		}
		c.Lexicons[lang] = path
	}

	c.Construction.Merge(&overlay.Construction)
	c.Bootstrap.Merge(&overlay.Bootstrap)
}

func (c *ConstructionConfig) Merge(overlay *ConstructionConfig) {
	if overlay.Window != 0 {
		c.Window = overlay.Window
	}
	if len(overlay.Languages) > 0 {
		c.Languages = overlay.Languages
	}
}

func (c *BootstrapConfig) Merge(overlay *BootstrapConfig) {
	if overlay.Resamples != 0 {
		c.Resamples = overlay.Resamples
	}
	if overlay.Lower != 0 {
		c.Lower = overlay.Lower
	}
	if overlay.Upper != 0 {
		c.Upper = overlay.Upper
	}
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
	if overlay.MinReliableN != 0 {
		c.MinReliableN = overlay.MinReliableN
	}
}

// Rules returns the built-in rule sets with the configured languages on top.
func (c *Config) Rules() map[string]classify.Rules {
	rules := classify.DefaultRules()
	for lang, r := range c.Languages {
		rules[lang] = r
	}
	return rules
}

// PeriodNames returns the configured periods in chronological order.
func (c *Config) PeriodNames() []string {
	names := make([]string, len(c.Periods))
	for i, p := range c.Periods {
		names[i] = p.Name
	}
	return names
}

// PeriodLanguage returns the language of the named period.
func (c *Config) PeriodLanguage(name string) (string, bool) {
	for _, p := range c.Periods {
		if p.Name == name {
			return p.Language, true
		}
	}
	return "", false
}

// CompareOptions returns the statistics engine options.
func (c *Config) CompareOptions() compare.Options {
	return compare.Options{
		Resamples:    c.Bootstrap.Resamples,
		Lower:        c.Bootstrap.Lower,
		Upper:        c.Bootstrap.Upper,
		Seed:         c.Bootstrap.Seed,
		MinReliableN: c.Bootstrap.MinReliableN,
	}
}

func (c *Config) finalize() error {
	c.loadDefaults()

	if err := c.loadEnv(); err != nil {
		return err
	}

	return c.validate()
}

func (c *Config) loadDefaults() {
	if c.Corpus == "" {
		c.Corpus = "corpus"
	}
	if c.Database == "" {
		c.Database = "diachron.db"
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if len(c.Metrics) == 0 {
		c.Metrics = stat.CountNames()
	}
	if len(c.Periods) == 0 {
		c.Periods = []Period{
			{Name: "classical_latin", Language: "la"},
			{Name: "medieval_latin", Language: "la"},
			{Name: "early_spanish", Language: "es"},
		}
	}

	if c.Construction.Window == 0 {
		c.Construction.Window = construction.DefaultWindow
	}
	if len(c.Construction.Languages) == 0 {
		c.Construction.Languages = []string{"la"}
	}

	if c.Bootstrap.Resamples == 0 {
		c.Bootstrap.Resamples = compare.DefaultResamples
	}
	if c.Bootstrap.Lower == 0 && c.Bootstrap.Upper == 0 {
		c.Bootstrap.Lower = compare.DefaultLower
		c.Bootstrap.Upper = compare.DefaultUpper
	}
	if c.Bootstrap.MinReliableN == 0 {
		c.Bootstrap.MinReliableN = compare.DefaultMinReliableN
	}
}

func (c *Config) loadEnv() error {
	if v := os.Getenv(EnvDiachronCorpus); v != "" {
		c.Corpus = v
	}
	if v := os.Getenv(EnvDiachronDatabase); v != "" {
		c.Database = v
	}

	if v := os.Getenv(EnvDiachronWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDiachronWorkers, err)
		}
		c.Workers = n
	}

	if v := os.Getenv(EnvDiachronSeed); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDiachronSeed, err)
		}
		c.Bootstrap.Seed = n
	}

	if v := os.Getenv(EnvDiachronResamples); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDiachronResamples, err)
		}
		c.Bootstrap.Resamples = n
	}

	if v := os.Getenv(EnvDiachronWindow); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDiachronWindow, err)
		}
		c.Construction.Window = n
	}

	return nil
}

func (c *Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("invalid workers %d: must be at least 1", c.Workers)
	}
	if c.Construction.Window < 1 {
		return fmt.Errorf("invalid construction window %d", c.Construction.Window)
	}
	if c.Bootstrap.Resamples < 1 {
		return fmt.Errorf("invalid bootstrap resamples %d", c.Bootstrap.Resamples)
	}
	if c.Bootstrap.Lower < 0 || c.Bootstrap.Upper > 100 || c.Bootstrap.Lower >= c.Bootstrap.Upper {
		return fmt.Errorf("invalid bootstrap bounds [%v, %v]", c.Bootstrap.Lower, c.Bootstrap.Upper)
	}

	known := stat.CountNames()
	for _, m := range c.Metrics {
		if !slices.Contains(known, m) {
			return fmt.Errorf("%w: metric %q", stat.ErrUnknownCount, m)
		}
	}

	rules := c.Rules()
	if _, err := classify.New(rules); err != nil {
		return fmt.Errorf("languages: %w", err)
	}

	seen := map[string]bool{}
	for _, p := range c.Periods {
		if p.Name == "" {
			return fmt.Errorf("period without name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate period %q", p.Name)
		}
		seen[p.Name] = true

		if _, ok := rules[p.Language]; !ok {
			return fmt.Errorf("period %q: %w: %q", p.Name, classify.ErrUnsupportedLanguage, p.Language)
		}
	}

	for _, lang := range c.Construction.Languages {
		if _, ok := rules[lang]; !ok {
			return fmt.Errorf("construction: %w: %q", classify.ErrUnsupportedLanguage, lang)
		}
	}

	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvDiachronEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
