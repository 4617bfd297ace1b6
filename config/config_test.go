package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/revelaction/diachron/classify"
	"github.com/revelaction/diachron/config"
	"github.com/revelaction/diachron/stat"
)

const baseConfig = `
corpus = "texts"
workers = 4
metrics = ["articles", "constructions"]

[[periods]]
name = "classical_latin"
language = "la"

[[periods]]
name = "old_portuguese"
language = "pt"

[construction]
window = 4
languages = ["la", "pt"]

[bootstrap]
resamples = 500
seed = 42

[lexicons]
la = "lexicon/la.tsv"

[languages.ro]
strategy = "articled"

[languages.ro.lists]
definite = ["ul"]
indefinite = ["un", "o"]
`

const overlayConfig = `
workers = 8

[bootstrap]
resamples = 2000
`

func writeConfig(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "diachron.toml", baseConfig)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Corpus != "texts" {
		t.Errorf("corpus: got %s, want texts", cfg.Corpus)
	}
	if cfg.Workers != 4 {
		t.Errorf("workers: got %d, want 4", cfg.Workers)
	}
	if len(cfg.Metrics) != 2 || cfg.Metrics[1] != stat.CountConstructions {
		t.Errorf("metrics: got %v", cfg.Metrics)
	}
	if names := cfg.PeriodNames(); len(names) != 2 || names[1] != "old_portuguese" {
		t.Errorf("periods: got %v", names)
	}
	if lang, ok := cfg.PeriodLanguage("old_portuguese"); !ok || lang != "pt" {
		t.Errorf("period language: got %s %v", lang, ok)
	}
	if cfg.Construction.Window != 4 {
		t.Errorf("window: got %d, want 4", cfg.Construction.Window)
	}
	if cfg.Lexicons["la"] != "lexicon/la.tsv" {
		t.Errorf("lexicons: got %v", cfg.Lexicons)
	}

	opts := cfg.CompareOptions()
	if opts.Resamples != 500 || opts.Seed != 42 || opts.Lower != 2.5 || opts.Upper != 97.5 {
		t.Errorf("compare options: got %+v", opts)
	}

	rules := cfg.Rules()
	if rules["ro"].Strategy != classify.Articled || len(rules["ro"].Lists.Indefinite) != 2 {
		t.Errorf("ro rules: got %+v", rules["ro"])
	}
	if _, ok := rules["la"]; !ok {
		t.Errorf("built-in rules lost")
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "diachron.toml", baseConfig)
	writeConfig(t, dir, "diachron.staging.toml", overlayConfig)

	t.Setenv("DIACHRON_ENV", "staging")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Workers != 8 {
		t.Errorf("workers: got %d, want 8 (from overlay)", cfg.Workers)
	}
	if cfg.Bootstrap.Resamples != 2000 {
		t.Errorf("resamples: got %d, want 2000 (from overlay)", cfg.Bootstrap.Resamples)
	}
	if cfg.Bootstrap.Seed != 42 {
		t.Errorf("seed: got %d, want 42 (from base)", cfg.Bootstrap.Seed)
	}
	if cfg.Env() != "staging" {
		t.Errorf("env: got %s", cfg.Env())
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "diachron.toml", baseConfig)

	t.Setenv("DIACHRON_SEED", "7")
	t.Setenv("DIACHRON_WINDOW", "2")
	t.Setenv("DIACHRON_CORPUS", "/data/corpus")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Bootstrap.Seed != 7 {
		t.Errorf("seed: got %d, want 7", cfg.Bootstrap.Seed)
	}
	if cfg.Construction.Window != 2 {
		t.Errorf("window: got %d, want 2", cfg.Construction.Window)
	}
	if cfg.Corpus != "/data/corpus" {
		t.Errorf("corpus: got %s", cfg.Corpus)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load without config file failed: %v", err)
	}

	if cfg.Workers != 1 || cfg.Construction.Window != 3 || cfg.Bootstrap.Resamples != 1000 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Metrics) != len(stat.CountNames()) {
		t.Errorf("metrics default: got %v", cfg.Metrics)
	}
	if names := cfg.PeriodNames(); len(names) != 3 || names[0] != "classical_latin" || names[2] != "early_spanish" {
		t.Errorf("periods default: got %v", names)
	}
	if cfg.Env() != "local" {
		t.Errorf("env default: got %s", cfg.Env())
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		target  error
	}{
		{"unknown metric", `metrics = ["nouns"]`, stat.ErrUnknownCount},
		{"unsupported period language", "[[periods]]\nname = \"old_english\"\nlanguage = \"ang\"", classify.ErrUnsupportedLanguage},
		{"unsupported construction language", "[construction]\nlanguages = [\"grc\"]", classify.ErrUnsupportedLanguage},
		{"bad bounds", "[bootstrap]\nlower = 90.0\nupper = 10.0", nil},
		{"bad strategy", "[languages.xx]\nstrategy = \"agglutinative\"", nil},
		{"duplicate period", "[[periods]]\nname = \"a\"\nlanguage = \"la\"\n[[periods]]\nname = \"a\"\nlanguage = \"la\"", nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "diachron.toml", c.content)

			_, err := config.Load(path)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if c.target != nil && !errors.Is(err, c.target) {
				t.Errorf("expected %v, got %v", c.target, err)
			}
		})
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("DIACHRON_WORKERS", "many")

	if _, err := config.Default(); err == nil {
		t.Errorf("expected error for non numeric workers")
	}
}
