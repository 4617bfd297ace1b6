package main

import (
	"fmt"
	"os"

	"github.com/revelaction/diachron/config"
	"github.com/revelaction/diachron/storage"
	"github.com/revelaction/diachron/storage/filesystem"
	"github.com/revelaction/diachron/storage/sqlite/zombiezen"
)

// NewDocRepository opens the corpus: a directory is read with the filesystem
// store, any other file is a SQLite database.
func NewDocRepository(p *Pool, cfg *config.Config) (storage.DocRepository, error) {
	info, err := os.Stat(cfg.Corpus)
	if err != nil {
		return nil, fmt.Errorf("corpus not found: %s", cfg.Corpus)
	}

	if info.IsDir() {
		return filesystem.NewDocStore(cfg.Corpus, periodLanguages(cfg))
	}

	pool, err := p.Open(cfg.Corpus)
	if err != nil {
		return nil, err
	}
	return zombiezen.NewDocStore(pool), nil
}

// NewReportRepository opens the report database, creating its tables.
func NewReportRepository(p *Pool, path string) (storage.ReportRepository, error) {
	pool, err := p.Open(path)
	if err != nil {
		return nil, err
	}

	if err := zombiezen.CreateReportTables(pool); err != nil {
		return nil, fmt.Errorf("failed to create report tables: %w", err)
	}

	return zombiezen.NewReportStore(pool), nil
}

func periodLanguages(cfg *config.Config) map[string]string {
	m := make(map[string]string, len(cfg.Periods))
	for _, p := range cfg.Periods {
		m[p.Name] = p.Language
	}
	return m
}
