package main

import (
	"errors"
	"path/filepath"

	"github.com/revelaction/diachron/storage/sqlite/zombiezen"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Pool opens each SQLite file once. The corpus and the report database may
// be the same file.
type Pool struct {
	p map[string]*sqlitex.Pool
}

func (p *Pool) Open(path string) (*sqlitex.Pool, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if pool, ok := p.p[key]; ok {
		return pool, nil
	}

	pool, err := zombiezen.NewPool(path)
	if err != nil {
		return nil, err
	}

	if p.p == nil {
		p.p = map[string]*sqlitex.Pool{}
	}
	p.p[key] = pool
	return pool, nil
}

func (p *Pool) Close() error {
	var errs []error
	for _, pool := range p.p {
		if err := pool.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.p = nil
	return errors.Join(errs...)
}
