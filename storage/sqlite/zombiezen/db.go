package zombiezen

import (
	"errors"
	"fmt"
	"runtime"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// connection pragmas: cascade deletes of replaced docs need foreign keys
var pragmas = []string{
	"PRAGMA foreign_keys = ON;",
	"PRAGMA busy_timeout = 5000;",
}

// NewPool opens a pool on the SQLite file at dbPath, creating the file when
// missing. Every connection enforces foreign keys.
func NewPool(dbPath string) (*sqlitex.Pool, error) {
	if dbPath == "" {
		return nil, errors.New("empty database path")
	}

	// default flags: OpenReadWrite | OpenCreate | OpenWAL | OpenURI
	pool, err := sqlitex.NewPool("file:"+dbPath, sqlitex.PoolOptions{
		PoolSize: runtime.NumCPU(),
		PrepareConn: func(conn *sqlite.Conn) error {
			for _, p := range pragmas {
				if err := sqlitex.ExecuteTransient(conn, p, nil); err != nil {
					return err
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	return pool, nil
}
