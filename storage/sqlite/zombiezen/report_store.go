package zombiezen

import (
	"context"
	"fmt"
	"time"

	"github.com/revelaction/diachron/storage"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// createdLayout sorts lexically in chronological order.
const createdLayout = "2006-01-02T15:04:05.000000000Z"

type ReportStore struct {
	pool *sqlitex.Pool
}

var _ storage.ReportRepository = (*ReportStore)(nil)

func NewReportStore(pool *sqlitex.Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

func (h *ReportStore) WriteReport(run storage.Run, payload []byte) error {
	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer h.pool.Put(conn)

	err = sqlitex.Execute(conn, "INSERT INTO runs (id, created, seed, num_docs, payload) VALUES (?, ?, ?, ?, ?)", &sqlitex.ExecOptions{
		Args: []interface{}{
			run.Id,
			run.Created.UTC().Format(createdLayout),
			int64(run.Seed),
			run.NumDocs,
			string(payload),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.Id, err)
	}

	return nil
}

func (h *ReportStore) Runs() ([]storage.Run, error) {
	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer h.pool.Put(conn)

	var runs []storage.Run
	err = sqlitex.Execute(conn, "SELECT id, created, seed, num_docs FROM runs ORDER BY created DESC", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			created, err := time.Parse(createdLayout, stmt.ColumnText(1))
			if err != nil {
				return fmt.Errorf("run %s: %w", stmt.ColumnText(0), err)
			}

			runs = append(runs, storage.Run{
				Id:      stmt.ColumnText(0),
				Created: created,
				Seed:    uint64(stmt.ColumnInt64(2)),
				NumDocs: stmt.ColumnInt(3),
			})
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	return runs, nil
}

func (h *ReportStore) Report(id string) ([]byte, error) {
	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer h.pool.Put(conn)

	var payload []byte
	found := false
	err = sqlitex.Execute(conn, "SELECT payload FROM runs WHERE id = ?", &sqlitex.ExecOptions{
		Args: []interface{}{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			payload = []byte(stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: run %s", storage.ErrNotFound, id)
	}

	return payload, nil
}
