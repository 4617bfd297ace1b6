package zombiezen

import (
	"context"
	"embed"
	"fmt"
	"path"

	"zombiezen.com/go/sqlite/sqlitex"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

const (
	docsSchema    = "docs.sql"
	reportsSchema = "reports.sql"
)

// CreateSchemas executes the embedded SQL script schemaName ("docs.sql" or
// "reports.sql"). Scripts are idempotent.
func CreateSchemas(pool *sqlitex.Pool, schemaName string) error {
	scriptPath := path.Join("sql", schemaName)

	script, err := sqlFiles.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to read embedded sql file %s: %w", scriptPath, err)
	}

	conn, err := pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, string(script), nil); err != nil {
		return fmt.Errorf("failed to execute script %s: %w", schemaName, err)
	}

	return nil
}

func CreateDocTables(pool *sqlitex.Pool) error {
	return CreateSchemas(pool, docsSchema)
}

func CreateReportTables(pool *sqlitex.Pool) error {
	return CreateSchemas(pool, reportsSchema)
}
