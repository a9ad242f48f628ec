package sqlquery

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
	"github.com/periplon/metis/engine/datalake"
)

const createTableDDL = `CREATE TABLE %s (
	id TEXT, data_lake TEXT, schema_name TEXT, data TEXT, created_at TEXT, updated_at TEXT, created_by TEXT, metadata TEXT
)`

// Engine is the SQL Query Layer runtime (spec.md §4.6). It republishes a
// DataLake schema's active record set into an in-process SQLite table on
// each Register call, so consumers always see a fresh snapshot at query
// time, and rejects any statement the write-keyword/builder guard flags.
// SQLite's bundled JSON1 extension (`json_extract`) is this engine's
// JSON-path UDF surface for reaching into the `data`/`metadata` columns.
type Engine struct {
	lakes *datalake.Manager
	snap  *config.Snapshot
	db    *sql.DB

	mu     sync.Mutex
	locks  *keyLocks
	tables map[string]bool // registered table names, for teardown on re-register
}

func NewEngine(snap *config.Snapshot, lakes *datalake.Manager) (*Engine, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, core.NewError(fmt.Errorf("opening sql query engine: %w", err), core.CodeStorage, nil)
	}
	return &Engine{snap: snap, lakes: lakes, db: db, locks: newKeyLocks(), tables: make(map[string]bool)}, nil
}

// Register publishes DataLake lake's schema as a queryable table, failing
// if the lake does not have sql_queries_enabled set. Concurrent
// registrations for the same (lake, schema) key are serialized (spec.md
// §5); re-registering re-reads the active set so the table is fresh.
func (e *Engine) Register(ctx context.Context, lakeName, schemaName string) (string, error) {
	cfg, ok := e.snap.DataLakes[lakeName]
	if !ok {
		return "", core.NewError(fmt.Errorf("data lake %q not found", lakeName), core.CodeNotFound, nil)
	}
	if !cfg.SQLQueriesEnabled {
		return "", core.NewError(fmt.Errorf("data lake %q does not have sql_queries_enabled", lakeName), core.CodeInvalidRequest, nil)
	}
	key := lakeName + "/" + schemaName
	lock := e.locks.get(key)
	lock.Lock()
	defer lock.Unlock()

	lake, err := e.lakes.Lake(lakeName)
	if err != nil {
		return "", err
	}
	records, err := lake.ReadActiveRecords(ctx, schemaName)
	if err != nil {
		return "", err
	}

	table := tableName(lakeName, schemaName)
	quoted := quoteIdent(table)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tables[table] {
		if _, err := e.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE %s", quoted)); err != nil {
			return "", core.NewError(fmt.Errorf("dropping stale table %s: %w", table, err), core.CodeStorage, nil)
		}
	}
	if _, err := e.db.ExecContext(ctx, fmt.Sprintf(createTableDDL, quoted)); err != nil {
		return "", core.NewError(fmt.Errorf("creating table %s: %w", table, err), core.CodeStorage, nil)
	}
	e.tables[table] = true

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (id, data_lake, schema_name, data, created_at, updated_at, created_by, metadata) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		quoted,
	)
	for _, r := range records {
		var metadata any
		if len(r.Metadata) > 0 {
			metadata = string(r.Metadata)
		}
		var createdBy any
		if r.CreatedBy != nil {
			createdBy = *r.CreatedBy
		}
		if _, err := e.db.ExecContext(
			ctx, insertSQL,
			r.ID, r.DataLake, r.SchemaName, string(r.Data), r.CreatedAt, r.UpdatedAt, createdBy, metadata,
		); err != nil {
			return "", core.NewError(fmt.Errorf("populating table %s: %w", table, err), core.CodeStorage, nil)
		}
	}
	return table, nil
}

// Query runs sql against already-registered tables, rejecting anything the
// write-keyword/builder guard flags.
func (e *Engine) Query(ctx context.Context, query string) ([]map[string]any, error) {
	if err := checkGuard(query); err != nil {
		return nil, err
	}
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("executing query: %w", err), core.CodeStorage, nil)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, core.NewError(fmt.Errorf("reading result columns: %w", err), core.CodeStorage, nil)
	}
	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, core.NewError(fmt.Errorf("scanning result row: %w", err), core.CodeStorage, nil)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewError(fmt.Errorf("iterating result rows: %w", err), core.CodeStorage, nil)
	}
	return results, nil
}

// QueryDataLake registers lake/schema then runs sql against it, replacing
// the literal `$table` placeholder with the registered table's quoted
// identifier (grounded on original_source's query_data_lake's `$table`
// substitution).
func (e *Engine) QueryDataLake(ctx context.Context, lakeName, schemaName, query string) ([]map[string]any, error) {
	table, err := e.Register(ctx, lakeName, schemaName)
	if err != nil {
		return nil, err
	}
	return e.Query(ctx, replaceTablePlaceholder(query, quoteIdent(table)))
}

func replaceTablePlaceholder(query, table string) string {
	const placeholder = "$table"
	out := make([]byte, 0, len(query))
	for i := 0; i < len(query); {
		if i+len(placeholder) <= len(query) && query[i:i+len(placeholder)] == placeholder {
			out = append(out, table...)
			i += len(placeholder)
			continue
		}
		out = append(out, query[i])
		i++
	}
	return string(out)
}

func (e *Engine) Close() error {
	return e.db.Close()
}
