package mockengine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
)

// DatabaseStrategy runs a Tool's Database-strategy query against one of the
// three supported drivers (spec.md §4.1), caching connections per URL since
// spec.md §5 treats each as a long-lived pool, not a per-call resource.
type DatabaseStrategy struct {
	mu    sync.Mutex
	conns map[string]*sql.DB
}

func NewDatabaseStrategy() *DatabaseStrategy {
	return &DatabaseStrategy{conns: make(map[string]*sql.DB)}
}

func (d *DatabaseStrategy) connFor(url string) (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if db, ok := d.conns[url]; ok {
		return db, nil
	}
	driver, dsn := driverFor(url)
	if driver == "" {
		return nil, core.NewError(fmt.Errorf("unrecognized database url scheme %q", url), core.CodeStrategyFailure, nil)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("failed to open database connection: %w", err), core.CodeStrategyFailure, nil)
	}
	d.conns[url] = db
	return db, nil
}

// driverFor maps a connection URL's scheme to a registered database/sql
// driver name and a driver-appropriate DSN.
func driverFor(url string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return "sqlite", strings.TrimPrefix(url, "sqlite://")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "pgx", url
	case strings.HasPrefix(url, "mysql://"):
		return "mysql", strings.TrimPrefix(url, "mysql://")
	default:
		return "", ""
	}
}

// Query runs cfg.Query against cfg.URL, binding cfg.Parameters by looking
// each named argument up in args in declared order, and returns the result
// rows as an array of column-name-keyed objects.
func (d *DatabaseStrategy) Query(ctx context.Context, cfg *config.MockConfig, args map[string]any) (any, error) {
	db, err := d.connFor(cfg.URL)
	if err != nil {
		return nil, err
	}
	bound := make([]any, len(cfg.Parameters))
	for i, name := range cfg.Parameters {
		bound[i] = args[name]
	}
	rows, err := db.QueryContext(ctx, cfg.Query, bound...)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("database query failed: %w", err), core.CodeStrategyFailure, nil)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, core.NewError(fmt.Errorf("failed to read result columns: %w", err), core.CodeStrategyFailure, nil)
	}
	results := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, core.NewError(fmt.Errorf("failed to scan result row: %w", err), core.CodeStrategyFailure, nil)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewError(fmt.Errorf("error iterating result rows: %w", err), core.CodeStrategyFailure, nil)
	}
	return results, nil
}

// Close releases every cached connection.
func (d *DatabaseStrategy) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var firstErr error
	for url, db := range d.conns {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(d.conns, url)
	}
	return firstErr
}
