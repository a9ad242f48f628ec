package datalake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/periplon/metis/engine/core"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS data_records (
	id TEXT PRIMARY KEY,
	data_lake TEXT NOT NULL,
	schema_name TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	created_by TEXT,
	metadata TEXT
)`

// DBStore is the Database write target (spec.md §4.5): a single
// `data_records` table indexed by (data_lake, schema_name, id); deletes are
// hard deletes here, unlike the tombstoned File target. Grounded on
// original_source/src/persistence/data_record_repository.rs's row shape
// and CRUD surface, and on engine/mockengine.DatabaseStrategy's
// database/sql-over-three-drivers connection handling.
type DBStore struct {
	db       *sql.DB
	ph       placeholderStyle
	initOnce sync.Once
	initErr  error
}

type placeholderStyle int

const (
	placeholderQuestion placeholderStyle = iota
	placeholderDollar
)

// NewDBStore opens (but does not yet migrate) a connection to url, one of
// sqlite://, postgres://|postgresql://, or mysql://.
func NewDBStore(url string) (*DBStore, error) {
	driver, dsn, ph := driverFor(url)
	if driver == "" {
		return nil, core.NewError(fmt.Errorf("unrecognized database url scheme %q", url), core.CodeStorage, nil)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("opening data lake database: %w", err), core.CodeStorage, nil)
	}
	return &DBStore{db: db, ph: ph}, nil
}

// driverFor maps a connection URL's scheme to a registered database/sql
// driver name, a driver-appropriate DSN, and that driver's placeholder
// style (duplicated in spirit from engine/mockengine.DatabaseStrategy's
// identical mapping — a different domain, ad hoc query execution there vs
// a fixed-schema record store here, so sharing one helper wasn't worth the
// coupling).
func driverFor(url string) (driver, dsn string, ph placeholderStyle) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return "sqlite", strings.TrimPrefix(url, "sqlite://"), placeholderQuestion
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "pgx", url, placeholderDollar
	case strings.HasPrefix(url, "mysql://"):
		return "mysql", strings.TrimPrefix(url, "mysql://"), placeholderQuestion
	default:
		return "", "", placeholderQuestion
	}
}

// q renders a positional placeholder (n is 1-based) in the connection's
// native style.
func (d *DBStore) q(n int) string {
	if d.ph == placeholderDollar {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d *DBStore) ensureTable(ctx context.Context) error {
	d.initOnce.Do(func() {
		_, d.initErr = d.db.ExecContext(ctx, createTableSQL)
	})
	if d.initErr != nil {
		return core.NewError(fmt.Errorf("creating data_records table: %w", d.initErr), core.CodeStorage, nil)
	}
	return nil
}

func (d *DBStore) Create(ctx context.Context, r DataRecord) error {
	if err := d.ensureTable(ctx); err != nil {
		return err
	}
	row := toRow(r)
	query := fmt.Sprintf(
		"INSERT INTO data_records (id, data_lake, schema_name, data, created_at, updated_at, created_by, metadata) "+
			"VALUES (%s, %s, %s, %s, %s, %s, %s, %s)",
		d.q(1), d.q(2), d.q(3), d.q(4), d.q(5), d.q(6), d.q(7), d.q(8),
	)
	_, err := d.db.ExecContext(
		ctx, query,
		row.ID, row.DataLake, row.SchemaName, row.Data, row.CreatedAt, row.UpdatedAt, row.CreatedBy, row.Metadata,
	)
	if err != nil {
		return core.NewError(fmt.Errorf("creating data record %q: %w", r.ID, err), core.CodeStorage, nil)
	}
	return nil
}

func (d *DBStore) Get(ctx context.Context, id string) (*DataRecord, error) {
	if err := d.ensureTable(ctx); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT id, data_lake, schema_name, data, created_at, updated_at, created_by, metadata "+
			"FROM data_records WHERE id = %s", d.q(1),
	)
	var row recordRow
	err := d.db.QueryRowContext(ctx, query, id).
		Scan(&row.ID, &row.DataLake, &row.SchemaName, &row.Data, &row.CreatedAt, &row.UpdatedAt, &row.CreatedBy, &row.Metadata)
	if err == sql.ErrNoRows {
		return nil, core.NewError(fmt.Errorf("data record %q not found", id), core.CodeNotFound, nil)
	}
	if err != nil {
		return nil, core.NewError(fmt.Errorf("reading data record %q: %w", id, err), core.CodeStorage, nil)
	}
	rec := fromRow(row)
	return &rec, nil
}

func (d *DBStore) List(ctx context.Context, lake, schema string, limit, offset int) ([]DataRecord, error) {
	if err := d.ensureTable(ctx); err != nil {
		return nil, err
	}
	var query string
	var args []any
	if schema != "" {
		query = fmt.Sprintf(
			"SELECT id, data_lake, schema_name, data, created_at, updated_at, created_by, metadata "+
				"FROM data_records WHERE data_lake = %s AND schema_name = %s ORDER BY created_at DESC LIMIT %s OFFSET %s",
			d.q(1), d.q(2), d.q(3), d.q(4),
		)
		args = []any{lake, schema, limit, offset}
	} else {
		query = fmt.Sprintf(
			"SELECT id, data_lake, schema_name, data, created_at, updated_at, created_by, metadata "+
				"FROM data_records WHERE data_lake = %s ORDER BY created_at DESC LIMIT %s OFFSET %s",
			d.q(1), d.q(2), d.q(3),
		)
		args = []any{lake, limit, offset}
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("listing data records for %q: %w", lake, err), core.CodeStorage, nil)
	}
	defer rows.Close()
	var out []DataRecord
	for rows.Next() {
		var row recordRow
		if err := rows.Scan(
			&row.ID, &row.DataLake, &row.SchemaName, &row.Data, &row.CreatedAt, &row.UpdatedAt, &row.CreatedBy, &row.Metadata,
		); err != nil {
			return nil, core.NewError(fmt.Errorf("scanning data record row: %w", err), core.CodeStorage, nil)
		}
		out = append(out, fromRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewError(fmt.Errorf("iterating data record rows: %w", err), core.CodeStorage, nil)
	}
	return out, nil
}

func (d *DBStore) Update(ctx context.Context, r DataRecord) error {
	if err := d.ensureTable(ctx); err != nil {
		return err
	}
	row := toRow(r)
	query := fmt.Sprintf(
		"UPDATE data_records SET data = %s, updated_at = %s, metadata = %s WHERE id = %s",
		d.q(1), d.q(2), d.q(3), d.q(4),
	)
	res, err := d.db.ExecContext(ctx, query, row.Data, row.UpdatedAt, row.Metadata, row.ID)
	if err != nil {
		return core.NewError(fmt.Errorf("updating data record %q: %w", r.ID, err), core.CodeStorage, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.NewError(fmt.Errorf("checking update result for %q: %w", r.ID, err), core.CodeStorage, nil)
	}
	if n == 0 {
		return core.NewError(fmt.Errorf("data record %q not found", r.ID), core.CodeNotFound, nil)
	}
	return nil
}

func (d *DBStore) Delete(ctx context.Context, id string) error {
	if err := d.ensureTable(ctx); err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM data_records WHERE id = %s", d.q(1))
	_, err := d.db.ExecContext(ctx, query, id)
	if err != nil {
		return core.NewError(fmt.Errorf("deleting data record %q: %w", id, err), core.CodeStorage, nil)
	}
	return nil
}

func (d *DBStore) Count(ctx context.Context, lake, schema string) (int, error) {
	if err := d.ensureTable(ctx); err != nil {
		return 0, err
	}
	var query string
	var args []any
	if schema != "" {
		query = fmt.Sprintf("SELECT COUNT(*) FROM data_records WHERE data_lake = %s AND schema_name = %s", d.q(1), d.q(2))
		args = []any{lake, schema}
	} else {
		query = fmt.Sprintf("SELECT COUNT(*) FROM data_records WHERE data_lake = %s", d.q(1))
		args = []any{lake}
	}
	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, core.NewError(fmt.Errorf("counting data records for %q: %w", lake, err), core.CodeStorage, nil)
	}
	return count, nil
}

func (d *DBStore) Close() error {
	return d.db.Close()
}
