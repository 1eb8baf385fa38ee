// Package store persists classified tables in SQLite so they can be
// exported or served later.
//
//	s, err := store.Open("tables.db")
//	id, err := s.SaveTable(ctx, ct)
//	rec, err := s.GetTable(ctx, id)
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tsawler/tabsift/export"
	"github.com/tsawler/tabsift/model"
)

// ErrNotFound is returned when no table has the requested id.
var ErrNotFound = errors.New("table not found")

const schema = `
CREATE TABLE IF NOT EXISTS tables (
	id          TEXT PRIMARY KEY,
	source_file TEXT NOT NULL,
	page_num    INTEGER NOT NULL,
	table_index INTEGER NOT NULL,
	table_type  TEXT NOT NULL,
	score       REAL NOT NULL,
	body        TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS tables_by_source ON tables (source_file, page_num, table_index);

CREATE TABLE IF NOT EXISTS table_columns (
	table_id TEXT NOT NULL REFERENCES tables (id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name     TEXT NOT NULL,
	numeric  INTEGER NOT NULL,
	PRIMARY KEY (table_id, position)
);
CREATE INDEX IF NOT EXISTS table_columns_by_name ON table_columns (name);
`

const maxRetries = 3

// Record is one stored table.
type Record struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Table     export.Table `json:"table"`
}

// Store is a table store backed by one SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path, applies the connection
// pragmas and creates the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	s, err := setup(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenMemory opens a private in-memory database. Every connection to
// ":memory:" is a separate database, so the pool is limited to one.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	s, err := setup(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func setup(db *sql.DB) (*Store, error) {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTable stores ct and returns its new id, a time-ordered UUID.
func (s *Store) SaveTable(ctx context.Context, ct *model.ClassifiedTable) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("store: new id: %w", err)
	}
	t := export.NewTable(ct)
	body, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("store: encoding table: %w", err)
	}

	numeric := make(map[string]int, len(t.NumericColumns))
	for _, name := range t.NumericColumns {
		numeric[name] = 1
	}
	created := s.now().UTC().Format(time.RFC3339Nano)

	err = s.runTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tables (id, source_file, page_num, table_index, table_type, score, body, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id.String(), t.Meta.SourceFile, t.Meta.PageNum, t.Meta.TableIndex,
			t.Type.String(), t.Score, string(body), created)
		if err != nil {
			return fmt.Errorf("inserting table: %w", err)
		}
		for i, name := range t.Columns {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO table_columns (table_id, position, name, numeric) VALUES (?, ?, ?, ?)`,
				id.String(), i, name, numeric[name]); err != nil {
				return fmt.Errorf("inserting column %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store: save: %w", err)
	}
	return id.String(), nil
}

const selectRecord = `SELECT id, body, created_at FROM tables`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var body, created string
	if err := row.Scan(&rec.ID, &body, &created); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(body), &rec.Table); err != nil {
		return Record{}, fmt.Errorf("decoding table %s: %w", rec.ID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Record{}, fmt.Errorf("parsing created_at of %s: %w", rec.ID, err)
	}
	rec.CreatedAt = t
	return rec, nil
}

// GetTable returns the table stored under id.
func (s *Store) GetTable(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get: %w", err)
	}
	return &rec, nil
}

// ListTables returns the tables from sourceFile in page and table order.
// An empty sourceFile lists every table.
func (s *Store) ListTables(ctx context.Context, sourceFile string) ([]Record, error) {
	query := selectRecord
	var args []any
	if sourceFile != "" {
		query += ` WHERE source_file = ?`
		args = append(args, sourceFile)
	}
	query += ` ORDER BY source_file, page_num, table_index, id`
	return s.list(ctx, query, args...)
}

// FindByColumn returns the tables with a column called name. When numeric
// is true only tables where that column is numeric are returned.
func (s *Store) FindByColumn(ctx context.Context, name string, numeric bool) ([]Record, error) {
	var cond strings.Builder
	cond.WriteString(` WHERE id IN (SELECT table_id FROM table_columns WHERE name = ?`)
	if numeric {
		cond.WriteString(` AND numeric = 1`)
	}
	cond.WriteString(`) ORDER BY source_file, page_num, table_index, id`)
	return s.list(ctx, selectRecord+cond.String(), name)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return out, nil
}

// DeleteTable removes the table stored under id along with its columns.
func (s *Store) DeleteTable(ctx context.Context, id string) error {
	var n int64
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("store: delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: %s: %w", id, ErrNotFound)
	}
	return nil
}

// runTx runs fn in a transaction, retrying with backoff while the
// database is busy.
func (s *Store) runTx(ctx context.Context, fn func(*sql.Tx) error) error {
	var err error
	for i := range maxRetries {
		if err = s.txOnce(ctx, fn); err == nil || !isBusy(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(100*(i+1)) * time.Millisecond):
		}
	}
	return err
}

func (s *Store) txOnce(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
