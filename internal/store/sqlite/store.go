// Package sqlite implements the entity store on a local SQLite file.
package sqlite

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/cadastre/internal/core"
)

//go:embed schema.sql
var schemaFS embed.FS

// DB wraps sqlx.DB with the import backend methods.
type DB struct {
	*sqlx.DB
}

// Open connects to the database file at path, creating it and its tables
// when missing. Use ":memory:" for a throwaway database.
func Open(path string) (*DB, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path
	}

	db, err := sqlx.Connect("sqlite", dsn+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// One connection keeps ":memory:" databases and transactions coherent.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{db}, nil
}

func createSchema(db *sqlx.DB) error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// WithinTx begins a transaction, hands fn a store bound to it, and commits
// only when fn returns commit=true without error.
func (db *DB) WithinTx(ctx context.Context, fn func(core.EntityStore) (bool, error)) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	commit, err := fn(&Store{ext: tx, tx: tx})
	if err != nil || !commit {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Store returns a non-transactional store on the database.
func (db *DB) Store() *Store {
	return &Store{ext: db.DB}
}

// Count returns the number of rows in table.
func (db *DB) Count(ctx context.Context, table string) (int, error) {
	var n int
	err := db.GetContext(ctx, &n, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(table)))
	return n, err
}

// Truncate deletes every row of the table backing entity.
func (db *DB) Truncate(ctx context.Context, entity string) error {
	if _, err := db.Store().Model(ctx, entity); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, quoteIdent(entity)))
	return err
}

// Store resolves entities to SQLite tables.
type Store struct {
	ext sqlx.ExtContext
	tx  *sqlx.Tx
}

// Model checks that a table named entity exists and returns its handle.
func (s *Store) Model(ctx context.Context, entity string) (core.Model, error) {
	var n int
	err := sqlx.GetContext(ctx, s.ext, &n,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, entity)
	if err != nil {
		return nil, fmt.Errorf("look up table %s: %w", entity, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("table %s: %w", entity, core.ErrModelNotFound)
	}
	return &model{store: s, table: entity}, nil
}

type model struct {
	store *Store
	table string
}

// InsertSkipDuplicates issues one multi-row INSERT ... ON CONFLICT DO NOTHING.
// Inside a transaction the statement runs under a savepoint.
func (m *model) InsertSkipDuplicates(ctx context.Context, records []core.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	query, args := buildInsert(m.table, records)

	if m.store.tx != nil {
		if _, err := m.store.tx.ExecContext(ctx, `SAVEPOINT import_batch`); err != nil {
			return 0, fmt.Errorf("begin savepoint: %w", err)
		}
	}

	res, err := m.store.ext.ExecContext(ctx, query, args...)
	if err != nil {
		err = classify(err)
		if m.store.tx != nil {
			if _, rbErr := m.store.tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT import_batch`); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback savepoint: %w", rbErr))
			}
			if _, relErr := m.store.tx.ExecContext(ctx, `RELEASE SAVEPOINT import_batch`); relErr != nil {
				err = errors.Join(err, fmt.Errorf("release savepoint: %w", relErr))
			}
		}
		return 0, err
	}

	if m.store.tx != nil {
		if _, err := m.store.tx.ExecContext(ctx, `RELEASE SAVEPOINT import_batch`); err != nil {
			return 0, fmt.Errorf("release savepoint: %w", err)
		}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func buildInsert(table string, records []core.Record) (string, []any) {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", quoteIdent(table), strings.Join(quoted, ", "))
	args := make([]any, 0, len(cols)*len(records))
	for i, rec := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders)
		for _, c := range cols {
			args = append(args, rec[c])
		}
	}
	b.WriteString(" ON CONFLICT DO NOTHING")
	return b.String(), args
}

// classify wraps SQLite constraint failures in the core sentinels.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "foreign key constraint failed"):
		return fmt.Errorf("%w: %v", core.ErrForeignKeyViolation, err)
	case strings.Contains(msg, "unique constraint failed"):
		return fmt.Errorf("%w: %v", core.ErrUniqueViolation, err)
	default:
		return err
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
