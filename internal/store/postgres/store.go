// Package postgres implements the entity store on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/cadastre/internal/core"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// maxParams is PostgreSQL's bind parameter limit per statement.
const maxParams = 65535

var identRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store resolves entities to tables in the connected database.
type Store struct {
	db DBTX
}

// New creates a store over db. When db is a pgx.Tx every batch runs inside
// its own savepoint, so a failed batch leaves the transaction usable.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Model checks that a table named entity exists and returns its handle.
func (s *Store) Model(ctx context.Context, entity string) (core.Model, error) {
	if !identRegex.MatchString(entity) {
		return nil, fmt.Errorf("invalid entity name %q: %w", entity, core.ErrModelNotFound)
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, entity).Scan(&exists); err != nil {
		return nil, fmt.Errorf("look up table %s: %w", entity, err)
	}
	if !exists {
		return nil, fmt.Errorf("table %s: %w", entity, core.ErrModelNotFound)
	}
	return &model{db: s.db, table: entity}, nil
}

type model struct {
	db    DBTX
	table string
}

// InsertSkipDuplicates issues one multi-row INSERT ... ON CONFLICT DO NOTHING
// and returns the number of rows the database reports as inserted.
func (m *model) InsertSkipDuplicates(ctx context.Context, records []core.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	cols := Columns(records)
	if len(cols)*len(records) > maxParams {
		return 0, fmt.Errorf("batch of %d records exceeds %d parameters", len(records), maxParams)
	}
	sql, args := BuildInsert(m.table, cols, records)

	if tx, ok := m.db.(pgx.Tx); ok {
		return insertInSavepoint(ctx, tx, sql, args)
	}

	tag, err := m.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func insertInSavepoint(ctx context.Context, tx pgx.Tx, sql string, args []any) (int, error) {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin savepoint: %w", err)
	}

	tag, err := sp.Exec(ctx, sql, args...)
	if err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return 0, errors.Join(err, fmt.Errorf("rollback savepoint: %w", rbErr))
		}
		return 0, err
	}

	if err := sp.Commit(ctx); err != nil {
		return 0, fmt.Errorf("release savepoint: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Columns returns the sorted union of record keys.
func Columns(records []core.Record) []string {
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
	return cols
}

// BuildInsert renders a multi-row insert that skips conflicting rows.
// Missing keys bind as NULL.
func BuildInsert(table string, cols []string, records []core.Record) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgx.Identifier{table}.Sanitize())
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{c}.Sanitize())
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(cols)*len(records))
	n := 1
	for r, rec := range records {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for i, c := range cols {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
			args = append(args, rec[c])
		}
		b.WriteByte(')')
	}
	b.WriteString(" ON CONFLICT DO NOTHING")
	return b.String(), args
}

// Backend runs imports inside pool transactions.
type Backend struct {
	pool *pgxpool.Pool
}

// NewBackend creates a transactional backend on pool.
func NewBackend(pool *pgxpool.Pool) *Backend {
	return &Backend{pool: pool}
}

// WithinTx begins a transaction, hands fn a store bound to it, and commits
// only when fn returns commit=true without error.
func (b *Backend) WithinTx(ctx context.Context, fn func(core.EntityStore) (bool, error)) (err error) {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) && err == nil {
			err = fmt.Errorf("rollback: %w", rbErr)
		}
	}()

	commit, err := fn(New(tx))
	if err != nil || !commit {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Truncate empties the table backing entity. Tables referencing it are
// truncated with it.
func (b *Backend) Truncate(ctx context.Context, entity string) error {
	if _, err := New(b.pool).Model(ctx, entity); err != nil {
		return err
	}
	_, err := b.pool.Exec(ctx, "TRUNCATE TABLE "+pgx.Identifier{entity}.Sanitize()+" CASCADE")
	return err
}

// Ping checks database connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}
