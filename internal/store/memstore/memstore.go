// Package memstore is an in-memory entity store enforcing identifier
// uniqueness and foreign keys. It backs dry-run imports and tests.
package memstore

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	"github.com/JonMunkholm/cadastre/internal/core"
)

// TableSpec declares one entity's constraints.
type TableSpec struct {
	Entity     string
	Key        []string
	References []core.Reference
}

type table struct {
	spec TableSpec
	rows []core.Record
	keys map[string]struct{}
}

// Store holds tables in memory. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	tables map[string]*table
}

// New creates a store with the given tables.
func New(specs ...TableSpec) *Store {
	s := &Store{tables: make(map[string]*table, len(specs))}
	for _, spec := range specs {
		if len(spec.Key) == 0 {
			spec.Key = []string{"id"}
		}
		s.tables[spec.Entity] = &table{spec: spec, keys: make(map[string]struct{})}
	}
	return s
}

// FromDescriptors creates a store with one table per descriptor.
func FromDescriptors(descs []core.Descriptor) *Store {
	specs := make([]TableSpec, len(descs))
	for i, d := range descs {
		specs[i] = TableSpec{Entity: d.Entity, Key: d.KeyColumns(), References: d.References}
	}
	return New(specs...)
}

// Model returns the handle for entity.
func (s *Store) Model(_ context.Context, entity string) (core.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[entity]; !ok {
		return nil, fmt.Errorf("%s: %w", entity, core.ErrModelNotFound)
	}
	return &model{store: s, entity: entity}, nil
}

// Rows returns a copy of the rows stored for entity.
func (s *Store) Rows(entity string) []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[entity]
	if !ok {
		return nil
	}
	return append([]core.Record(nil), t.rows...)
}

// Count returns the number of rows stored for entity.
func (s *Store) Count(entity string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tables[entity]; ok {
		return len(t.rows)
	}
	return 0
}

// Truncate removes every row of entity.
func (s *Store) Truncate(_ context.Context, entity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[entity]
	if !ok {
		return fmt.Errorf("%s: %w", entity, core.ErrModelNotFound)
	}
	t.rows = nil
	t.keys = make(map[string]struct{})
	return nil
}

// WithinTx runs fn against the store and restores the previous contents
// unless fn returns commit=true and no error.
func (s *Store) WithinTx(ctx context.Context, fn func(core.EntityStore) (bool, error)) error {
	saved := s.snapshot()

	commit, err := fn(s)
	if err != nil || !commit {
		s.restore(saved)
	}
	return err
}

func (s *Store) snapshot() map[string]*table {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*table, len(s.tables))
	for name, t := range s.tables {
		keys := make(map[string]struct{}, len(t.keys))
		for k := range t.keys {
			keys[k] = struct{}{}
		}
		out[name] = &table{spec: t.spec, rows: append([]core.Record(nil), t.rows...), keys: keys}
	}
	return out
}

func (s *Store) restore(tables map[string]*table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = tables
}

type model struct {
	store  *Store
	entity string
}

// InsertSkipDuplicates behaves like a single INSERT ... ON CONFLICT DO
// NOTHING statement: a foreign key failure rejects the whole batch.
func (m *model) InsertSkipDuplicates(_ context.Context, records []core.Record) (int, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[m.entity]
	if !ok {
		return 0, fmt.Errorf("%s: %w", m.entity, core.ErrModelNotFound)
	}

	pending := make(map[string]struct{})
	var accepted []core.Record
	var acceptedKeys []string

	for i, rec := range records {
		for _, ref := range t.spec.References {
			v, present := normalize(rec[ref.Column])
			if !present {
				continue
			}
			parent, ok := s.tables[ref.Entity]
			if !ok {
				return 0, fmt.Errorf("%s.%s: %w", m.entity, ref.Column, core.ErrModelNotFound)
			}
			if _, exists := parent.keys[v]; !exists && !(ref.Entity == m.entity && hasKey(pending, v)) {
				return 0, fmt.Errorf("record %d: %s.%s=%s not present in %s: %w",
					i+1, m.entity, ref.Column, v, ref.Entity, core.ErrForeignKeyViolation)
			}
		}

		key, ok := recordKey(rec, t.spec.Key)
		if !ok {
			return 0, fmt.Errorf("record %d: null identifier for %s", i+1, m.entity)
		}
		if _, dup := t.keys[key]; dup {
			continue
		}
		if _, dup := pending[key]; dup {
			continue
		}
		pending[key] = struct{}{}
		accepted = append(accepted, rec)
		acceptedKeys = append(acceptedKeys, key)
	}

	t.rows = append(t.rows, accepted...)
	for _, k := range acceptedKeys {
		t.keys[k] = struct{}{}
	}
	return len(accepted), nil
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}

func recordKey(rec core.Record, cols []string) (string, bool) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		v, ok := normalize(rec[c])
		if !ok {
			return "", false
		}
		parts[i] = v
	}
	return strings.Join(parts, "\x1f"), true
}

// normalize renders a record value as a comparable key; false means null.
func normalize(v any) (string, bool) {
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil || dv == nil {
			return "", false
		}
		v = dv
	}
	if v == nil {
		return "", false
	}
	return fmt.Sprint(v), true
}
