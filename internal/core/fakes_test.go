package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// fakeModel stores records keyed by "id" and rejects batches that contain a
// record with fail set to true.
type fakeModel struct {
	keys    map[int64]bool
	calls   int
	failErr error
}

func newFakeModel() *fakeModel {
	return &fakeModel{keys: make(map[int64]bool)}
}

func (m *fakeModel) InsertSkipDuplicates(_ context.Context, records []Record) (int, error) {
	m.calls++
	for _, rec := range records {
		if fail, _ := rec["fail"].(bool); fail {
			return 0, m.failErr
		}
	}
	inserted := 0
	for _, rec := range records {
		id := rec["id"].(int64)
		if m.keys[id] {
			continue
		}
		m.keys[id] = true
		inserted++
	}
	return inserted, nil
}

type fakeStore struct {
	models map[string]*fakeModel
}

func newFakeStore(entities ...string) *fakeStore {
	s := &fakeStore{models: make(map[string]*fakeModel)}
	for _, e := range entities {
		s.models[e] = newFakeModel()
	}
	return s
}

func (s *fakeStore) Model(_ context.Context, entity string) (Model, error) {
	m, ok := s.models[entity]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", entity, ErrModelNotFound)
	}
	return m, nil
}

// idTransform builds {"id", "name"} records; a name of "fail" marks the
// record so fakeModel rejects its batch.
func idTransform(v Values) (Record, error) {
	id, err := v.ID(0, "id")
	if err != nil {
		return nil, err
	}
	name := v.Text(1)
	rec := Record{"id": id, "name": name}
	if name.Valid && name.String == "fail" {
		rec["fail"] = true
	}
	return rec, nil
}

func testDescriptor(sheet, entity string, order int, refs ...Reference) Descriptor {
	return Descriptor{
		Sheet:      sheet,
		Entity:     entity,
		Order:      order,
		Columns:    []Column{IntegerColumn("ID"), TextColumn("Name")},
		References: refs,
		Transform:  idTransform,
	}
}

func text(s string) pgtype.Text { return pgtype.Text{String: s, Valid: true} }
