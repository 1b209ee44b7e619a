package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/JonMunkholm/cadastre/internal/core"
)

func TestColumns(t *testing.T) {
	got := Columns([]core.Record{
		{"name": "a", "id": 1},
		{"id": 2, "code": "b"},
	})
	want := []string{"code", "id", "name"}
	if len(got) != len(want) {
		t.Fatalf("Columns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Columns()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuildInsert(t *testing.T) {
	records := []core.Record{
		{"id": 1, "name": "Dakar"},
		{"id": 2},
	}
	sql, args := BuildInsert("regions", []string{"id", "name"}, records)

	want := `INSERT INTO "regions" ("id", "name") VALUES ($1, $2), ($3, $4) ON CONFLICT DO NOTHING`
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 4 {
		t.Fatalf("len(args) = %d, want 4", len(args))
	}
	if args[0] != 1 || args[1] != "Dakar" || args[2] != 2 || args[3] != nil {
		t.Errorf("args = %v", args)
	}
}

func TestBuildInsert_QuotesIdentifiers(t *testing.T) {
	sql, _ := BuildInsert(`odd"table`, []string{"weird col"}, []core.Record{{"weird col": 1}})
	want := `INSERT INTO "odd""table" ("weird col") VALUES ($1) ON CONFLICT DO NOTHING`
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestModel_RejectsInvalidEntity(t *testing.T) {
	s := New(nil)
	for _, entity := range []string{"Regions", "regions; drop table x", "", "1abc"} {
		if _, err := s.Model(context.Background(), entity); !errors.Is(err, core.ErrModelNotFound) {
			t.Errorf("Model(%q) error = %v, want %v", entity, err, core.ErrModelNotFound)
		}
	}
}

func TestInsertSkipDuplicates_ParamLimit(t *testing.T) {
	records := make([]core.Record, 7000)
	for i := range records {
		records[i] = core.Record{
			"a": 1, "b": 2, "c": 3, "d": 4, "e": 5,
			"f": 6, "g": 7, "h": 8, "i": 9, "j": 10,
		}
	}
	m := &model{table: "regions"}
	if _, err := m.InsertSkipDuplicates(context.Background(), records); err == nil {
		t.Error("expected parameter limit error")
	}
	if n, err := m.InsertSkipDuplicates(context.Background(), nil); n != 0 || err != nil {
		t.Errorf("empty insert = %d, %v", n, err)
	}
}
