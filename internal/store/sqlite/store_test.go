package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/cadastre/internal/core"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "cadastre.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func region(id int64, name string) core.Record {
	return core.Record{
		"id":   pgtype.Int8{Int64: id, Valid: true},
		"name": pgtype.Text{String: name, Valid: true},
		"code": pgtype.Text{},
	}
}

func TestInsertSkipDuplicates(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	m, err := db.Store().Model(ctx, "regions")
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}

	n, err := m.InsertSkipDuplicates(ctx, []core.Record{region(1, "Dakar"), region(2, "Thies")})
	if err != nil || n != 2 {
		t.Fatalf("first insert = %d, %v, want 2", n, err)
	}
	n, err = m.InsertSkipDuplicates(ctx, []core.Record{region(2, "Thies"), region(3, "Louga")})
	if err != nil || n != 1 {
		t.Errorf("second insert = %d, %v, want 1", n, err)
	}

	count, err := db.Count(ctx, "regions")
	if err != nil || count != 3 {
		t.Errorf("Count() = %d, %v, want 3", count, err)
	}
}

func TestModel_NotFound(t *testing.T) {
	db := openTest(t)
	_, err := db.Store().Model(context.Background(), "castles")
	if !errors.Is(err, core.ErrModelNotFound) {
		t.Errorf("Model() error = %v, want %v", err, core.ErrModelNotFound)
	}
}

func TestWithinTx_FailedBatchKeepsTransaction(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	err := db.WithinTx(ctx, func(s core.EntityStore) (bool, error) {
		regions, err := s.Model(ctx, "regions")
		if err != nil {
			return false, err
		}
		if _, err := regions.InsertSkipDuplicates(ctx, []core.Record{region(1, "Dakar")}); err != nil {
			return false, err
		}

		depts, err := s.Model(ctx, "departments")
		if err != nil {
			return false, err
		}
		_, err = depts.InsertSkipDuplicates(ctx, []core.Record{{
			"id":        int64(10),
			"region_id": int64(99),
			"name":      "Orphan",
		}})
		if core.ClassifyLoadError(err) != core.LoadErrForeignKey {
			t.Errorf("orphan insert error = %v, want foreign key violation", err)
		}
		if !errors.Is(err, core.ErrForeignKeyViolation) {
			t.Errorf("orphan insert error = %v, want %v", err, core.ErrForeignKeyViolation)
		}
		if err != nil && strings.Contains(err.Error(), "savepoint") {
			t.Errorf("orphan insert error = %v, want savepoint cleanup to succeed", err)
		}

		n, err := depts.InsertSkipDuplicates(ctx, []core.Record{{
			"id":        int64(11),
			"region_id": int64(1),
			"name":      "Plateau",
		}})
		if err != nil || n != 1 {
			t.Errorf("insert after failed batch = %d, %v, want 1", n, err)
		}
		return true, nil
	})
	if err != nil {
		t.Fatalf("WithinTx() error = %v", err)
	}

	for table, want := range map[string]int{"regions": 1, "departments": 1} {
		if got, _ := db.Count(ctx, table); got != want {
			t.Errorf("Count(%s) = %d, want %d", table, got, want)
		}
	}
}

func TestWithinTx_Rollback(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	err := db.WithinTx(ctx, func(s core.EntityStore) (bool, error) {
		m, err := s.Model(ctx, "regions")
		if err != nil {
			return false, err
		}
		_, err = m.InsertSkipDuplicates(ctx, []core.Record{region(1, "Dakar")})
		return false, err
	})
	if err != nil {
		t.Fatalf("WithinTx() error = %v", err)
	}
	if got, _ := db.Count(ctx, "regions"); got != 0 {
		t.Errorf("Count() = %d after rollback, want 0", got)
	}
}

func TestBuildInsert(t *testing.T) {
	query, args := buildInsert("regions", []core.Record{
		{"id": 1, "name": "a"},
		{"id": 2, "code": "B"},
	})

	want := `INSERT INTO "regions" ("code", "id", "name") VALUES (?, ?, ?), (?, ?, ?) ON CONFLICT DO NOTHING`
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if len(args) != 6 || args[0] != nil || args[1] != 1 || args[5] != nil {
		t.Errorf("args = %v", args)
	}
}

func TestOpen_Memory(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	var tables int
	if err := db.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'`); err != nil {
		t.Fatal(err)
	}
	if tables != 21 {
		t.Errorf("tables = %d, want 21", tables)
	}
	if quoteIdent(`a"b`) != `"a""b"` || !strings.HasPrefix(quoteIdent("x"), `"`) {
		t.Errorf("quoteIdent() = %s", quoteIdent(`a"b`))
	}
}
