package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func sheetOf(rows ...[]Cell) Sheet {
	return NewMemWorkbook().AddSheet("Test", rows...)
}

func TestProcessSheet(t *testing.T) {
	header := Row("ID", "Name")

	tests := []struct {
		name         string
		rows         [][]Cell
		wantTotal    int
		wantRecords  int
		wantSkipped  int
		wantErrors   int
		wantWarnings int
	}{
		{
			name:      "header only",
			rows:      [][]Cell{header},
			wantTotal: 0,
		},
		{
			name:      "no rows at all",
			rows:      nil,
			wantTotal: 0,
		},
		{
			name:        "clean rows",
			rows:        [][]Cell{header, Row(1, "Dakar"), Row(2, "Thies")},
			wantTotal:   2,
			wantRecords: 2,
		},
		{
			name:        "blank rows ignored",
			rows:        [][]Cell{header, Row(nil, "  "), Row(1, "Dakar"), {}},
			wantTotal:   1,
			wantRecords: 1,
		},
		{
			name:        "short row",
			rows:        [][]Cell{header, Row(1), Row(2, "Thies")},
			wantTotal:   2,
			wantRecords: 1,
			wantSkipped: 1,
			wantErrors:  1,
		},
		{
			name:         "zero id soft skip",
			rows:         [][]Cell{header, Row(0, "Nowhere"), Row(3, "Kaolack")},
			wantTotal:    2,
			wantRecords:  1,
			wantSkipped:  1,
			wantWarnings: 1,
		},
		{
			name:         "missing id soft skip",
			rows:         [][]Cell{header, Row(nil, "Nameless")},
			wantTotal:    1,
			wantSkipped:  1,
			wantWarnings: 1,
		},
		{
			name:         "unreadable id warns twice",
			rows:         [][]Cell{header, Row("abc", "Garbage")},
			wantTotal:    1,
			wantSkipped:  1,
			wantWarnings: 2,
		},
		{
			name:        "text id accepted",
			rows:        [][]Cell{header, Row("12", "Ziguinchor")},
			wantTotal:   1,
			wantRecords: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diag := NewDiagnostics(20, 50)
			d := testDescriptor("Test", "tests", 1)

			res := ProcessSheet(sheetOf(tt.rows...), d, diag)

			if res.TotalRows != tt.wantTotal {
				t.Errorf("TotalRows = %d, want %d", res.TotalRows, tt.wantTotal)
			}
			if len(res.Records) != tt.wantRecords {
				t.Errorf("len(Records) = %d, want %d", len(res.Records), tt.wantRecords)
			}
			if res.Skipped != tt.wantSkipped {
				t.Errorf("Skipped = %d, want %d", res.Skipped, tt.wantSkipped)
			}
			if diag.ErrorCount() != tt.wantErrors {
				t.Errorf("ErrorCount() = %d, want %d (%v)", diag.ErrorCount(), tt.wantErrors, diag.Errors())
			}
			if diag.WarningCount() != tt.wantWarnings {
				t.Errorf("WarningCount() = %d, want %d (%v)", diag.WarningCount(), tt.wantWarnings, diag.Warnings())
			}
			if res.TotalRows != len(res.Records)+res.Skipped {
				t.Errorf("TotalRows %d != records %d + skipped %d", res.TotalRows, len(res.Records), res.Skipped)
			}
			if len(res.Rows) != len(res.Records) {
				t.Errorf("len(Rows) = %d, want %d", len(res.Rows), len(res.Records))
			}
		})
	}
}

func TestProcessSheet_ShortRowMessage(t *testing.T) {
	diag := NewDiagnostics(20, 50)
	ProcessSheet(sheetOf(Row("ID", "Name"), Row(1)), testDescriptor("Test", "tests", 1), diag)

	errs := diag.Errors()
	if len(errs) != 1 {
		t.Fatalf("Errors() = %v, want one error", errs)
	}
	if want := "row 2: expected 2 columns, got 1"; errs[0] != want {
		t.Errorf("error = %q, want %q", errs[0], want)
	}
}

func TestProcessSheet_OptionalTrailingColumns(t *testing.T) {
	d := Descriptor{
		Sheet:      "Test",
		Entity:     "tests",
		Columns:    []Column{IntegerColumn("ID"), TextColumn("Name"), BoolColumn("Active")},
		MinColumns: 2,
		Transform: func(v Values) (Record, error) {
			return Record{"id": int64(1), "active": v.BoolOr(2, false)}, nil
		},
	}
	diag := NewDiagnostics(20, 50)

	res := ProcessSheet(sheetOf(Row("ID", "Name"), Row(1, "Dakar")), d, diag)

	if len(res.Records) != 1 {
		t.Fatalf("len(Records) = %d, want 1 (errors %v)", len(res.Records), diag.Errors())
	}
	active := res.Records[0]["active"]
	if active != (pgtype.Bool{Bool: false, Valid: true}) {
		t.Errorf("active = %v, want default false", active)
	}
}

func TestProcessSheet_TransformFailures(t *testing.T) {
	tests := []struct {
		name         string
		transform    TransformFunc
		wantErrors   int
		wantWarnings int
		wantContains string
	}{
		{
			name: "hard error",
			transform: func(Values) (Record, error) {
				return nil, errors.New("share must be between 0 and 100")
			},
			wantErrors:   1,
			wantContains: "share must be between 0 and 100",
		},
		{
			name: "panic",
			transform: func(Values) (Record, error) {
				var m map[string]int
				m["boom"] = 1
				return nil, nil
			},
			wantErrors:   1,
			wantContains: "transform failed",
		},
		{
			name: "nil record",
			transform: func(Values) (Record, error) {
				return nil, nil
			},
			wantWarnings: 1,
			wantContains: "no record produced",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDescriptor("Test", "tests", 1)
			d.Transform = tt.transform
			diag := NewDiagnostics(20, 50)

			res := ProcessSheet(sheetOf(Row("ID", "Name"), Row(1, "x")), d, diag)

			if res.Skipped != 1 || len(res.Records) != 0 {
				t.Errorf("Skipped = %d, Records = %d, want 1, 0", res.Skipped, len(res.Records))
			}
			if diag.ErrorCount() != tt.wantErrors || diag.WarningCount() != tt.wantWarnings {
				t.Errorf("errors/warnings = %d/%d, want %d/%d",
					diag.ErrorCount(), diag.WarningCount(), tt.wantErrors, tt.wantWarnings)
			}
			all := strings.Join(append(diag.Errors(), diag.Warnings()...), "\n")
			if !strings.Contains(all, tt.wantContains) {
				t.Errorf("diagnostics %q should contain %q", all, tt.wantContains)
			}
		})
	}
}

func TestProcessSheet_CoercerPanic(t *testing.T) {
	panicky := Column{Name: "Bad", Kind: "text", Coerce: func(Cell) (any, bool) { panic("unexpected cell") }}
	d := Descriptor{
		Sheet:   "Test",
		Entity:  "tests",
		Columns: []Column{IntegerColumn("ID"), panicky},
		Transform: func(v Values) (Record, error) {
			if v[1] != nil {
				t.Errorf("panicking column value = %v, want nil", v[1])
			}
			return Record{"id": int64(1)}, nil
		},
	}
	diag := NewDiagnostics(20, 50)

	res := ProcessSheet(sheetOf(Row("ID", "Bad"), Row(1, "x")), d, diag)

	if len(res.Records) != 1 {
		t.Errorf("len(Records) = %d, want 1", len(res.Records))
	}
	if diag.WarningCount() != 1 {
		t.Errorf("WarningCount() = %d, want 1", diag.WarningCount())
	}
}

func TestProcessSheet_RowNumbers(t *testing.T) {
	diag := NewDiagnostics(20, 50)
	res := ProcessSheet(sheetOf(Row("ID", "Name"), Row(1, "a"), Row(nil, nil), Row(2, "b")),
		testDescriptor("Test", "tests", 1), diag)

	want := []int{2, 4}
	if len(res.Rows) != len(want) {
		t.Fatalf("Rows = %v, want %v", res.Rows, want)
	}
	for i := range want {
		if res.Rows[i] != want[i] {
			t.Errorf("Rows[%d] = %d, want %d", i, res.Rows[i], want[i])
		}
	}
	if got := res.Records[1]["name"]; got != text("b") {
		t.Errorf("name = %v, want b", got)
	}
}
