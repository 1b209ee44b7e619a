package core

import (
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ----------------------------------------------------------------------------
// ToPgText Tests
// ----------------------------------------------------------------------------

func TestToPgText(t *testing.T) {
	tests := []struct {
		name      string
		input     Cell
		wantValid bool
		want      string
	}{
		{"plain string", String("Dakar"), true, "Dakar"},
		{"trims whitespace", String("  Thies \t"), true, "Thies"},
		{"empty string", String(""), false, ""},
		{"whitespace only", String("   "), false, ""},
		{"empty cell", Empty(), false, ""},
		{"integral number", Number(12), true, "12"},
		{"decimal number", Number(12.5), true, "12.5"},
		{"boolean", Bool(true), true, "true"},
		{"date", Date(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)), true, "2024-03-05"},
		{"rich text joins runs", RichText("Parcelle ", "12", "B"), true, "Parcelle 12B"},
		{"hyperlink uses display text", Hyperlink("Plan cadastral", "https://example.org/plan"), true, "Plan cadastral"},
		{"formula uses cached result", Formula("A1&B1", String("DK-01")), true, "DK-01"},
		{"formula without result", Formula("A1", Cell{}), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgText(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgText().Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if got.Valid && got.String != tt.want {
				t.Errorf("ToPgText() = %q, want %q", got.String, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgFloat8 Tests
// ----------------------------------------------------------------------------

func TestToPgFloat8(t *testing.T) {
	tests := []struct {
		name      string
		input     Cell
		wantValid bool
		want      float64
	}{
		{"number cell", Number(42.5), true, 42.5},
		{"negative number", Number(-3), true, -3},
		{"numeric string", String("123.45"), true, 123.45},
		{"leading decimal point", String(".99"), true, 0.99},
		{"scientific notation", String("1e3"), true, 1000},
		{"thousand separators", String("1,234,567"), true, 1234567},
		{"decimal comma", String("12,5"), true, 12.5},
		{"separators with dot", String("1,234.50"), true, 1234.5},
		{"dollar sign", String("$99.99"), true, 99.99},
		{"euro sign", String("\u20ac250"), true, 250},
		{"CFA suffix", String("12 500 FCFA"), true, 12500},
		{"XOF suffix", String("7500 XOF"), true, 7500},
		{"non-breaking spaces", String("12\u00a0500"), true, 12500},
		{"percent sign", String("45%"), false, 0},
		{"accounting negative", String("(1,234.50)"), true, -1234.5},
		{"formula result", Formula("SUM(A1:A3)", Number(6)), true, 6},
		{"garbage", String("abc"), false, 0},
		{"two dots", String("1.2.3"), false, 0},
		{"empty string", String(""), false, 0},
		{"empty cell", Empty(), false, 0},
		{"boolean", Bool(true), false, 0},
		{"NaN", Number(math.NaN()), false, 0},
		{"infinity", Number(math.Inf(1)), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgFloat8(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgFloat8().Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if got.Valid && math.Abs(got.Float64-tt.want) > 1e-9 {
				t.Errorf("ToPgFloat8() = %v, want %v", got.Float64, tt.want)
			}
		})
	}
}

func TestToPgInt8(t *testing.T) {
	tests := []struct {
		name      string
		input     Cell
		wantValid bool
		want      int64
	}{
		{"number", Number(17), true, 17},
		{"integral text", String("12"), true, 12},
		{"integral float text", String("12.0"), true, 12},
		{"fractional", Number(1.5), false, 0},
		{"garbage", String("twelve"), false, 0},
		{"empty", Empty(), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgInt8(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgInt8().Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if got.Valid && got.Int64 != tt.want {
				t.Errorf("ToPgInt8() = %d, want %d", got.Int64, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgNumeric Tests
// ----------------------------------------------------------------------------

func TestToPgNumeric(t *testing.T) {
	tests := []struct {
		name      string
		input     Cell
		wantValid bool
		want      float64
	}{
		{"integer", Number(123), true, 123},
		{"rounds to cents", Number(10.456), true, 10.46},
		{"rounds up", String("2.346"), true, 2.35},
		{"currency text", String("1 250 000 FCFA"), true, 1250000},
		{"negative", String("-0.5"), true, -0.5},
		{"garbage", String("N/A"), false, 0},
		{"empty", Empty(), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgNumeric(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgNumeric().Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if !got.Valid {
				return
			}
			f, err := got.Float64Value()
			if err != nil {
				t.Fatalf("Float64Value() error = %v", err)
			}
			if math.Abs(f.Float64-tt.want) > 1e-9 {
				t.Errorf("ToPgNumeric() = %v, want %v", f.Float64, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgBool Tests
// ----------------------------------------------------------------------------

func TestToPgBool(t *testing.T) {
	tests := []struct {
		name      string
		input     Cell
		wantValid bool
		want      bool
	}{
		{"bool true", Bool(true), true, true},
		{"bool false", Bool(false), true, false},
		{"number one", Number(1), true, true},
		{"number zero", Number(0), true, false},
		{"number two", Number(2), true, true},
		{"negative number", Number(-1), true, true},
		{"fraction", Number(0.5), true, true},
		{"nan", Number(math.NaN()), false, false},
		{"word true", String("TRUE"), true, true},
		{"word yes", String(" yes "), true, true},
		{"letter o", String("O"), true, true},
		{"letter n", String("n"), true, false},
		{"letter y not a token", String("Y"), false, false},
		{"oui", String("Oui"), true, true},
		{"vrai", String("vrai"), true, true},
		{"non", String("non"), true, false},
		{"faux", String("FAUX"), true, false},
		{"text zero", String("0"), true, false},
		{"unknown word", String("maybe"), false, false},
		{"empty", Empty(), false, false},
		{"formula result", Formula("A1>0", Bool(true)), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgBool(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgBool().Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if got.Valid && got.Bool != tt.want {
				t.Errorf("ToPgBool() = %v, want %v", got.Bool, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgDate Tests
// ----------------------------------------------------------------------------

func TestToPgDate(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name      string
		input     Cell
		wantValid bool
		want      time.Time
	}{
		{"serial number", Number(45292), true, day(2024, 1, 1)},
		{"serial with time fraction", Number(45292.75), true, day(2024, 1, 1)},
		{"serial epoch", Number(25569), true, day(1970, 1, 1)},
		{"date cell drops time", Date(time.Date(2023, 6, 15, 14, 30, 0, 0, time.UTC)), true, day(2023, 6, 15)},
		{"ISO string", String("2024-02-29"), true, day(2024, 2, 29)},
		{"ISO datetime", String("2024-02-29T10:00:00Z"), true, day(2024, 2, 29)},
		{"slash month first", String("3/4/2024"), true, day(2024, 3, 4)},
		{"long form", String("January 2, 2006"), true, day(2006, 1, 2)},
		{"compact", String("20240115"), true, day(2024, 1, 15)},
		{"formula serial", Formula("TODAY()", Number(45292)), true, day(2024, 1, 1)},
		{"garbage", String("sometime"), false, time.Time{}},
		{"impossible date", String("2024-02-30"), false, time.Time{}},
		{"negative serial", Number(-5), false, time.Time{}},
		{"empty", Empty(), false, time.Time{}},
		{"boolean", Bool(true), false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgDate(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgDate().Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if got.Valid && !got.Time.Equal(tt.want) {
				t.Errorf("ToPgDate() = %v, want %v", got.Time, tt.want)
			}
		})
	}
}

func TestToPgDate_DayFirst(t *testing.T) {
	DayFirstDates = true
	defer func() { DayFirstDates = false }()

	got := ToPgDate(String("3/4/2024"))
	want := time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)
	if !got.Valid || !got.Time.Equal(want) {
		t.Errorf("ToPgDate() = %v (valid %v), want %v", got.Time, got.Valid, want)
	}
}

func TestToPgDate_TwoDigitYear(t *testing.T) {
	got := ToPgDate(String("1/2/99"))
	if !got.Valid {
		t.Fatal("ToPgDate().Valid = false, want true")
	}
	if got.Time.Year() != 1999 {
		t.Errorf("year = %d, want 1999", got.Time.Year())
	}
}

func TestSerialDateOffset(t *testing.T) {
	prev := SerialDateOffset
	SerialDateOffset = 24107 // 1904 date system
	defer func() { SerialDateOffset = prev }()

	got := ToPgDate(Number(24107))
	want := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Valid || !got.Time.Equal(want) {
		t.Errorf("ToPgDate() = %v, want %v", got.Time, want)
	}
}

// ----------------------------------------------------------------------------
// Coercer totality
// ----------------------------------------------------------------------------

func TestCoercers_Totality(t *testing.T) {
	inputs := []Cell{
		Empty(),
		String(""),
		String("   "),
		String("garbage \x00 value"),
		Number(math.NaN()),
		Number(math.Inf(-1)),
		Bool(false),
		Date(time.Time{}),
		Formula("=#REF!", Cell{}),
		RichText(),
		Hyperlink("", ""),
		{Kind: CellKind(99)},
	}
	coercers := map[string]Coercer{
		"text": AsText, "number": AsNumber, "integer": AsInteger,
		"decimal": AsDecimal, "bool": AsBool, "date": AsDate,
	}

	for name, fn := range coercers {
		for _, c := range inputs {
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Errorf("%s coercer panicked on %v: %v", name, c.Kind, r)
					}
				}()
				v, _ := fn(c)
				if v == nil {
					t.Errorf("%s coercer returned untyped nil for %v", name, c.Kind)
				}
			}()
		}
	}
}

func TestCoercers_OK(t *testing.T) {
	tests := []struct {
		name   string
		fn     Coercer
		input  Cell
		wantOK bool
	}{
		{"empty number is ok", AsNumber, Empty(), true},
		{"blank text number is ok", AsNumber, String("  "), true},
		{"garbage number", AsNumber, String("abc"), false},
		{"garbage date", AsDate, String("soon"), false},
		{"garbage bool", AsBool, String("perhaps"), false},
		{"fractional integer", AsInteger, Number(2.5), false},
		{"text never fails", AsText, Bool(true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := tt.fn(tt.input); ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Values accessors
// ----------------------------------------------------------------------------

func TestValues(t *testing.T) {
	v := Values{
		pgtype.Int8{Int64: 7, Valid: true},
		pgtype.Int8{Int64: 0, Valid: true},
		pgtype.Text{},
		pgtype.Bool{},
		pgtype.Text{String: "parcel", Valid: true},
	}

	if id, err := v.ID(0, "id"); err != nil || id != 7 {
		t.Errorf("ID(0) = %d, %v, want 7, nil", id, err)
	}
	if _, err := v.ID(1, "id"); !IsSkip(err) {
		t.Errorf("ID(1) error = %v, want skip for zero", err)
	}
	if _, err := v.ID(2, "id"); !IsSkip(err) {
		t.Errorf("ID(2) error = %v, want skip for type mismatch", err)
	}
	if _, err := v.ID(10, "id"); !IsSkip(err) {
		t.Errorf("ID(10) error = %v, want skip for out of range", err)
	}
	if got := v.OptionalID(1); got.Valid {
		t.Errorf("OptionalID(1) = %v, want null for zero", got)
	}
	if got := v.BoolOr(3, true); !got.Valid || !got.Bool {
		t.Errorf("BoolOr(3, true) = %v, want true", got)
	}
	if got := v.TextOr(2, "XOF"); got.String != "XOF" {
		t.Errorf("TextOr(2) = %q, want %q", got.String, "XOF")
	}
	if code, err := v.Code(4, "code"); err != nil || code != "parcel" {
		t.Errorf("Code(4) = %q, %v, want parcel, nil", code, err)
	}
	if _, err := v.Code(2, "code"); !IsSkip(err) {
		t.Errorf("Code(2) error = %v, want skip", err)
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`="00123"`, "00123"},
		{"  plain  ", "plain"},
		{`="`, `="`},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
