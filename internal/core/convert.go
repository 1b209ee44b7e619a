package core

// convert.go provides the cell coercion functions used by every descriptor.
//
// These functions handle the messy reality of hand-maintained workbooks:
//   - Cells typed as numbers, text, booleans, dates, formulas or rich text
//   - Dates stored as spreadsheet serial numbers or as free-form text
//   - Currency symbols and thousand separators in numbers
//   - Boolean words in English and French (oui/non, vrai/faux)
//
// All To* functions return pgtype values with Valid=false for empty or
// unparseable input. They never panic and never return an error.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// SerialDateOffset is the number of days between spreadsheet serial day zero
// and the Unix epoch. 25569 accounts for the 1900 leap-year bug carried by
// spreadsheet date systems.
var SerialDateOffset = 25569.0

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// DayFirstDates makes ambiguous slash dates read as day/month/year.
var DayFirstDates = false

var (
	isoLayouts = []string{
		time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006", "January 2, 2006",
		"20060102",
	}
	monthFirstLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006",
	}
	dayFirstLayouts = []string{
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
	}
	twoDigitMonthFirst = []string{"1/2/06", "01/02/06", "1-2-06"}
	twoDigitDayFirst   = []string{"2/1/06", "02/01/06", "2.1.06", "02.01.06"}
)

var (
	trueTokens  = map[string]bool{"true": true, "1": true, "yes": true, "vrai": true, "oui": true, "o": true}
	falseTokens = map[string]bool{"false": true, "0": true, "no": true, "n": true, "faux": true, "non": true}
)

// ToPgText converts a cell to pgtype.Text.
// Returns invalid if the cell is absent or only whitespace.
func ToPgText(c Cell) pgtype.Text {
	r := c.Resolve()
	var s string
	if r.Kind == CellDate {
		s = r.Time.Format("2006-01-02")
	} else {
		s = strings.TrimSpace(r.Text())
	}
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgFloat8 converts a cell to pgtype.Float8.
// Numeric cells pass through; text is cleaned of currency symbols and
// separators before parsing.
func ToPgFloat8(c Cell) pgtype.Float8 {
	r := c.Resolve()
	switch r.Kind {
	case CellNumber:
		if math.IsNaN(r.Num) || math.IsInf(r.Num, 0) {
			return pgtype.Float8{Valid: false}
		}
		return pgtype.Float8{Float64: r.Num, Valid: true}
	case CellString:
		s, ok := cleanNumber(r.Str)
		if !ok {
			return pgtype.Float8{Valid: false}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			return pgtype.Float8{Valid: false}
		}
		return pgtype.Float8{Float64: f, Valid: true}
	default:
		return pgtype.Float8{Valid: false}
	}
}

// ToPgInt8 converts a cell to pgtype.Int8.
// Returns invalid when the value is not integral.
func ToPgInt8(c Cell) pgtype.Int8 {
	f := ToPgFloat8(c)
	if !f.Valid || f.Float64 != math.Trunc(f.Float64) || math.Abs(f.Float64) > math.MaxInt64/2 {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: int64(f.Float64), Valid: true}
}

// ToPgNumeric converts a cell to pgtype.Numeric rounded to two decimal places.
func ToPgNumeric(c Cell) pgtype.Numeric {
	f := ToPgFloat8(c)
	if !f.Valid {
		return pgtype.Numeric{Valid: false}
	}
	rounded := math.Round(f.Float64*100) / 100

	var n pgtype.Numeric
	if err := n.Scan(strconv.FormatFloat(rounded, 'f', 2, 64)); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// ToPgBool converts a cell to pgtype.Bool.
// Accepts boolean cells and numbers (non-zero is true). Text must be one of
// true/false, yes/no, vrai/faux, oui/non, o/n or 1/0. Anything else is null.
func ToPgBool(c Cell) pgtype.Bool {
	r := c.Resolve()
	switch r.Kind {
	case CellBool:
		return pgtype.Bool{Bool: r.Bool, Valid: true}
	case CellNumber:
		return pgtype.Bool{Bool: r.Num != 0, Valid: !math.IsNaN(r.Num)}
	case CellString:
		s := strings.ToLower(strings.TrimSpace(r.Str))
		if trueTokens[s] {
			return pgtype.Bool{Bool: true, Valid: true}
		}
		if falseTokens[s] {
			return pgtype.Bool{Bool: false, Valid: true}
		}
		return pgtype.Bool{Valid: false}
	default:
		return pgtype.Bool{Valid: false}
	}
}

// ToPgDate converts a cell to pgtype.Date.
// Numeric cells are read as spreadsheet serial dates; text is tried against
// ISO layouts first, then slash layouts, then 2-digit years with the pivot.
func ToPgDate(c Cell) pgtype.Date {
	r := c.Resolve()
	switch r.Kind {
	case CellDate:
		return pgtype.Date{Time: dateOnly(r.Time), Valid: true}
	case CellNumber:
		return serialToDate(r.Num)
	case CellString:
		return parseDateString(r.Str)
	default:
		return pgtype.Date{Valid: false}
	}
}

// SerialToTime converts a spreadsheet serial date to a UTC time.
func SerialToTime(serial float64) time.Time {
	ms := math.Round((serial - SerialDateOffset) * 86400 * 1000)
	return time.UnixMilli(int64(ms)).UTC()
}

func serialToDate(serial float64) pgtype.Date {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 || serial > 2958465 {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: dateOnly(SerialToTime(serial)), Valid: true}
}

func parseDateString(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{Valid: false}
	}

	slash := monthFirstLayouts
	twoDigit := twoDigitMonthFirst
	if DayFirstDates {
		slash = dayFirstLayouts
		twoDigit = twoDigitDayFirst
	}

	for _, layouts := range [][]string{isoLayouts, slash} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return pgtype.Date{Time: dateOnly(t), Valid: true}
			}
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigit {
		t, err := time.Parse(layout, s)
		if err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return pgtype.Date{Time: dateOnly(t), Valid: true}
		}
	}

	return pgtype.Date{Valid: false}
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// cleanNumber strips currency symbols, spaces and thousand separators.
// Percent signs are not stripped: "10%" is not read as 10.
// A lone comma with no dot is read as a decimal comma ("12,5").
func cleanNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	for _, sym := range []string{"$", "\u20ac", "\u00a3", "FCFA", "XOF", " ", "\u00a0", "\u202f"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	if isNegative {
		s = "-" + s
	}
	if !numericRegex.MatchString(s) {
		return "", false
	}
	return s, true
}

// CleanCell trims a text value and removes the ="..." wrapper some exports use.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// Coercers for Column.Coerce. Each reports ok=false only when a non-empty
// cell could not be read as the target type.
var (
	AsText Coercer = func(c Cell) (any, bool) {
		return ToPgText(c), true
	}
	AsNumber Coercer = func(c Cell) (any, bool) {
		v := ToPgFloat8(c)
		return v, v.Valid || c.IsEmpty()
	}
	AsInteger Coercer = func(c Cell) (any, bool) {
		v := ToPgInt8(c)
		return v, v.Valid || c.IsEmpty()
	}
	AsDecimal Coercer = func(c Cell) (any, bool) {
		v := ToPgNumeric(c)
		return v, v.Valid || c.IsEmpty()
	}
	AsBool Coercer = func(c Cell) (any, bool) {
		v := ToPgBool(c)
		return v, v.Valid || c.IsEmpty()
	}
	AsDate Coercer = func(c Cell) (any, bool) {
		v := ToPgDate(c)
		return v, v.Valid || c.IsEmpty()
	}
)

// Column constructors.

func TextColumn(name string) Column    { return Column{Name: name, Kind: "text", Coerce: AsText} }
func NumberColumn(name string) Column  { return Column{Name: name, Kind: "number", Coerce: AsNumber} }
func IntegerColumn(name string) Column { return Column{Name: name, Kind: "integer", Coerce: AsInteger} }
func DecimalColumn(name string) Column { return Column{Name: name, Kind: "decimal", Coerce: AsDecimal} }
func BoolColumn(name string) Column    { return Column{Name: name, Kind: "boolean", Coerce: AsBool} }
func DateColumn(name string) Column    { return Column{Name: name, Kind: "date", Coerce: AsDate} }

// Values holds the coerced values of one row in column order. Accessors
// return null values for out-of-range indexes or mismatched types.
type Values []any

func (v Values) at(i int) any {
	if i < 0 || i >= len(v) {
		return nil
	}
	return v[i]
}

func (v Values) Text(i int) pgtype.Text {
	t, _ := v.at(i).(pgtype.Text)
	return t
}

func (v Values) Float(i int) pgtype.Float8 {
	f, _ := v.at(i).(pgtype.Float8)
	return f
}

func (v Values) Int(i int) pgtype.Int8 {
	n, _ := v.at(i).(pgtype.Int8)
	return n
}

func (v Values) Numeric(i int) pgtype.Numeric {
	n, _ := v.at(i).(pgtype.Numeric)
	return n
}

func (v Values) Bool(i int) pgtype.Bool {
	b, _ := v.at(i).(pgtype.Bool)
	return b
}

func (v Values) Date(i int) pgtype.Date {
	d, _ := v.at(i).(pgtype.Date)
	return d
}

// BoolOr returns the boolean at i, or def when it is null.
func (v Values) BoolOr(i int, def bool) pgtype.Bool {
	if b := v.Bool(i); b.Valid {
		return b
	}
	return pgtype.Bool{Bool: def, Valid: true}
}

// TextOr returns the text at i, or def when it is null.
func (v Values) TextOr(i int, def string) pgtype.Text {
	if t := v.Text(i); t.Valid {
		return t
	}
	return pgtype.Text{String: def, Valid: true}
}

// ID returns the integral identifier at i. A null or zero identifier is a
// Skip error naming the column.
func (v Values) ID(i int, column string) (int64, error) {
	n := v.Int(i)
	if !n.Valid || n.Int64 == 0 {
		return 0, Skipf("missing or invalid %s", column)
	}
	return n.Int64, nil
}

// Code returns the non-empty text identifier at i.
func (v Values) Code(i int, column string) (string, error) {
	t := v.Text(i)
	if !t.Valid {
		return "", Skipf("missing %s", column)
	}
	return t.String, nil
}

// OptionalID returns a nullable identifier; zero reads as null.
func (v Values) OptionalID(i int) pgtype.Int8 {
	n := v.Int(i)
	if n.Valid && n.Int64 == 0 {
		return pgtype.Int8{Valid: false}
	}
	return n
}

// describe renders a value for diagnostics.
func describe(c Cell) string {
	s := c.Text()
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return fmt.Sprintf("%q", s)
}
