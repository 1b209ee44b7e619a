package core

import (
	"strconv"
	"strings"
	"time"
)

// CellKind identifies which variant of a Cell is populated.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
	CellBool
	CellDate
	CellFormula
	CellRichText
	CellHyperlink
)

func (k CellKind) String() string {
	switch k {
	case CellEmpty:
		return "empty"
	case CellString:
		return "string"
	case CellNumber:
		return "number"
	case CellBool:
		return "boolean"
	case CellDate:
		return "date"
	case CellFormula:
		return "formula"
	case CellRichText:
		return "rich text"
	case CellHyperlink:
		return "hyperlink"
	default:
		return "unknown"
	}
}

// Cell is a single raw worksheet value. Only the fields matching Kind are set.
//
// Formula cells carry their cached result in Result; rich text cells carry
// their runs; hyperlink cells carry display text in Str and the link in Target.
type Cell struct {
	Kind    CellKind
	Str     string
	Num     float64
	Bool    bool
	Time    time.Time
	Runs    []string
	Formula string
	Target  string
	Result  *Cell
}

// Empty returns an absent cell.
func Empty() Cell { return Cell{} }

// String returns a text cell.
func String(s string) Cell { return Cell{Kind: CellString, Str: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }

// Bool returns a boolean cell.
func Bool(b bool) Cell { return Cell{Kind: CellBool, Bool: b} }

// Date returns a date cell.
func Date(t time.Time) Cell { return Cell{Kind: CellDate, Time: t} }

// Formula returns a formula cell whose last computed value is result.
func Formula(expr string, result Cell) Cell {
	r := result
	return Cell{Kind: CellFormula, Formula: expr, Result: &r}
}

// RichText returns a rich text cell made of the given runs.
func RichText(runs ...string) Cell {
	return Cell{Kind: CellRichText, Runs: runs}
}

// Hyperlink returns a hyperlink cell displaying text.
func Hyperlink(text, target string) Cell {
	return Cell{Kind: CellHyperlink, Str: text, Target: target}
}

// Resolve reduces wrapper variants to a scalar cell: formulas resolve to their
// cached result, rich text and hyperlinks to their display text.
func (c Cell) Resolve() Cell {
	switch c.Kind {
	case CellFormula:
		if c.Result == nil {
			return Empty()
		}
		return c.Result.Resolve()
	case CellRichText:
		return String(strings.Join(c.Runs, ""))
	case CellHyperlink:
		return String(c.Str)
	default:
		return c
	}
}

// IsEmpty reports whether the cell holds no usable value. Whitespace-only
// text counts as empty.
func (c Cell) IsEmpty() bool {
	r := c.Resolve()
	switch r.Kind {
	case CellEmpty:
		return true
	case CellString:
		return strings.TrimSpace(r.Str) == ""
	default:
		return false
	}
}

// Text renders the resolved cell as a string, the way it would read in the
// sheet. Used by diagnostics and by the text coercer.
func (c Cell) Text() string {
	r := c.Resolve()
	switch r.Kind {
	case CellString:
		return r.Str
	case CellNumber:
		return strconv.FormatFloat(r.Num, 'f', -1, 64)
	case CellBool:
		if r.Bool {
			return "true"
		}
		return "false"
	case CellDate:
		return r.Time.Format(time.RFC3339)
	default:
		return ""
	}
}
