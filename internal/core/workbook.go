package core

import "time"

// MemSheet is an in-memory Sheet.
type MemSheet struct {
	name string
	rows [][]Cell
}

func (s *MemSheet) Name() string   { return s.name }
func (s *MemSheet) Rows() [][]Cell { return s.rows }

// AppendRow adds a row to the sheet.
func (s *MemSheet) AppendRow(row []Cell) {
	s.rows = append(s.rows, row)
}

// MemWorkbook is an in-memory Workbook. Sheet order is insertion order.
type MemWorkbook struct {
	names  []string
	sheets map[string]*MemSheet
}

// NewMemWorkbook returns an empty workbook.
func NewMemWorkbook() *MemWorkbook {
	return &MemWorkbook{sheets: make(map[string]*MemSheet)}
}

// AddSheet creates (or replaces) a sheet with the given rows and returns it.
func (w *MemWorkbook) AddSheet(name string, rows ...[]Cell) *MemSheet {
	if _, ok := w.sheets[name]; !ok {
		w.names = append(w.names, name)
	}
	s := &MemSheet{name: name, rows: rows}
	w.sheets[name] = s
	return s
}

func (w *MemWorkbook) Sheet(name string) (Sheet, bool) {
	s, ok := w.sheets[name]
	if !ok {
		return nil, false
	}
	return s, true
}

func (w *MemWorkbook) SheetNames() []string {
	return append([]string(nil), w.names...)
}

// CellOf wraps a Go value in a Cell. Unsupported types become empty cells.
func CellOf(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Empty()
	case Cell:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case float64:
		return Number(x)
	case time.Time:
		return Date(x)
	default:
		return Empty()
	}
}

// Row builds a row of cells from Go values.
func Row(vals ...any) []Cell {
	row := make([]Cell, len(vals))
	for i, v := range vals {
		row[i] = CellOf(v)
	}
	return row
}
