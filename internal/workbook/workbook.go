// Package workbook reads .xlsx payloads into core cells and renders import
// templates, using excelize.
package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/cadastre/internal/core"
)

var (
	// ErrEmptyFile is returned for zero-length payloads.
	ErrEmptyFile = errors.New("empty file")

	// ErrInvalidWorkbook wraps every failure to open or read the payload.
	ErrInvalidWorkbook = errors.New("invalid workbook")
)

// Read parses an .xlsx payload. Every sheet is loaded. A row ends at its last
// non-empty cell; blank cells before it stay in place as empty cells.
func Read(r io.Reader) (*core.MemWorkbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	wb := core.NewMemWorkbook()
	for _, name := range f.GetSheetList() {
		rows, err := readSheet(f, name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrInvalidWorkbook, name, err)
		}
		wb.AddSheet(name, rows...)
	}
	return wb, nil
}

func readSheet(f *excelize.File, sheet string) ([][]core.Cell, error) {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	out := make([][]core.Cell, len(raw))
	for r, row := range raw {
		row = trimTrailing(row)
		cells := make([]core.Cell, len(row))
		for c, value := range row {
			if value == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			cells[c] = readCell(f, sheet, axis, value)
		}
		out[r] = cells
	}
	return out, nil
}

func trimTrailing(row []string) []string {
	n := len(row)
	for n > 0 && row[n-1] == "" {
		n--
	}
	return row[:n]
}

// readCell maps one stored value to the cell union using its declared type.
func readCell(f *excelize.File, sheet, axis, raw string) core.Cell {
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		typ = excelize.CellTypeUnset
	}

	value := scalarCell(f, sheet, axis, typ, raw)

	if formula, err := f.GetCellFormula(sheet, axis); err == nil && formula != "" {
		return core.Formula(formula, value)
	}
	return value
}

func scalarCell(f *excelize.File, sheet, axis string, typ excelize.CellType, raw string) core.Cell {
	switch typ {
	case excelize.CellTypeBool:
		return core.Bool(raw == "1" || strings.EqualFold(raw, "true"))

	case excelize.CellTypeError:
		return core.Empty()

	case excelize.CellTypeDate:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return core.Date(t)
			}
		}
		return core.String(raw)

	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return core.Number(n)
		}
		return core.String(raw)

	default:
		if ok, target, err := f.GetCellHyperLink(sheet, axis); err == nil && ok {
			return core.Hyperlink(raw, target)
		}
		if runs, err := f.GetCellRichText(sheet, axis); err == nil && len(runs) > 1 {
			texts := make([]string, len(runs))
			for i, run := range runs {
				texts[i] = run.Text
			}
			return core.RichText(texts...)
		}
		return core.String(raw)
	}
}
