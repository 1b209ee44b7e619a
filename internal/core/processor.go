package core

// processor.go turns the rows of one worksheet into records.
//
// For each data row (the first row is the header):
//  1. Rows where every cell is empty are ignored and not counted
//  2. Rows shorter than the descriptor's expected column count are rejected
//  3. Every column is coerced; unreadable cells become null with a warning
//  4. The transform builds the record or asks for the row to be skipped
//
// A failing row never aborts the sheet.

import "fmt"

// ProcessResult is the output of ProcessSheet.
type ProcessResult struct {
	Records []Record
	// Rows holds the worksheet row number of each record, for diagnostics.
	Rows      []int
	TotalRows int
	Skipped   int
}

// ProcessSheet validates, coerces and transforms every data row of sheet.
func ProcessSheet(sheet Sheet, d Descriptor, diag *Diagnostics) ProcessResult {
	var res ProcessResult
	rows := sheet.Rows()
	expected := d.ExpectedColumns()

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rowNum := i + 1

		if isBlankRow(row) {
			continue
		}
		res.TotalRows++

		if len(row) < expected {
			diag.Errorf("row %d: expected %d columns, got %d", rowNum, expected, len(row))
			res.Skipped++
			continue
		}

		values := coerceRow(row, d.Columns, rowNum, diag)

		rec, err := runTransform(d.Transform, values)
		switch {
		case err != nil && IsSkip(err):
			diag.Warnf("row %d: skipped: %v", rowNum, err)
			res.Skipped++
		case err != nil:
			diag.Errorf("row %d: %v", rowNum, err)
			res.Skipped++
		case rec == nil:
			diag.Warnf("row %d: skipped: no record produced", rowNum)
			res.Skipped++
		default:
			res.Records = append(res.Records, rec)
			res.Rows = append(res.Rows, rowNum)
		}
	}

	return res
}

func isBlankRow(row []Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// coerceRow converts each positional cell. Cells past the end of the row
// read as empty so optional trailing columns fall back to defaults.
func coerceRow(row []Cell, cols []Column, rowNum int, diag *Diagnostics) Values {
	values := make(Values, len(cols))
	for i, col := range cols {
		cell := Empty()
		if i < len(row) {
			cell = row[i]
		}

		v, ok, err := safeCoerce(col.Coerce, cell)
		switch {
		case err != nil:
			diag.Warnf("row %d, column %q: %v", rowNum, col.Name, err)
		case !ok:
			diag.Warnf("row %d, column %q: cannot read %s as %s", rowNum, col.Name, describe(cell), col.Kind)
		}
		values[i] = v
	}
	return values
}

func safeCoerce(fn Coercer, c Cell) (v any, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, ok, err = nil, false, fmt.Errorf("coercion failed: %v", r)
		}
	}()
	if fn == nil {
		return ToPgText(c), true, nil
	}
	v, ok = fn(c)
	return v, ok, nil
}

func runTransform(fn TransformFunc, v Values) (rec Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("transform failed: %v", r)
		}
	}()
	return fn(v)
}
