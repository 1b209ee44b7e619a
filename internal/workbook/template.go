package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/cadastre/internal/core"
)

// Template builds an empty import workbook: one sheet per descriptor, in
// processing order, with a bold header row. Optional legacy columns are
// shaded grey.
func Template(descs []core.Descriptor) (*excelize.File, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	optional, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "595959"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"EDEDED"}},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	defaultSheet := f.GetSheetName(0)
	for _, d := range descs {
		if _, err := f.NewSheet(d.Sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", d.Sheet, err)
		}

		headers := d.Headers()
		row := make([]any, len(headers))
		for i, h := range headers {
			row[i] = h
		}
		if err := f.SetSheetRow(d.Sheet, "A1", &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", d.Sheet, err)
		}

		if len(headers) == 0 {
			continue
		}
		expected := d.ExpectedColumns()
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		lastRequired, _ := excelize.CoordinatesToCellName(max(expected, 1), 1)
		if err := f.SetCellStyle(d.Sheet, "A1", lastRequired, header); err != nil {
			f.Close()
			return nil, err
		}
		if expected < len(headers) {
			firstOptional, _ := excelize.CoordinatesToCellName(expected+1, 1)
			if err := f.SetCellStyle(d.Sheet, firstOptional, last, optional); err != nil {
				f.Close()
				return nil, err
			}
		}
		lastCol, _ := excelize.ColumnNumberToName(len(headers))
		if err := f.SetColWidth(d.Sheet, "A", lastCol, 18); err != nil {
			f.Close()
			return nil, err
		}
	}

	if len(descs) > 0 {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			f.Close()
			return nil, err
		}
		f.SetActiveSheet(0)
	}
	return f, nil
}

// WriteTemplate renders the template workbook to w.
func WriteTemplate(w io.Writer, descs []core.Descriptor) error {
	f, err := Template(descs)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}
