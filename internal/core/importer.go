package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Importer runs the descriptor set over a workbook in dependency order.
// An Importer is safe to reuse; it holds no per-run state.
type Importer struct {
	descriptors []Descriptor
	opts        Options
}

// NewImporter sorts descs, validates the dependency order and returns an
// importer. Pass All() to use the registered descriptor set.
func NewImporter(descs []Descriptor, opts Options) (*Importer, error) {
	sorted := append([]Descriptor(nil), descs...)
	SortDescriptors(sorted)
	if err := ValidateOrder(sorted); err != nil {
		return nil, err
	}
	return &Importer{descriptors: sorted, opts: opts.withDefaults()}, nil
}

// Descriptors returns the processing order.
func (im *Importer) Descriptors() []Descriptor {
	return append([]Descriptor(nil), im.descriptors...)
}

// Run imports every sheet of wb into store and returns the report. Sheet and
// row failures are reported, never returned; Run does not commit or roll back
// anything, that decision belongs to the caller owning the transaction.
func (im *Importer) Run(ctx context.Context, wb Workbook, store EntityStore) *Report {
	report := &Report{
		ImportID:    uuid.NewString(),
		TotalSheets: len(im.descriptors),
		Results:     make([]SheetResult, 0, len(im.descriptors)),
		Errors:      []string{},
	}
	log := im.opts.Logger.With("import_id", report.ImportID)
	started := im.opts.Now()

	failed := false
	for _, d := range im.descriptors {
		res, found, globalErr := im.importSheet(ctx, wb, store, d)
		if found {
			report.ProcessedSheets++
		}
		if globalErr != "" {
			report.Errors = append(report.Errors, globalErr)
		}
		if res.Status == StatusFailed {
			failed = true
		}

		report.Summary.TotalImported += res.Imported
		report.Summary.TotalDuplicates += res.Duplicates
		report.Summary.TotalSkipped += res.Skipped
		report.Summary.TotalErrors += res.errorCount
		report.Results = append(report.Results, res)

		log.Debug("sheet processed",
			"sheet", res.SheetName,
			"status", res.Status,
			"rows", res.TotalRows,
			"imported", res.Imported,
			"duplicates", res.Duplicates,
			"skipped", res.Skipped)
	}

	report.Success = !failed && len(report.Errors) == 0

	log.Info("import finished",
		"success", report.Success,
		"sheets", report.ProcessedSheets,
		"imported", report.Summary.TotalImported,
		"duplicates", report.Summary.TotalDuplicates,
		"skipped", report.Summary.TotalSkipped,
		"errors", report.Summary.TotalErrors,
		"duration", im.opts.Now().Sub(started))

	return report
}

// importSheet runs one descriptor. found reports whether the sheet exists in
// the workbook; globalErr is a message for the report's global error list,
// empty when the failure is sheet-local.
func (im *Importer) importSheet(ctx context.Context, wb Workbook, store EntityStore, d Descriptor) (res SheetResult, found bool, globalErr string) {
	diag := NewDiagnostics(im.opts.MaxWarnings, im.opts.MaxErrors)
	res = SheetResult{SheetName: d.Sheet}

	finish := func(status SheetStatus) SheetResult {
		res.Status = status
		res.Errors = diag.Errors()
		res.Warnings = diag.Warnings()
		res.errorCount = diag.ErrorCount()
		return res
	}

	sheet, ok := findSheet(wb, d.Sheet)
	if !ok {
		if d.Required {
			msg := fmt.Sprintf("required sheet %q not found", d.Sheet)
			diag.Errorf("%s", msg)
			return finish(StatusFailed), false, msg
		}
		return finish(StatusSkipped), false, ""
	}

	processed := ProcessSheet(sheet, d, diag)
	res.TotalRows = processed.TotalRows
	res.Skipped = processed.Skipped

	if len(processed.Records) == 0 {
		if processed.TotalRows == 0 {
			return finish(StatusSkipped), true, ""
		}
		return finish(StatusFailed), true, ""
	}

	model, err := store.Model(ctx, d.Entity)
	if err != nil {
		msg := fmt.Sprintf("%s: %v", d.Sheet, err)
		diag.Errorf("%v", err)
		res.Skipped += len(processed.Records)
		return finish(StatusFailed), true, msg
	}

	loaded := LoadBatches(ctx, model, processed.Records, processed.Rows, im.opts.BatchSize, diag)
	res.Imported = loaded.Imported
	res.Duplicates = loaded.Duplicates
	res.Skipped += loaded.Failed

	switch {
	case diag.ErrorCount() == 0:
		return finish(StatusSuccess), true, ""
	case res.Imported > 0:
		return finish(StatusPartial), true, ""
	default:
		return finish(StatusFailed), true, ""
	}
}

// findSheet looks a sheet up by exact name, then by trimmed
// case-insensitive name.
func findSheet(wb Workbook, name string) (Sheet, bool) {
	if s, ok := wb.Sheet(name); ok {
		return s, true
	}
	for _, n := range wb.SheetNames() {
		if strings.EqualFold(strings.TrimSpace(n), name) {
			return wb.Sheet(n)
		}
	}
	return nil, false
}
