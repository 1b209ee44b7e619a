package core

import (
	"context"
	"log/slog"
	"time"
)

// Coercer turns a raw cell into a typed, nullable value (one of the pgtype
// values). ok is false when a non-empty cell could not be interpreted; the
// returned value is then null and the processor records a warning.
type Coercer func(c Cell) (v any, ok bool)

// Column describes one positional worksheet column.
type Column struct {
	Name   string  // Header label, also used in diagnostics
	Kind   string  // Human readable target type ("text", "decimal", ...)
	Coerce Coercer // Cell to typed value conversion
}

// Reference declares that Column holds the identifier of a row in Entity.
type Reference struct {
	Column string
	Entity string
}

// Record is a transformed row, keyed by storage column name.
type Record map[string]any

// TransformFunc maps coerced column values to a record. Returning a Skip
// error drops the row with a warning; any other error drops it with an error.
// A nil record with a nil error is also treated as a skip.
type TransformFunc func(v Values) (Record, error)

// Descriptor declares how one worksheet maps to one storage entity.
type Descriptor struct {
	Sheet    string // Worksheet name
	Entity   string // Storage model name
	Label    string // Display name
	Order    int    // Position in the dependency order
	Required bool   // Import fails when the sheet is absent

	Columns []Column
	// MinColumns is the number of leading columns a row must carry. Columns
	// past it are optional legacy columns that default when absent. Zero
	// means every column is required.
	MinColumns int

	Key        []string    // Natural identifier columns, defaults to "id"
	References []Reference // Foreign keys resolved against earlier entities

	Transform TransformFunc
}

// ExpectedColumns returns the minimum number of cells a row must have.
func (d Descriptor) ExpectedColumns() int {
	if d.MinColumns > 0 && d.MinColumns <= len(d.Columns) {
		return d.MinColumns
	}
	return len(d.Columns)
}

// KeyColumns returns the identifier columns of the entity.
func (d Descriptor) KeyColumns() []string {
	if len(d.Key) == 0 {
		return []string{"id"}
	}
	return d.Key
}

// DependsOn returns the distinct entities this descriptor references.
func (d Descriptor) DependsOn() []string {
	seen := make(map[string]bool, len(d.References))
	var out []string
	for _, ref := range d.References {
		if ref.Entity == d.Entity || seen[ref.Entity] {
			continue
		}
		seen[ref.Entity] = true
		out = append(out, ref.Entity)
	}
	return out
}

// Headers returns the column labels in positional order.
func (d Descriptor) Headers() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Workbook is a parsed spreadsheet exposing named worksheets.
type Workbook interface {
	// Sheet returns the named worksheet, or false when it does not exist.
	Sheet(name string) (Sheet, bool)
	SheetNames() []string
}

// Sheet is a grid of cells. Row 0 is the header row.
type Sheet interface {
	Name() string
	Rows() [][]Cell
}

// Model is a handle to one storage entity.
type Model interface {
	// InsertSkipDuplicates inserts records, silently skipping those whose
	// identifier already exists, and returns how many were actually inserted.
	InsertSkipDuplicates(ctx context.Context, records []Record) (int, error)
}

// EntityStore resolves entity names to models. Implementations return an
// error wrapping ErrModelNotFound when the entity does not exist.
type EntityStore interface {
	Model(ctx context.Context, entity string) (Model, error)
}

// SheetStatus is the outcome of one sheet.
type SheetStatus string

const (
	StatusSuccess SheetStatus = "success"
	StatusPartial SheetStatus = "partial"
	StatusFailed  SheetStatus = "failed"
	StatusSkipped SheetStatus = "skipped"
)

// SheetResult reports what happened to one worksheet.
// TotalRows always equals Imported + Duplicates + Skipped.
type SheetResult struct {
	SheetName  string      `json:"sheetName"`
	Status     SheetStatus `json:"status"`
	TotalRows  int         `json:"totalRows"`
	Imported   int         `json:"imported"`
	Duplicates int         `json:"duplicates"`
	Skipped    int         `json:"skipped"`
	Errors     []string    `json:"errors"`
	Warnings   []string    `json:"warnings"`

	errorCount int
}

// ErrorCount returns the number of errors raised, including those past the
// diagnostics cap.
func (r SheetResult) ErrorCount() int {
	return r.errorCount
}

// Summary aggregates counts across sheets.
type Summary struct {
	TotalImported   int `json:"totalImported"`
	TotalDuplicates int `json:"totalDuplicates"`
	TotalSkipped    int `json:"totalSkipped"`
	TotalErrors     int `json:"totalErrors"`
}

// Report is the result of one import run. It is never mutated after Run returns.
type Report struct {
	ImportID        string        `json:"importId"`
	Success         bool          `json:"success"`
	TotalSheets     int           `json:"totalSheets"`
	ProcessedSheets int           `json:"processedSheets"`
	Results         []SheetResult `json:"results"`
	Errors          []string      `json:"errors"`
	Summary         Summary       `json:"summary"`
}

// HasPartial reports whether any sheet ended partially imported.
func (r *Report) HasPartial() bool {
	for _, res := range r.Results {
		if res.Status == StatusPartial {
			return true
		}
	}
	return false
}

// Result returns the sheet result for the named sheet.
func (r *Report) Result(sheet string) (SheetResult, bool) {
	for _, res := range r.Results {
		if res.SheetName == sheet {
			return res, true
		}
	}
	return SheetResult{}, false
}

// Default pipeline limits.
const (
	DefaultBatchSize   = 100
	DefaultMaxWarnings = 20
	DefaultMaxErrors   = 50
)

// Options tunes an Importer.
type Options struct {
	BatchSize   int
	MaxWarnings int
	MaxErrors   int
	Logger      *slog.Logger
	// Now is used to stamp log lines; tests may pin it.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxWarnings <= 0 {
		o.MaxWarnings = DefaultMaxWarnings
	}
	if o.MaxErrors <= 0 {
		o.MaxErrors = DefaultMaxErrors
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
