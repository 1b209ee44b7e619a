package core

import "fmt"

const (
	moreWarnings = "... and more warnings"
	moreErrors   = "... and more errors"
)

// Diagnostics collects warnings and errors for one sheet. Each list keeps at
// most its cap of messages followed by a single overflow marker; the counts
// keep growing past the cap.
type Diagnostics struct {
	maxWarnings int
	maxErrors   int

	warnings []string
	errors   []string

	warningCount int
	errorCount   int
}

// NewDiagnostics returns an accumulator with the given caps.
func NewDiagnostics(maxWarnings, maxErrors int) *Diagnostics {
	if maxWarnings <= 0 {
		maxWarnings = DefaultMaxWarnings
	}
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	return &Diagnostics{maxWarnings: maxWarnings, maxErrors: maxErrors}
}

// Warnf records a warning.
func (d *Diagnostics) Warnf(format string, args ...any) {
	d.warningCount++
	d.warnings = appendCapped(d.warnings, fmt.Sprintf(format, args...), d.maxWarnings, moreWarnings)
}

// Errorf records an error.
func (d *Diagnostics) Errorf(format string, args ...any) {
	d.errorCount++
	d.errors = appendCapped(d.errors, fmt.Sprintf(format, args...), d.maxErrors, moreErrors)
}

// Warnings returns a copy of the recorded warnings. Never nil.
func (d *Diagnostics) Warnings() []string {
	return append(make([]string, 0, len(d.warnings)), d.warnings...)
}

// Errors returns a copy of the recorded errors. Never nil.
func (d *Diagnostics) Errors() []string {
	return append(make([]string, 0, len(d.errors)), d.errors...)
}

// WarningCount returns the number of warnings raised, including dropped ones.
func (d *Diagnostics) WarningCount() int { return d.warningCount }

// ErrorCount returns the number of errors raised, including dropped ones.
func (d *Diagnostics) ErrorCount() int { return d.errorCount }

func appendCapped(list []string, msg string, max int, marker string) []string {
	switch {
	case len(list) < max:
		return append(list, msg)
	case len(list) == max:
		return append(list, marker)
	default:
		return list
	}
}
