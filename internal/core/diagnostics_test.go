package core

import "testing"

func TestDiagnostics_Caps(t *testing.T) {
	d := NewDiagnostics(2, 3)

	for i := 0; i < 5; i++ {
		d.Warnf("warning %d", i)
	}
	for i := 0; i < 10; i++ {
		d.Errorf("error %d", i)
	}

	warnings := d.Warnings()
	if len(warnings) != 3 {
		t.Fatalf("len(Warnings()) = %d, want 3", len(warnings))
	}
	if warnings[2] != "... and more warnings" {
		t.Errorf("last warning = %q, want overflow marker", warnings[2])
	}
	errs := d.Errors()
	if len(errs) != 4 {
		t.Fatalf("len(Errors()) = %d, want 4", len(errs))
	}
	if errs[3] != "... and more errors" {
		t.Errorf("last error = %q, want overflow marker", errs[3])
	}
	if d.WarningCount() != 5 {
		t.Errorf("WarningCount() = %d, want 5", d.WarningCount())
	}
	if d.ErrorCount() != 10 {
		t.Errorf("ErrorCount() = %d, want 10", d.ErrorCount())
	}
}

func TestDiagnostics_ExactlyAtCap(t *testing.T) {
	d := NewDiagnostics(2, 2)
	d.Warnf("a")
	d.Warnf("b")

	if got := d.Warnings(); len(got) != 2 {
		t.Errorf("Warnings() = %v, want 2 entries and no marker", got)
	}
}

func TestDiagnostics_EmptyListsNotNil(t *testing.T) {
	d := NewDiagnostics(0, 0)
	if d.Warnings() == nil || d.Errors() == nil {
		t.Error("Warnings()/Errors() should return empty, non-nil slices")
	}
	if d.maxWarnings != DefaultMaxWarnings || d.maxErrors != DefaultMaxErrors {
		t.Errorf("caps = %d/%d, want defaults", d.maxWarnings, d.maxErrors)
	}
}
