package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/cadastre/internal/core"
	"github.com/JonMunkholm/cadastre/internal/logging"
	"github.com/JonMunkholm/cadastre/internal/workbook"
)

const healthTimeout = 5 * time.Second

// errNoFile is reported when the multipart form has no "file" part.
var errNoFile = errors.New("no file provided")

// handleImport runs a whole workbook import synchronously and returns the
// outcome. 200 means committed; 422 means the report carries failures or
// the transaction was rolled back by the commit policy.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			respondError(w, r, fmt.Errorf("file too large: %w", err), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	log := logging.WithFields(r.Context(), "file", header.Filename, "size", header.Size)
	log.Info("import received")

	out, err := s.service.Import(r.Context(), file)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	status := http.StatusOK
	if !out.Committed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, out)
}

// handleImportStatus reports whether the import slot is free.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Status())
}

// ColumnInfo describes one positional column of a sheet.
type ColumnInfo struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Optional bool   `json:"optional,omitempty"`
}

// DescriptorInfo is the public view of a descriptor.
type DescriptorInfo struct {
	Sheet           string       `json:"sheet"`
	Entity          string       `json:"entity"`
	Label           string       `json:"label"`
	Order           int          `json:"order"`
	Required        bool         `json:"required"`
	ExpectedColumns int          `json:"expectedColumns"`
	Key             []string     `json:"key"`
	DependsOn       []string     `json:"dependsOn"`
	Columns         []ColumnInfo `json:"columns"`
}

func describe(d core.Descriptor) DescriptorInfo {
	expected := d.ExpectedColumns()
	cols := make([]ColumnInfo, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = ColumnInfo{Name: c.Name, Kind: c.Kind, Optional: i >= expected}
	}
	deps := d.DependsOn()
	if deps == nil {
		deps = []string{}
	}
	return DescriptorInfo{
		Sheet:           d.Sheet,
		Entity:          d.Entity,
		Label:           d.Label,
		Order:           d.Order,
		Required:        d.Required,
		ExpectedColumns: expected,
		Key:             d.KeyColumns(),
		DependsOn:       deps,
		Columns:         cols,
	}
}

// handleDescriptors lists the sheets in processing order.
func (s *Server) handleDescriptors(w http.ResponseWriter, r *http.Request) {
	descs := s.service.Descriptors()
	infos := make([]DescriptorInfo, len(descs))
	for i, d := range descs {
		infos[i] = describe(d)
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleTemplate streams an empty import workbook.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	f, err := workbook.Template(s.service.Descriptors())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="cadastre_import_template.xlsx"`)
	if _, err := f.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Error("template write failed", "error", err)
	}
}

// handleHealth checks the store connection.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"import": s.service.Status(),
	})
}
