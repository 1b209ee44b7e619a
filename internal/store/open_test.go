package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/cadastre/internal/config"
	"github.com/JonMunkholm/cadastre/internal/core"
	_ "github.com/JonMunkholm/cadastre/internal/core/tables"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		h, err := Open(ctx, config.DatabaseConfig{Driver: "memory"})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer h.Close()
		if h.Ping != nil {
			t.Error("memory backend should have no ping")
		}
		err = h.Backend.WithinTx(ctx, func(s core.EntityStore) (bool, error) {
			_, err := s.Model(ctx, "boundary_markers")
			return false, err
		})
		if err != nil {
			t.Errorf("memory backend missing registered entity: %v", err)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cadastre.db")
		h, err := Open(ctx, config.DatabaseConfig{Driver: "SQLite", SQLitePath: path})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer h.Close()
		if err := h.Ping(ctx); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
		if h.Name != "sqlite/"+path {
			t.Errorf("Name = %q", h.Name)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := Open(ctx, config.DatabaseConfig{Driver: "mysql"}); err == nil {
			t.Error("expected error for unknown driver")
		}
	})

	t.Run("bad postgres url", func(t *testing.T) {
		if _, err := Open(ctx, config.DatabaseConfig{Driver: "postgres", URL: "://nope"}); err == nil {
			t.Error("expected error for malformed URL")
		}
	})
}
