// Package admin provides administrative operations for database management.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/cadastre/internal/core"
)

// ResetTimeout is the maximum duration for database reset operations.
const ResetTimeout = 30 * time.Second

// Truncater empties the table backing one entity. Implementations return an
// error wrapping core.ErrModelNotFound when the entity has no table.
type Truncater interface {
	Truncate(ctx context.Context, entity string) error
}

// ResetAll empties every descriptor's table, children before parents, and
// returns the entities it cleared. Entities without a table are skipped.
// This is a destructive operation - use with caution.
func ResetAll(ctx context.Context, t Truncater, descs []core.Descriptor) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	ordered := append([]core.Descriptor(nil), descs...)
	core.SortDescriptors(ordered)

	cleared := make([]string, 0, len(ordered))
	for i := len(ordered) - 1; i >= 0; i-- {
		entity := ordered[i].Entity
		if err := t.Truncate(ctx, entity); err != nil {
			if errors.Is(err, core.ErrModelNotFound) {
				continue
			}
			return cleared, fmt.Errorf("reset %s: %w", entity, err)
		}
		cleared = append(cleared, entity)
	}
	return cleared, nil
}
