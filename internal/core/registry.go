package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry   = make(map[string]Descriptor)
	registryMu sync.RWMutex
)

// Register adds a descriptor to the registry.
// Panics if a descriptor with the same sheet or entity is already registered,
// or if it has no transform.
func Register(d Descriptor) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[d.Sheet]; exists {
		panic(fmt.Sprintf("sheet already registered: %s", d.Sheet))
	}
	for _, other := range registry {
		if other.Entity == d.Entity {
			panic(fmt.Sprintf("entity already registered: %s (sheet %s)", d.Entity, other.Sheet))
		}
	}
	if d.Transform == nil {
		panic(fmt.Sprintf("descriptor %s has no transform", d.Sheet))
	}
	if d.Label == "" {
		d.Label = d.Sheet
	}

	registry[d.Sheet] = d
}

// Get returns a descriptor by sheet name.
func Get(sheet string) (Descriptor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	d, ok := registry[sheet]
	return d, ok
}

// All returns the registered descriptors in dependency order.
func All() []Descriptor {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		result = append(result, d)
	}
	SortDescriptors(result)
	return result
}

// DescriptorCount returns the number of registered descriptors.
func DescriptorCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered descriptors.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Descriptor)
}

// SortDescriptors orders descriptors by Order, then by sheet name.
func SortDescriptors(descs []Descriptor) {
	sort.SliceStable(descs, func(i, j int) bool {
		if descs[i].Order != descs[j].Order {
			return descs[i].Order < descs[j].Order
		}
		return descs[i].Sheet < descs[j].Sheet
	})
}

// ValidateOrder checks that every referenced entity is declared before the
// descriptor referencing it. descs must already be in processing order.
// All violations are collected into one error.
func ValidateOrder(descs []Descriptor) error {
	position := make(map[string]int, len(descs))
	for i, d := range descs {
		position[d.Entity] = i
	}

	var errs []string
	for i, d := range descs {
		for _, ref := range d.References {
			if ref.Entity == d.Entity {
				continue
			}
			pos, ok := position[ref.Entity]
			switch {
			case !ok:
				errs = append(errs, fmt.Sprintf("%s.%s references unknown entity %s", d.Entity, ref.Column, ref.Entity))
			case pos > i:
				errs = append(errs, fmt.Sprintf("%s.%s references %s, which is declared later", d.Entity, ref.Column, ref.Entity))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidOrder, strings.Join(errs, "\n  - "))
	}
	return nil
}
