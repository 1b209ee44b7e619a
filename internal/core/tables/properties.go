package tables

import (
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/cadastre/internal/core"
)

// DefaultPropertyTypes is used until SetPropertyTypes is called.
var DefaultPropertyTypes = []string{
	"land", "house", "villa", "apartment", "studio", "duplex",
	"office", "shop", "warehouse", "commercial", "industrial", "agricultural",
}

var (
	propertyTypesMu sync.RWMutex
	propertyTypes   = typeSet(DefaultPropertyTypes)
)

// SetPropertyTypes replaces the accepted property types. Values are compared
// case-insensitively. An empty list restores the defaults.
func SetPropertyTypes(types []string) {
	set := typeSet(types)
	if len(set) == 0 {
		set = typeSet(DefaultPropertyTypes)
	}
	propertyTypesMu.Lock()
	propertyTypes = set
	propertyTypesMu.Unlock()
}

// PropertyTypes returns the accepted property types, sorted.
func PropertyTypes() []string {
	propertyTypesMu.RLock()
	defer propertyTypesMu.RUnlock()

	out := make([]string, 0, len(propertyTypes))
	for t := range propertyTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func validPropertyType(t string) bool {
	propertyTypesMu.RLock()
	defer propertyTypesMu.RUnlock()
	return propertyTypes[t]
}

func typeSet(types []string) map[string]bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			set[t] = true
		}
	}
	return set
}

func init() {
	registerProperties()
}

// Properties are the generic listing entity: any parcel, optionally a
// building on it, offered under one of the configured property types.
func registerProperties() {
	core.Register(core.Descriptor{
		Sheet:  "Property",
		Entity: "properties",
		Label:  "Properties",
		Order:  OrderProperty,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Parcel ID"),
			core.IntegerColumn("Building ID"),
			core.TextColumn("Property Type"),
			core.TextColumn("Title"),
			core.TextColumn("Description"),
			core.DecimalColumn("Price"),
			core.TextColumn("Currency"),
			core.NumberColumn("Surface (m2)"),
			core.IntegerColumn("Rooms"),
			core.BoolColumn("Published"),
			core.DateColumn("Listed On"),
		},
		MinColumns: 7,
		References: []core.Reference{
			{Column: "parcel_id", Entity: "parcels"},
			{Column: "building_id", Entity: "buildings"},
		},
		Transform: func(v core.Values) (core.Record, error) {
			id, err := v.ID(0, "id")
			if err != nil {
				return nil, err
			}
			parcel, err := v.ID(1, "parcel_id")
			if err != nil {
				return nil, err
			}
			kind := lower(v.Text(3))
			if kind.Valid && !validPropertyType(kind.String) {
				return nil, core.Skipf("invalid enum property type %q (allowed: %s)", v.Text(3).String, strings.Join(PropertyTypes(), ", "))
			}

			return core.Record{
				"id":            id,
				"parcel_id":     parcel,
				"building_id":   v.OptionalID(2),
				"property_type": kind,
				"title":         v.Text(4),
				"description":   v.Text(5),
				"price":         v.Numeric(6),
				"currency":      currency(v, 7),
				"surface":       nonNegative(v.Float(8)),
				"rooms":         v.Int(9),
				"is_published":  v.BoolOr(10, false),
				"listed_on":     v.Date(11),
			}, nil
		},
	})
}
