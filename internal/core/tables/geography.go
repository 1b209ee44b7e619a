package tables

import (
	"github.com/JonMunkholm/cadastre/internal/core"
)

func init() {
	registerRegions()
	registerDepartments()
	registerDistricts()
	registerSubdivisions()
}

func registerRegions() {
	core.Register(core.Descriptor{
		Sheet:    "Region",
		Entity:   "regions",
		Label:    "Regions",
		Order:    OrderRegion,
		Required: true,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.TextColumn("Code"),
			core.TextColumn("Name"),
			core.TextColumn("Geometry"),
		},
		MinColumns: 3,
		Transform: func(v core.Values) (core.Record, error) {
			id, err := v.ID(0, "id")
			if err != nil {
				return nil, err
			}
			name, err := requireText(v, 2, "name")
			if err != nil {
				return nil, err
			}
			return core.Record{
				"id":       id,
				"code":     v.Text(1),
				"name":     name,
				"geometry": v.Text(3),
			}, nil
		},
	})
}

func registerDepartments() {
	core.Register(core.Descriptor{
		Sheet:  "Department",
		Entity: "departments",
		Label:  "Departments",
		Order:  OrderDepartment,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Region ID"),
			core.TextColumn("Code"),
			core.TextColumn("Name"),
			core.TextColumn("Geometry"),
		},
		MinColumns: 4,
		References: []core.Reference{{Column: "region_id", Entity: "regions"}},
		Transform: func(v core.Values) (core.Record, error) {
			return areaRecord(v, "region_id")
		},
	})
}

func registerDistricts() {
	core.Register(core.Descriptor{
		Sheet:  "District",
		Entity: "districts",
		Label:  "Districts",
		Order:  OrderDistrict,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Department ID"),
			core.TextColumn("Code"),
			core.TextColumn("Name"),
			core.TextColumn("Geometry"),
		},
		MinColumns: 4,
		References: []core.Reference{{Column: "department_id", Entity: "departments"}},
		Transform: func(v core.Values) (core.Record, error) {
			return areaRecord(v, "department_id")
		},
	})
}

func registerSubdivisions() {
	core.Register(core.Descriptor{
		Sheet:  "Subdivision",
		Entity: "subdivisions",
		Label:  "Subdivisions",
		Order:  OrderSubdivision,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("District ID"),
			core.TextColumn("Code"),
			core.TextColumn("Name"),
			core.IntegerColumn("Population"),
			core.TextColumn("Geometry"),
		},
		MinColumns: 4,
		References: []core.Reference{{Column: "district_id", Entity: "districts"}},
		Transform: func(v core.Values) (core.Record, error) {
			rec, err := areaRecord(v, "district_id")
			if err != nil {
				return nil, err
			}
			rec["population"] = v.Int(4)
			rec["geometry"] = v.Text(5)
			return rec, nil
		},
	})
}

// areaRecord builds the shared shape of an administrative area row:
// ID, parent ID, code, name, geometry.
func areaRecord(v core.Values, parentColumn string) (core.Record, error) {
	id, err := v.ID(0, "id")
	if err != nil {
		return nil, err
	}
	parent, err := v.ID(1, parentColumn)
	if err != nil {
		return nil, err
	}
	name, err := requireText(v, 3, "name")
	if err != nil {
		return nil, err
	}
	return core.Record{
		"id":         id,
		parentColumn: parent,
		"code":       v.Text(2),
		"name":       name,
		"geometry":   v.Text(4),
	}, nil
}
