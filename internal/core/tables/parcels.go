package tables

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/cadastre/internal/core"
)

func init() {
	registerParcels()
	registerBuildings()
	registerBuildingUnits()
}

func registerParcels() {
	core.Register(core.Descriptor{
		Sheet:  "Parcel",
		Entity: "parcels",
		Label:  "Parcels",
		Order:  OrderParcel,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Subdivision ID"),
			core.IntegerColumn("Land Use Type ID"),
			core.TextColumn("Cadastral Ref"),
			core.NumberColumn("Area (m2)"),
			core.DecimalColumn("Price"),
			core.TextColumn("Currency"),
			core.BoolColumn("Titled"),
			core.DateColumn("Title Date"),
			core.TextColumn("Geometry"),
		},
		MinColumns: 5,
		References: []core.Reference{
			{Column: "subdivision_id", Entity: "subdivisions"},
			{Column: "land_use_type_id", Entity: "land_use_types"},
		},
		Transform: func(v core.Values) (core.Record, error) {
			id, err := v.ID(0, "id")
			if err != nil {
				return nil, err
			}
			subdivision, err := v.ID(1, "subdivision_id")
			if err != nil {
				return nil, err
			}

			titled := v.BoolOr(7, false)
			titleDate := v.Date(8)
			// A title date implies the parcel is titled even when the flag
			// column was left blank.
			if titleDate.Valid && !v.Bool(7).Valid {
				titled = pgtype.Bool{Bool: true, Valid: true}
			}

			return core.Record{
				"id":               id,
				"subdivision_id":   subdivision,
				"land_use_type_id": v.OptionalID(2),
				"cadastral_ref":    v.Text(3),
				"area_sqm":         nonNegative(v.Float(4)),
				"price":            v.Numeric(5),
				"currency":         currency(v, 6),
				"is_titled":        titled,
				"title_date":       titleDate,
				"geometry":         v.Text(9),
			}, nil
		},
	})
}

func registerBuildings() {
	core.Register(core.Descriptor{
		Sheet:  "Building",
		Entity: "buildings",
		Label:  "Buildings",
		Order:  OrderBuilding,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Parcel ID"),
			core.TextColumn("Name"),
			core.TextColumn("Building Type"),
			core.IntegerColumn("Floors"),
			core.NumberColumn("Built Area (m2)"),
			core.IntegerColumn("Construction Year"),
			core.BoolColumn("Elevator"),
			core.TextColumn("Geometry"),
		},
		MinColumns: 4,
		References: []core.Reference{{Column: "parcel_id", Entity: "parcels"}},
		Transform: func(v core.Values) (core.Record, error) {
			id, err := v.ID(0, "id")
			if err != nil {
				return nil, err
			}
			parcel, err := v.ID(1, "parcel_id")
			if err != nil {
				return nil, err
			}

			year := v.Int(6)
			if year.Valid && (year.Int64 < 1800 || year.Int64 > 2200) {
				year = pgtype.Int8{Valid: false}
			}

			return core.Record{
				"id":                id,
				"parcel_id":         parcel,
				"name":              v.Text(2),
				"building_type":     lower(v.Text(3)),
				"floors":            v.Int(4),
				"built_area":        nonNegative(v.Float(5)),
				"construction_year": year,
				"has_elevator":      v.BoolOr(7, false),
				"geometry":          v.Text(8),
			}, nil
		},
	})
}

func registerBuildingUnits() {
	core.Register(core.Descriptor{
		Sheet:  "BuildingUnit",
		Entity: "building_units",
		Label:  "Building Units",
		Order:  OrderBuildingUnit,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Building ID"),
			core.TextColumn("Unit Number"),
			core.IntegerColumn("Floor"),
			core.NumberColumn("Surface (m2)"),
			core.IntegerColumn("Rooms"),
			core.DecimalColumn("Rent Price"),
			core.TextColumn("Currency"),
			core.BoolColumn("Available"),
		},
		MinColumns: 5,
		References: []core.Reference{{Column: "building_id", Entity: "buildings"}},
		Transform: func(v core.Values) (core.Record, error) {
			id, err := v.ID(0, "id")
			if err != nil {
				return nil, err
			}
			building, err := v.ID(1, "building_id")
			if err != nil {
				return nil, err
			}
			return core.Record{
				"id":           id,
				"building_id":  building,
				"unit_number":  v.Text(2),
				"floor":        v.Int(3),
				"surface":      nonNegative(v.Float(4)),
				"rooms":        v.Int(5),
				"rent_price":   v.Numeric(6),
				"currency":     currency(v, 7),
				"is_available": v.BoolOr(8, false),
			}, nil
		},
	})
}
