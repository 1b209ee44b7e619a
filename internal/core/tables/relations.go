package tables

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/cadastre/internal/core"
)

func init() {
	registerParcelOwners()
	registerParcelInfrastructures()
	registerBuildingUtilityNetworks()
	registerBuildingAmenities()
}

func registerParcelOwners() {
	core.Register(core.Descriptor{
		Sheet:  "ParcelOwner",
		Entity: "parcel_owners",
		Label:  "Parcel Owners",
		Order:  OrderParcelOwner,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Parcel ID"),
			core.IntegerColumn("Owner ID"),
			core.DecimalColumn("Share (%)"),
			core.DateColumn("Acquired On"),
		},
		MinColumns: 3,
		References: []core.Reference{
			{Column: "parcel_id", Entity: "parcels"},
			{Column: "owner_id", Entity: "owners"},
		},
		Transform: func(v core.Values) (core.Record, error) {
			rec, err := link(v, "parcel_id", "owner_id")
			if err != nil {
				return nil, err
			}
			share := v.Numeric(3)
			if share.Valid {
				if f, err := share.Float64Value(); err == nil && f.Valid && (f.Float64 < 0 || f.Float64 > 100) {
					return nil, core.Skipf("share %.2f outside 0-100", f.Float64)
				}
			}
			rec["share_percent"] = share
			rec["acquired_on"] = v.Date(4)
			return rec, nil
		},
	})
}

func registerParcelInfrastructures() {
	core.Register(core.Descriptor{
		Sheet:  "ParcelInfrastructure",
		Entity: "parcel_infrastructures",
		Label:  "Parcel Infrastructures",
		Order:  OrderParcelInfrastructure,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Parcel ID"),
			core.IntegerColumn("Infrastructure ID"),
			core.NumberColumn("Distance (m)"),
		},
		MinColumns: 3,
		References: []core.Reference{
			{Column: "parcel_id", Entity: "parcels"},
			{Column: "infrastructure_id", Entity: "infrastructures"},
		},
		Transform: func(v core.Values) (core.Record, error) {
			rec, err := link(v, "parcel_id", "infrastructure_id")
			if err != nil {
				return nil, err
			}
			rec["distance_m"] = nonNegative(v.Float(3))
			return rec, nil
		},
	})
}

func registerBuildingUtilityNetworks() {
	core.Register(core.Descriptor{
		Sheet:  "BuildingUtilityNetwork",
		Entity: "building_utility_networks",
		Label:  "Building Utility Connections",
		Order:  OrderBuildingUtilityNetwork,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Building ID"),
			core.IntegerColumn("Utility Network ID"),
			core.DateColumn("Connected On"),
			core.BoolColumn("Active"),
		},
		MinColumns: 3,
		References: []core.Reference{
			{Column: "building_id", Entity: "buildings"},
			{Column: "utility_network_id", Entity: "utility_networks"},
		},
		Transform: func(v core.Values) (core.Record, error) {
			rec, err := link(v, "building_id", "utility_network_id")
			if err != nil {
				return nil, err
			}
			rec["connected_on"] = v.Date(3)
			rec["is_active"] = v.BoolOr(4, false)
			return rec, nil
		},
	})
}

func registerBuildingAmenities() {
	core.Register(core.Descriptor{
		Sheet:  "BuildingAmenity",
		Entity: "building_amenities",
		Label:  "Building Amenities",
		Order:  OrderBuildingAmenity,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Building ID"),
			core.TextColumn("Amenity Code"),
		},
		References: []core.Reference{
			{Column: "building_id", Entity: "buildings"},
			{Column: "amenity_code", Entity: "amenities"},
		},
		Transform: func(v core.Values) (core.Record, error) {
			id, err := v.ID(0, "id")
			if err != nil {
				return nil, err
			}
			building, err := v.ID(1, "building_id")
			if err != nil {
				return nil, err
			}
			code, err := v.Code(2, "amenity_code")
			if err != nil {
				return nil, err
			}
			return core.Record{
				"id":           id,
				"building_id":  building,
				"amenity_code": pgtype.Text{String: strings.ToLower(code), Valid: true},
			}, nil
		},
	})
}

// link builds a relation row from ID, left ID and right ID in the first
// three columns.
func link(v core.Values, left, right string) (core.Record, error) {
	id, err := v.ID(0, "id")
	if err != nil {
		return nil, err
	}
	l, err := v.ID(1, left)
	if err != nil {
		return nil, err
	}
	r, err := v.ID(2, right)
	if err != nil {
		return nil, err
	}
	return core.Record{"id": id, left: l, right: r}, nil
}
