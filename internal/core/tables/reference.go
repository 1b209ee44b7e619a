package tables

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/cadastre/internal/core"
)

func init() {
	registerLandUseTypes()
	registerOwners()
	registerInfrastructures()
	registerUtilityNetworks()
	registerAmenities()
}

func registerLandUseTypes() {
	core.Register(core.Descriptor{
		Sheet:  "LandUseType",
		Entity: "land_use_types",
		Label:  "Land Use Types",
		Order:  OrderLandUseType,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.TextColumn("Code"),
			core.TextColumn("Label"),
			core.BoolColumn("Buildable"),
		},
		MinColumns: 3,
		Transform: func(v core.Values) (core.Record, error) {
			id, err := v.ID(0, "id")
			if err != nil {
				return nil, err
			}
			code, err := requireText(v, 1, "code")
			if err != nil {
				return nil, err
			}
			return core.Record{
				"id":           id,
				"code":         code,
				"label":        v.Text(2),
				"is_buildable": v.BoolOr(3, false),
			}, nil
		},
	})
}

func registerOwners() {
	core.Register(core.Descriptor{
		Sheet:  "Owner",
		Entity: "owners",
		Label:  "Owners",
		Order:  OrderOwner,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.TextColumn("Owner Type"),
			core.TextColumn("Last Name"),
			core.TextColumn("First Name"),
			core.TextColumn("Company Name"),
			core.TextColumn("Phone"),
			core.TextColumn("Email"),
			core.TextColumn("National ID"),
			core.BoolColumn("Is Company"),
		},
		MinColumns: 5,
		Transform: func(v core.Values) (core.Record, error) {
			id, err := v.ID(0, "id")
			if err != nil {
				return nil, err
			}
			last, company := v.Text(2), v.Text(4)
			if !last.Valid && !company.Valid {
				return nil, core.Skipf("owner has neither a last name nor a company name")
			}

			// Legacy sheets have no Is Company column; infer it.
			isCompany := v.Bool(8)
			if !isCompany.Valid {
				isCompany = pgtype.Bool{Bool: company.Valid && !last.Valid, Valid: true}
			}

			return core.Record{
				"id":           id,
				"owner_type":   lower(v.Text(1)),
				"last_name":    last,
				"first_name":   v.Text(3),
				"company_name": company,
				"phone":        v.Text(5),
				"email":        lower(v.Text(6)),
				"national_id":  v.Text(7),
				"is_company":   isCompany,
			}, nil
		},
	})
}

func registerInfrastructures() {
	core.Register(core.Descriptor{
		Sheet:  "Infrastructure",
		Entity: "infrastructures",
		Label:  "Infrastructures",
		Order:  OrderInfrastructure,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.TextColumn("Type"),
			core.TextColumn("Name"),
			core.TextColumn("Status"),
			core.TextColumn("Geometry"),
		},
		MinColumns: 3,
		Transform: func(v core.Values) (core.Record, error) {
			id, err := v.ID(0, "id")
			if err != nil {
				return nil, err
			}
			typ, err := requireText(v, 1, "type")
			if err != nil {
				return nil, err
			}
			return core.Record{
				"id":         id,
				"infra_type": lower(typ),
				"name":       v.Text(2),
				"status":     lower(v.Text(3)),
				"geometry":   v.Text(4),
			}, nil
		},
	})
}

func registerUtilityNetworks() {
	core.Register(core.Descriptor{
		Sheet:  "UtilityNetwork",
		Entity: "utility_networks",
		Label:  "Utility Networks",
		Order:  OrderUtilityNetwork,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.TextColumn("Network Type"),
			core.TextColumn("Operator"),
			core.NumberColumn("Capacity"),
			core.TextColumn("Geometry"),
		},
		MinColumns: 2,
		Transform: func(v core.Values) (core.Record, error) {
			id, err := v.ID(0, "id")
			if err != nil {
				return nil, err
			}
			typ, err := requireText(v, 1, "network type")
			if err != nil {
				return nil, err
			}
			return core.Record{
				"id":           id,
				"network_type": lower(typ),
				"operator":     v.Text(2),
				"capacity":     nonNegative(v.Float(3)),
				"geometry":     v.Text(4),
			}, nil
		},
	})
}

// Amenities are keyed by their code rather than a numeric ID.
func registerAmenities() {
	core.Register(core.Descriptor{
		Sheet:  "Amenity",
		Entity: "amenities",
		Label:  "Amenities",
		Order:  OrderAmenity,
		Key:    []string{"code"},
		Columns: []core.Column{
			core.TextColumn("Code"),
			core.TextColumn("Label"),
			core.TextColumn("Category"),
		},
		MinColumns: 2,
		Transform: func(v core.Values) (core.Record, error) {
			code, err := v.Code(0, "code")
			if err != nil {
				return nil, err
			}
			return core.Record{
				"code":     lower(pgtype.Text{String: code, Valid: true}),
				"label":    v.Text(1),
				"category": lower(v.Text(2)),
			}, nil
		},
	})
}
