package tables

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/cadastre/internal/core"
)

func init() {
	registerValuations()
	registerTaxAssessments()
	registerEasements()
	registerBoundaryMarkers()
}

func registerValuations() {
	core.Register(core.Descriptor{
		Sheet:  "Valuation",
		Entity: "valuations",
		Label:  "Valuations",
		Order:  OrderValuation,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Parcel ID"),
			core.DateColumn("Valued On"),
			core.DecimalColumn("Market Value"),
			core.TextColumn("Currency"),
			core.TextColumn("Appraiser"),
			core.TextColumn("Method"),
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
			value := v.Numeric(3)
			if !value.Valid {
				return nil, core.Skipf("missing market value")
			}
			return core.Record{
				"id":           id,
				"parcel_id":    parcel,
				"valued_on":    v.Date(2),
				"market_value": value,
				"currency":     currency(v, 4),
				"appraiser":    v.Text(5),
				"method":       lower(v.Text(6)),
			}, nil
		},
	})
}

func registerTaxAssessments() {
	core.Register(core.Descriptor{
		Sheet:  "TaxAssessment",
		Entity: "tax_assessments",
		Label:  "Tax Assessments",
		Order:  OrderTaxAssessment,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Parcel ID"),
			core.IntegerColumn("Fiscal Year"),
			core.DecimalColumn("Assessed Value"),
			core.DecimalColumn("Tax Amount"),
			core.TextColumn("Currency"),
			core.BoolColumn("Paid"),
		},
		MinColumns: 5,
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
			year := v.Int(2)
			if !year.Valid {
				return nil, core.Skipf("missing fiscal year")
			}
			return core.Record{
				"id":             id,
				"parcel_id":      parcel,
				"fiscal_year":    year,
				"assessed_value": v.Numeric(3),
				"tax_amount":     v.Numeric(4),
				"currency":       currency(v, 5),
				"is_paid":        v.BoolOr(6, false),
			}, nil
		},
	})
}

func registerEasements() {
	core.Register(core.Descriptor{
		Sheet:  "Easement",
		Entity: "easements",
		Label:  "Easements",
		Order:  OrderEasement,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Parcel ID"),
			core.TextColumn("Easement Type"),
			core.TextColumn("Beneficiary"),
			core.TextColumn("Description"),
			core.TextColumn("Geometry"),
		},
		MinColumns: 3,
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
			return core.Record{
				"id":            id,
				"parcel_id":     parcel,
				"easement_type": lower(v.Text(2)),
				"beneficiary":   v.Text(3),
				"description":   v.Text(4),
				"geometry":      v.Text(5),
			}, nil
		},
	})
}

func registerBoundaryMarkers() {
	core.Register(core.Descriptor{
		Sheet:  "BoundaryMarker",
		Entity: "boundary_markers",
		Label:  "Boundary Markers",
		Order:  OrderBoundaryMarker,
		Columns: []core.Column{
			core.IntegerColumn("ID"),
			core.IntegerColumn("Parcel ID"),
			core.TextColumn("Marker Code"),
			core.NumberColumn("Latitude"),
			core.NumberColumn("Longitude"),
			core.DateColumn("Placed On"),
		},
		MinColumns: 5,
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
			lat, lng := v.Float(3), v.Float(4)
			if lat.Valid && (lat.Float64 < -90 || lat.Float64 > 90) {
				lat = pgtype.Float8{Valid: false}
			}
			if lng.Valid && (lng.Float64 < -180 || lng.Float64 > 180) {
				lng = pgtype.Float8{Valid: false}
			}
			return core.Record{
				"id":          id,
				"parcel_id":   parcel,
				"marker_code": v.Text(2),
				"latitude":    lat,
				"longitude":   lng,
				"placed_on":   v.Date(5),
			}, nil
		},
	})
}
