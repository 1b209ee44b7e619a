// Package tables registers the workbook descriptors with the core registry.
// Import this package to ensure all descriptors are registered.
//
// Order values leave gaps so a new sheet can be slotted between existing
// ones. A descriptor may only reference entities with a lower order; the
// importer refuses to start otherwise.
package tables

// Dependency order of the import.
const (
	OrderRegion                 = 10
	OrderDepartment             = 20
	OrderDistrict               = 30
	OrderSubdivision            = 40
	OrderLandUseType            = 50
	OrderOwner                  = 60
	OrderInfrastructure         = 70
	OrderUtilityNetwork         = 80
	OrderAmenity                = 90
	OrderParcel                 = 100
	OrderBuilding               = 110
	OrderBuildingUnit           = 120
	OrderParcelOwner            = 130
	OrderParcelInfrastructure   = 140
	OrderBuildingUtilityNetwork = 150
	OrderBuildingAmenity        = 160
	OrderProperty               = 170
	OrderValuation              = 180
	OrderTaxAssessment          = 190
	OrderEasement               = 200
	OrderBoundaryMarker         = 210
)
