package models

import "time"

// Canonical Redfin property-type labels. Labels outside this set are passed
// through verbatim so new provider categories never vanish silently.
const (
	PropertyAllResidential   = "All Residential"
	PropertySingleFamily     = "Single Family Residential"
	PropertyTownhouse        = "Townhouse"
	PropertyCondoCoop        = "Condo/Co-op"
	PropertyMultiFamilySmall = "Multi-Family (2-4 Unit)"
	PropertyMultiFamilyLarge = "Multi-Family (5+ Unit)"
)

// KnownPropertyTypes is the closed vocabulary the partition slugs are
// derived from. Unknown labels are still written, just not pre-declared.
var KnownPropertyTypes = map[string]struct{}{
	PropertyAllResidential:   {},
	PropertySingleFamily:     {},
	PropertyTownhouse:        {},
	PropertyCondoCoop:        {},
	PropertyMultiFamilySmall: {},
	PropertyMultiFamilyLarge: {},
}

// IsKnownPropertyType reports whether label belongs to the canonical
// Redfin vocabulary.
func IsKnownPropertyType(label string) bool {
	_, ok := KnownPropertyTypes[label]
	return ok
}

// RawHousingRow holds one unprocessed row from the Redfin city market
// tracker TSV. Numeric fields and PeriodEnd are pointers because the
// provider leaves them blank for thin markets.
type RawHousingRow struct {
	City               string
	State              string // full state name, e.g. "Oregon"
	PeriodBegin        time.Time
	PeriodEnd          *time.Time
	MedianSalePrice    *float64
	HomesSold          *int64
	Inventory          *int64
	MedianDaysOnMarket *float64
	PropertyType       string
}

// HousingRecord is the canonical, validated housing row ready for the
// partitioned dataset. One record per region × property type × period.
type HousingRecord struct {
	RegionID           string // CBSA metro code, or "{city}_{state}" fallback
	PeriodBegin        time.Time
	PeriodEnd          *time.Time
	PropertyType       string
	MedianSalePrice    *float64
	HomesSold          *int64
	Inventory          *int64
	MedianDaysOnMarket *float64
	PeriodMonth        time.Time // first of PeriodBegin's month
	LastUpdated        time.Time
}
