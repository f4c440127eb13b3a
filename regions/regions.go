// Package regions holds the fixed geographic lookup tables that let the
// housing and employment datasets share one region join key: the 7-digit
// CBSA metro code used by BLS LAUS.
package regions

// MetroArea describes one configured metropolitan statistical area.
type MetroArea struct {
	Name      string // e.g. "Portland-Vancouver-Hillsboro, OR-WA"
	StateFIPS string // 2-digit state FIPS of the anchor state
	AreaCode  string // 5-digit area code
	FullCode  string // StateFIPS + AreaCode, the region_id
}

// MetroAreas maps metro-area names to their LAUS codes.
var MetroAreas = map[string]MetroArea{
	"Portland-Vancouver-Hillsboro, OR-WA": {
		Name:      "Portland-Vancouver-Hillsboro, OR-WA",
		StateFIPS: "41",
		AreaCode:  "38900",
		FullCode:  "4138900",
	},
	"Seattle-Tacoma-Bellevue, WA": {
		Name:      "Seattle-Tacoma-Bellevue, WA",
		StateFIPS: "53",
		AreaCode:  "42660",
		FullCode:  "5342660",
	},
	"San Francisco-Oakland-Hayward, CA": {
		Name:      "San Francisco-Oakland-Hayward, CA",
		StateFIPS: "06",
		AreaCode:  "41860",
		FullCode:  "0641860",
	},
	"Los Angeles-Long Beach-Anaheim, CA": {
		Name:      "Los Angeles-Long Beach-Anaheim, CA",
		StateFIPS: "06",
		AreaCode:  "31080",
		FullCode:  "0631080",
	},
	"Phoenix-Mesa-Scottsdale, AZ": {
		Name:      "Phoenix-Mesa-Scottsdale, AZ",
		StateFIPS: "04",
		AreaCode:  "38060",
		FullCode:  "0438060",
	},
}

// MetroNames returns the configured metro-area names, for error messages
// that must list the valid options.
func MetroNames() []string {
	names := make([]string, 0, len(MetroAreas))
	for name := range MetroAreas {
		names = append(names, name)
	}
	return names
}

// MetroByCode returns the metro area with the given full CBSA code.
func MetroByCode(fullCode string) (MetroArea, bool) {
	for _, m := range MetroAreas {
		if m.FullCode == fullCode {
			return m, true
		}
	}
	return MetroArea{}, false
}

type cityState struct {
	city  string
	state string // full state name
}

// cityStateToCBSA links (city, full state name) pairs to CBSA codes.
// Keys are exact-match, case included — callers canonicalize state
// abbreviations before lookup, never city names.
var cityStateToCBSA = map[cityState]string{
	{"Portland", "Oregon"}:          "4138900",
	{"Seattle", "Washington"}:       "5342660",
	{"San Francisco", "California"}: "0641860",
	{"Los Angeles", "California"}:   "0631080",
	{"Phoenix", "Arizona"}:          "0438060",
}

// ResolveCBSA maps a (city, full state name) pair to its CBSA metro code.
// An unknown pair is not an error: ok is false and the caller picks a
// fallback region key.
func ResolveCBSA(city, stateFull string) (string, bool) {
	code, ok := cityStateToCBSA[cityState{city: city, state: stateFull}]
	return code, ok
}
