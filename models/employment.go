package models

import "time"

// DataSourceBLS labels canonical employment rows derived from the BLS
// Local Area Unemployment Statistics program.
const DataSourceBLS = "BLS LAUS"

// RegionTypeMetro is the only region type the pipeline currently emits.
const RegionTypeMetro = "metro"

// BLSResponse mirrors the top level of a BLS timeseries API reply.
type BLSResponse struct {
	Status       string     `json:"status"`
	ResponseTime int        `json:"responseTime"`
	Message      []string   `json:"message"`
	Results      BLSResults `json:"Results"`
}

// BLSResults wraps the series list in a BLS reply.
type BLSResults struct {
	Series []BLSSeries `json:"series"`
}

// BLSSeries is one LAUS series: a single (metro, measure) pair with its
// ordered observations.
type BLSSeries struct {
	SeriesID string         `json:"seriesID"`
	Data     []BLSDataPoint `json:"data"`
}

// BLSDataPoint is one observation. Year and Value arrive as strings;
// Period is "M01".."M12" for monthly rows and "M13" for annual averages.
type BLSDataPoint struct {
	Year       string `json:"year"`
	Period     string `json:"period"`
	PeriodName string `json:"periodName"`
	Value      string `json:"value"`
}

// EmploymentRecord is the canonical wide-format employment row: one record
// per region × month with all four LAUS measures as columns. A nil measure
// means the source batch did not carry that series.
type EmploymentRecord struct {
	RegionID         string // 7-digit CBSA metro code
	RegionName       string
	RegionType       string
	Period           string    // "YYYY-MM"
	PeriodMonth      time.Time // first of month
	Year             int
	Month            int
	LaborForce       *float64
	Employed         *float64
	Unemployed       *float64
	UnemploymentRate *float64
	DataSource       string
	LastUpdated      time.Time
}
