package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reiniercriel/menapiai-data-pipeline/models"
)

const portlandMetro = "Portland-Vancouver-Hillsboro, OR-WA"

// portlandSeries builds one LAUS series for the Portland metro with the
// given measure code and monthly values keyed "YYYY-MM".
func portlandSeries(measureCode string, values map[string]string) models.BLSSeries {
	s := models.BLSSeries{SeriesID: "LAUMT" + "4138900" + "000000" + measureCode}
	for key, val := range values {
		s.Data = append(s.Data, models.BLSDataPoint{
			Year:   key[:4],
			Period: "M" + key[5:],
			Value:  val,
		})
	}
	return s
}

func successResponse(series ...models.BLSSeries) *models.BLSResponse {
	return &models.BLSResponse{
		Status:  "REQUEST_SUCCEEDED",
		Results: models.BLSResults{Series: series},
	}
}

func TestEmploymentSeriesIDParsing(t *testing.T) {
	metro, measure, err := parseSeriesID("LAUMT411840000000003")
	require.NoError(t, err)
	assert.Equal(t, "4118400", metro)
	assert.Equal(t, "03", measure)

	_, _, err = parseSeriesID("CUUR0000SA0") // wrong prefix
	assert.Error(t, err)

	_, _, err = parseSeriesID("LAUMT41184000003") // wrong length
	assert.Error(t, err)
}

func TestEmploymentPivotMergesMeasures(t *testing.T) {
	n := NewEmploymentNormalizer(newTestLogger())

	resp := successResponse(
		portlandSeries(measureUnemploymentRate, map[string]string{"2021-01": "5.2", "2021-02": "5.0"}),
		portlandSeries(measureUnemployed, map[string]string{"2021-01": "68,400"}),
		portlandSeries(measureEmployed, map[string]string{"2021-01": "1,240,000"}),
		portlandSeries(measureLaborForce, map[string]string{"2021-01": "1,308,400"}),
	)

	records, err := n.Normalize(resp, portlandMetro, date("2021-01-01"), date("2021-12-31"))
	require.NoError(t, err)
	require.Len(t, records, 2)

	jan := records[0]
	assert.Equal(t, "2021-01", jan.Period)
	assert.Equal(t, date("2021-01-01"), jan.PeriodMonth)
	assert.Equal(t, 5.2, *jan.UnemploymentRate)
	assert.Equal(t, 68400.0, *jan.Unemployed)
	assert.Equal(t, 1240000.0, *jan.Employed)
	assert.Equal(t, 1308400.0, *jan.LaborForce)
	assert.Equal(t, "4138900", jan.RegionID)
	assert.Equal(t, portlandMetro, jan.RegionName)
	assert.Equal(t, models.RegionTypeMetro, jan.RegionType)
	assert.Equal(t, models.DataSourceBLS, jan.DataSource)

	// February only carried the rate series: the other measures are
	// explicit nulls, never dropped columns.
	feb := records[1]
	assert.Equal(t, 5.0, *feb.UnemploymentRate)
	assert.Nil(t, feb.Unemployed)
	assert.Nil(t, feb.Employed)
	assert.Nil(t, feb.LaborForce)
}

func TestEmploymentPivotIsCommutativeInSeriesOrder(t *testing.T) {
	n := NewEmploymentNormalizer(newTestLogger())
	n.now = func() time.Time { return date("2024-06-01") }

	series := []models.BLSSeries{
		portlandSeries(measureUnemploymentRate, map[string]string{"2021-01": "5.2"}),
		portlandSeries(measureUnemployed, map[string]string{"2021-01": "68,400"}),
		portlandSeries(measureEmployed, map[string]string{"2021-01": "1,240,000"}),
		portlandSeries(measureLaborForce, map[string]string{"2021-01": "1,308,400"}),
	}

	base, err := n.Normalize(successResponse(series...), portlandMetro, date("2021-01-01"), date("2021-12-31"))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]models.BLSSeries, len(series))
		copy(shuffled, series)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := n.Normalize(successResponse(shuffled...), portlandMetro, date("2021-01-01"), date("2021-12-31"))
		require.NoError(t, err)
		assert.Equal(t, base, got)
	}
}

func TestEmploymentNormalizeIsDeterministic(t *testing.T) {
	n := NewEmploymentNormalizer(newTestLogger())
	n.now = func() time.Time { return date("2024-06-01") }

	resp := successResponse(
		portlandSeries(measureUnemploymentRate, map[string]string{"2021-03": "4.9", "2021-04": "4.7"}),
	)

	first, err := n.Normalize(resp, portlandMetro, date("2021-01-01"), date("2021-12-31"))
	require.NoError(t, err)
	second, err := n.Normalize(resp, portlandMetro, date("2021-01-01"), date("2021-12-31"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEmploymentUnknownMetroIsConfigurationError(t *testing.T) {
	n := NewEmploymentNormalizer(newTestLogger())

	_, err := n.Normalize(successResponse(), "Boise City, ID", date("2021-01-01"), date("2021-12-31"))

	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Valid, portlandMetro)
}

func TestEmploymentFailedStatusIsUpstreamError(t *testing.T) {
	n := NewEmploymentNormalizer(newTestLogger())

	resp := &models.BLSResponse{
		Status:  "REQUEST_NOT_PROCESSED",
		Message: []string{"daily threshold exceeded"},
	}
	_, err := n.Normalize(resp, portlandMetro, date("2021-01-01"), date("2021-12-31"))

	var upErr *models.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Contains(t, upErr.Error(), "daily threshold exceeded")
}

func TestEmploymentSkipsMalformedRecords(t *testing.T) {
	n := NewEmploymentNormalizer(newTestLogger())

	good := portlandSeries(measureUnemploymentRate, map[string]string{"2021-01": "5.2"})
	badValue := portlandSeries(measureEmployed, map[string]string{"2021-01": "n/a"})
	badID := models.BLSSeries{
		SeriesID: "BOGUS",
		Data:     []models.BLSDataPoint{{Year: "2021", Period: "M01", Value: "1"}},
	}
	otherMetro := models.BLSSeries{
		SeriesID: "LAUMT534266000000003",
		Data:     []models.BLSDataPoint{{Year: "2021", Period: "M01", Value: "4.1"}},
	}
	annual := portlandSeries(measureLaborForce, map[string]string{"2021-01": "1,300,000"})
	annual.Data = append(annual.Data, models.BLSDataPoint{Year: "2021", Period: "M13", Value: "1,299,000"})

	records, err := n.Normalize(successResponse(good, badValue, badID, otherMetro, annual),
		portlandMetro, date("2021-01-01"), date("2021-12-31"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, 5.2, *rec.UnemploymentRate)
	assert.Nil(t, rec.Employed) // malformed value skipped, column stays null
	assert.Equal(t, 1300000.0, *rec.LaborForce)
}

func TestEmploymentDateWindow(t *testing.T) {
	n := NewEmploymentNormalizer(newTestLogger())

	resp := successResponse(portlandSeries(measureUnemploymentRate, map[string]string{
		"2020-12": "6.0",
		"2021-01": "5.5",
		"2021-06": "5.0",
		"2021-07": "4.9",
	}))

	records, err := n.Normalize(resp, portlandMetro, date("2021-01-01"), date("2021-06-30"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2021-01", records[0].Period)
	assert.Equal(t, "2021-06", records[1].Period)
}

func TestEmploymentEmptyResultIsFatal(t *testing.T) {
	n := NewEmploymentNormalizer(newTestLogger())

	resp := successResponse(portlandSeries(measureUnemploymentRate, map[string]string{"2019-01": "4.0"}))
	_, err := n.Normalize(resp, portlandMetro, date("2021-01-01"), date("2021-12-31"))

	var emptyErr *models.EmptyResultError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, "employment", emptyErr.Dataset)
}

func TestEmploymentSortedByYearMonth(t *testing.T) {
	n := NewEmploymentNormalizer(newTestLogger())

	resp := successResponse(portlandSeries(measureUnemploymentRate, map[string]string{
		"2022-01": "4.0",
		"2021-11": "4.4",
		"2021-02": "5.1",
	}))

	records, err := n.Normalize(resp, portlandMetro, date("2021-01-01"), date("2022-12-31"))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"2021-02", "2021-11", "2022-01"},
		[]string{records[0].Period, records[1].Period, records[2].Period})
}
