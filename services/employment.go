package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/reiniercriel/menapiai-data-pipeline/models"
	"github.com/reiniercriel/menapiai-data-pipeline/regions"
	"github.com/reiniercriel/menapiai-data-pipeline/utils"
)

const blsStatusSucceeded = "REQUEST_SUCCEEDED"

// seriesIDLength is LAUMT (5) + metro code (7) + filler (6) + measure (2).
const seriesIDLength = 20

// LAUS measure codes mapped onto the canonical wide columns.
const (
	measureUnemploymentRate = "03"
	measureUnemployed       = "04"
	measureEmployed         = "05"
	measureLaborForce       = "06"
)

// EmploymentNormalizer pivots long-format BLS LAUS series (one series per
// measure) into wide canonical records (one row per region-month with all
// four measures as columns).
type EmploymentNormalizer struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewEmploymentNormalizer creates an EmploymentNormalizer with the given logger.
func NewEmploymentNormalizer(logger *utils.Logger) *EmploymentNormalizer {
	return &EmploymentNormalizer{logger: logger, now: time.Now}
}

// NormalizeFile loads the raw BLS JSON at path and normalizes it for the
// requested metro area and date window.
func (n *EmploymentNormalizer) NormalizeFile(path, metroArea string, start, end time.Time) ([]models.EmploymentRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &models.MissingArtifactError{Path: path}
		}
		return nil, fmt.Errorf("employment: read raw artifact %q: %w", path, err)
	}

	var resp models.BLSResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("employment: decode raw artifact %q: %w", path, err)
	}

	return n.Normalize(&resp, metroArea, start, end)
}

// Normalize applies the canonical employment contract: metro validation,
// batch status validation, series-id decomposition, the per-month pivot,
// date windowing, metadata and ascending sort. Zero surviving records is a
// hard error.
func (n *EmploymentNormalizer) Normalize(resp *models.BLSResponse, metroArea string, start, end time.Time) ([]models.EmploymentRecord, error) {
	metro, ok := regions.MetroAreas[metroArea]
	if !ok {
		valid := regions.MetroNames()
		sort.Strings(valid)
		return nil, &models.ConfigurationError{Param: "metro area", Value: metroArea, Valid: valid}
	}

	if resp.Status != blsStatusSucceeded {
		detail := "unknown error"
		if len(resp.Message) > 0 {
			detail = resp.Message[0]
		}
		return nil, &models.UpstreamError{Source: "bls", Detail: detail}
	}
	if len(resp.Results.Series) == 0 {
		return nil, &models.UpstreamError{Source: "bls", Detail: "no series data in response"}
	}

	n.logger.Info("[employment] Processing %d series from BLS response", len(resp.Results.Series))

	// Pivot: merge all measures into one record per (year, month). Records
	// are keyed for O(1) lookup and enriched as each series streams past,
	// last write wins per measure, series order irrelevant.
	merged := make(map[int]*models.EmploymentRecord)

	for _, series := range resp.Results.Series {
		if series.SeriesID == "" || len(series.Data) == 0 {
			continue
		}

		metroCode, measureCode, err := parseSeriesID(series.SeriesID)
		if err != nil {
			n.logger.Warn("[employment] Skipping series %s: %v", series.SeriesID, err)
			continue
		}
		if metroCode != metro.FullCode {
			if other, ok := regions.MetroByCode(metroCode); ok {
				n.logger.Debug("[employment] Skipping series %s for %s", series.SeriesID, other.Name)
			} else {
				n.logger.Debug("[employment] Skipping series %s for unconfigured metro code %s", series.SeriesID, metroCode)
			}
			continue
		}

		setMeasure := measureSetter(measureCode)
		if setMeasure == nil {
			n.logger.Warn("[employment] Unknown measure code %s in %s", measureCode, series.SeriesID)
			continue
		}

		for _, dp := range series.Data {
			month, ok := parseMonthlyPeriod(dp.Period)
			if !ok {
				// Annual averages ("M13") and other period markers.
				continue
			}
			year, err := strconv.Atoi(dp.Year)
			if err != nil {
				n.logger.Warn("[employment] Invalid year %q in %s", dp.Year, series.SeriesID)
				continue
			}
			value, err := strconv.ParseFloat(strings.ReplaceAll(dp.Value, ",", ""), 64)
			if err != nil {
				n.logger.Warn("[employment] Invalid value %q for %s %d-%02d", dp.Value, series.SeriesID, year, month)
				continue
			}

			key := year*100 + month
			rec, ok := merged[key]
			if !ok {
				rec = &models.EmploymentRecord{
					Year:   year,
					Month:  month,
					Period: fmt.Sprintf("%d-%02d", year, month),
				}
				merged[key] = rec
			}
			setMeasure(rec, value)
		}
	}

	lastUpdated := n.now()
	records := make([]models.EmploymentRecord, 0, len(merged))
	for _, rec := range merged {
		periodMonth := time.Date(rec.Year, time.Month(rec.Month), 1, 0, 0, 0, 0, time.UTC)
		if periodMonth.Before(start) || periodMonth.After(end) {
			continue
		}

		rec.PeriodMonth = periodMonth
		rec.RegionID = metro.FullCode
		rec.RegionName = metroArea
		rec.RegionType = models.RegionTypeMetro
		rec.DataSource = models.DataSourceBLS
		rec.LastUpdated = lastUpdated
		records = append(records, *rec)
	}

	if len(records) == 0 {
		return nil, &models.EmptyResultError{
			Dataset: "employment",
			Detail: fmt.Sprintf("metro_area=%s window=%s..%s",
				metroArea, start.Format(rawDateLayout), end.Format(rawDateLayout)),
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Year != records[j].Year {
			return records[i].Year < records[j].Year
		}
		return records[i].Month < records[j].Month
	})

	n.logger.Info("[employment] Normalized %d monthly records for %s", len(records), metroArea)
	return records, nil
}

// parseSeriesID decomposes a LAUS series id into its 7-digit metro code and
// 2-digit measure code using the fixed-width layout
// LAUMT + metro(7) + filler(6) + measure(2).
func parseSeriesID(seriesID string) (metroCode, measureCode string, err error) {
	if !strings.HasPrefix(seriesID, "LAUMT") {
		return "", "", fmt.Errorf("series id %q does not start with LAUMT", seriesID)
	}
	if len(seriesID) != seriesIDLength {
		return "", "", fmt.Errorf("series id %q has length %d, want %d", seriesID, len(seriesID), seriesIDLength)
	}
	return seriesID[5:12], seriesID[18:20], nil
}

// parseMonthlyPeriod converts "M01".."M12" to a month number. Any other
// period marker (notably the "M13" annual average) is rejected.
func parseMonthlyPeriod(period string) (int, bool) {
	if len(period) != 3 || period[0] != 'M' {
		return 0, false
	}
	m, err := strconv.Atoi(period[1:])
	if err != nil || m < 1 || m > 12 {
		return 0, false
	}
	return m, true
}

// measureSetter returns the assignment for one measure column, or nil for
// an unknown measure code.
func measureSetter(measureCode string) func(*models.EmploymentRecord, float64) {
	switch measureCode {
	case measureUnemploymentRate:
		return func(r *models.EmploymentRecord, v float64) { r.UnemploymentRate = &v }
	case measureUnemployed:
		return func(r *models.EmploymentRecord, v float64) { r.Unemployed = &v }
	case measureEmployed:
		return func(r *models.EmploymentRecord, v float64) { r.Employed = &v }
	case measureLaborForce:
		return func(r *models.EmploymentRecord, v float64) { r.LaborForce = &v }
	default:
		return nil
	}
}
