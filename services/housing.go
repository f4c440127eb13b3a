// Package services holds the raw-to-canonical normalizers: provider-specific
// rows in, canonical time-ordered records out.
package services

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/reiniercriel/menapiai-data-pipeline/models"
	"github.com/reiniercriel/menapiai-data-pipeline/regions"
	"github.com/reiniercriel/menapiai-data-pipeline/utils"
)

const rawDateLayout = "2006-01-02"

// Raw Redfin column names.
const (
	colCity            = "CITY"
	colState           = "STATE"
	colPeriodBegin     = "PERIOD_BEGIN"
	colPeriodEnd       = "PERIOD_END"
	colMedianSalePrice = "MEDIAN_SALE_PRICE"
	colHomesSold       = "HOMES_SOLD"
	colInventory       = "INVENTORY"
	colMedianDOM       = "MEDIAN_DOM"
	colPropertyType    = "PROPERTY_TYPE"
)

// housingSchema maps raw Redfin column names onto field indices once, at
// header time. Required columns are validated up front; PERIOD_END is the
// only optional column and its absence degrades the date-window test to
// period_begin only.
type housingSchema struct {
	city            int
	state           int
	periodBegin     int
	medianSalePrice int
	homesSold       int
	inventory       int
	medianDOM       int
	propertyType    int

	periodEnd int // -1 when the provider omits the column
}

func newHousingSchema(header []string) (*housingSchema, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	required := []string{
		colCity, colState, colPeriodBegin, colMedianSalePrice,
		colHomesSold, colInventory, colMedianDOM, colPropertyType,
	}
	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &models.ConfigurationError{
			Param: "raw housing column set",
			Value: strings.Join(missing, ", ") + " missing",
			Valid: required,
		}
	}

	s := &housingSchema{
		city:            idx[colCity],
		state:           idx[colState],
		periodBegin:     idx[colPeriodBegin],
		medianSalePrice: idx[colMedianSalePrice],
		homesSold:       idx[colHomesSold],
		inventory:       idx[colInventory],
		medianDOM:       idx[colMedianDOM],
		propertyType:    idx[colPropertyType],
		periodEnd:       -1,
	}
	if i, ok := idx[colPeriodEnd]; ok {
		s.periodEnd = i
	}
	return s, nil
}

// HasPeriodEnd reports whether the raw schema carries the optional
// PERIOD_END column.
func (s *housingSchema) HasPeriodEnd() bool { return s.periodEnd >= 0 }

// HousingNormalizer maps raw Redfin market-tracker rows to the canonical
// housing schema, fanned out per property type.
type HousingNormalizer struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewHousingNormalizer creates a HousingNormalizer with the given logger.
func NewHousingNormalizer(logger *utils.Logger) *HousingNormalizer {
	return &HousingNormalizer{logger: logger, now: time.Now}
}

// NormalizeFile loads the gzip-compressed TSV at path and normalizes it for
// the requested city, state and date window. The full tracker file covers
// every US city, so rows are pre-filtered to the requested region while
// scanning.
func (n *HousingNormalizer) NormalizeFile(path, city, state string, start, end time.Time) (map[string][]models.HousingRecord, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &models.MissingArtifactError{Path: path}
	}

	resolvedState := regions.CanonicalStateName(state)

	rows, err := n.loadMatchingRows(path, city, resolvedState)
	if err != nil {
		return nil, err
	}
	n.logger.Info("[housing] Loaded %d raw rows for %s, %s from %s", len(rows), city, resolvedState, path)

	return n.Normalize(rows, city, state, start, end)
}

// Normalize applies the canonical housing contract: state canonicalization,
// exact city/state filter, inclusive date-window intersection, property-type
// fan-out, region-id resolution with city_state fallback, period_month
// derivation and ascending sort. Zero surviving rows is a hard error.
func (n *HousingNormalizer) Normalize(rows []models.RawHousingRow, city, state string, start, end time.Time) (map[string][]models.HousingRecord, error) {
	resolvedState := regions.CanonicalStateName(state)

	regionID, ok := regions.ResolveCBSA(city, resolvedState)
	if !ok {
		regionID = fmt.Sprintf("%s_%s", city, resolvedState)
		n.logger.Warn("[housing] No CBSA mapping for (%s, %s) — using fallback region_id %q",
			city, resolvedState, regionID)
	}

	lastUpdated := n.now()
	byType := make(map[string][]models.HousingRecord)
	kept := 0

	for _, row := range rows {
		if row.City != city || row.State != resolvedState {
			continue
		}
		if !periodOverlaps(row.PeriodBegin, row.PeriodEnd, start, end) {
			continue
		}

		if !models.IsKnownPropertyType(row.PropertyType) {
			n.logger.Debug("[housing] Passing through unknown property type %q", row.PropertyType)
		}

		rec := models.HousingRecord{
			RegionID:           regionID,
			PeriodBegin:        row.PeriodBegin,
			PeriodEnd:          row.PeriodEnd,
			PropertyType:       row.PropertyType,
			MedianSalePrice:    row.MedianSalePrice,
			HomesSold:          row.HomesSold,
			Inventory:          row.Inventory,
			MedianDaysOnMarket: row.MedianDaysOnMarket,
			PeriodMonth:        firstOfMonth(row.PeriodBegin),
			LastUpdated:        lastUpdated,
		}
		byType[row.PropertyType] = append(byType[row.PropertyType], rec)
		kept++
	}

	if kept == 0 {
		return nil, &models.EmptyResultError{
			Dataset: "housing",
			Detail: fmt.Sprintf("city=%s state=%s window=%s..%s",
				city, resolvedState, start.Format(rawDateLayout), end.Format(rawDateLayout)),
		}
	}

	for _, recs := range byType {
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].PeriodBegin.Before(recs[j].PeriodBegin)
		})
	}

	n.logger.Info("[housing] Normalized %d rows into %d property-type partitions", kept, len(byType))
	return byType, nil
}

// periodOverlaps applies the inclusive date-window test. With a period end
// this is interval intersection, not containment; without one, period_begin
// alone is tested against the window.
func periodOverlaps(begin time.Time, end *time.Time, winStart, winEnd time.Time) bool {
	if end != nil {
		return !begin.After(winEnd) && !end.Before(winStart)
	}
	return !begin.Before(winStart) && !begin.After(winEnd)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// loadMatchingRows streams the gzip TSV and keeps only rows for the
// requested city and (already canonicalized) state.
func (n *HousingNormalizer) loadMatchingRows(path, city, resolvedState string) ([]models.RawHousingRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("housing: open raw artifact %q: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("housing: gunzip %q: %w", path, err)
	}
	defer gz.Close()

	r := csv.NewReader(gz)
	r.Comma = '\t'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("housing: read header of %q: %w", path, err)
	}
	schema, err := newHousingSchema(header)
	if err != nil {
		return nil, err
	}

	var rows []models.RawHousingRow
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("housing: read %q line %d: %w", path, line+1, err)
		}
		line++

		if field(record, schema.city) != city || field(record, schema.state) != resolvedState {
			continue
		}

		row, ok := n.parseRow(record, schema, line)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseRow converts one TSV record. An unparsable period_begin drops the
// row with a warning; unparsable numeric fields degrade to null.
func (n *HousingNormalizer) parseRow(record []string, schema *housingSchema, line int) (models.RawHousingRow, bool) {
	begin, err := time.Parse(rawDateLayout, field(record, schema.periodBegin))
	if err != nil {
		n.logger.Warn("[housing] Skipping line %d: bad PERIOD_BEGIN %q", line, field(record, schema.periodBegin))
		return models.RawHousingRow{}, false
	}

	row := models.RawHousingRow{
		City:         field(record, schema.city),
		State:        field(record, schema.state),
		PeriodBegin:  begin,
		PropertyType: field(record, schema.propertyType),
	}

	if schema.HasPeriodEnd() {
		if v := field(record, schema.periodEnd); v != "" {
			if end, err := time.Parse(rawDateLayout, v); err == nil {
				row.PeriodEnd = &end
			} else {
				n.logger.Warn("[housing] Line %d: bad PERIOD_END %q, treating as absent", line, v)
			}
		}
	}

	row.MedianSalePrice = n.parseFloatField(record, schema.medianSalePrice, colMedianSalePrice, line)
	row.MedianDaysOnMarket = n.parseFloatField(record, schema.medianDOM, colMedianDOM, line)
	row.HomesSold = n.parseIntField(record, schema.homesSold, colHomesSold, line)
	row.Inventory = n.parseIntField(record, schema.inventory, colInventory, line)

	return row, true
}

func (n *HousingNormalizer) parseFloatField(record []string, idx int, name string, line int) *float64 {
	v := field(record, idx)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		n.logger.Warn("[housing] Line %d: bad %s %q, treating as null", line, name, v)
		return nil
	}
	return &f
}

func (n *HousingNormalizer) parseIntField(record []string, idx int, name string, line int) *int64 {
	v := field(record, idx)
	if v == "" {
		return nil
	}
	// Counts occasionally arrive with a decimal point ("12.0").
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		n.logger.Warn("[housing] Line %d: bad %s %q, treating as null", line, name, v)
		return nil
	}
	i := int64(f)
	return &i
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
