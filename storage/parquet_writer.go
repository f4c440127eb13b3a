// Package storage persists canonical tables: a directory-partitioned
// Parquet dataset as the primary sink, plus an optional PostgreSQL sink
// and a CSV writer for the placeholder stubs.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"

	"github.com/reiniercriel/menapiai-data-pipeline/models"
	"github.com/reiniercriel/menapiai-data-pipeline/utils"
)

const (
	housingDatasetName    = "housing_trends"
	employmentDatasetName = "employment_trends"

	// One fixed file per partition directory: re-running a transform
	// truncates and replaces the partition instead of accumulating
	// duplicate row groups.
	partitionFileName = "data.parquet"

	parquetChunkSize = 4096
)

var slugRunRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a partition-directory-safe value from a category label:
// lower-cased, with runs of non-alphanumerics collapsed to one underscore.
// "Condo/Co-op" → "condo_co_op".
func Slug(v string) string {
	s := strings.ToLower(v)
	s = slugRunRegexp.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// ParquetWriter persists canonical tables to directory-partitioned Parquet
// datasets under the clean data directory, partitioned by a category slug
// and year.
type ParquetWriter struct {
	cleanDir string
	logger   *utils.Logger
	mem      memory.Allocator
}

// NewParquetWriter creates a ParquetWriter rooted at cleanDir.
func NewParquetWriter(cleanDir string, logger *utils.Logger) *ParquetWriter {
	return &ParquetWriter{
		cleanDir: cleanDir,
		logger:   logger,
		mem:      memory.NewGoAllocator(),
	}
}

// WriteHousingTrends writes the property-type partitions of a canonical
// housing table to
// <clean>/housing_trends/property_type_partition=<slug>/year=<YYYY>/ and
// returns the dataset root.
func (w *ParquetWriter) WriteHousingTrends(byType map[string][]models.HousingRecord) (string, error) {
	total := 0
	for _, recs := range byType {
		total += len(recs)
	}
	if total == 0 {
		return "", &models.EmptyResultError{Dataset: housingDatasetName, Detail: "nothing to write"}
	}

	root := filepath.Join(w.cleanDir, housingDatasetName)

	for propertyType, recs := range byType {
		slug := Slug(propertyType)
		for year, group := range groupHousingByYear(recs) {
			dir := filepath.Join(root,
				fmt.Sprintf("property_type_partition=%s", slug),
				fmt.Sprintf("year=%d", year))
			if err := w.writeHousingPartition(dir, group); err != nil {
				return "", err
			}
		}
	}

	w.logger.Info("[parquet] Saved %d housing records to %s partitioned by property_type_partition/year", total, root)
	return root, nil
}

// WriteEmploymentTrends writes a canonical employment table to
// <clean>/employment_trends/region_partition=<slug>/year=<YYYY>/ and returns
// the dataset root. All records belong to one metro, so the region slug is
// derived from the metro-area name.
func (w *ParquetWriter) WriteEmploymentTrends(records []models.EmploymentRecord, metroArea string) (string, error) {
	if len(records) == 0 {
		return "", &models.EmptyResultError{Dataset: employmentDatasetName, Detail: "nothing to write"}
	}

	root := filepath.Join(w.cleanDir, employmentDatasetName)
	slug := Slug(metroArea)

	byYear := make(map[int][]models.EmploymentRecord)
	for _, rec := range records {
		byYear[rec.Year] = append(byYear[rec.Year], rec)
	}

	for year, group := range byYear {
		dir := filepath.Join(root,
			fmt.Sprintf("region_partition=%s", slug),
			fmt.Sprintf("year=%d", year))
		if err := w.writeEmploymentPartition(dir, group); err != nil {
			return "", err
		}
	}

	w.logger.Info("[parquet] Saved %d employment records to %s partitioned by region_partition/year", len(records), root)
	return root, nil
}

func groupHousingByYear(recs []models.HousingRecord) map[int][]models.HousingRecord {
	byYear := make(map[int][]models.HousingRecord)
	for _, rec := range recs {
		year := rec.PeriodBegin.Year()
		byYear[year] = append(byYear[year], rec)
	}
	return byYear
}

var housingSchema = arrow.NewSchema([]arrow.Field{
	{Name: "region_id", Type: arrow.BinaryTypes.String},
	{Name: "period_begin", Type: arrow.FixedWidthTypes.Date32},
	{Name: "period_end", Type: arrow.FixedWidthTypes.Date32, Nullable: true},
	{Name: "property_type", Type: arrow.BinaryTypes.String},
	{Name: "median_sale_price", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "homes_sold", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "inventory", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "median_days_on_market", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "period_month", Type: arrow.FixedWidthTypes.Date32},
	{Name: "last_updated", Type: arrow.BinaryTypes.String},
}, nil)

var employmentSchema = arrow.NewSchema([]arrow.Field{
	{Name: "region_id", Type: arrow.BinaryTypes.String},
	{Name: "region_name", Type: arrow.BinaryTypes.String},
	{Name: "region_type", Type: arrow.BinaryTypes.String},
	{Name: "period", Type: arrow.BinaryTypes.String},
	{Name: "period_month", Type: arrow.FixedWidthTypes.Date32},
	{Name: "year", Type: arrow.PrimitiveTypes.Int64},
	{Name: "month", Type: arrow.PrimitiveTypes.Int64},
	{Name: "labor_force", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "employed", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "unemployed", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "unemployment_rate", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "data_source", Type: arrow.BinaryTypes.String},
	{Name: "last_updated", Type: arrow.BinaryTypes.String},
}, nil)

func (w *ParquetWriter) writeHousingPartition(dir string, recs []models.HousingRecord) error {
	n := len(recs)
	regionIDs := make([]string, n)
	begins := make([]time.Time, n)
	ends := make([]*time.Time, n)
	types := make([]string, n)
	prices := make([]*float64, n)
	sold := make([]*int64, n)
	inventory := make([]*int64, n)
	dom := make([]*float64, n)
	months := make([]time.Time, n)
	updated := make([]string, n)

	for i, rec := range recs {
		regionIDs[i] = rec.RegionID
		begins[i] = rec.PeriodBegin
		ends[i] = rec.PeriodEnd
		types[i] = rec.PropertyType
		prices[i] = rec.MedianSalePrice
		sold[i] = rec.HomesSold
		inventory[i] = rec.Inventory
		dom[i] = rec.MedianDaysOnMarket
		months[i] = rec.PeriodMonth
		// All string columns share one representation across partitions;
		// timestamps are serialized to RFC 3339 strings.
		updated[i] = rec.LastUpdated.UTC().Format(time.RFC3339)
	}

	cols := []arrow.Array{
		w.buildStrings(regionIDs),
		w.buildDates(begins),
		w.buildOptDates(ends),
		w.buildStrings(types),
		w.buildOptFloats(prices),
		w.buildOptInts(sold),
		w.buildOptInts(inventory),
		w.buildOptFloats(dom),
		w.buildDates(months),
		w.buildStrings(updated),
	}

	return w.writePartition(dir, housingSchema, cols, int64(n))
}

func (w *ParquetWriter) writeEmploymentPartition(dir string, recs []models.EmploymentRecord) error {
	n := len(recs)
	regionIDs := make([]string, n)
	names := make([]string, n)
	regionTypes := make([]string, n)
	periods := make([]string, n)
	months := make([]time.Time, n)
	years := make([]int64, n)
	monthNums := make([]int64, n)
	labor := make([]*float64, n)
	employed := make([]*float64, n)
	unemployed := make([]*float64, n)
	rate := make([]*float64, n)
	sources := make([]string, n)
	updated := make([]string, n)

	for i, rec := range recs {
		regionIDs[i] = rec.RegionID
		names[i] = rec.RegionName
		regionTypes[i] = rec.RegionType
		periods[i] = rec.Period
		months[i] = rec.PeriodMonth
		years[i] = int64(rec.Year)
		monthNums[i] = int64(rec.Month)
		labor[i] = rec.LaborForce
		employed[i] = rec.Employed
		unemployed[i] = rec.Unemployed
		rate[i] = rec.UnemploymentRate
		sources[i] = rec.DataSource
		updated[i] = rec.LastUpdated.UTC().Format(time.RFC3339)
	}

	cols := []arrow.Array{
		w.buildStrings(regionIDs),
		w.buildStrings(names),
		w.buildStrings(regionTypes),
		w.buildStrings(periods),
		w.buildDates(months),
		w.buildInts(years),
		w.buildInts(monthNums),
		w.buildOptFloats(labor),
		w.buildOptFloats(employed),
		w.buildOptFloats(unemployed),
		w.buildOptFloats(rate),
		w.buildStrings(sources),
		w.buildStrings(updated),
	}

	return w.writePartition(dir, employmentSchema, cols, int64(n))
}

// writePartition materializes one partition directory and writes its single
// Parquet file. Dictionary encoding stays off so string columns keep an
// identical physical representation across partitions.
func (w *ParquetWriter) writePartition(dir string, schema *arrow.Schema, cols []arrow.Array, numRows int64) error {
	defer func() {
		for _, col := range cols {
			col.Release()
		}
	}()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("parquet: create partition dir %q: %w", dir, err)
	}

	path := filepath.Join(dir, partitionFileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("parquet: create %q: %w", path, err)
	}

	rec := array.NewRecord(schema, cols, numRows)
	defer rec.Release()
	table := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer table.Release()

	props := parquet.NewWriterProperties(parquet.WithDictionaryDefault(false))
	arrProps := pqarrow.DefaultWriterProps()
	// pqarrow.WriteTable closes f itself via the parquet file writer's sink,
	// so no explicit Close on the success path.
	if err := pqarrow.WriteTable(table, f, parquetChunkSize, props, arrProps); err != nil {
		_ = f.Close()
		return fmt.Errorf("parquet: write %q: %w", path, err)
	}

	w.logger.Debug("[parquet] Wrote %d rows to %s", numRows, path)
	return nil
}

func (w *ParquetWriter) buildStrings(vals []string) arrow.Array {
	b := array.NewStringBuilder(w.mem)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

func (w *ParquetWriter) buildDates(vals []time.Time) arrow.Array {
	b := array.NewDate32Builder(w.mem)
	defer b.Release()
	for _, v := range vals {
		b.Append(arrow.Date32FromTime(v))
	}
	return b.NewArray()
}

func (w *ParquetWriter) buildOptDates(vals []*time.Time) arrow.Array {
	b := array.NewDate32Builder(w.mem)
	defer b.Release()
	for _, v := range vals {
		if v == nil {
			b.AppendNull()
			continue
		}
		b.Append(arrow.Date32FromTime(*v))
	}
	return b.NewArray()
}

func (w *ParquetWriter) buildInts(vals []int64) arrow.Array {
	b := array.NewInt64Builder(w.mem)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

func (w *ParquetWriter) buildOptInts(vals []*int64) arrow.Array {
	b := array.NewInt64Builder(w.mem)
	defer b.Release()
	for _, v := range vals {
		if v == nil {
			b.AppendNull()
			continue
		}
		b.Append(*v)
	}
	return b.NewArray()
}

func (w *ParquetWriter) buildOptFloats(vals []*float64) arrow.Array {
	b := array.NewFloat64Builder(w.mem)
	defer b.Release()
	for _, v := range vals {
		if v == nil {
			b.AppendNull()
			continue
		}
		b.Append(*v)
	}
	return b.NewArray()
}
