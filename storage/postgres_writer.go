package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/reiniercriel/menapiai-data-pipeline/models"
	"github.com/reiniercriel/menapiai-data-pipeline/utils"
)

// PostgresWriter is the optional database sink for canonical tables,
// enabled when DATABASE_URL is configured. Upserts keyed on the canonical
// record key keep re-runs idempotent, matching the Parquet layer.
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, logger *utils.Logger, maxRetries int) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	ping := &utils.RetryConfig{MaxAttempts: maxRetries, BaseDelay: 2 * time.Second, Logger: logger}
	if err := ping.Do("postgres ping", db.Ping); err != nil {
		return nil, err
	}

	pw := &PostgresWriter{db: db, logger: logger}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS housing_trends (
			region_id             TEXT NOT NULL,
			period_begin          DATE NOT NULL,
			period_end            DATE,
			property_type         TEXT NOT NULL,
			median_sale_price     DOUBLE PRECISION,
			homes_sold            BIGINT,
			inventory             BIGINT,
			median_days_on_market DOUBLE PRECISION,
			period_month          DATE NOT NULL,
			last_updated          TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (region_id, property_type, period_begin)
		);

		CREATE TABLE IF NOT EXISTS employment_trends (
			region_id         TEXT NOT NULL,
			region_name       TEXT NOT NULL,
			region_type       TEXT NOT NULL,
			period            VARCHAR(7) NOT NULL,
			period_month      DATE NOT NULL,
			year              INT NOT NULL,
			month             INT NOT NULL,
			labor_force       DOUBLE PRECISION,
			employed          DOUBLE PRECISION,
			unemployed        DOUBLE PRECISION,
			unemployment_rate DOUBLE PRECISION,
			data_source       TEXT NOT NULL,
			last_updated      TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (region_id, period)
		);

		CREATE INDEX IF NOT EXISTS idx_housing_period_month    ON housing_trends(period_month);
		CREATE INDEX IF NOT EXISTS idx_employment_period_month ON employment_trends(period_month);
	`)
	return err
}

// WriteHousing upserts all property-type partitions of a canonical housing
// table.
func (pw *PostgresWriter) WriteHousing(byType map[string][]models.HousingRecord) error {
	const batchSize = 50
	for _, recs := range byType {
		for i := 0; i < len(recs); i += batchSize {
			end := i + batchSize
			if end > len(recs) {
				end = len(recs)
			}
			if err := pw.insertHousingBatch(recs[i:end]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (pw *PostgresWriter) insertHousingBatch(batch []models.HousingRecord) error {
	const fields = 10
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*fields)

	for idx, r := range batch {
		base := idx * fields
		placeholders := make([]string, fields)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		var periodEnd interface{}
		if r.PeriodEnd != nil {
			periodEnd = *r.PeriodEnd
		}
		valueArgs = append(valueArgs,
			r.RegionID, r.PeriodBegin, periodEnd, r.PropertyType,
			optFloat(r.MedianSalePrice), optInt(r.HomesSold), optInt(r.Inventory),
			optFloat(r.MedianDaysOnMarket), r.PeriodMonth, r.LastUpdated)
	}

	query := fmt.Sprintf(`
		INSERT INTO housing_trends (
			region_id, period_begin, period_end, property_type,
			median_sale_price, homes_sold, inventory,
			median_days_on_market, period_month, last_updated
		)
		VALUES %s
		ON CONFLICT (region_id, property_type, period_begin) DO UPDATE SET
			period_end            = EXCLUDED.period_end,
			median_sale_price     = EXCLUDED.median_sale_price,
			homes_sold            = EXCLUDED.homes_sold,
			inventory             = EXCLUDED.inventory,
			median_days_on_market = EXCLUDED.median_days_on_market,
			period_month          = EXCLUDED.period_month,
			last_updated          = EXCLUDED.last_updated
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

// WriteEmployment upserts a canonical employment table.
func (pw *PostgresWriter) WriteEmployment(records []models.EmploymentRecord) error {
	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.insertEmploymentBatch(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertEmploymentBatch(batch []models.EmploymentRecord) error {
	const fields = 13
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*fields)

	for idx, r := range batch {
		base := idx * fields
		placeholders := make([]string, fields)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		valueArgs = append(valueArgs,
			r.RegionID, r.RegionName, r.RegionType, r.Period, r.PeriodMonth,
			r.Year, r.Month,
			optFloat(r.LaborForce), optFloat(r.Employed), optFloat(r.Unemployed),
			optFloat(r.UnemploymentRate), r.DataSource, r.LastUpdated)
	}

	query := fmt.Sprintf(`
		INSERT INTO employment_trends (
			region_id, region_name, region_type, period, period_month,
			year, month, labor_force, employed, unemployed,
			unemployment_rate, data_source, last_updated
		)
		VALUES %s
		ON CONFLICT (region_id, period) DO UPDATE SET
			region_name       = EXCLUDED.region_name,
			region_type       = EXCLUDED.region_type,
			period_month      = EXCLUDED.period_month,
			year              = EXCLUDED.year,
			month             = EXCLUDED.month,
			labor_force       = EXCLUDED.labor_force,
			employed          = EXCLUDED.employed,
			unemployed        = EXCLUDED.unemployed,
			unemployment_rate = EXCLUDED.unemployment_rate,
			data_source       = EXCLUDED.data_source,
			last_updated      = EXCLUDED.last_updated
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

func optFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func optInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
