package ingest

import (
	"encoding/csv"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reiniercriel/menapiai-data-pipeline/config"
	"github.com/reiniercriel/menapiai-data-pipeline/utils"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestIngestBasicHousing(t *testing.T) {
	cfg := &config.Config{RawDataDir: t.TempDir()}

	path, err := IngestBasicHousing(cfg, utils.NewLogger(false))
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 4) // header + 3 sample rows
	assert.Equal(t, []string{"property_id", "location", "price", "bedrooms", "bathrooms"}, rows[0])
	assert.Equal(t, []string{"1", "Location A", "250000", "3", "2"}, rows[1])
}

func TestIngestBasicJobs(t *testing.T) {
	cfg := &config.Config{RawDataDir: t.TempDir()}

	path, err := IngestBasicJobs(cfg, utils.NewLogger(false))
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"2", "Master Electrician", "Company B", "City B", "75000"}, rows[2])
}
