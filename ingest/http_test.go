package ingest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reiniercriel/menapiai-data-pipeline/config"
	"github.com/reiniercriel/menapiai-data-pipeline/models"
	"github.com/reiniercriel/menapiai-data-pipeline/regions"
	"github.com/reiniercriel/menapiai-data-pipeline/utils"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		RawDataDir:     t.TempDir(),
		HTTPTimeoutSec: 5,
		MaxRetries:     1,
	}
}

func TestHousingIngestorDownloadsArtifact(t *testing.T) {
	payload := []byte("CITY\tSTATE\nPortland\tOregon\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.RedfinCityURL = srv.URL

	path, err := NewHousingIngestor(cfg, utils.NewLogger(false)).Ingest("", false)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestHousingIngestorNon200IsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.RedfinCityURL = srv.URL
	ing := NewHousingIngestor(cfg, utils.NewLogger(false))

	_, err := ing.Ingest("", false)
	var upErr *models.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "redfin", upErr.Source)

	// The failed fetch must not leave an artifact behind.
	_, statErr := os.Stat(ing.cache.Path(SourceHousingRedfin, "tsv.gz"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestEmploymentIngestorRequestPayload(t *testing.T) {
	var gotReq blsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"status":"REQUEST_SUCCEEDED","Results":{"series":[]}}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.BLSAPIBaseURL = srv.URL
	cfg.BLSAPIKey = "test-key"

	path, err := NewEmploymentIngestor(cfg, utils.NewLogger(false)).Ingest("", false)
	require.NoError(t, err)

	// Four measures per configured metro, 2000 through the current year.
	assert.Len(t, gotReq.SeriesID, 4*len(regions.MetroAreas))
	assert.Contains(t, gotReq.SeriesID, "LAUMT413890000000003")
	assert.Equal(t, "2000", gotReq.StartYear)
	assert.True(t, gotReq.Catalog)
	assert.False(t, gotReq.Calculations)
	assert.False(t, gotReq.AnnualAverage)
	assert.Equal(t, "test-key", gotReq.RegistrationKey)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "REQUEST_SUCCEEDED")
}

func TestEmploymentIngestorNon200IsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.BLSAPIBaseURL = srv.URL
	ing := NewEmploymentIngestor(cfg, utils.NewLogger(false))

	_, err := ing.Ingest("", false)
	var upErr *models.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "bls", upErr.Source)

	_, statErr := os.Stat(ing.cache.Path(SourceEmploymentBLS, "json"))
	assert.True(t, os.IsNotExist(statErr))
}
