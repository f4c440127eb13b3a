package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/reiniercriel/menapiai-data-pipeline/config"
	"github.com/reiniercriel/menapiai-data-pipeline/models"
	"github.com/reiniercriel/menapiai-data-pipeline/regions"
	"github.com/reiniercriel/menapiai-data-pipeline/utils"
)

// SourceEmploymentBLS names the BLS employment source in cache paths.
const SourceEmploymentBLS = "bls_employment"

// blsStartYear bounds the historical request window. LAUS data exists back
// to 1976 but everything before 2000 is irrelevant to the canonical tables.
const blsStartYear = 2000

// laborMeasureCodes are the LAUS measure codes requested per metro:
// 03 unemployment rate, 04 unemployment, 05 employment, 06 labor force.
var laborMeasureCodes = []string{"03", "04", "05", "06"}

// blsRequest is the POST payload for the BLS timeseries API.
type blsRequest struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	Catalog         bool     `json:"catalog"`
	Calculations    bool     `json:"calculations"`
	AnnualAverage   bool     `json:"annualaverage"`
	RegistrationKey string   `json:"registrationkey,omitempty"`
}

// EmploymentIngestor downloads and caches LAUS employment series for every
// configured metro area in one batch request.
type EmploymentIngestor struct {
	cfg    *config.Config
	logger *utils.Logger
	cache  *Cache
	client *http.Client
}

// NewEmploymentIngestor creates a ready-to-use EmploymentIngestor.
func NewEmploymentIngestor(cfg *config.Config, logger *utils.Logger) *EmploymentIngestor {
	return &EmploymentIngestor{
		cfg:    cfg,
		logger: logger,
		cache:  NewCache(cfg.RawDataDir, logger),
		client: &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second},
	}
}

// SeriesIDsForMetro builds the four LAUS series ids for a metro code:
// LAUMT + 7-digit metro code + 6 zero filler + 2-digit measure code.
func SeriesIDsForMetro(fullCode string) []string {
	ids := make([]string, 0, len(laborMeasureCodes))
	for _, mc := range laborMeasureCodes {
		ids = append(ids, "LAUMT"+fullCode+"000000"+mc)
	}
	return ids
}

// Ingest returns the path to a usable raw BLS JSON artifact, downloading
// only when the day's cached copy is missing or stale.
func (e *EmploymentIngestor) Ingest(localPath string, forceRefresh bool) (string, error) {
	return e.cache.Ensure(SourceEmploymentBLS, "json", localPath, forceRefresh, e.download)
}

func (e *EmploymentIngestor) download(dst string) error {
	var seriesIDs []string
	for name, metro := range regions.MetroAreas {
		ids := SeriesIDsForMetro(metro.FullCode)
		seriesIDs = append(seriesIDs, ids...)
		e.logger.Info("[bls] Added %d series for %s", len(ids), name)
	}

	endYear := time.Now().Year()
	payload := blsRequest{
		SeriesID:      seriesIDs,
		StartYear:     strconv.Itoa(blsStartYear),
		EndYear:       strconv.Itoa(endYear),
		Catalog:       true,
		Calculations:  false,
		AnnualAverage: false,
	}
	if e.cfg.BLSAPIKey != "" {
		payload.RegistrationKey = e.cfg.BLSAPIKey
		e.logger.Info("[bls] Using BLS API key for enhanced access")
	} else {
		e.logger.Warn("[bls] No BLS API key configured — limited to 10 years of data and lower rate limits")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bls: marshal request: %w", err)
	}

	e.logger.Info("[bls] Requesting %d series for %d–%d", len(seriesIDs), blsStartYear, endYear)

	resp, err := e.client.Post(e.cfg.BLSAPIBaseURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return &models.UpstreamError{Source: "bls", Detail: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &models.UpstreamError{
			Source: "bls",
			Detail: fmt.Sprintf("unexpected response %d from %s", resp.StatusCode, e.cfg.BLSAPIBaseURL),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.UpstreamError{Source: "bls", Detail: "read response", Err: err}
	}

	if err := os.WriteFile(dst, raw, 0644); err != nil {
		return fmt.Errorf("bls: write artifact %q: %w", dst, err)
	}

	e.logger.Info("[bls] Saved raw response to %s", dst)
	return nil
}
