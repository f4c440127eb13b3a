package ingest

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/reiniercriel/menapiai-data-pipeline/config"
	"github.com/reiniercriel/menapiai-data-pipeline/models"
	"github.com/reiniercriel/menapiai-data-pipeline/utils"
)

// SourceHousingRedfin names the Redfin housing source in cache paths.
const SourceHousingRedfin = "redfin_housing"

// HousingIngestor downloads and caches the complete Redfin city-level
// market tracker. No filtering happens here — transforms consume the raw
// TSV.gz downstream.
type HousingIngestor struct {
	cfg    *config.Config
	logger *utils.Logger
	cache  *Cache
	client *http.Client
}

// NewHousingIngestor creates a ready-to-use HousingIngestor.
func NewHousingIngestor(cfg *config.Config, logger *utils.Logger) *HousingIngestor {
	return &HousingIngestor{
		cfg:    cfg,
		logger: logger,
		cache:  NewCache(cfg.RawDataDir, logger),
		client: &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second},
	}
}

// Ingest returns the path to a usable raw Redfin TSV.gz, downloading it
// only when the day's cached copy is missing or stale.
func (h *HousingIngestor) Ingest(localPath string, forceRefresh bool) (string, error) {
	return h.cache.Ensure(SourceHousingRedfin, "tsv.gz", localPath, forceRefresh, h.download)
}

func (h *HousingIngestor) download(dst string) error {
	h.logger.Info("[redfin] Downloading city market tracker from %s", h.cfg.RedfinCityURL)

	resp, err := h.client.Get(h.cfg.RedfinCityURL)
	if err != nil {
		return &models.UpstreamError{Source: "redfin", Detail: "download failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &models.UpstreamError{
			Source: "redfin",
			Detail: fmt.Sprintf("unexpected response %d from %s", resp.StatusCode, h.cfg.RedfinCityURL),
		}
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("redfin: create artifact %q: %w", dst, err)
	}

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		_ = f.Close()
		return &models.UpstreamError{Source: "redfin", Detail: "download interrupted", Err: err}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("redfin: close artifact %q: %w", dst, err)
	}

	h.logger.Info("[redfin] Saved %.1f MB to %s", float64(n)/(1<<20), dst)
	return nil
}
