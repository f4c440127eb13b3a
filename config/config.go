package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Default upstream endpoints. Both can be overridden from the environment
// for tests and mirrors.
const (
	DefaultRedfinCityURL = "https://redfin-public-data.s3.us-west-2.amazonaws.com/" +
		"redfin_market_tracker/city_market_tracker.tsv000.gz"
	DefaultBLSAPIBaseURL = "https://api.bls.gov/publicAPI/v2/timeseries/data/"
)

// Config holds all application configuration loaded from environment
// variables. It is constructed once and passed explicitly into every
// component — there is no package-level settings instance.
type Config struct {
	DataDir          string
	RawDataDir       string
	ProcessedDataDir string
	CleanDataDir     string

	RedfinCityURL string
	BLSAPIBaseURL string
	BLSAPIKey     string

	HTTPTimeoutSec int
	MaxRetries     int

	// PostgresDSN enables the optional database sink when non-empty.
	PostgresDSN string

	Debug bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DataDir:          getEnv("DATA_DIR", "data"),
		RawDataDir:       getEnv("RAW_DATA_DIR", "data/raw"),
		ProcessedDataDir: getEnv("PROCESSED_DATA_DIR", "data/processed"),
		CleanDataDir:     getEnv("CLEAN_DATA_DIR", "data/clean"),

		RedfinCityURL: getEnv("REDFIN_CITY_URL", DefaultRedfinCityURL),
		BLSAPIBaseURL: getEnv("BLS_API_BASE_URL", DefaultBLSAPIBaseURL),
		BLSAPIKey:     getEnv("BLS_API_KEY", ""),

		HTTPTimeoutSec: getEnvInt("HTTP_TIMEOUT_SEC", 30),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		PostgresDSN: getEnv("DATABASE_URL", ""),

		Debug: getEnvBool("DEBUG", false),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
