// Package env loads process configuration from the environment, reading a
// .env file first when one exists.
package env

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"relocation/internal/logger"
)

const (
	DefaultAPITimeout = 10 * time.Second
	DefaultStore      = "sqlite://jobsites.db"
	DefaultLanguage   = "en"
)

// Config holds every setting the commands read.
type Config struct {
	APIURL       string
	APITimeout   time.Duration
	Language     string
	Store        string
	FallbackFile string
	GeocoderURL  string

	KafkaBroker  string
	KafkaTopic   string
	KafkaGroupID string

	ArchiveBucket string
	ArchivePrefix string

	MetricsAddr string
}

// LoadEnv reads .env into the process environment if present.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		logger.GetLogger().Debug("No .env file found, assuming environment variables are set directly.")
	}
}

// Load reads Config from the environment. Check the result with
// RequireAPI before building an API client.
func Load() (Config, error) {
	cfg := Config{
		APIURL:        os.Getenv("JOBSITES_API_URL"),
		APITimeout:    DefaultAPITimeout,
		Language:      GetEnv("JOBSITES_LANGUAGE", DefaultLanguage),
		Store:         GetEnv("JOBSITES_STORE", DefaultStore),
		FallbackFile:  os.Getenv("JOBSITES_FALLBACK_FILE"),
		GeocoderURL:   GetEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		KafkaTopic:    GetEnv("KAFKA_TOPIC", "jobsites.lookups"),
		KafkaGroupID:  GetEnv("KAFKA_GROUP_ID", "jobsites-archiver"),
		ArchiveBucket: GetEnv("ARCHIVE_BUCKET", "jobsites"),
		ArchivePrefix: os.Getenv("ARCHIVE_PREFIX"),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
	}
	if raw, ok := os.LookupEnv("JOBSITES_API_TIMEOUT"); ok && raw != "" {
		d, err := ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("JOBSITES_API_TIMEOUT: %w", err)
		}
		cfg.APITimeout = d
	}
	return cfg, nil
}

// RequireAPI reports a missing API base URL.
func (c Config) RequireAPI() error {
	if c.APIURL == "" {
		return fmt.Errorf("environment variable JOBSITES_API_URL not set")
	}
	return nil
}

// ParseDuration accepts Go durations ("5s") or a bare number of seconds.
// Zero disables the timeout.
func ParseDuration(raw string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative duration %q", raw)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", raw)
	}
	return d, nil
}

// GetEnv returns the value of key or def when it is unset or empty.
func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// MustGetEnv returns the value of key and exits when it is not set.
func MustGetEnv(key string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		logger.GetLogger().Fatalf("Environment variable %s not set", key)
	}
	return val
}
