package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Water feature sources selectable with WATER_SOURCE.
const (
	WaterSourceEarthEngine = "earthengine"
	WaterSourceOverpass    = "overpass"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string

	// Google Earth Engine configuration.
	GEEEnabled bool
	GEEProject string
	GEEBaseURL string
	GEETimeout time.Duration

	// Water outlet lookup configuration.
	WaterSource     string
	OverpassURL     string
	OverpassTimeout time.Duration

	// Open-Meteo archive configuration.
	RainfallBaseURL   string
	RainfallTimeout   time.Duration
	RainfallCacheSize int
	RainfallCacheTTL  time.Duration

	// Plan event sink configuration.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaPlanTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	geeTimeout, err := parsePositiveDuration("GEE_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	overpassTimeout, err := parsePositiveDuration("OVERPASS_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	rainfallTimeout, err := parsePositiveDuration("RAINFALL_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	rainfallCacheTTL, err := parsePositiveDuration("RAINFALL_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		CORSAllowedOrigins: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		GEEEnabled: os.Getenv("GEE_ENABLED") != "false",
		GEEProject: os.Getenv("GEE_PROJECT"),
		GEEBaseURL: sharedcfg.EnvOrDefault("GEE_BASE_URL", "https://earthengine.googleapis.com"),
		GEETimeout: geeTimeout,

		WaterSource:     strings.ToLower(sharedcfg.EnvOrDefault("WATER_SOURCE", WaterSourceEarthEngine)),
		OverpassURL:     sharedcfg.EnvOrDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		OverpassTimeout: overpassTimeout,

		RainfallBaseURL:   sharedcfg.EnvOrDefault("RAINFALL_BASE_URL", "https://archive-api.open-meteo.com/v1/archive"),
		RainfallTimeout:   rainfallTimeout,
		RainfallCacheSize: parseCacheSize(),
		RainfallCacheTTL:  rainfallCacheTTL,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaPlanTopic: sharedcfg.EnvOrDefault("KAFKA_PLAN_TOPIC", "drainage-plans"),
	}

	if cfg.WaterSource != WaterSourceEarthEngine && cfg.WaterSource != WaterSourceOverpass {
		return nil, fmt.Errorf("invalid WATER_SOURCE %q: must be %s or %s", cfg.WaterSource, WaterSourceEarthEngine, WaterSourceOverpass)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaPlanTopic == "" {
		return nil, errors.New("KAFKA_PLAN_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("RAINFALL_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
