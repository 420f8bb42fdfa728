package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-dirtycam/internal/analyzer"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	Workers            int
	LogLevel           string

	// SequentialAnalysis runs the per-image checks without fan-out
	SequentialAnalysis bool

	// Remote sources
	AllowRemote  bool
	AllowedHosts []string
	AzureAccount string
	AzureKey     string

	Thresholds analyzer.Thresholds
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv reads the configuration from the environment. A .env file in
// the working directory, if any, is loaded first without overriding
// variables that are already set.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	defaults := analyzer.DefaultThresholds()
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		Workers:            int(parseIntOrDefault("WORKERS", 0)),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		SequentialAnalysis: parseBoolOrDefault("SEQUENTIAL_ANALYSIS", false),
		AllowRemote:        parseBoolOrDefault("ALLOW_REMOTE", true),
		AllowedHosts:       parseListOrDefault("ALLOWED_HOSTS", nil),
		AzureAccount:       os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureKey:           os.Getenv("AZURE_STORAGE_KEY"),
		Thresholds: analyzer.Thresholds{
			FlatColorStdDev: parseFloatOrDefault("FLAT_COLOR_STDDEV_THRESHOLD", defaults.FlatColorStdDev),
			NoiseStdDev:     parseFloatOrDefault("NOISE_STDDEV_THRESHOLD", defaults.NoiseStdDev),
			TintMean:        parseFloatOrDefault("TINT_MEAN_THRESHOLD", defaults.TintMean),
			TintStdDev:      parseFloatOrDefault("TINT_STDDEV_THRESHOLD", defaults.TintStdDev),
			BlurVariance:    parseFloatOrDefault("BLUR_VARIANCE_THRESHOLD", defaults.BlurVariance),
			ExposureSum:     parseFloatOrDefault("EXPOSURE_SUM_THRESHOLD", defaults.ExposureSum),
		},
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("WORKERS must be >= 0 (got %d)", cfg.Workers)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.AnalysisTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.AnalysisTimeout)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
