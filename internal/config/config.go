package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/shape-moments-mcp/internal/detection"
	"github.com/ironsheep/shape-moments-mcp/internal/imaging"
)

// AzureConfig locates a reference dataset stored as a blob.
type AzureConfig struct {
	Account   string
	Key       string
	Container string
	Blob      string
}

// Enabled reports whether an Azure dataset source is configured.
func (a AzureConfig) Enabled() bool {
	return a.Account != ""
}

type Config struct {
	LogLevel string

	// Dataset sources. Azure wins when both are set.
	DatasetPath  string
	Azure        AzureConfig
	DatasetCache bool

	// Mask building
	Threshold    int
	Polarity     detection.Polarity
	CloseRadius  int
	MaxDimension int

	// HTTP API
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// MaskOptions returns the mask builder settings.
func (c *Config) MaskOptions() detection.MaskOptions {
	return detection.MaskOptions{
		Threshold:   uint8(c.Threshold),
		Polarity:    c.Polarity,
		CloseRadius: c.CloseRadius,
	}
}

// CanvasOptions returns the preprocessing settings applied to every input.
func (c *Config) CanvasOptions() imaging.CanvasOptions {
	return imaging.CanvasOptions{MaxDimension: c.MaxDimension}
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel:    getEnvOrDefault("SHAPE_LOG_LEVEL", "info"),
		DatasetPath: strings.TrimSpace(os.Getenv("SHAPE_DATASET_PATH")),
		Azure: AzureConfig{
			Account:   strings.TrimSpace(os.Getenv("SHAPE_AZURE_ACCOUNT")),
			Key:       os.Getenv("SHAPE_AZURE_KEY"),
			Container: strings.TrimSpace(os.Getenv("SHAPE_AZURE_CONTAINER")),
			Blob:      strings.TrimSpace(os.Getenv("SHAPE_AZURE_BLOB")),
		},
		DatasetCache:       parseBoolOrDefault("SHAPE_DATASET_CACHE", true),
		Threshold:          int(parseIntOrDefault("SHAPE_THRESHOLD", detection.DefaultThreshold)),
		CloseRadius:        int(parseIntOrDefault("SHAPE_CLOSE_RADIUS", 1)),
		MaxDimension:       int(parseIntOrDefault("SHAPE_MAX_DIMENSION", 0)),
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
	}

	polarity, err := detection.ParsePolarity(os.Getenv("SHAPE_POLARITY"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHAPE_POLARITY: %w", err)
	}
	cfg.Polarity = polarity

	if cfg.Threshold < 0 || cfg.Threshold > 255 {
		return nil, fmt.Errorf("SHAPE_THRESHOLD must be within 0-255 (got %d)", cfg.Threshold)
	}
	if cfg.CloseRadius < 0 {
		return nil, fmt.Errorf("SHAPE_CLOSE_RADIUS must be >= 0 (got %d)", cfg.CloseRadius)
	}
	if cfg.MaxDimension < 0 {
		return nil, fmt.Errorf("SHAPE_MAX_DIMENSION must be >= 0 (got %d)", cfg.MaxDimension)
	}
	if cfg.Azure.Enabled() && (cfg.Azure.Container == "" || cfg.Azure.Blob == "") {
		return nil, fmt.Errorf("SHAPE_AZURE_CONTAINER and SHAPE_AZURE_BLOB are required when SHAPE_AZURE_ACCOUNT is set")
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be > 0 (got %s)", cfg.RequestTimeout)
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

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
