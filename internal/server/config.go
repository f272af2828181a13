package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/caarlos0/env/v11"
	"github.com/iwvelando/studio-forecast/internal/config"
	"github.com/iwvelando/studio-forecast/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address       string               `yaml:"address" env:"STUDIO_ADDRESS"`
	Port          string               `yaml:"-" env:"PORT"`
	MaxBodySize   string               `yaml:"maxBodySize" env:"STUDIO_MAX_BODY_SIZE"`
	StaticDir     string               `yaml:"staticDir" env:"STUDIO_STATIC_DIR"`
	Logging       config.LoggingConfig `yaml:"logging"`
	Storage       StorageConfig        `yaml:"storage"`
	Auth          AuthConfig           `yaml:"auth"`
	Metrics       MetricsConfig        `yaml:"metrics"`
	bodySizeBytes int64
}

// StorageConfig selects and configures the saved model store.
type StorageConfig struct {
	Driver      string `yaml:"driver" env:"STUDIO_STORAGE_DRIVER"` // sqlite, postgres
	DatabaseURL string `yaml:"databaseURL" env:"DATABASE_URL"`
	SQLitePath  string `yaml:"sqlitePath" env:"STUDIO_DB_PATH"`
}

// AuthConfig holds the shared dashboard password. An empty password disables
// the login gate.
type AuthConfig struct {
	Password      string `yaml:"password" env:"STUDIO_PASSWORD"`
	SessionSecret string `yaml:"sessionSecret" env:"STUDIO_SESSION_SECRET"`
	SessionTTL    string `yaml:"sessionTTL" env:"STUDIO_SESSION_TTL"`
	ttl           time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"STUDIO_METRICS_ENABLED"`
}

func defaultConfig() *Config {
	return &Config{
		Address:       constants.DefaultServerAddress,
		MaxBodySize:   fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes),
		Logging:       config.LoggingConfig{},
		bodySizeBytes: constants.DefaultMaxBodySizeBytes,
	}
}

// LoadConfig loads the server configuration from YAML and then applies
// environment overrides. If the file does not exist, defaults are used.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read server config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BodySizeBytes returns the configured request body limit in bytes.
func (c *Config) BodySizeBytes() int64 {
	return c.bodySizeBytes
}

// SetBodySizeBytes overrides the configured request body limit.
func (c *Config) SetBodySizeBytes(size int64) {
	if size > 0 {
		c.bodySizeBytes = size
		c.MaxBodySize = fmt.Sprintf("%d", size)
	}
}

// SessionTTLDuration returns how long issued sessions stay valid.
func (a AuthConfig) SessionTTLDuration() time.Duration {
	if a.ttl <= 0 {
		return constants.DefaultSessionTTLHours * time.Hour
	}
	return a.ttl
}

// Enabled reports whether the login gate is active.
func (a AuthConfig) Enabled() bool {
	return a.Password != ""
}

func (c *Config) normalize() error {
	if port := strings.TrimSpace(c.Port); port != "" {
		c.Address = ":" + port
	}
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}

	if err := c.Storage.normalize(); err != nil {
		return err
	}

	if ttl := strings.TrimSpace(c.Auth.SessionTTL); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid session ttl %q: %w", ttl, err)
		}
		c.Auth.ttl = d
	}

	sizeStr := strings.TrimSpace(c.MaxBodySize)
	if sizeStr == "" {
		c.bodySizeBytes = constants.DefaultMaxBodySizeBytes
		c.MaxBodySize = fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxBodySizeBytes
	}
	c.bodySizeBytes = bytes
	return nil
}

func (s *StorageConfig) normalize() error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	if s.Driver == "" {
		if s.DatabaseURL != "" {
			s.Driver = constants.StorageDriverPostgres
		} else {
			s.Driver = constants.StorageDriverSQLite
		}
	}

	switch s.Driver {
	case constants.StorageDriverSQLite:
		if s.SQLitePath == "" {
			s.SQLitePath = constants.DefaultSQLitePath
		}
	case constants.StorageDriverPostgres:
		if s.DatabaseURL == "" {
			return fmt.Errorf("storage driver %s requires databaseURL or DATABASE_URL", s.Driver)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", s.Driver)
	}
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 || (n != 0 && result/multiplier != n) {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
