package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Coach   CoachConfig   `yaml:"coach"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
}

// ServerConfig is the loopback API the device UI talks to.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CoachConfig points at the coaching platform for the authenticated customer.
type CoachConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	CustomerID string `yaml:"customer_id"`
}

type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// SessionConfig tunes the active-session lifecycle policy.
type SessionConfig struct {
	SuppressionWindowSeconds int `yaml:"suppression_window_seconds"`
	RefreshIntervalSeconds   int `yaml:"refresh_interval_seconds"`
}

// SuppressionWindow is how long cache refresh stays disabled after a
// user-initiated cancellation. This is a tunable policy value, not a
// correctness bound on server-side cancel propagation.
func (s SessionConfig) SuppressionWindow() time.Duration {
	if s.SuppressionWindowSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.SuppressionWindowSeconds) * time.Second
}

// RefreshInterval is the cache's periodic background refresh cadence.
func (s SessionConfig) RefreshInterval() time.Duration {
	if s.RefreshIntervalSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.RefreshIntervalSeconds) * time.Second
}

// CustomerUUID parses the configured customer id.
func (c CoachConfig) CustomerUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.CustomerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parsing coach.customer_id: %w", err)
	}
	return id, nil
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix LIFTLOG_ and underscore-separated paths:
//
//	LIFTLOG_SERVER_HOST, LIFTLOG_SERVER_PORT,
//	LIFTLOG_COACH_URL, LIFTLOG_COACH_API_KEY, LIFTLOG_COACH_CUSTOMER_ID,
//	LIFTLOG_STORAGE_DIR,
//	LIFTLOG_SESSION_SUPPRESSION_WINDOW_SECONDS,
//	LIFTLOG_SESSION_REFRESH_INTERVAL_SECONDS
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIFTLOG_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LIFTLOG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LIFTLOG_COACH_URL"); v != "" {
		cfg.Coach.URL = v
	}
	if v := os.Getenv("LIFTLOG_COACH_API_KEY"); v != "" {
		cfg.Coach.APIKey = v
	}
	if v := os.Getenv("LIFTLOG_COACH_CUSTOMER_ID"); v != "" {
		cfg.Coach.CustomerID = v
	}
	if v := os.Getenv("LIFTLOG_STORAGE_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("LIFTLOG_SESSION_SUPPRESSION_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Session.SuppressionWindowSeconds = n
		}
	}
	if v := os.Getenv("LIFTLOG_SESSION_REFRESH_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Session.RefreshIntervalSeconds = n
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Coach.URL == "" {
		return fmt.Errorf("coach.url is required")
	}
	if c.Coach.APIKey == "" {
		return fmt.Errorf("coach.api_key is required")
	}
	if _, err := uuid.Parse(c.Coach.CustomerID); err != nil {
		return fmt.Errorf("coach.customer_id must be a UUID")
	}
	if c.Storage.Dir == "" {
		return fmt.Errorf("storage.dir is required")
	}
	return nil
}
