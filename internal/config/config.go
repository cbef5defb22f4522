package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultListenAddr     = ":8080"
	DefaultIndexURL       = "https://www.eex.com/en/markets/energy-certificates/french-auctions-power"
	DefaultBaseURL        = "https://www.eex.com"
	DefaultLinkTitle      = "Download the latest results"
	DefaultTimeoutSeconds = 30
	DefaultSchedule       = "@every 1h"
)

type Config struct {
	DBDSN      string          `json:"db_dsn"`
	ListenAddr string          `json:"listen_addr"`
	Discovery  DiscoveryConfig `json:"discovery"`
}

// DiscoveryConfig carries everything the discovery client and the
// spreadsheet normalizer need; nothing reads these values from globals.
type DiscoveryConfig struct {
	IndexURL       string `json:"index_url"`
	BaseURL        string `json:"base_url"`
	LinkTitle      string `json:"link_title"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	TempDir        string `json:"temp_dir"`
	Schedule       string `json:"schedule"`
}

func (c DiscoveryConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads the JSON config at path. A .env file in the working directory,
// when present, is loaded first so DATABASE_URL and LISTEN_ADDR can override
// the file.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config path is empty")
	}

	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if value, ok := os.LookupEnv("DATABASE_URL"); ok && value != "" {
		cfg.DBDSN = value
	}
	if value, ok := os.LookupEnv("LISTEN_ADDR"); ok && value != "" {
		cfg.ListenAddr = value
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	c.Discovery.applyDefaults()
}

func (c *DiscoveryConfig) applyDefaults() {
	if c.IndexURL == "" {
		c.IndexURL = DefaultIndexURL
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.LinkTitle == "" {
		c.LinkTitle = DefaultLinkTitle
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.TempDir == "" {
		c.TempDir = filepath.Join(os.TempDir(), "soldera")
	}
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
}

func (c Config) validate() error {
	if c.DBDSN == "" {
		return fmt.Errorf("db_dsn is required")
	}
	return c.Discovery.validate()
}

func (c DiscoveryConfig) validate() error {
	if err := requireAbsoluteURL("discovery.index_url", c.IndexURL); err != nil {
		return err
	}
	if err := requireAbsoluteURL("discovery.base_url", c.BaseURL); err != nil {
		return err
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("discovery.timeout_seconds must be positive")
	}
	return nil
}

func requireAbsoluteURL(key string, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute url", key)
	}
	return nil
}
