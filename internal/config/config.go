package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Data struct {
		Dir            string `yaml:"dir"`
		CatalogFile    string `yaml:"catalog_file"`
		DefaultDataset string `yaml:"default_dataset"`
	} `yaml:"data"`
	Sync struct {
		FallbackDays    int    `yaml:"fallback_days"`
		FetchTimeoutSec int    `yaml:"fetch_timeout_seconds"`
		Workers         int    `yaml:"workers"`
		Cron            string `yaml:"cron"`
	} `yaml:"sync"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("CANDLEVAULT_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("CANDLEVAULT_CATALOG_FILE"); v != "" {
		cfg.Data.CatalogFile = v
	}
	if v := os.Getenv("CANDLEVAULT_DEFAULT_DATASET"); v != "" {
		cfg.Data.DefaultDataset = v
	}
	if v := os.Getenv("CANDLEVAULT_FALLBACK_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Sync.FallbackDays = days
		}
	}
	if v := os.Getenv("CANDLEVAULT_SYNC_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			cfg.Sync.Workers = workers
		}
	}
	if v := os.Getenv("CANDLEVAULT_SYNC_CRON"); v != "" {
		cfg.Sync.Cron = v
	}
	if v := os.Getenv("CANDLEVAULT_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "stock_data"
	}
	if cfg.Data.CatalogFile == "" {
		cfg.Data.CatalogFile = "stock_data/dataset_tickers.json"
	}
	if cfg.Sync.FallbackDays == 0 {
		cfg.Sync.FallbackDays = 730
	}
	if cfg.Sync.FetchTimeoutSec == 0 {
		cfg.Sync.FetchTimeoutSec = 60
	}
	if cfg.Sync.Workers == 0 {
		cfg.Sync.Workers = 4
	}
	if cfg.Sync.Cron == "" {
		// Nightly, after both crypto UTC close and the stock session.
		cfg.Sync.Cron = "0 10 0 * * *"
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8000"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/candlevault.db"
	}

	return cfg, nil
}

// FetchTimeout returns the per-fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Sync.FetchTimeoutSec) * time.Second
}

// Validate checks that all required fields are sane.
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	if c.Data.CatalogFile == "" {
		return fmt.Errorf("data.catalog_file is required")
	}
	if c.Sync.FallbackDays <= 0 {
		return fmt.Errorf("sync.fallback_days must be positive")
	}
	if c.Sync.FetchTimeoutSec <= 0 {
		return fmt.Errorf("sync.fetch_timeout_seconds must be positive")
	}
	if c.Sync.Workers <= 0 {
		return fmt.Errorf("sync.workers must be positive")
	}
	return nil
}
