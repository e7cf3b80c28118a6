package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "BLOGWATCH_CONFIG"
	portEnv        = "BLOGWATCH_PORT"
	databaseDSNEnv = "DATABASE_DSN"
	databaseDrvEnv = "DATABASE_DRIVER"
	frontendURLEnv = "FRONTEND_URL"
	logLevelEnv    = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Store    StoreConfig    `yaml:"store"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Dates    DatesConfig    `yaml:"dates"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig describes the HTTP endpoint layer.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// DatabaseConfig selects and configures the record store backend.
// Driver is one of "sqlite", "postgres", or "file".
type DatabaseConfig struct {
	Driver   string   `yaml:"driver"`
	DSN      string   `yaml:"dsn"`
	CacheTTL Duration `yaml:"cacheTTL"`
}

// ScraperConfig bounds each acquisition request.
type ScraperConfig struct {
	Timeout           Duration `yaml:"timeout"`
	UserAgent         string   `yaml:"userAgent"`
	PerHostInterval   Duration `yaml:"perHostInterval"`
	MaxArticlesPerRun int      `yaml:"maxArticlesPerRun"`
	ArchivePageBudget int      `yaml:"archivePageBudget"`
	ArchiveThreshold  int      `yaml:"archiveThreshold"`
	ContentIndicators int      `yaml:"contentIndicators"`
}

// StoreConfig bounds the retained article pool.
type StoreConfig struct {
	MaxArticles int `yaml:"maxArticles"`
}

// RefreshConfig drives the periodic refresh scheduler.
type RefreshConfig struct {
	Cooldown Duration `yaml:"cooldown"`
	Interval Duration `yaml:"interval"`
	Workers  int      `yaml:"workers"`
}

// DatesConfig points at the optional effective-date override map.
type DatesConfig struct {
	OverridesFile string `yaml:"overridesFile"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(portEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		} else {
			log.Printf("config: invalid %s=%q, keeping %d", portEnv, v, c.Server.Port)
		}
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(databaseDrvEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(frontendURLEnv); v != "" {
		c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, v)
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Port != 0 {
		base.Server.Port = override.Server.Port
	}
	if len(override.Server.AllowedOrigins) > 0 {
		base.Server.AllowedOrigins = override.Server.AllowedOrigins
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.CacheTTL != 0 {
		base.Database.CacheTTL = override.Database.CacheTTL
	}

	if override.Scraper.Timeout != 0 {
		base.Scraper.Timeout = override.Scraper.Timeout
	}
	if override.Scraper.UserAgent != "" {
		base.Scraper.UserAgent = override.Scraper.UserAgent
	}
	if override.Scraper.PerHostInterval != 0 {
		base.Scraper.PerHostInterval = override.Scraper.PerHostInterval
	}
	if override.Scraper.MaxArticlesPerRun != 0 {
		base.Scraper.MaxArticlesPerRun = override.Scraper.MaxArticlesPerRun
	}
	if override.Scraper.ArchivePageBudget != 0 {
		base.Scraper.ArchivePageBudget = override.Scraper.ArchivePageBudget
	}
	if override.Scraper.ArchiveThreshold != 0 {
		base.Scraper.ArchiveThreshold = override.Scraper.ArchiveThreshold
	}
	if override.Scraper.ContentIndicators != 0 {
		base.Scraper.ContentIndicators = override.Scraper.ContentIndicators
	}

	if override.Store.MaxArticles != 0 {
		base.Store.MaxArticles = override.Store.MaxArticles
	}

	if override.Refresh.Cooldown != 0 {
		base.Refresh.Cooldown = override.Refresh.Cooldown
	}
	if override.Refresh.Interval != 0 {
		base.Refresh.Interval = override.Refresh.Interval
	}
	if override.Refresh.Workers != 0 {
		base.Refresh.Workers = override.Refresh.Workers
	}

	if override.Dates.OverridesFile != "" {
		base.Dates.OverridesFile = override.Dates.OverridesFile
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver:   "sqlite",
			DSN:      "data/blogwatch.db",
			CacheTTL: Duration(30 * time.Second),
		},
		Scraper: ScraperConfig{
			Timeout:           Duration(10 * time.Second),
			UserAgent:         defaultUserAgent,
			PerHostInterval:   Duration(500 * time.Millisecond),
			MaxArticlesPerRun: 10,
			ArchivePageBudget: 8,
			ArchiveThreshold:  50,
			ContentIndicators: 2,
		},
		Store: StoreConfig{MaxArticles: 50},
		Refresh: RefreshConfig{
			Cooldown: Duration(time.Hour),
			Interval: Duration(15 * time.Minute),
			Workers:  4,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Browser-like UA because several hosts refuse generic Go clients.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
