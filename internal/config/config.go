package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the yield engine.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Clients  ClientsConfig  `yaml:"clients"`
	Registry RegistryConfig `yaml:"registry"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// ClientsConfig groups the external collaborator endpoints.
type ClientsConfig struct {
	Catalog   CatalogClientConfig `yaml:"catalog"`
	Satellite CollaboratorConfig  `yaml:"satellite"`
	Weather   CollaboratorConfig  `yaml:"weather"`
}

// CatalogClientConfig configures access to the variety catalog service.
type CatalogClientConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// CollaboratorConfig configures a satellite or weather data provider.
type CollaboratorConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// RegistryConfig controls model artifact loading.
type RegistryConfig struct {
	ArtifactDir string `yaml:"artifactDir"`
	PriorsPath  string `yaml:"priorsPath"`
}

// HistoryConfig bounds the historical observation cache.
type HistoryConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"maxEntries"`
	MinQuality float64       `yaml:"minQuality"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("YIELD_ENGINE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			RequestTimeout:  15 * time.Second,
			GracefulTimeout: 10 * time.Second,
		},
		Clients: ClientsConfig{
			Catalog:   CatalogClientConfig{Timeout: 3 * time.Second},
			Satellite: CollaboratorConfig{Timeout: 5 * time.Second},
			Weather:   CollaboratorConfig{Timeout: 5 * time.Second},
		},
		Registry: RegistryConfig{
			ArtifactDir: "artifacts",
		},
		History: HistoryConfig{
			TTL:        6 * time.Hour,
			MaxEntries: 2048,
			MinQuality: 0.3,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("YIELD_ENGINE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("YIELD_ENGINE_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("YIELD_ENGINE_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}
	if v := os.Getenv("YIELD_ENGINE_CATALOG_URL"); v != "" {
		cfg.Clients.Catalog.BaseURL = v
	}
	if v := os.Getenv("YIELD_ENGINE_SATELLITE_URL"); v != "" {
		cfg.Clients.Satellite.BaseURL = v
	}
	if v := os.Getenv("YIELD_ENGINE_WEATHER_URL"); v != "" {
		cfg.Clients.Weather.BaseURL = v
	}
	if v := os.Getenv("YIELD_ENGINE_ARTIFACT_DIR"); v != "" {
		cfg.Registry.ArtifactDir = v
	}
	if v := os.Getenv("YIELD_ENGINE_PRIORS_PATH"); v != "" {
		cfg.Registry.PriorsPath = v
	}
	if v := os.Getenv("YIELD_ENGINE_HISTORY_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.History.TTL = d
		}
	}
	if v := os.Getenv("YIELD_ENGINE_HISTORY_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.History.MaxEntries = n
		}
	}
	if v := os.Getenv("YIELD_ENGINE_HISTORY_MIN_QUALITY"); v != "" {
		if q, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.History.MinQuality = q
		}
	}
	if v := os.Getenv("YIELD_ENGINE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("YIELD_ENGINE_LOG_FORMAT"); strings.EqualFold(v, "json") {
		cfg.Logging.JSON = true
	}
}
