// Package config loads settings from defaults, an optional YAML file, .env files
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sdpower/ctxgw-report/internal/loader"
	"github.com/sdpower/ctxgw-report/internal/logger"
	"github.com/sdpower/ctxgw-report/internal/pricing"
	"github.com/sdpower/ctxgw-report/internal/types"
)

// DefaultConfigFile is the YAML file checked in the working directory.
const DefaultConfigFile = "ctxgw-report.yaml"

// Config holds the application configuration.
type Config struct {
	Service         string        `yaml:"service"`
	TelemetryPath   string        `yaml:"telemetry_path"`
	CompressionPath string        `yaml:"compression_path"`
	PricesURL       string        `yaml:"prices_url"`
	PricesTimeout   time.Duration `yaml:"prices_timeout"`
	Offline         bool          `yaml:"offline"`
	GatewayURL      string        `yaml:"gateway_url"`
	SettingsPath    string        `yaml:"settings_path"`
	LogLevel        string        `yaml:"log_level"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Service:         loader.DefaultService,
		TelemetryPath:   loader.DefaultRequestPath,
		CompressionPath: loader.DefaultCompressionPath,
		PricesURL:       pricing.DefaultURL,
		PricesTimeout:   5 * time.Second,
		GatewayURL:      "http://localhost:18080",
		SettingsPath:    defaultSettingsPath(),
		LogLevel:        "warn",
	}
}

// Load reads DefaultConfigFile when present, then .env files and the environment.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom is Load with an explicit YAML path. A missing file is not an error.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadDotEnv()
	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields that have no usable fallback.
func (c Config) Validate() error {
	if c.Service == "" {
		return types.ValidationError{Field: "service", Message: "must not be empty"}
	}
	if c.PricesTimeout <= 0 {
		return types.ValidationError{Field: "prices_timeout", Message: "must be positive"}
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return types.ValidationError{Field: "log_level", Message: err.Error()}
	}
	return nil
}

func loadYAML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadDotEnv loads the first .env file found. Existing variables are not overridden.
func loadDotEnv() {
	for _, path := range envPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				logger.Warn("ignoring unreadable .env file", "path", path, "error", err)
			}
			return
		}
	}
}

func envPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ctxgw-report", ".env"))
	}
	return paths
}

func loadEnv(cfg *Config) {
	setString(&cfg.Service, "CTXGW_SERVICE")
	setString(&cfg.TelemetryPath, "CTXGW_TELEMETRY_PATH")
	setString(&cfg.CompressionPath, "CTXGW_COMPRESSION_PATH")
	setString(&cfg.PricesURL, "CTXGW_PRICES_URL")
	setDuration(&cfg.PricesTimeout, "CTXGW_PRICES_TIMEOUT")
	setBool(&cfg.Offline, "CTXGW_OFFLINE")
	setString(&cfg.GatewayURL, "CTXGW_GATEWAY_URL")
	setString(&cfg.SettingsPath, "CTXGW_SETTINGS_PATH")
	setString(&cfg.LogLevel, "CTXGW_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setDuration accepts Go durations ("5s", "750ms") or plain seconds.
func setDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return
	}
	logger.Warn("ignoring invalid duration", "key", key, "value", v)
}

func setBool(dst *bool, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("ignoring invalid boolean", "key", key, "value", v)
		return
	}
	*dst = b
}

func defaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".claude", "settings.json")
	}
	return filepath.Join(home, ".claude", "settings.json")
}
