// Package config loads the server configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrConfigInvalid  = errors.New("invalid config")
)

// Config holds all configuration for the invoice server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Assets   AssetsConfig   `yaml:"assets"`
	Invoice  InvoiceConfig  `yaml:"invoice"`
	Logs     LogsConfig     `yaml:"logs"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Addr            string `yaml:"addr"`            // listen address, e.g. ":8080"
	ReadTimeout     int    `yaml:"readTimeout"`     // seconds
	WriteTimeout    int    `yaml:"writeTimeout"`    // seconds
	IdleTimeout     int    `yaml:"idleTimeout"`     // seconds
	ShutdownTimeout int    `yaml:"shutdownTimeout"` // seconds
}

// DatabaseConfig defines the booking store connection.
type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Name            string `yaml:"name"`
	SSLMode         string `yaml:"sslMode"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// DSN builds the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// AssetsConfig defines where logo and signature images are read from.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"`
}

// InvoiceConfig defines invoice generation options.
type InvoiceConfig struct {
	RenderTimeout  int    `yaml:"renderTimeout"` // seconds, per render session
	CurrencySymbol string `yaml:"currencySymbol"`
	Place          string `yaml:"place"`
}

// LogsConfig defines structured logging output.
type LogsConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// MetricsConfig defines the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15,
			WriteTimeout:    120, // rendering can take most of the render timeout
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "volo",
			Name:            "volo",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Assets: AssetsConfig{BasePath: "assets"},
		Invoice: InvoiceConfig{
			RenderTimeout:  30,
			CurrencySymbol: "MAD",
			Place:          "",
		},
		Logs:    LogsConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: false, Path: "/metrics"},
	}
}

// Load reads the config file at path, overlaying it on the defaults.
// Returns ErrConfigNotFound when the file does not exist.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would fail confusingly at runtime.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr cannot be empty", ErrConfigInvalid)
	}
	if c.Invoice.RenderTimeout <= 0 {
		return fmt.Errorf("%w: invoice.renderTimeout must be positive", ErrConfigInvalid)
	}
	if c.Metrics.Enabled && c.Metrics.Path == "" {
		return fmt.Errorf("%w: metrics.path cannot be empty when metrics are enabled", ErrConfigInvalid)
	}
	return nil
}
