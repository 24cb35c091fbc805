// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for kin configuration.
	DefaultConfigDir = ".kin"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultFamiliesFile is the default families registry file name.
	DefaultFamiliesFile = "families.yaml"
	// DefaultFamily is used when no family is selected.
	DefaultFamily = "default"
	// DatabaseFile is the per-family SQLite file name.
	DatabaseFile = "kin.db"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite SQLiteConfig `yaml:"sqlite,omitempty"`
	Server ServerConfig `yaml:"server,omitempty"`
	Log    LogConfig    `yaml:"log,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	// When empty, the per-family path from SQLitePathForFamily is used.
	Path string `yaml:"path,omitempty"`
}

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Addr               string        `yaml:"addr,omitempty"`
	APIKey             string        `yaml:"api_key,omitempty"`
	AllowedOrigins     []string      `yaml:"allowed_origins,omitempty"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute,omitempty"`
	RateLimitBurst     int           `yaml:"rate_limit_burst,omitempty"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes,omitempty"`
	MaxQueryLength     int           `yaml:"max_query_length,omitempty"`
	MaxNameLength      int           `yaml:"max_name_length,omitempty"`
	MaxGeneration      int           `yaml:"max_generation,omitempty"`
	ReadTimeout        time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout       time.Duration `yaml:"write_timeout,omitempty"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// LogConfig holds configuration for structured logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:               ":8080",
			AllowedOrigins:     []string{"http://localhost:3000"},
			RateLimitPerMinute: 300,
			RateLimitBurst:     30,
			MaxBodyBytes:       16384,
			MaxQueryLength:     512,
			MaxNameLength:      50,
			MaxGeneration:      100,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       15 * time.Second,
			ShutdownTimeout:    10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the .kin directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'kin init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("KIN_API_KEY"); key != "" {
		c.Server.APIKey = key
	}
	if addr := os.Getenv("KIN_SERVER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("KIN_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("KIN_LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// FamiliesFilePath returns the path to the families registry.
func FamiliesFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultFamiliesFile)
}

// SanitizeFamilyName converts a family name to a safe directory name.
func SanitizeFamilyName(name string) string {
	// Convert to lowercase
	name = strings.ToLower(name)

	// Replace spaces and hyphens with underscores
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	// Remove any characters that aren't alphanumeric or underscore
	name = reNonAlphanumeric.ReplaceAllString(name, "")

	// Remove consecutive underscores
	name = reMultipleUnderscores.ReplaceAllString(name, "_")

	// Trim leading/trailing underscores
	name = strings.Trim(name, "_")

	if name == "" {
		return DefaultFamily
	}

	return name
}

// FamilyDir returns the directory path for a given family.
func FamilyDir(basePath, familyName string) string {
	return filepath.Join(basePath, DefaultConfigDir, "families", SanitizeFamilyName(familyName))
}

// SQLitePathForFamily returns the SQLite database path for a given family.
func SQLitePathForFamily(basePath, familyName string) string {
	return filepath.Join(FamilyDir(basePath, familyName), DatabaseFile)
}

// SQLitePath resolves the database path, preferring an explicit override.
func (c *Config) SQLitePath(basePath, familyName string) string {
	if c.SQLite.Path != "" {
		return c.SQLite.Path
	}
	return SQLitePathForFamily(basePath, familyName)
}
