package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# Kinship Configuration

# sqlite:
#   path: /absolute/path/kin.db  (default: .kin/families/<family>/kin.db)

server:
  addr: ":8080"
  # api_key: your-api-key (or set KIN_API_KEY env var)
  allowed_origins:
    - http://localhost:3000
  rate_limit_per_minute: 300
  rate_limit_burst: 30
  max_body_bytes: 16384
  max_query_length: 512
  max_name_length: 50
  max_generation: 100

log:
  level: info
  format: text
`

// WriteDefault creates the .kin directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Exists checks if a kin config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
