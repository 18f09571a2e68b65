package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ga4report/internal/credentials"
)

const (
	ConfigDirName  = ".ga4report"
	ConfigFileName = "config.yaml"
)

// GetConfigDir returns the path to the config directory (~/.ga4report)
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ConfigDirName), nil
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// LoadConfig reads the configuration from ~/.ga4report/config.yaml
func LoadConfig() (*AppConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(configPath)
}

// LoadConfigFrom reads the configuration at configPath. A missing file yields an empty config.
func LoadConfigFrom(configPath string) (*AppConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &AppConfig{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config AppConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig writes the configuration to ~/.ga4report/config.yaml
func SaveConfig(config *AppConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveConfigTo(configPath, config)
}

// SaveConfigTo writes config to configPath with user-only permissions
func SaveConfigTo(configPath string, config *AppConfig) error {
	// Create directory with proper permissions (user read/write/execute only)
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	config.UpdatedAt = time.Now()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = time.Now()
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// Holds key material, user read/write only
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays environment variables on top of the file configuration.
// GA4_PRIVATE_KEY is applied after GA4_CREDENTIALS_FILE and clears every file
// source, so an inline key from the environment always wins.
func (c *AppConfig) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvClientEmail); ok && strings.TrimSpace(v) != "" {
		c.ClientEmail = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvCredentialsFile); ok && strings.TrimSpace(v) != "" {
		c.CredentialsFile = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPrivateKey); ok && strings.TrimSpace(v) != "" {
		c.PrivateKey = v
		c.PrivateKeyFile = ""
		c.CredentialsFile = ""
	}
	if v, ok := lookup(EnvPropertyID); ok && strings.TrimSpace(v) != "" {
		c.PropertyID = strings.TrimSpace(v)
	}
}

// Credential resolves the service account. Precedence: credentials file,
// then private key file, then the inline key. Completeness is checked later
// by the analytics facade, so a partial credential is returned as is.
func (c *AppConfig) Credential() (credentials.ServiceAccount, error) {
	if c.CredentialsFile != "" {
		data, err := os.ReadFile(c.CredentialsFile)
		if err != nil {
			return credentials.ServiceAccount{}, fmt.Errorf("failed to read credentials file: %w", err)
		}
		account, err := credentials.LoadServiceAccountJSON(data)
		if err != nil {
			return credentials.ServiceAccount{}, fmt.Errorf("credentials file %s: %w", c.CredentialsFile, err)
		}
		return account, nil
	}

	account := credentials.ServiceAccount{
		ClientEmail:   c.ClientEmail,
		PrivateKeyPEM: c.PrivateKey,
	}
	if c.PrivateKeyFile != "" {
		data, err := os.ReadFile(c.PrivateKeyFile)
		if err != nil {
			return credentials.ServiceAccount{}, fmt.Errorf("failed to read private key file: %w", err)
		}
		account.PrivateKeyPEM = string(data)
	}
	return account, nil
}
