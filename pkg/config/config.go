// Package config loads service configuration from tarchia.yaml with
// environment variables taking precedence over file values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the process-wide settings. It is read-only after Load.
type Config struct {
	CatalogProvider   string `yaml:"CATALOG_PROVIDER"`
	CatalogName       string `yaml:"CATALOG_NAME"`
	StorageProvider   string `yaml:"STORAGE_PROVIDER"`
	MetadataRoot      string `yaml:"METADATA_ROOT"`
	TransactionSigner string `yaml:"TRANSACTION_SIGNER"`
	Port              int    `yaml:"PORT"`
	AuthToken         string `yaml:"AUTH_TOKEN"`
}

// Defaults returns the configuration used when nothing is provided
func Defaults() Config {
	return Config{
		CatalogProvider: "DEVELOPMENT",
		CatalogName:     "tarchia.db",
		StorageProvider: "LOCAL",
		MetadataRoot:    "metadata",
		Port:            8080,
	}
}

// Load reads path (if it exists) and applies environment overrides
func Load(path string) (Config, error) {
	cfg := Defaults()

	content, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CATALOG_PROVIDER"); v != "" {
		cfg.CatalogProvider = v
	}
	if v := os.Getenv("CATALOG_NAME"); v != "" {
		cfg.CatalogName = v
	}
	if v := os.Getenv("STORAGE_PROVIDER"); v != "" {
		cfg.StorageProvider = v
	}
	if v := os.Getenv("METADATA_ROOT"); v != "" {
		cfg.MetadataRoot = v
	}
	if v := os.Getenv("TRANSACTION_SIGNER"); v != "" {
		cfg.TransactionSigner = v
	}
	if v := os.Getenv("AUTH_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
}

// CommitsRoot returns the commit blob directory for a table
func (c Config) CommitsRoot(owner, tableID string) string {
	return fmt.Sprintf("%s/%s/%s/metadata/commits", c.MetadataRoot, owner, tableID)
}

// ManifestRoot returns the manifest blob directory for a table
func (c Config) ManifestRoot(owner, tableID string) string {
	return fmt.Sprintf("%s/%s/%s/metadata/manifests", c.MetadataRoot, owner, tableID)
}

// HistoryRoot returns the history blob directory for a table
func (c Config) HistoryRoot(owner, tableID string) string {
	return fmt.Sprintf("%s/%s/%s/metadata/history", c.MetadataRoot, owner, tableID)
}

// TableRoot returns the metadata directory for a table
func (c Config) TableRoot(owner, tableID string) string {
	return fmt.Sprintf("%s/%s/%s", c.MetadataRoot, owner, tableID)
}
