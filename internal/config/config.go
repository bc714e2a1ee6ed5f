// Package config provides configuration management for snapvault.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/halcyonlab/snapvault/pkg/models"
)

// Defaults for the settings the library consumes.
const (
	DefaultRetentionDays  = 30
	DefaultMaxItems       = 500
	DefaultMaxBytes       = int64(2) << 30 // 2 GiB
	DefaultThumbMaxSide   = 256
	DefaultPreviewMaxSide = 1600
	DefaultJPEGQuality    = 82
	DefaultMaxConns       = 4
	DefaultEmbedModel     = "nl-embed-small"
	DefaultEmbedDim       = 384
)

// Config holds the library settings. Retention and budget numbers are
// consumed verbatim by the sweep; only non-negativity is enforced.
type Config struct {
	RetentionDays int   `yaml:"retention_days"`
	MaxItems      int64 `yaml:"max_items"`
	MaxBytes      int64 `yaml:"max_bytes"`

	StorePreviews  bool `yaml:"store_previews"`
	StoreOriginals bool `yaml:"store_originals"`
	AutoOCR        bool `yaml:"auto_ocr"`
	SemanticSearch bool `yaml:"semantic_search"`

	ThumbMaxSide   int `yaml:"thumb_max_side"`
	PreviewMaxSide int `yaml:"preview_max_side"`
	JPEGQuality    int `yaml:"jpeg_quality"`

	MaxConns int `yaml:"max_conns"`

	EmbedModel string `yaml:"embed_model"`
	EmbedDim   int    `yaml:"embed_dim"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		RetentionDays:  DefaultRetentionDays,
		MaxItems:       DefaultMaxItems,
		MaxBytes:       DefaultMaxBytes,
		StorePreviews:  true,
		StoreOriginals: true,
		AutoOCR:        true,
		SemanticSearch: true,
		ThumbMaxSide:   DefaultThumbMaxSide,
		PreviewMaxSide: DefaultPreviewMaxSide,
		JPEGQuality:    DefaultJPEGQuality,
		MaxConns:       DefaultMaxConns,
		EmbedModel:     DefaultEmbedModel,
		EmbedDim:       DefaultEmbedDim,
	}
}

// DataDir returns the library root directory. SNAPVAULT_DATA_DIR
// overrides the default of ~/.snapvault.
func DataDir() string {
	if dir := os.Getenv("SNAPVAULT_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".snapvault"
	}
	return filepath.Join(home, ".snapvault")
}

// DBPath returns the relational store file inside the data directory.
func DBPath() string {
	return filepath.Join(DataDir(), "snapvault.db")
}

// SettingsPath returns the settings file location.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.yaml")
}

// EnsureAll creates the data directory with restricted permissions.
func EnsureAll() error {
	if err := os.MkdirAll(DataDir(), 0o700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return nil
}

// Load reads the settings file, falling back to defaults when it does
// not exist. Unknown keys are ignored; negative budget numbers are
// clamped to zero (disabled).
func Load() (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(SettingsPath())
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	cfg.clamp()
	return cfg, nil
}

// Save writes the settings file.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(SettingsPath(), data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Policy converts the retention settings to an eviction policy.
func (c *Config) Policy() models.EvictionPolicy {
	return models.EvictionPolicy{
		RetentionDays: c.RetentionDays,
		MaxItems:      c.MaxItems,
		MaxBytes:      c.MaxBytes,
	}
}

// clamp enforces non-negativity; business sanity beyond that is the
// settings provider's problem.
func (c *Config) clamp() {
	if c.RetentionDays < 0 {
		c.RetentionDays = 0
	}
	if c.MaxItems < 0 {
		c.MaxItems = 0
	}
	if c.MaxBytes < 0 {
		c.MaxBytes = 0
	}
	if c.MaxConns <= 0 {
		c.MaxConns = DefaultMaxConns
	}
}
