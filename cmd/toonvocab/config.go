package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the full toonvocab service configuration.
type Config struct {
	Listen       string         `yaml:"listen"`
	DBPath       string         `yaml:"db_path"`
	ArtifactsDir string         `yaml:"artifacts_dir"` // empty disables debug capture
	OCR          OCRConfig      `yaml:"ocr"`
	Model        ModelConfig    `yaml:"model"`
	Auth         AuthConfig     `yaml:"auth"`
	Pipeline     PipelineConfig `yaml:"pipeline"`
}

// OCRConfig configures the OCR provider client.
type OCRConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
	Engine   int    `yaml:"engine"`
}

// ModelConfig configures the generative-model client.
type ModelConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

// AuthConfig protects the API with HTTP Basic auth. PasswordHash is a
// bcrypt hash, never the cleartext password.
type AuthConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// PipelineConfig exposes the pipeline's tunable constants.
type PipelineConfig struct {
	TileMaxBytes   int64 `yaml:"tile_max_bytes"`
	TileOverlapPx  int   `yaml:"tile_overlap_px"`
	JPEGQuality    int   `yaml:"jpeg_quality"`
	DedupEpsilonPx int   `yaml:"dedup_epsilon_px"`
	GroupGapPx     int   `yaml:"group_gap_px"`
	TileDelayMS    int   `yaml:"tile_delay_ms"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "toonvocab.db",
		Auth:   AuthConfig{Username: "admin"},
	}
}

// LoadConfig reads a YAML config file over DefaultConfig, then applies
// environment overrides. A missing file is fine when path is empty.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Listen = env("LISTEN", c.Listen)
	c.DBPath = env("DB_PATH", c.DBPath)
	c.ArtifactsDir = env("ARTIFACTS_DIR", c.ArtifactsDir)
	c.OCR.APIKey = env("OCR_API_KEY", c.OCR.APIKey)
	c.Model.APIKey = env("MODEL_API_KEY", c.Model.APIKey)
	c.Auth.Username = env("AUTH_USERNAME", c.Auth.Username)
	c.Auth.PasswordHash = env("AUTH_PASSWORD_HASH", c.Auth.PasswordHash)
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.OCR.APIKey == "" {
		return fmt.Errorf("ocr.api_key is required (or OCR_API_KEY)")
	}
	if c.Model.APIKey == "" {
		return fmt.Errorf("model.api_key is required (or MODEL_API_KEY)")
	}
	if c.Auth.PasswordHash == "" {
		return fmt.Errorf("auth.password_hash is required (or AUTH_PASSWORD_HASH)")
	}
	return nil
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
