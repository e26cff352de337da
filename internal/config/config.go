// Package config loads recall's settings.
//
// Precedence per key: project file (.recall/config.json), then the
// global file (~/.recall/config.json), then RECALL_LLM_* environment
// variables. A project .env file is loaded into the environment first,
// without overriding variables already set.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LLM holds the external-model distillation settings. An empty provider
// means heuristic-only distillation.
type LLM struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// Config is the full recall configuration.
type Config struct {
	LLM LLM `json:"llm"`
}

// ExternalEnabled reports whether external-model distillation is
// configured well enough to try.
func (c *Config) ExternalEnabled() bool {
	return c.LLM.Provider != "" && c.LLM.Provider != "heuristic" &&
		c.LLM.APIKey != "" && c.LLM.Model != ""
}

// Load reads the configuration for a project directory.
func Load(projectDir string) (*Config, error) {
	// Project .env feeds the environment fallbacks, never overriding
	// variables the user already exported.
	_ = godotenv.Load(filepath.Join(projectDir, ".env"))

	cfg := &Config{}

	if home, err := os.UserHomeDir(); err == nil {
		if err := mergeFile(cfg, filepath.Join(home, ".recall", "config.json")); err != nil {
			return nil, err
		}
	}
	if err := mergeFile(cfg, projectPath(projectDir)); err != nil {
		return nil, err
	}

	applyEnvFallbacks(cfg)
	return cfg, nil
}

// Set writes one key into the project config file, creating it if
// needed. Keys use dotted paths: llm.provider, llm.model, llm.api_key,
// llm.base_url.
func Set(projectDir, key, value string) error {
	cfg := &Config{}
	path := projectPath(projectDir)
	if err := mergeFile(cfg, path); err != nil {
		return err
	}

	switch key {
	case "llm.provider":
		cfg.LLM.Provider = value
	case "llm.model":
		cfg.LLM.Model = value
	case "llm.api_key":
		cfg.LLM.APIKey = value
	case "llm.base_url":
		cfg.LLM.BaseURL = value
	default:
		return fmt.Errorf("config: unknown key %q", key)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func projectPath(projectDir string) string {
	return filepath.Join(projectDir, ".recall", "config.json")
}

// mergeFile overlays non-empty values from a config file onto cfg.
// A missing file is fine.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var file Config
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	overlay(&cfg.LLM, file.LLM)
	return nil
}

func applyEnvFallbacks(cfg *Config) {
	fallback(&cfg.LLM.Provider, "RECALL_LLM_PROVIDER")
	fallback(&cfg.LLM.Model, "RECALL_LLM_MODEL")
	fallback(&cfg.LLM.APIKey, "RECALL_LLM_API_KEY")
	fallback(&cfg.LLM.BaseURL, "RECALL_LLM_BASE_URL")
}

func overlay(dst *LLM, src LLM) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
}

func fallback(dst *string, envKey string) {
	if *dst == "" {
		*dst = os.Getenv(envKey)
	}
}
