package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/HendryAvila/recall/internal/config"
)

func writeConfig(t *testing.T, path string, cfg config.Config) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RECALL_LLM_PROVIDER", "")
	t.Setenv("RECALL_LLM_MODEL", "")
	t.Setenv("RECALL_LLM_API_KEY", "")
	t.Setenv("RECALL_LLM_BASE_URL", "")
}

func TestLoad_MissingFilesIsEmpty(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ExternalEnabled() {
		t.Error("empty config reports external enabled")
	}
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)

	writeConfig(t, filepath.Join(home, ".recall", "config.json"), config.Config{
		LLM: config.LLM{Provider: "openai", Model: "global-model", APIKey: "global-key"},
	})
	writeConfig(t, filepath.Join(project, ".recall", "config.json"), config.Config{
		LLM: config.LLM{Model: "project-model"},
	})

	cfg, err := config.Load(project)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Model != "project-model" {
		t.Errorf("model = %q, want project-model", cfg.LLM.Model)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.APIKey != "global-key" {
		t.Errorf("global values lost: %+v", cfg.LLM)
	}
	if !cfg.ExternalEnabled() {
		t.Error("external should be enabled")
	}
}

func TestLoad_EnvFillsMissingKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RECALL_LLM_PROVIDER", "openai")
	t.Setenv("RECALL_LLM_MODEL", "env-model")
	t.Setenv("RECALL_LLM_API_KEY", "env-key")
	t.Setenv("RECALL_LLM_BASE_URL", "http://localhost:8080/v1")

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Model != "env-model" || cfg.LLM.BaseURL != "http://localhost:8080/v1" {
		t.Errorf("env fallbacks not applied: %+v", cfg.LLM)
	}
}

func TestLoad_FileBeatsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RECALL_LLM_MODEL", "env-model")
	project := t.TempDir()

	writeConfig(t, filepath.Join(project, ".recall", "config.json"), config.Config{
		LLM: config.LLM{Model: "file-model"},
	})

	cfg, err := config.Load(project)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Model != "file-model" {
		t.Errorf("model = %q, want file value to win", cfg.LLM.Model)
	}
}

func TestSet_RoundTrip(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()

	if err := config.Set(project, "llm.provider", "openai"); err != nil {
		t.Fatalf("Set provider: %v", err)
	}
	if err := config.Set(project, "llm.model", "gpt-4o-mini"); err != nil {
		t.Fatalf("Set model: %v", err)
	}

	cfg, err := config.Load(project)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("round trip lost values: %+v", cfg.LLM)
	}
}

func TestSet_UnknownKey(t *testing.T) {
	if err := config.Set(t.TempDir(), "llm.nope", "x"); err == nil {
		t.Error("unknown key accepted")
	}
}

func TestHeuristicProviderNotExternal(t *testing.T) {
	cfg := config.Config{LLM: config.LLM{Provider: "heuristic", Model: "m", APIKey: "k"}}
	if cfg.ExternalEnabled() {
		t.Error("heuristic provider must not enable external distillation")
	}
}
