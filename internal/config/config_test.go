package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.ServerPort)
	}
	if cfg.FestivalBaseURL != "https://iffr.com" {
		t.Errorf("Unexpected festival base URL %s", cfg.FestivalBaseURL)
	}
	if cfg.ShareBackend != ShareBackendBolt {
		t.Errorf("Expected bolt share backend, got %s", cfg.ShareBackend)
	}
	if cfg.ParseCacheTTL != 10*time.Minute {
		t.Errorf("Expected 10m parse cache, got %v", cfg.ParseCacheTTL)
	}
	if cfg.FestivalStart.Format("2006-01-02") != "2026-01-29" {
		t.Errorf("Unexpected festival start %v", cfg.FestivalStart)
	}
	if cfg.NotionConfigured() {
		t.Errorf("Notion should not be configured by default")
	}
}

func TestLoadRejectsHalfCredentials(t *testing.T) {
	viper.Reset()
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("NOTION_API_KEY", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error when only NOTION_API_KEY is set")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	viper.Reset()
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("SHARE_BACKEND", "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for unknown share backend")
	}
}
