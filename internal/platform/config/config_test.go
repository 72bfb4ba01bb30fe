package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.AI.Anthropic.MaxTokens != 1000 {
		t.Errorf("AI.Anthropic.MaxTokens = %d, want 1000", cfg.AI.Anthropic.MaxTokens)
	}
	if cfg.Analysis.Timeout != 60*time.Second {
		t.Errorf("Analysis.Timeout = %v, want 60s", cfg.Analysis.Timeout)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TRACKER_STORAGE_BACKEND", "redis")
	t.Setenv("TRACKER_CACHE_URL", "redis://cache:6379")
	t.Setenv("TRACKER_AI_ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("TRACKER_ANALYSIS_TIMEOUT_SECONDS", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Backend != "redis" {
		t.Errorf("Storage.Backend = %q, want redis", cfg.Storage.Backend)
	}
	if cfg.Cache.URL != "redis://cache:6379" {
		t.Errorf("Cache.URL = %q", cfg.Cache.URL)
	}
	if !cfg.HasAIProvider() {
		t.Error("HasAIProvider() = false with key set")
	}
	if cfg.Analysis.Timeout != 30*time.Second {
		t.Errorf("Analysis.Timeout = %v, want 30s", cfg.Analysis.Timeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad-backend", func(c *Config) { c.Storage.Backend = "sqlite" }, true},
		{"redis-without-url", func(c *Config) {
			c.Storage.Backend = "redis"
			c.Cache.URL = ""
		}, true},
		{"postgres-without-url", func(c *Config) {
			c.Storage.Backend = "postgres"
			c.Database.URL = ""
		}, true},
		{"zero-timeout", func(c *Config) { c.Analysis.Timeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
