package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Pipeline.LayoutTimeoutSeconds != 60 {
		t.Errorf("layout timeout = %d", cfg.Pipeline.LayoutTimeoutSeconds)
	}
	if cfg.Cleanup.RetentionHours != 24 {
		t.Errorf("retention = %d", cfg.Cleanup.RetentionHours)
	}

	limits := cfg.Limits.RateLimits
	if limits.Generate != 5 || limits.ParseMarkdown != 20 || limits.LayoutIntelligence != 5 {
		t.Errorf("rate limits = %+v", limits)
	}

	or, ok := cfg.GetLLMProvider("openrouter")
	if !ok || !or.Enabled || or.APIKey != "${OPENROUTER_API_KEY}" {
		t.Errorf("openrouter provider = %+v, ok = %t", or, ok)
	}
	if cfg.Defaults.LLMProvider != "openrouter" {
		t.Errorf("default llm = %q", cfg.Defaults.LLMProvider)
	}
}

func TestEnabledLLMProviders(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLMProviders["disabled"] = LLMProviderCfg{Provider: "mock", Enabled: false}

	enabled := cfg.EnabledLLMProviders()
	if _, ok := enabled["openrouter"]; !ok {
		t.Error("openrouter missing from enabled set")
	}
	if _, ok := enabled["disabled"]; ok {
		t.Error("disabled provider included")
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("SLIDESMITH_TEST_KEY", "secret123")

	tests := map[string]string{
		"${SLIDESMITH_TEST_KEY}":        "secret123",
		"prefix-${SLIDESMITH_TEST_KEY}": "prefix-secret123",
		"no-vars-here":                  "no-vars-here",
		"${UNSET_VARIABLE_XYZ}":         "",
		"":                              "",
	}
	for in, want := range tests {
		if got := ResolveEnvVars(in); got != want {
			t.Errorf("ResolveEnvVars(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToLLMSettingsResolvesKey(t *testing.T) {
	t.Setenv("SLIDESMITH_TEST_KEY", "secret123")
	p := LLMProviderCfg{
		Provider:          "openrouter",
		Model:             "anthropic/claude-3.5-sonnet",
		APIKey:            "${SLIDESMITH_TEST_KEY}",
		TimeoutSeconds:    30,
		RequestsPerMinute: 60,
	}
	s := p.ToLLMSettings()
	if s.APIKey != "secret123" {
		t.Errorf("api key = %q", s.APIKey)
	}
	if s.Provider != "openrouter" || s.TimeoutSeconds != 30 {
		t.Errorf("settings = %+v", s)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# Slidesmith configuration") {
		t.Error("missing header comment")
	}
	for _, want := range []string{"llm_providers:", "openrouter", "rate_limits:", "retention_hours:"} {
		if !strings.Contains(content, want) {
			t.Errorf("config missing %q", want)
		}
	}
}
