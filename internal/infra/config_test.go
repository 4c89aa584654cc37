package infra

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "3001" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "3001")
	}
	if cfg.OpenAIAPIKey != "" {
		t.Fatalf("OpenAIAPIKey should default to empty, got %q", cfg.OpenAIAPIKey)
	}
	if cfg.RunwayAPIBaseURL != "https://api.dev.runwayml.com/v1" {
		t.Fatalf("RunwayAPIBaseURL = %q", cfg.RunwayAPIBaseURL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("CORSOrigins mismatch: %#v", cfg.CORSOrigins)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, 10<<20)
	}
}

func TestLoadConfigSplitsCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, http://localhost:3000 ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := []string{"https://app.example.com", "http://localhost:3000"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %#v, want %#v", cfg.CORSOrigins, want)
	}
	for i := range want {
		if cfg.CORSOrigins[i] != want[i] {
			t.Fatalf("CORSOrigins[%d] = %q, want %q", i, cfg.CORSOrigins[i], want[i])
		}
	}
}

func TestLoadConfigHonorsTimeoutOverrides(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT_SECONDS", "7")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "9")
	t.Setenv("ENABLE_MERGE_ENDPOINT", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got := cfg.HTTPReadTimeout.Seconds(); got != 7 {
		t.Fatalf("HTTPReadTimeout = %v", cfg.HTTPReadTimeout)
	}
	if cfg.RateLimitPerMin != 9 {
		t.Fatalf("RateLimitPerMin = %d, want 9", cfg.RateLimitPerMin)
	}
	if cfg.EnableMergeRoute {
		t.Fatalf("EnableMergeRoute should be false")
	}
}
