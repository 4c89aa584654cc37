package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
//
// Provider API keys may be empty here: each client reports a descriptive
// configuration error on its first call instead of failing process startup,
// since a deployment may only exercise a subset of providers.
type Config struct {
	AppEnv             string
	Port               string
	CORSOrigins        []string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	SerpAPIKey         string
	SerpAPIBaseURL     string
	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	RunwayAPIKey       string
	RunwayAPIBaseURL   string
	MergeDebugDir      string
	EnableMergeRoute   bool
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	MaxUploadBytes     int64
	MaxVideoImageBytes int64
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "3001"),
		CORSOrigins:        splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		SerpAPIKey:         os.Getenv("SERPAPI_API_KEY"),
		SerpAPIBaseURL:     getEnv("SERPAPI_BASE_URL", "https://serpapi.com"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		RunwayAPIKey:       os.Getenv("RUNWAY_API_KEY"),
		RunwayAPIBaseURL:   getEnv("RUNWAY_BASE_URL", "https://api.dev.runwayml.com/v1"),
		MergeDebugDir:      os.Getenv("MERGE_DEBUG_DIR"),
		EnableMergeRoute:   getEnvBool("ENABLE_MERGE_ENDPOINT", true),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MaxUploadBytes:     10 << 20,
		MaxVideoImageBytes: 45 << 20,
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
