package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	Port              int
	NatsURL           string
	NatsToken         string
	DatabaseURL       string
	DBConnectTimeout  time.Duration
	LogLevel          string
	LLMProvider       string
	GeminiAPIKey      string
	GeminiModel       string
	AnthropicAPIKey   string
	AnthropicModel    string
	GenerationTimeout time.Duration
	JWTSecret         string
	JWTIssuer         string
	APIToken          string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set take precedence.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:              envInt("MOCKVIEW_PORT", 8760),
		NatsURL:           envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:         envStr("NATS_TOKEN", ""),
		DatabaseURL:       envStr("DATABASE_URL", ""),
		DBConnectTimeout:  envDuration("DB_CONNECT_TIMEOUT", 30*time.Second),
		LogLevel:          envStr("LOG_LEVEL", "info"),
		LLMProvider:       strings.ToLower(envStr("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:      envStr("GEMINI_API_KEY", ""),
		GeminiModel:       envStr("GEMINI_MODEL", "gemini-1.5-flash"),
		AnthropicAPIKey:   envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:    envStr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		GenerationTimeout: envDuration("GENERATION_TIMEOUT", 60*time.Second),
		JWTSecret:         envStr("AUTH_JWT_SECRET", ""),
		JWTIssuer:         envStr("AUTH_JWT_ISSUER", ""),
		APIToken:          envStr("MOCKVIEW_API_TOKEN", ""),
	}
}

// AuthEnabled reports whether HTTP callers must authenticate.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != "" || c.APIToken != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envDuration accepts Go duration strings ("45s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
