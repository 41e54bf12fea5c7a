package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseDBURL   string
	SupabaseKey     string // service role key, used by cmd/seed only
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string

	// LLM Configuration
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	DefaultModel    string
	SummaryModel    string
	ImageModel      string

	// Billing
	DebitPolicy            string // "estimate" or "billed"
	FallbackMessageCredits int
	RateCacheTTL           time.Duration
	RedisAddr              string

	// Chat pipeline
	SendLockTTL time.Duration

	// Integrations
	SpotifyAPIURL         string
	SpotifySearchInterval time.Duration
	FacebookGraphURL      string

	// Logging
	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := getEnv("SUPABASE_URL", "")

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		SupabaseURL:     supabaseURL,
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		SupabaseKey:     getEnv("SUPABASE_KEY", ""),
		SupabaseJWKSURL: supabaseURL + "/auth/v1/.well-known/jwks.json",
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:     getTablePrefix(env),

		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		DefaultModel:    getEnv("DEFAULT_MODEL", "gpt-4o-mini"),
		SummaryModel:    getEnv("SUMMARY_MODEL", "gpt-4o-mini"),
		ImageModel:      getEnv("IMAGE_MODEL", "dall-e-3"),

		DebitPolicy:            getEnv("DEBIT_POLICY", "estimate"),
		FallbackMessageCredits: getInt("FALLBACK_MESSAGE_CREDITS", 5),
		RateCacheTTL:           getDuration("RATE_CACHE_TTL", 5*time.Minute),
		RedisAddr:              getEnv("REDIS_ADDR", ""),

		SendLockTTL: getDuration("SEND_LOCK_TTL", 2*time.Minute),

		SpotifyAPIURL:         getEnv("SPOTIFY_API_URL", "https://api.spotify.com/v1"),
		SpotifySearchInterval: getDuration("SPOTIFY_SEARCH_INTERVAL", 150*time.Millisecond),
		FacebookGraphURL:      getEnv("FACEBOOK_GRAPH_URL", "https://graph.facebook.com/v19.0"),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),
	}
}

// IsDev reports whether dev-only routes and debug logging are enabled
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getDuration accepts Go duration strings ("90s") or plain seconds ("90")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
