package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	AI       AIConfig
	Suggest  SuggestConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr      string
	UploadDir string
}

// DatabaseConfig contains the database connection settings. UseMock
// swaps the Postgres connection for a seeded in-memory database, which
// is handy for demos and local development.
type DatabaseConfig struct {
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	UseMock         bool
}

// AuthConfig controls token issuance and the auth cookie.
type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	CookieName   string
	CookieSecure bool
}

// AIConfig configures the OpenAI-backed suggestion client.
type AIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
}

// SuggestConfig tunes the recommendation endpoints.
type SuggestConfig struct {
	Limit     int
	MoodLimit int
}

// Load inspects the environment and builds a Config value.
func Load() (Config, error) {
	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
		UploadDir: firstNonEmpty(
			os.Getenv("UPLOAD_DIR"),
			"uploads",
		),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"",
		),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("DB_MAX_IDLE_CONNS"), 2),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("DB_MAX_OPEN_CONNS"), 10),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DB_CONN_MAX_LIFETIME"), time.Hour),
		ConnMaxIdleTime: parseDurationWithDefault(os.Getenv("DB_CONN_MAX_IDLE_TIME"), 10*time.Minute),
		UseMock:         parseBoolWithDefault(os.Getenv("DATABASE_USE_MOCK"), false),
	}

	cfg.Auth = AuthConfig{
		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  parseDurationWithDefault(os.Getenv("AUTH_TOKEN_TTL"), 24*time.Hour),
		CookieName: firstNonEmpty(
			os.Getenv("AUTH_COOKIE_NAME"),
			"access_token",
		),
		CookieSecure: parseBoolWithDefault(os.Getenv("AUTH_COOKIE_SECURE"), false),
	}

	cfg.AI = AIConfig{
		APIKey: os.Getenv("OPENAI_API_KEY"),
		Model: firstNonEmpty(
			os.Getenv("OPENAI_MODEL"),
			"gpt-4o-mini",
		),
		BaseURL:     os.Getenv("OPENAI_BASE_URL"),
		Temperature: parseFloatWithDefault(os.Getenv("OPENAI_TEMPERATURE"), 0.8),
		Timeout:     parseDurationWithDefault(os.Getenv("OPENAI_TIMEOUT"), 90*time.Second),
	}

	cfg.Suggest = SuggestConfig{
		Limit:     parseIntWithDefault(os.Getenv("SUGGESTION_LIMIT"), 10),
		MoodLimit: parseIntWithDefault(os.Getenv("MOOD_SUGGESTION_LIMIT"), 5),
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}

	if cfg.Suggest.Limit <= 0 || cfg.Suggest.MoodLimit <= 0 {
		return Config{}, fmt.Errorf("suggestion limits must be positive")
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseFloatWithDefault(value string, def float64) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}
