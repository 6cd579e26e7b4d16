// Package config loads runtime settings from the environment, with optional
// .env file support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppName identifies the backend in logs and stored records.
const AppName = "KRISHIMITRA"

// Config holds all runtime settings.
type Config struct {
	// Provider selects the language-model capability backing the agents:
	// "gemini", "openai", "anthropic" or "mock".
	Provider string

	// RouterModel is the model id used by the coordinator, greetor and mood
	// agents; WorkerModel by the price and disease delegates.
	RouterModel string
	WorkerModel string

	GoogleAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Commodity price API (data.gov.in market records).
	PriceAPIBaseURL string
	PriceAPIKey     string

	// Document store.
	MongoURI string
	MongoDB  string

	// HTTP surface.
	ListenAddr string

	// Per-turn deadline.
	TurnTimeout time.Duration

	// Wildlife watcher.
	WildlifeFrameDir     string
	WildlifePollInterval time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Provider:             getEnv("MODEL_PROVIDER", "gemini"),
		RouterModel:          getEnv("ROUTER_MODEL", "gemini-2.0-flash"),
		WorkerModel:          getEnv("WORKER_MODEL", "gemini-2.5-pro"),
		GoogleAPIKey:         os.Getenv("GOOGLE_API_KEY"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:      os.Getenv("ANTHROPIC_API_KEY"),
		PriceAPIBaseURL:      getEnv("PRICE_API_BASE_URL", "https://api.data.gov.in/resource/9ef84268-d588-465a-a308-a864a43d0070"),
		PriceAPIKey:          os.Getenv("PRICE_API_KEY"),
		MongoURI:             getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:              getEnv("MONGO_DB", "krishimitra"),
		ListenAddr:           getEnv("LISTEN_ADDR", ":8080"),
		TurnTimeout:          getDuration("TURN_TIMEOUT", 90*time.Second),
		WildlifeFrameDir:     getEnv("WILDLIFE_FRAME_DIR", "frames"),
		WildlifePollInterval: getDuration("WILDLIFE_POLL_INTERVAL", 30*time.Second),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Provider {
	case "gemini":
		if c.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required for the gemini provider")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown model provider %q", c.Provider)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
