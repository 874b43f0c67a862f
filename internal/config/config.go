package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/flyerscan/prestations/internal/providers"
)

type Config struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	MistralAPIKey string
	MistralURL    string
	OpenAIAPIKey  string
	OpenAIURL     string
	OllamaURL     string
	GeminiAPIKey  string

	Storage    string
	DataDir    string
	RedisURL   string
	StorageKey string

	Port string
}

// Load reads the environment. Malformed numbers fall back to their default
// with a warning.
func Load() *Config {
	c := &Config{
		Provider:      getEnv("PRESTATIONS_PROVIDER", "mistral"),
		Temperature:   getFloat("PRESTATIONS_TEMPERATURE", 0.2),
		MaxTokens:     getInt("PRESTATIONS_MAX_TOKENS", 2000),
		Timeout:       getDuration("PRESTATIONS_TIMEOUT", 120*time.Second),
		MistralAPIKey: os.Getenv("MISTRAL_API_KEY"),
		MistralURL:    os.Getenv("MISTRAL_URL"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIURL:     os.Getenv("OPENAI_URL"),
		OllamaURL:     getEnv("OLLAMA_URL", os.Getenv("OLLAMA_HOST")),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		Storage:       getEnv("PRESTATIONS_STORAGE", "file"),
		DataDir:       getEnv("PRESTATIONS_DATA_DIR", "./data"),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		StorageKey:    getEnv("PRESTATIONS_STORAGE_KEY", "prestations"),
		Port:          getEnv("PRESTATIONS_PORT", "8888"),
	}
	c.Model = getEnv("PRESTATIONS_MODEL", providers.DefaultModels[c.Provider])
	return c
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Ignoring malformed integer setting", "key", key, "value", v)
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("Ignoring malformed number setting", "key", key, "value", v)
		return def
	}
	return f
}

// getDuration accepts Go durations ("90s", "2m") or a bare number of seconds.
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	slog.Warn("Ignoring malformed duration setting", "key", key, "value", v)
	return def
}
