package chatpod

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultModel              = "gpt-4o-mini"
	DefaultEmbeddingModel     = "text-embedding-ada-002"
	DefaultDatabaseName       = "ai_finance"
	DefaultHistoryLimit       = 5
	DefaultKnowledgeThreshold = 0.7
)

type Config struct {
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	Model              string
	EmbeddingModel     string
	DatabaseURL        string
	DatabaseName       string
	HistoryLimit       int
	MaxContextTokens   int
	KnowledgeLookup    bool
	KnowledgeThreshold float64
	LogLevel           string
}

// LoadConfig reads the configuration from the environment. A .env file in the working
// directory is loaded first when present; variables already set in the environment win.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug("no .env file loaded, falling back to environment variables", "error", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("OPENAI_MODEL", DefaultModel)
	v.SetDefault("OPENAI_EMBEDDING_MODEL", DefaultEmbeddingModel)
	v.SetDefault("DATABASE_NAME", DefaultDatabaseName)
	v.SetDefault("HISTORY_LIMIT", DefaultHistoryLimit)
	v.SetDefault("MAX_CONTEXT_TOKENS", 0)
	v.SetDefault("KNOWLEDGE_LOOKUP", false)
	v.SetDefault("KNOWLEDGE_THRESHOLD", DefaultKnowledgeThreshold)
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		OpenAIAPIKey:       v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:      v.GetString("OPENAI_BASE_URL"),
		Model:              v.GetString("OPENAI_MODEL"),
		EmbeddingModel:     v.GetString("OPENAI_EMBEDDING_MODEL"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		DatabaseName:       v.GetString("DATABASE_NAME"),
		HistoryLimit:       v.GetInt("HISTORY_LIMIT"),
		MaxContextTokens:   v.GetInt("MAX_CONTEXT_TOKENS"),
		KnowledgeLookup:    v.GetBool("KNOWLEDGE_LOOKUP"),
		KnowledgeThreshold: v.GetFloat64("KNOWLEDGE_THRESHOLD"),
		LogLevel:           v.GetString("LOG_LEVEL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingConfig)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL", ErrMissingConfig)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("%w: HISTORY_LIMIT must not be negative", ErrInvalidInput)
	}
	if c.MaxContextTokens < 0 {
		return fmt.Errorf("%w: MAX_CONTEXT_TOKENS must not be negative", ErrInvalidInput)
	}
	return nil
}

// DSN returns the database URL with the database name appended as the last path segment.
// Query parameters on the base URL are kept.
func (c *Config) DSN() string {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil || u.Scheme == "" {
		return strings.TrimRight(c.DatabaseURL, "/") + "/" + c.DatabaseName
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + c.DatabaseName
	return u.String()
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
