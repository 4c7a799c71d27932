// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/viper"

	custom_errors "github-repo-sync/internal/errors"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel        string            `mapstructure:"LOG_LEVEL"`
	HTTPAddr        string            `mapstructure:"HTTP_ADDR"`
	DBDriver        string            `mapstructure:"DB_DRIVER"`
	DBURL           string            `mapstructure:"DB_URL"`
	GithubToken     string            `mapstructure:"GITHUB_TOKEN"`
	GithubAPIURL    string            `mapstructure:"GITHUB_API_URL"`
	AccountTokens   []string          `mapstructure:"ACCOUNT_TOKENS"`
	AccountsToSync  []string          `mapstructure:"ACCOUNTS_TO_SYNC"`
	SyncInterval    time.Duration     `mapstructure:"SYNC_INTERVAL"`
	SyncConcurrency int               `mapstructure:"SYNC_CONCURRENCY"`
	HTTPTimeout     time.Duration     `mapstructure:"HTTP_TIMEOUT"`
	SyncTimeout     time.Duration     `mapstructure:"SYNC_TIMEOUT"`
	TokensByAccount map[string]string `mapstructure:"-"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("SYNC_INTERVAL", "1h")
	v.SetDefault("SYNC_CONCURRENCY", 5)
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("SYNC_TIMEOUT", "15m")

	// Keys without a default must be bound, or Unmarshal never sees them.
	for _, key := range []string{"DB_URL", "GITHUB_TOKEN", "GITHUB_API_URL", "ACCOUNT_TOKENS", "ACCOUNTS_TO_SYNC"} {
		_ = v.BindEnv(key)
	}

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.AccountTokens = splitList(cfg.AccountTokens)
	cfg.AccountsToSync = splitList(cfg.AccountsToSync)

	tokens, err := ParseAccountTokens(cfg.AccountTokens)
	if err != nil {
		return nil, err
	}
	cfg.TokensByAccount = tokens

	// Validate required fields
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be 'postgres' or 'sqlite', got %q", cfg.DBDriver)
	}
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.SyncInterval < 0 {
		return nil, errors.New("SYNC_INTERVAL must not be negative")
	}
	if cfg.SyncInterval > 0 && len(cfg.AccountsToSync) == 0 {
		return nil, errors.New("ACCOUNTS_TO_SYNC must contain at least one account when SYNC_INTERVAL is set")
	}
	if cfg.SyncConcurrency <= 0 {
		return nil, errors.New("SYNC_CONCURRENCY must be positive")
	}
	if cfg.SyncTimeout <= 0 {
		return nil, errors.New("SYNC_TIMEOUT must be positive")
	}

	return &cfg, nil
}

// ParseAccountTokens turns 'owner:token' entries into a lookup table.
func ParseAccountTokens(entries []string) (map[string]string, error) {
	tokens := make(map[string]string, len(entries))
	for _, entry := range entries {
		owner, token, ok := strings.Cut(entry, ":")
		owner, token = strings.TrimSpace(owner), strings.TrimSpace(token)
		if !ok || owner == "" || token == "" {
			return nil, &custom_errors.InvalidAccountTokenError{Entry: entry}
		}
		tokens[owner] = token
	}
	return tokens, nil
}

// splitList accepts both space and comma separated environment values.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		out = append(out, strings.FieldsFunc(item, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})...)
	}
	return out
}
