package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePebble   = "pebble"
	StorePostgres = "postgres"
)

// Config holds the settings shared by every command, loaded from flags, env,
// or config file.
type Config struct {
	Store         string
	StorePath     string
	PGDSN         string
	CacheSize     int
	Journal       string
	JournalErrors string
	RPCURL        string
	MaxRetries    int
	RetryBackoff  time.Duration
	MaxRiskLevel  uint8
	LogLevel      string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the store selection and its required settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreFile, StorePebble:
		if c.StorePath == "" {
			return fmt.Errorf("store-path is required for store %q", c.Store)
		}
	case StorePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for store %q", c.Store)
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache-size must not be negative")
	}
	if c.MaxRiskLevel > 3 {
		return fmt.Errorf("max-risk-level must be between 1 and 3")
	}
	return nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("AMM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", StoreMemory)
	v.SetDefault("cache-size", 128)
	v.SetDefault("journal", "./data/events.jsonl")
	v.SetDefault("journal-errors", "./data/errors.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("max-risk-level", 3)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Store:         strings.ToLower(v.GetString("store")),
		StorePath:     v.GetString("store-path"),
		PGDSN:         v.GetString("pg-dsn"),
		CacheSize:     v.GetInt("cache-size"),
		Journal:       v.GetString("journal"),
		JournalErrors: v.GetString("journal-errors"),
		RPCURL:        v.GetString("rpc"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		MaxRiskLevel:  uint8(v.GetUint("max-risk-level")),
		LogLevel:      v.GetString("log-level"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
