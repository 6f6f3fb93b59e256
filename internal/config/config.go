// Package config loads lookupctl settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LOOKUP_CLIENT_TENANT.
const EnvPrefix = "LOOKUP"

// Config holds all lookupctl configuration.
type Config struct {
	Client ClientConfig
	Server ServerConfig
	Log    LogConfig
}

// ClientConfig drives fetch, pick and scan.
type ClientConfig struct {
	ModuleBase    string
	Tenant        string
	Timeout       time.Duration
	Limit         int
	CacheCapacity int
}

// ServerConfig drives serve.
type ServerConfig struct {
	Addr         string
	BasePath     string
	Dataset      string
	Watch        bool
	DefaultLimit int
	MaxLimit     int
	Tenants      []string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Load reads configuration with this priority, highest first:
//  1. environment variables with the LOOKUP_ prefix (LOOKUP_SERVER_ADDR)
//  2. file, or lookup.yaml / lookup.toml found in . or $HOME/.config/lookup
//  3. built-in defaults
func Load(file string) (*Config, error) {
	return LoadWith(viper.New(), file)
}

// LoadWith is Load over a caller supplied viper instance.
func LoadWith(v *viper.Viper, file string) (*Config, error) {
	setDefaults(v)

	if file = strings.TrimSpace(file); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("lookup")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lookup")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Client: ClientConfig{
			ModuleBase:    v.GetString("client.module_base"),
			Tenant:        v.GetString("client.tenant"),
			Timeout:       v.GetDuration("client.timeout"),
			Limit:         v.GetInt("client.limit"),
			CacheCapacity: v.GetInt("client.cache_capacity"),
		},
		Server: ServerConfig{
			Addr:         v.GetString("server.addr"),
			BasePath:     v.GetString("server.base_path"),
			Dataset:      v.GetString("server.dataset"),
			Watch:        v.GetBool("server.watch"),
			DefaultLimit: v.GetInt("server.default_limit"),
			MaxLimit:     v.GetInt("server.max_limit"),
			Tenants:      v.GetStringSlice("server.tenants"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("client.module_base", "http://127.0.0.1:8080")
	v.SetDefault("client.timeout", 15*time.Second)
	v.SetDefault("client.limit", 10)
	v.SetDefault("client.cache_capacity", 50)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_path", "/")
	v.SetDefault("server.default_limit", 10)
	v.SetDefault("server.max_limit", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
}

// Validate checks ranges and required combinations.
func (c *Config) Validate() error {
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("config: client.timeout must be positive")
	}
	if c.Client.Limit <= 0 {
		return fmt.Errorf("config: client.limit must be positive")
	}
	if c.Client.CacheCapacity <= 0 {
		return fmt.Errorf("config: client.cache_capacity must be positive")
	}
	if c.Server.DefaultLimit <= 0 || c.Server.MaxLimit <= 0 {
		return fmt.Errorf("config: server limits must be positive")
	}
	if c.Server.DefaultLimit > c.Server.MaxLimit {
		return fmt.Errorf("config: server.default_limit (%d) cannot exceed server.max_limit (%d)",
			c.Server.DefaultLimit, c.Server.MaxLimit)
	}
	if c.Server.Watch && strings.TrimSpace(c.Server.Dataset) == "" {
		return fmt.Errorf("config: server.watch requires server.dataset")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}
