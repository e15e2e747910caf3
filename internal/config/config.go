package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/newthinker/stockanalyzer/internal/core"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. STOCKANALYZER_SERVER_PORT.
const EnvPrefix = "STOCKANALYZER"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// UpstreamConfig selects and tunes the market data provider.
// Empty URLs fall back to the provider's own defaults.
type UpstreamConfig struct {
	Provider        string        `mapstructure:"provider"`
	BaseURL         string        `mapstructure:"base_url"`
	CookieURL       string        `mapstructure:"cookie_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Proxy           string        `mapstructure:"proxy"`
	UserAgent       string        `mapstructure:"user_agent"`
	HistoryRange    string        `mapstructure:"history_range"`
	HistoryInterval string        `mapstructure:"history_interval"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load reads configuration from path on top of Defaults. An empty path
// skips the file and applies only defaults and environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)

	v.SetDefault("upstream.provider", d.Upstream.Provider)
	v.SetDefault("upstream.base_url", d.Upstream.BaseURL)
	v.SetDefault("upstream.cookie_url", d.Upstream.CookieURL)
	v.SetDefault("upstream.timeout", d.Upstream.Timeout)
	v.SetDefault("upstream.proxy", d.Upstream.Proxy)
	v.SetDefault("upstream.user_agent", d.Upstream.UserAgent)
	v.SetDefault("upstream.history_range", d.Upstream.HistoryRange)
	v.SetDefault("upstream.history_interval", d.Upstream.HistoryInterval)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.level", d.Log.Level)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			CORSOrigins:  []string{"*"},
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Upstream: UpstreamConfig{
			Provider:        "yahoo",
			Timeout:         10 * time.Second,
			HistoryRange:    "1y",
			HistoryInterval: "1d",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if len(c.Server.CORSOrigins) == 0 {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("server.cors_origins must list at least one origin"))
	}

	// Upstream validation
	if c.Upstream.Provider == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("upstream.provider is required"))
	}
	if c.Upstream.Timeout <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("upstream.timeout must be positive, got %s", c.Upstream.Timeout))
	}
	// A response must be able to carry the timeout error back to the client.
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Upstream.Timeout {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("server.write_timeout (%s) must exceed upstream.timeout (%s)",
				c.Server.WriteTimeout, c.Upstream.Timeout))
	}
	if c.Upstream.HistoryRange == "" || c.Upstream.HistoryInterval == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("upstream.history_range and upstream.history_interval are required"))
	}
	for name, raw := range map[string]string{
		"base_url":   c.Upstream.BaseURL,
		"cookie_url": c.Upstream.CookieURL,
		"proxy":      c.Upstream.Proxy,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("upstream.%s must be an absolute URL, got %q", name, raw))
		}
	}

	// Metrics validation
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path))
	}

	return nil
}
