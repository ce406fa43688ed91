// Package config loads gmaps2nav settings. Later layers override earlier
// ones: built-in defaults, the TOML config file, a .env file, then
// GMAPS2NAV_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"gmaps2nav/notify"
	"gmaps2nav/resolver"
	"gmaps2nav/service"
)

const (
	// EnvPrefix marks environment variables read by Load.
	EnvPrefix = "GMAPS2NAV_"
	// DefaultFile is read from the working directory when no path is given.
	DefaultFile = "gmaps2nav.toml"
	// DefaultDotEnv is read from the working directory when no path is given.
	DefaultDotEnv = ".env"
)

const (
	ModeHTTP    = "http"
	ModeBrowser = "browser"
)

type Config struct {
	Resolver ResolverConfig `koanf:"resolver"`
	Notify   NotifyConfig   `koanf:"notify"`
	Server   ServerConfig   `koanf:"server"`
	Batch    BatchConfig    `koanf:"batch"`
}

type ResolverConfig struct {
	MaxHops        int           `koanf:"max_hops"`
	HopTimeout     time.Duration `koanf:"hop_timeout"`
	UserAgent      string        `koanf:"user_agent"`
	AcceptLanguage string        `koanf:"accept_language"`
	Mode           string        `koanf:"mode"`
	Trace          bool          `koanf:"trace"`
	BrowserTimeout time.Duration `koanf:"browser_timeout"`
	BrowserWait    time.Duration `koanf:"browser_wait"`
}

type NotifyConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Token    string        `koanf:"token"`
	User     string        `koanf:"user"`
	Message  string        `koanf:"message"`
	Title    string        `koanf:"title"`
	Priority string        `koanf:"priority"`
	Sound    string        `koanf:"sound"`
	Device   string        `koanf:"device"`
	Timeout  time.Duration `koanf:"timeout"`
}

type ServerConfig struct {
	Addr      string  `koanf:"addr"`
	APIKey    string  `koanf:"api_key"`
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`
}

type BatchConfig struct {
	Concurrency int `koanf:"concurrency"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"resolver.max_hops":        10,
		"resolver.hop_timeout":     "10s",
		"resolver.user_agent":      resolver.DefaultUserAgent,
		"resolver.accept_language": resolver.DefaultAcceptLanguage,
		"resolver.mode":            ModeHTTP,
		"resolver.trace":           false,
		"resolver.browser_timeout": "45s",
		"resolver.browser_wait":    "2s",

		"notify.endpoint": notify.DefaultEndpoint,
		"notify.token":    "",
		"notify.user":     "",
		"notify.message":  "Navigate",
		"notify.title":    "Navigation",
		"notify.priority": "0",
		"notify.sound":    "",
		"notify.device":   "",
		"notify.timeout":  "15s",

		"server.addr":       ":8080",
		"server.api_key":    "",
		"server.rate_limit": 2.0,
		"server.burst":      5,

		"batch.concurrency": 4,
	}
}

// Load reads the configuration. An empty configPath or dotenvPath falls back
// to DefaultFile or DefaultDotEnv, which are skipped when absent; an explicit
// path that does not exist is an error.
func Load(configPath, dotenvPath string) (*Config, error) {
	if configPath == "" {
		configPath = optional(DefaultFile)
	}
	if dotenvPath == "" {
		dotenvPath = optional(DefaultDotEnv)
	}
	return load(configPath, dotenvPath)
}

func optional(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func load(configPath, dotenvPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	}

	// 3. .env file, read without touching the process environment
	if dotenvPath != "" {
		vars, err := godotenv.Read(dotenvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dotenvPath, err)
		}
		flat := make(map[string]interface{})
		for key, value := range vars {
			if strings.HasPrefix(key, EnvPrefix) {
				flat[envKey(key)] = value
			}
		}
		if err := k.Load(confmap.Provider(flat, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", dotenvPath, err)
		}
	}

	// 4. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps GMAPS2NAV_SERVER_API_KEY to server.api_key: the first
// underscore after the section name separates section from key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// Validate checks settings every command depends on.
func (c *Config) Validate() error {
	var errs []error
	if c.Resolver.MaxHops < 1 {
		errs = append(errs, fmt.Errorf("resolver.max_hops must be positive, got %d", c.Resolver.MaxHops))
	}
	if c.Resolver.HopTimeout <= 0 {
		errs = append(errs, fmt.Errorf("resolver.hop_timeout must be positive, got %s", c.Resolver.HopTimeout))
	}
	if c.Resolver.Mode != ModeHTTP && c.Resolver.Mode != ModeBrowser {
		errs = append(errs, fmt.Errorf("resolver.mode must be %q or %q, got %q", ModeHTTP, ModeBrowser, c.Resolver.Mode))
	}
	if c.Batch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("batch.concurrency must be positive, got %d", c.Batch.Concurrency))
	}
	return errors.Join(errs...)
}

// ValidateNotify reports missing relay credentials.
func (c *Config) ValidateNotify() error {
	var missing []string
	if c.Notify.Token == "" {
		missing = append(missing, "notify.token ("+EnvPrefix+"NOTIFY_TOKEN)")
	}
	if c.Notify.User == "" {
		missing = append(missing, "notify.user ("+EnvPrefix+"NOTIFY_USER)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", notify.ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateServer reports settings the endpoint cannot start without.
func (c *Config) ValidateServer() error {
	var errs []error
	if c.Server.APIKey == "" {
		errs = append(errs, fmt.Errorf("server.api_key is required (%sSERVER_API_KEY)", EnvPrefix))
	}
	if c.Server.RateLimit <= 0 || c.Server.Burst < 1 {
		errs = append(errs, errors.New("server.rate_limit and server.burst must be positive"))
	}
	if err := c.ValidateNotify(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// HTTPResolver returns the settings for resolver.NewHTTPResolver. Trace
// output is left to the caller.
func (r ResolverConfig) HTTPResolver() *resolver.Config {
	return &resolver.Config{
		MaxHops:        r.MaxHops,
		HopTimeout:     r.HopTimeout,
		UserAgent:      r.UserAgent,
		AcceptLanguage: r.AcceptLanguage,
	}
}

func (r ResolverConfig) BrowserResolver() *resolver.BrowserConfig {
	return &resolver.BrowserConfig{
		UserAgent: r.UserAgent,
		Timeout:   r.BrowserTimeout,
		WaitTime:  r.BrowserWait,
	}
}

func (n NotifyConfig) Client() notify.Config {
	return notify.Config{
		Endpoint: n.Endpoint,
		Token:    n.Token,
		User:     n.User,
		Timeout:  n.Timeout,
	}
}

// Defaults returns the message fields used when a request leaves them empty.
func (n NotifyConfig) Defaults() service.Defaults {
	return service.Defaults{
		Message:  n.Message,
		Title:    n.Title,
		Priority: n.Priority,
		Sound:    n.Sound,
		Device:   n.Device,
	}
}
