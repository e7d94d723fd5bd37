// Package config loads the gateway's environment-driven configuration
// (spec §6 "Configuration"). It follows the teacher's pkg/config shape —
// a single struct tagged with mapstructure, populated via viper with
// AutomaticEnv, with godotenv.Load() picking up a local .env file first —
// generalized from YAML-file-plus-env-override to an env-only source,
// since every value here is expected to arrive through the environment
// in production per spec §6.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AdapterConfig is one `RPC_PROXY_<ADAPTER>_*` block: the upstream base
// URL(s), auth material, and the CAIP-2 chains it serves.
type AdapterConfig struct {
	Kind            string   `mapstructure:"kind"`
	BaseURL         string   `mapstructure:"base_url"`
	WSBaseURL       string   `mapstructure:"ws_base_url"`
	APIKey          string   `mapstructure:"api_key"`
	AuthStyle       string   `mapstructure:"auth_style"` // header_bearer | header_basic | query_param | path_segment | none
	SupportedChains []string `mapstructure:"supported_chains"`
	Priority        string   `mapstructure:"priority"` // disabled | low | normal | high
}

// Config is the unified configuration for one gateway process. Durations
// are held as plain seconds (spec §6 "all durations in seconds") and
// exposed through accessor methods.
type Config struct {
	Server struct {
		ListenAddr             string `mapstructure:"listen_addr"`
		LogLevel               string `mapstructure:"log_level"`
		UpstreamTimeoutSeconds int    `mapstructure:"upstream_timeout_seconds"`
		MaxRetries             int    `mapstructure:"max_retries"`
		TestingProject         string `mapstructure:"testing_project"`
	} `mapstructure:"server"`

	Registry struct {
		URL   string `mapstructure:"url"`
		Token string `mapstructure:"token"`
	} `mapstructure:"registry"`

	Storage struct {
		ReadAddr  string `mapstructure:"read_addr"`
		WriteAddr string `mapstructure:"write_addr"`
		Password  string `mapstructure:"password"`
	} `mapstructure:"storage"`

	RateLimit struct {
		Whitelist []string `mapstructure:"whitelist"`
	} `mapstructure:"rate_limit"`

	Adapters map[string]AdapterConfig `mapstructure:"-"`
}

// UpstreamTimeout converts Server.UpstreamTimeoutSeconds to a Duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Server.UpstreamTimeoutSeconds) * time.Second
}

// Load reads RPC_PROXY_* environment variables (picking up a local .env
// file first, teacher precedent across cmd/cli/*.go) into a Config and
// validates it. Adapter blocks use the RPC_PROXY_<ADAPTER>_* prefix and
// are assembled separately because viper's automatic-env binding can't
// discover arbitrary adapter names on its own.
func Load(adapterNames []string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.upstream_timeout_seconds", 5)
	v.SetDefault("server.max_retries", 3)

	// Explicit binds, not SetEnvPrefix+replacer: spec §6 puts server keys
	// directly under RPC_PROXY_* (RPC_PROXY_LISTEN_ADDR) while registry and
	// storage keys get their own named sub-prefixes (RPC_PROXY_REGISTRY_*,
	// RPC_PROXY_STORAGE_*) rather than a uniform RPC_PROXY_<SECTION>_*.
	binds := map[string]string{
		"server.listen_addr":             "RPC_PROXY_LISTEN_ADDR",
		"server.log_level":               "RPC_PROXY_LOG_LEVEL",
		"server.upstream_timeout_seconds": "RPC_PROXY_UPSTREAM_TIMEOUT_SECONDS",
		"server.max_retries":             "RPC_PROXY_MAX_RETRIES",
		"server.testing_project":         "RPC_PROXY_TESTING_PROJECT",
		"registry.url":                   "RPC_PROXY_REGISTRY_URL",
		"registry.token":                 "RPC_PROXY_REGISTRY_TOKEN",
		"storage.read_addr":              "RPC_PROXY_STORAGE_READ_ADDR",
		"storage.write_addr":             "RPC_PROXY_STORAGE_WRITE_ADDR",
		"storage.password":               "RPC_PROXY_STORAGE_PASSWORD",
		"rate_limit.whitelist":           "RPC_PROXY_RATE_LIMIT_WHITELIST",
	}
	for key, env := range binds {
		_ = v.BindEnv(key, env)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.Adapters = make(map[string]AdapterConfig, len(adapterNames))
	for _, name := range adapterNames {
		cfg.Adapters[name] = loadAdapter(name)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadAdapter(name string) AdapterConfig {
	v := viper.New()
	v.SetEnvPrefix("RPC_PROXY_" + strings.ToUpper(name))
	v.AutomaticEnv()
	for _, key := range []string{"kind", "base_url", "ws_base_url", "api_key", "auth_style", "supported_chains", "priority"} {
		_ = v.BindEnv(key)
	}

	var a AdapterConfig
	_ = v.Unmarshal(&a)
	if a.Kind == "" {
		a.Kind = name
	}
	if a.Priority == "" {
		a.Priority = "normal"
	}
	return a
}

// validate enforces spec §6's "nonzero exit on configuration error".
func (c *Config) validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must not be empty")
	}
	if c.Registry.URL == "" {
		return fmt.Errorf("config: registry.url is required (RPC_PROXY_REGISTRY_URL)")
	}
	for name, a := range c.Adapters {
		if a.BaseURL == "" {
			return fmt.Errorf("config: adapter %q has no base_url configured (RPC_PROXY_%s_BASE_URL)", name, strings.ToUpper(name))
		}
		if len(a.SupportedChains) == 0 {
			return fmt.Errorf("config: adapter %q has no supported_chains configured", name)
		}
	}
	return nil
}
