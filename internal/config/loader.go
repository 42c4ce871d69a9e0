package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	v.SetDefault("http_port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("cache_ttl", "60s")
	v.SetDefault("cache_sweep_interval", "5m")
	v.SetDefault("fetch_max_attempts", 3)
	v.SetDefault("fetch_base_delay", "1s")
	v.SetDefault("fetch_timeout", "5s")
	v.SetDefault("jitter_base", "1s")
	v.SetDefault("jitter_spread", "1500ms")

	// 2. Configure config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	// CHAINPROBE_HTTP_PORT -> http_port, and so on
	v.SetEnvPrefix("CHAINPROBE")
	v.AutomaticEnv()

	v.BindEnv("http_port")
	v.BindEnv("log_level")
	v.BindEnv("log_format")
	v.BindEnv("cache_ttl")
	v.BindEnv("cache_sweep_interval")
	v.BindEnv("fetch_max_attempts")
	v.BindEnv("fetch_base_delay")
	v.BindEnv("fetch_timeout")
	v.BindEnv("jitter_base")
	v.BindEnv("jitter_spread")
	v.BindEnv("tron_usdt_contract")
	v.BindEnv("eth_usdt_contract")
	v.BindEnv("ethplorer_api_key")
	v.BindEnv("endpoint_overrides")

	// 4. Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 5. Unmarshal into struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Endpoint overrides from a single env var: "name=url,name=url"
	if raw := v.GetString("endpoint_overrides"); raw != "" {
		if cfg.Endpoints == nil {
			cfg.Endpoints = make(map[string]string)
		}
		for _, pair := range strings.Split(raw, ",") {
			name, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok {
				return nil, fmt.Errorf("invalid endpoint override %q (want name=url)", pair)
			}
			cfg.Endpoints[strings.TrimSpace(name)] = strings.TrimSpace(url)
		}
	}

	// 6. Normalize values
	cfg.Normalize()

	// 7. Validate with validator
	validate := NewValidator()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
