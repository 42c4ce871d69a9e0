package config

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
)

// Config represents the application configuration
type Config struct {
	HTTPPort  int    `mapstructure:"http_port" validate:"omitempty,min=1024,max=65535"`
	LogLevel  string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=text json pretty"`

	CacheTTL           string `mapstructure:"cache_ttl" validate:"omitempty,duration"`
	CacheSweepInterval string `mapstructure:"cache_sweep_interval" validate:"omitempty,duration"`

	FetchMaxAttempts int    `mapstructure:"fetch_max_attempts" validate:"omitempty,min=1,max=10"`
	FetchBaseDelay   string `mapstructure:"fetch_base_delay" validate:"omitempty,duration"`
	FetchTimeout     string `mapstructure:"fetch_timeout" validate:"omitempty,duration"`

	JitterBase   string `mapstructure:"jitter_base" validate:"omitempty,duration"`
	JitterSpread string `mapstructure:"jitter_spread" validate:"omitempty,duration"`

	// Endpoints overrides provider base URLs, keyed by endpoint slug
	// (see provider.Options.Endpoints for the accepted keys).
	Endpoints map[string]string `mapstructure:"endpoints" validate:"omitempty,dive,url"`

	TronUSDTContract string `mapstructure:"tron_usdt_contract" validate:"omitempty,tron_addr"`
	EthUSDTContract  string `mapstructure:"eth_usdt_contract" validate:"omitempty,eth_addr"`
	EthplorerAPIKey  string `mapstructure:"ethplorer_api_key"`
}

// Normalize trims whitespace from values that commonly arrive from
// copy-pasted environment variables
func (c *Config) Normalize() {
	c.TronUSDTContract = strings.TrimSpace(c.TronUSDTContract)
	c.EthUSDTContract = strings.TrimSpace(c.EthUSDTContract)
	for name, url := range c.Endpoints {
		c.Endpoints[name] = strings.TrimSpace(url)
	}
}

// GetCacheTTL returns the parsed cache TTL
func (c *Config) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL)
}

// GetCacheSweepInterval returns the parsed sweep interval; zero disables
// sweeping
func (c *Config) GetCacheSweepInterval() time.Duration {
	return parseDuration(c.CacheSweepInterval)
}

// GetFetchBaseDelay returns the parsed retry base delay
func (c *Config) GetFetchBaseDelay() time.Duration {
	return parseDuration(c.FetchBaseDelay)
}

// GetFetchTimeout returns the parsed per-attempt timeout
func (c *Config) GetFetchTimeout() time.Duration {
	return parseDuration(c.FetchTimeout)
}

// GetJitterBase returns the parsed inter-provider jitter base
func (c *Config) GetJitterBase() time.Duration {
	return parseDuration(c.JitterBase)
}

// GetJitterSpread returns the parsed inter-provider jitter spread
func (c *Config) GetJitterSpread() time.Duration {
	return parseDuration(c.JitterSpread)
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// ethAddressValidator validates Ethereum addresses
func ethAddressValidator(fl validator.FieldLevel) bool {
	return common.IsHexAddress(fl.Field().String())
}

// tronAddressValidator validates base58 Tron addresses by shape
func tronAddressValidator(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) == 34 && strings.HasPrefix(s, "T")
}

// durationValidator validates duration strings
func durationValidator(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true // empty falls back to the component default
	}
	_, err := time.ParseDuration(fl.Field().String())
	return err == nil
}

// NewValidator creates a validator with custom validation rules
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("eth_addr", ethAddressValidator)
	validate.RegisterValidation("tron_addr", tronAddressValidator)
	validate.RegisterValidation("duration", durationValidator)
	return validate
}
