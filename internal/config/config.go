// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // Set at runtime, not from config file
}

// LedgerConfig holds the ledger node endpoints, the contract, and the
// transaction and health-check tuning.
type LedgerConfig struct {
	PrimaryURL      string `mapstructure:"primary_url"`
	SecondaryURL    string `mapstructure:"secondary_url"`
	ContractAddress string `mapstructure:"contract_address"`

	ChainID  uint64 `mapstructure:"chain_id"`
	Hardfork string `mapstructure:"hardfork"` // only SupportedHardfork is signed for

	HealthInterval time.Duration `mapstructure:"health_interval"`
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`

	GasLimit            uint64        `mapstructure:"gas_limit"`
	ConfirmBlockTimeout uint64        `mapstructure:"confirm_block_timeout"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`

	QueryRateLimit float64 `mapstructure:"query_rate_limit"` // calls per second, 0 disables
	QueryBurst     int     `mapstructure:"query_burst"`

	EventBuffer int `mapstructure:"event_buffer"`
}

// Secondary returns the failover endpoint, which falls back to the
// primary when none is configured.
func (c *LedgerConfig) Secondary() string {
	if c.SecondaryURL == "" {
		return c.PrimaryURL
	}
	return c.SecondaryURL
}

// ContractAddressHex returns the contract address as common.Address.
func (c *LedgerConfig) ContractAddressHex() common.Address {
	return common.HexToAddress(c.ContractAddress)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("CNFT")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "CNFT_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "CNFT_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "CNFT_LOG_LEVEL", "LOG_LEVEL")

	// Ledger
	v.BindEnv("ledger.primary_url", "CNFT_PROVIDER", "LEDGER_PROVIDER")
	v.BindEnv("ledger.secondary_url", "CNFT_ALT_PROVIDER", "LEDGER_ALT_PROVIDER")
	v.BindEnv("ledger.contract_address", "CNFT_CONTRACT_ADDRESS", "CONTRACT_ADDRESS")
	v.BindEnv("ledger.chain_id", "CNFT_CHAIN_ID")
	v.BindEnv("ledger.health_interval", "CNFT_HEALTH_INTERVAL")
	v.BindEnv("ledger.query_rate_limit", "CNFT_QUERY_RATE_LIMIT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "CNFT_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "CNFT_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.trace_provider", "CNFT_TRACE_PROVIDER")
	v.BindEnv("telemetry.otlp_endpoint", "CNFT_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "CNFT_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")

	// Health
	v.BindEnv("health.port", "CNFT_HEALTH_PORT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "contentnft-gateway")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Private chain identity
	v.SetDefault("ledger.chain_id", 11421)
	v.SetDefault("ledger.hardfork", "petersburg")

	v.SetDefault("ledger.health_interval", "5s")
	v.SetDefault("ledger.probe_timeout", "3s")
	v.SetDefault("ledger.dial_timeout", "10s")
	v.SetDefault("ledger.max_message_size", 100000000)

	v.SetDefault("ledger.gas_limit", 29900000)
	v.SetDefault("ledger.confirm_block_timeout", 20000)
	v.SetDefault("ledger.receipt_poll_interval", "1s")

	v.SetDefault("ledger.query_rate_limit", 50)
	v.SetDefault("ledger.query_burst", 10)
	v.SetDefault("ledger.event_buffer", 64)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "contentnft-gateway")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)

	v.SetDefault("health.port", 8081)
}

// SupportedHardfork is the only rule set transactions are signed for:
// legacy EIP-155 transactions.
const SupportedHardfork = "petersburg"

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ledger.PrimaryURL == "" {
		return fmt.Errorf("ledger.primary_url is required")
	}
	if !common.IsHexAddress(c.Ledger.ContractAddress) {
		return fmt.Errorf("invalid ledger.contract_address: %q", c.Ledger.ContractAddress)
	}
	if c.Ledger.ChainID == 0 {
		return fmt.Errorf("ledger.chain_id must be positive")
	}
	if c.Ledger.Hardfork != "" && !strings.EqualFold(c.Ledger.Hardfork, SupportedHardfork) {
		return fmt.Errorf("unsupported ledger.hardfork %q: only %s is supported", c.Ledger.Hardfork, SupportedHardfork)
	}
	if c.Ledger.HealthInterval <= 0 {
		return fmt.Errorf("ledger.health_interval must be positive")
	}
	if c.Ledger.GasLimit == 0 {
		return fmt.Errorf("ledger.gas_limit must be positive")
	}
	return nil
}
