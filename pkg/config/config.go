// Package config loads and validates the CashWeb core's static
// configuration: the protocol to encode/decode with, where the
// revision-lock store lives, and the send pipeline's policy knobs (spec
// §2, "System Overview — Ambient Stack").
//
// Configuration sources, in order of precedence (matching the teacher's
// pkg/config):
//  1. Environment variables (CASHWEB_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// An environment variable only takes effect for a key the configuration
// file also sets; when no configuration file is found, Load returns the
// defaults and environment variables are not consulted.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

// Config is the CashWeb core's static configuration (spec §2).
type Config struct {
	// Protocol selects the wire sizing (TX_DATA_BYTES) every encode/decode
	// operation uses. Must name a version pkg/wire has registered.
	Protocol ProtocolConfig `mapstructure:"protocol" validate:"required" yaml:"protocol"`

	// DataDir holds the revision-lock file and any recovery-stream
	// checkpoints this process has written.
	DataDir string `mapstructure:"data_dir" validate:"required" yaml:"data_dir"`

	// RPC configures the JSON-RPC endpoint a concrete send.Signer
	// implementation would connect to. The client itself is out of scope
	// (spec §1) — these fields exist so an embedding application has
	// somewhere canonical to read connection details from.
	RPC RPCConfig `mapstructure:"rpc" yaml:"rpc"`

	// Send holds the send pipeline's policy knobs (spec §4.J).
	Send SendConfig `mapstructure:"send" yaml:"send"`

	// Logging controls internal/logger's output (spec §2).
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics controls whether pkg/metrics/prometheus is enabled.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ProtocolConfig selects a registered wire.Protocol by version.
type ProtocolConfig struct {
	// Version is the protocol field from spec §3/§9 (0 or 1 in the
	// reference deployment; pkg/wire's registry may carry more).
	Version uint16 `mapstructure:"version" yaml:"version"`
}

// RPCConfig names the blockchain node endpoint an embedding application's
// concrete send.Signer/fetch.Adapter would use.
type RPCConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
}

// SendConfig holds the send pipeline's tunable policy (spec §4.J).
type SendConfig struct {
	// MaxTreeDepth is the uniform tree depth under each chain element.
	MaxTreeDepth uint32 `mapstructure:"max_tree_depth" yaml:"max_tree_depth"`
	// Max0confChain bounds the unconfirmed-ancestor chain length before
	// UTXO distribution kicks in. Default: send.Max0confChainDefault.
	Max0confChain int `mapstructure:"max_0conf_chain" validate:"omitempty,gt=0" yaml:"max_0conf_chain"`
	// RetryInterval backs off the unbounded branches of the retry table.
	RetryInterval time.Duration `mapstructure:"retry_interval" yaml:"retry_interval"`
}

// LoggingConfig controls internal/logger, modeled on the teacher's
// pkg/config.LoggingConfig.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig controls pkg/metrics/prometheus, modeled on the teacher's
// pkg/config.MetricsConfig.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load reads configuration from configPath (or the default search path if
// empty), with CASHWEB_* environment variables overriding the file's values
// and defaults filling whatever neither set, then validates the result
// (spec §2). See the package doc for when environment variables apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := GetDefaultConfig()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		))); err != nil {
			return nil, fmt.Errorf("cashweb: failed to unmarshal config: %w", err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("cashweb: configuration validation failed: %w", err)
	}
	return cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("CASHWEB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(defaultConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("cashweb: failed to read config file: %w", err)
	}
	return true, nil
}

func defaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "cashweb")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "cashweb")
}

// Validate runs struct-tag validation (go-playground/validator) plus the
// cross-field checks a tag alone can't express: that Protocol.Version
// names a version pkg/wire actually has registered.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if _, ok := wire.Resolve(cfg.Protocol.Version); !ok {
		return fmt.Errorf("protocol.version %d is not a registered protocol", cfg.Protocol.Version)
	}
	return nil
}
