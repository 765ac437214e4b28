package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kentjhall/cashweb-sub000/pkg/send"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

// ApplyDefaults fills in any fields Load left at their zero value, the same
// precedence-respecting pattern the teacher's pkg/config.ApplyDefaults uses:
// zero values are replaced, anything the caller (or the config file) set
// explicitly is preserved. Protocol.Version is the exception: 0 is itself a
// registered version, so only an unregistered value is replaced here, and
// GetDefaultConfig seeds wire.Newest() instead.
func ApplyDefaults(cfg *Config) {
	applyProtocolDefaults(&cfg.Protocol)
	applyDataDirDefaults(cfg)
	applySendDefaults(&cfg.Send)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyProtocolDefaults(cfg *ProtocolConfig) {
	if _, ok := wire.Resolve(cfg.Version); !ok {
		cfg.Version = wire.Newest().Version
	}
}

func applyDataDirDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "cashweb")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cashweb"
	}
	return filepath.Join(home, ".local", "share", "cashweb")
}

func applySendDefaults(cfg *SendConfig) {
	if cfg.Max0confChain == 0 {
		cfg.Max0confChain = send.Max0confChainDefault
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config with every field set to its default
// value, the same role the teacher's pkg/config.GetDefaultConfig plays for
// a freshly-initialized deployment with no config file yet.
func GetDefaultConfig() *Config {
	cfg := &Config{Protocol: ProtocolConfig{Version: wire.Newest().Version}}
	ApplyDefaults(cfg)
	return cfg
}
