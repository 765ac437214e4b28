package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kentjhall/cashweb-sub000/pkg/send"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

func TestGetDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.Protocol.Version != wire.Newest().Version {
		t.Errorf("default protocol version = %d, want %d", cfg.Protocol.Version, wire.Newest().Version)
	}
	if cfg.Send.Max0confChain != send.Max0confChainDefault {
		t.Errorf("default Max0confChain = %d, want %d", cfg.Send.Max0confChain, send.Max0confChainDefault)
	}
	if cfg.DataDir == "" {
		t.Error("default DataDir should not be empty")
	}
}

func TestLoadWithNoFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Protocol.Version != wire.Newest().Version {
		t.Errorf("Protocol.Version = %d, want %d", cfg.Protocol.Version, wire.Newest().Version)
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "protocol:\n  version: 0\ndata_dir: " + dir + "\nlogging:\n  level: debug\n  format: json\n  output: stderr\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write fixture config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Protocol.Version != 0 {
		t.Errorf("Protocol.Version = %d, want 0", cfg.Protocol.Version)
	}
	if cfg.DataDir != dir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dir)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Logging.Level = %q, want normalized %q", cfg.Logging.Level, "DEBUG")
	}
}

func TestValidateRejectsUnregisteredProtocol(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Protocol.Version = 99
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation to reject an unregistered protocol version")
	}
}

func TestValidateRejectsMissingDataDir(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.DataDir = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation to reject an empty data_dir")
	}
}
