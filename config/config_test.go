package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Network", cfg.Network, "mainnet"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"DecimalPoint", cfg.DecimalPoint, 2},
		{"FeePerKB", cfg.FeePerKB, uint64(1000)},
		{"ShuffleOutputs", cfg.ShuffleOutputs, true},
		{"EnableOPReturn", cfg.EnableOPReturn, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
}

// ---------------------------------------------------------------------------
// Load / Save round-trip tests
// ---------------------------------------------------------------------------

func TestLoadCreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network != "mainnet" {
		t.Errorf("Network = %q, want mainnet", cfg.Network)
	}

	if _, err := os.Stat(filepath.Join(dir, "xecpay.toml")); err != nil {
		t.Errorf("default config file not written: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.DataDir = dir
	cfg.Network = "testnet"
	cfg.DecimalPoint = 8
	cfg.FeePerKB = 2000
	cfg.EnableOPReturn = true

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Network != "testnet" {
		t.Errorf("Network = %q, want testnet", loaded.Network)
	}
	if loaded.DecimalPoint != 8 {
		t.Errorf("DecimalPoint = %d, want 8", loaded.DecimalPoint)
	}
	if loaded.FeePerKB != 2000 {
		t.Errorf("FeePerKB = %d, want 2000", loaded.FeePerKB)
	}
	if !loaded.EnableOPReturn {
		t.Error("EnableOPReturn not preserved")
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfig(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, ErrEmptyDataDir},
		{"bad network", func(c *Config) { c.Network = "signet" }, ErrInvalidNetwork},
		{"bad log level", func(c *Config) { c.LogLevel = "trace2" }, ErrInvalidLogLevel},
		{"bad decimal point", func(c *Config) { c.DecimalPoint = 3 }, ErrInvalidDecimalPoint},
		{"zero fee rate", func(c *Config) { c.FeePerKB = 0 }, ErrInvalidFeeRate},
		{"excessive fee rate", func(c *Config) { c.FeePerKB = 50001 }, ErrInvalidFeeRate},
		{"excessive custom rate", func(c *Config) { c.CustomFeeRate = 50001 }, ErrInvalidFeeRate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := ValidateConfig(cfg)
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}
