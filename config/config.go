// Package config holds wallet settings and their persistence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/xecsuite/libxecpay-go/amount"
	"github.com/xecsuite/libxecpay-go/tx"
)

const configName = "xecpay"

// Config is the wallet configuration.
type Config struct {
	// DataDir is where databases and the config file live.
	DataDir string `mapstructure:"data_dir"`

	// Network selects mainnet, testnet, or regtest.
	Network string `mapstructure:"network"`

	// LogLevel is the zerolog level name.
	LogLevel string `mapstructure:"log_level"`

	// DecimalPoint sets the display unit: 2 for XEC, 8 for base-coin
	// denominations, 0 or 5 for the intermediate units.
	DecimalPoint int `mapstructure:"decimal_point"`

	// FeePerKB is the slider-selected fee rate in sat/KB.
	FeePerKB uint64 `mapstructure:"fee_per_kb"`

	// CustomFeeRate overrides FeePerKB when nonzero, in sat/KB.
	CustomFeeRate uint64 `mapstructure:"custom_fee_rate"`

	// EnableOPReturn exposes the OP_RETURN fields of the send form.
	EnableOPReturn bool `mapstructure:"enable_opreturn"`

	// ShuffleOutputs randomizes output order in built transactions.
	ShuffleOutputs bool `mapstructure:"shuffle_outputs"`

	// LocktimeAtTip sets nLockTime to the current chain height on built
	// transactions, discouraging fee sniping.
	LocktimeAtTip bool `mapstructure:"locktime_at_tip"`

	// AllowLegacyP2SH permits "3"-prefixed script-hash destinations.
	AllowLegacyP2SH bool `mapstructure:"allow_legacy_p2sh"`

	// WarnLegacyAddress warns on legacy base58 destinations.
	WarnLegacyAddress bool `mapstructure:"warn_legacy_address"`
}

// DefaultConfig returns the configuration used on first run.
func DefaultConfig() Config {
	return Config{
		DataDir:        defaultDataDir(),
		Network:        "mainnet",
		LogLevel:       "info",
		DecimalPoint:   amount.DecimalPointXEC,
		FeePerKB:       tx.DefaultFeeRate,
		ShuffleOutputs: true,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".xecpay")
}

func newViper(cfg Config) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("toml")
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("network", cfg.Network)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("decimal_point", cfg.DecimalPoint)
	v.SetDefault("fee_per_kb", cfg.FeePerKB)
	v.SetDefault("custom_fee_rate", cfg.CustomFeeRate)
	v.SetDefault("enable_opreturn", cfg.EnableOPReturn)
	v.SetDefault("shuffle_outputs", cfg.ShuffleOutputs)
	v.SetDefault("locktime_at_tip", cfg.LocktimeAtTip)
	v.SetDefault("allow_legacy_p2sh", cfg.AllowLegacyP2SH)
	v.SetDefault("warn_legacy_address", cfg.WarnLegacyAddress)
	return v
}

// Load reads the configuration from dataDir, creating a default config file
// on first run. Values not present in the file keep their defaults.
func Load(dataDir string) (Config, error) {
	defaults := DefaultConfig()
	if dataDir != "" {
		defaults.DataDir = dataDir
	}

	if err := os.MkdirAll(defaults.DataDir, 0700); err != nil {
		return Config{}, fmt.Errorf("%w: create data dir: %w", ErrLoadFailed, err)
	}

	v := newViper(defaults)
	v.AddConfigPath(defaults.DataDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
		}
		path := filepath.Join(defaults.DataDir, configName+".toml")
		if err := v.WriteConfigAs(path); err != nil {
			return Config{}, fmt.Errorf("%w: write default config: %w", ErrLoadFailed, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the configuration to its data directory.
func Save(cfg Config) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	v := newViper(cfg)
	path := filepath.Join(cfg.DataDir, configName+".toml")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return nil
}
