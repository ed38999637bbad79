package config

import (
	"fmt"
	"strings"

	"github.com/xecsuite/libxecpay-go/amount"
	"github.com/xecsuite/libxecpay-go/tx"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.Network != "mainnet" && cfg.Network != "testnet" && cfg.Network != "regtest" {
		return ErrInvalidNetwork
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if !amount.ValidDecimalPoint(cfg.DecimalPoint) {
		return ErrInvalidDecimalPoint
	}

	if cfg.FeePerKB == 0 || cfg.FeePerKB > tx.MaxFeeRate*1000 {
		return fmt.Errorf("%w: fee_per_kb %d", ErrInvalidFeeRate, cfg.FeePerKB)
	}
	if cfg.CustomFeeRate > tx.MaxFeeRate*1000 {
		return fmt.Errorf("%w: custom_fee_rate %d", ErrInvalidFeeRate, cfg.CustomFeeRate)
	}

	return nil
}
