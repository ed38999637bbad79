package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet\", \"testnet\", or \"regtest\")")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidDecimalPoint indicates an unsupported display unit.
	ErrInvalidDecimalPoint = errors.New("config: invalid decimal point (must be 0, 2, 5, or 8)")

	// ErrInvalidFeeRate indicates a fee rate outside the accepted range.
	ErrInvalidFeeRate = errors.New("config: invalid fee rate")

	// ErrLoadFailed indicates the configuration file could not be read.
	ErrLoadFailed = errors.New("config: failed to load configuration")
)
