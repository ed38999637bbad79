// Package alias resolves OpenAlias names to payment addresses through
// DNSSEC-validated TXT lookups.
package alias

import "errors"

var (
	// ErrLookupFailed is returned when the DNS query itself fails.
	ErrLookupFailed = errors.New("alias: DNS lookup failed")

	// ErrNoRecord is returned when the name has no oa1:xec TXT record.
	ErrNoRecord = errors.New("alias: no OpenAlias record")

	// ErrInvalidRecord is returned when an oa1:xec record carries no usable
	// recipient address.
	ErrInvalidRecord = errors.New("alias: invalid OpenAlias record")

	// ErrNotAlias is returned when the input does not look like an alias
	// name.
	ErrNotAlias = errors.New("alias: not an alias")
)
