// Package uri parses and builds BIP21-style ecash: payment URIs.
package uri

import "errors"

var (
	// ErrNotURI is returned when the input carries no scheme and is not a
	// bare address either.
	ErrNotURI = errors.New("uri: not a payment URI")

	// ErrWrongScheme is returned for URIs with a scheme other than ecash.
	ErrWrongScheme = errors.New("uri: unsupported scheme")

	// ErrInvalidURI is returned for URIs that cannot be split into address
	// and query.
	ErrInvalidURI = errors.New("uri: malformed payment URI")

	// ErrDuplicateKey is returned when a query parameter appears twice.
	ErrDuplicateKey = errors.New("uri: duplicate query parameter")

	// ErrBadParameter is returned when a known parameter has an unusable
	// value.
	ErrBadParameter = errors.New("uri: bad parameter value")

	// ErrCountMismatch is returned when a pay-to-many URI carries different
	// numbers of addresses and amounts.
	ErrCountMismatch = errors.New("uri: addresses and amounts counts differ")
)
