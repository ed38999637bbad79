// Package payto parses the free-form recipient field into payment outputs.
package payto

import "errors"

var (
	// ErrBadLine is returned for a line that is neither an address, a
	// contact, a script, nor an alias candidate.
	ErrBadLine = errors.New("payto: unparsable line")

	// ErrBadAmount is returned for a line whose amount column cannot be
	// parsed.
	ErrBadAmount = errors.New("payto: bad amount")

	// ErrDuplicateMax is returned when more than one line uses the "!"
	// max-spend token.
	ErrDuplicateMax = errors.New("payto: more than one max-spend line")
)
