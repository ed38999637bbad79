// Package contacts persists the user's address book.
package contacts

import "errors"

var (
	// ErrNilParam is returned when a required parameter is nil or empty.
	ErrNilParam = errors.New("contacts: nil or empty parameter")

	// ErrNotFound is returned when no contact exists under the given name.
	ErrNotFound = errors.New("contacts: contact not found")

	// ErrInvalidContact is returned for contacts with no usable address.
	ErrInvalidContact = errors.New("contacts: invalid contact")
)
