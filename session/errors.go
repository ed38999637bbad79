package session

import "errors"

var (
	// ErrNoOutputs indicates the form has no usable recipient.
	ErrNoOutputs = errors.New("session: no outputs")

	// ErrNoAmount indicates the amount field is empty for a single recipient.
	ErrNoAmount = errors.New("session: no amount")

	// ErrInvalidLines indicates the recipient field has unparsed lines.
	ErrInvalidLines = errors.New("session: invalid lines")

	// ErrAliasUnresolved indicates the recipient is an alias that has not
	// finished DNS resolution.
	ErrAliasUnresolved = errors.New("session: alias not yet resolved")

	// ErrRequestExpired indicates the active payment request expired.
	ErrRequestExpired = errors.New("session: payment request has expired")

	// ErrNotConnected indicates the node connection is down.
	ErrNotConnected = errors.New("session: not connected")

	// ErrCanceled indicates the user declined a confirmation or password prompt.
	ErrCanceled = errors.New("session: canceled by user")

	// ErrBroadcastFailed indicates neither the merchant ACK nor the chain
	// broadcast succeeded.
	ErrBroadcastFailed = errors.New("session: broadcast failed")

	// ErrClosed indicates the session run loop has been shut down.
	ErrClosed = errors.New("session: session closed")
)
