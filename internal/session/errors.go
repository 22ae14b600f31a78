package session

import "errors"

// Errors returned by the Manager. Transport errors from the dialer or the
// connection are wrapped, so errors.Is also matches mqtt sentinels.
var (
	// ErrOpenFailed wraps any failure while building a session.
	ErrOpenFailed = errors.New("session: open failed")

	// ErrNoSession is returned when an operation needs a live session.
	ErrNoSession = errors.New("session: no live session")

	// ErrInvalidSubscription is returned for an empty topic or nil handler.
	ErrInvalidSubscription = errors.New("session: invalid subscription")
)
