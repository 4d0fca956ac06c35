package session

import "errors"

var (
	// ErrNotReady is returned by Query before a successful Setup.
	ErrNotReady = errors.New("no instrument loaded, run setup first")
	// ErrEmptyTicker is returned by Setup for a blank ticker.
	ErrEmptyTicker = errors.New("ticker cannot be empty")
	// ErrSetup wraps any data-acquisition or indexing failure during Setup.
	ErrSetup = errors.New("setup failed")
)
