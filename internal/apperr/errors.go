// Package apperr holds the sentinel errors shared across pile.
package apperr

import "errors"

var (
	ErrHomeUnavailable = errors.New("could not find home directory")
	ErrParse           = errors.New("malformed persisted state")
	ErrTimeUnavailable = errors.New("local time unavailable")
	ErrIO              = errors.New("i/o failure")
	ErrSerialization   = errors.New("serialization failure")
	ErrUnsupported     = errors.New("not supported")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
)
