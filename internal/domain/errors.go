package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNotConfigured       = errors.New("not configured")
	ErrSignatureMismatch   = errors.New("signature mismatch")
	ErrNoUserID            = errors.New("event carries no user id")
	ErrDuplicateEvent      = errors.New("duplicate event")
)
