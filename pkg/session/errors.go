package session

import "errors"

var (
	// ErrUnauthenticated is returned for a missing or unknown token.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrExpired is returned once for a token whose lifetime has elapsed.
	// The session is evicted, so later lookups return ErrUnauthenticated.
	ErrExpired = errors.New("session expired")
)
