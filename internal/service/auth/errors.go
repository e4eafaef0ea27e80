// Package auth provides JWT-based authentication for the HTTP surface.
package auth

import "errors"

// Common authentication errors.
var (
	// ErrInvalidToken indicates the token is malformed or its signature
	// does not verify.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token's expiry has passed.
	ErrExpiredToken = errors.New("token expired")

	// ErrTokenNotYetValid indicates the token's not-before time is in
	// the future.
	ErrTokenNotYetValid = errors.New("token not yet valid")
)
