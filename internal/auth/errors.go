package auth

import "fmt"

var (
	ErrMissingToken         = fmt.Errorf("missing token")
	ErrInvalidToken         = fmt.Errorf("invalid token")
	ErrExpiredToken         = fmt.Errorf("expired token")
	ErrInvalidSigningMethod = fmt.Errorf("invalid signing method")
	ErrMissingSubject       = fmt.Errorf("token has no subject")
	ErrUnknownUser          = fmt.Errorf("user lookup failed")
)
