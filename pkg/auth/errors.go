package auth

import "errors"

var (
	ErrMissingPrivilege   = errors.New("missing privilege")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptySigningKey    = errors.New("session signing key is empty")
)
