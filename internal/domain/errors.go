package domain

import "errors"

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrMalformedCredential = errors.New("malformed credential")
	ErrInvalidToken        = errors.New("invalid token")
	ErrUnsupportedProxy    = errors.New("unsupported proxy")
)
