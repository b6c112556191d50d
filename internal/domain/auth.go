package domain

import (
	"errors"
	"time"
)

var (
	// ErrUnknownIdentity is returned by credential stores for logins they do not hold.
	ErrUnknownIdentity = errors.New("unknown identity")
	// ErrWrongCredential means the identity exists but the password did not match.
	ErrWrongCredential = errors.New("wrong credential")
	// ErrAuthenticationFailed is the only login failure callers outside the service see.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// IssuedToken is a signed bearer token together with the expiry encoded in it.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}
