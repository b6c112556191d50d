package auth

import (
	"errors"
	"fmt"
)

// ErrTokenRejected matches every token verification failure.
var ErrTokenRejected = errors.New("token rejected")

// FailureReason says why a token was rejected. It is for logs and metrics;
// callers of the HTTP API only ever see a uniform rejection.
type FailureReason int

const (
	ReasonMalformed FailureReason = iota + 1
	ReasonInvalidSignature
	ReasonExpired
	ReasonUnsupportedType
)

func (r FailureReason) String() string {
	switch r {
	case ReasonMalformed:
		return "malformed"
	case ReasonInvalidSignature:
		return "invalid_signature"
	case ReasonExpired:
		return "expired"
	case ReasonUnsupportedType:
		return "unsupported_type"
	default:
		return "unknown"
	}
}

// TokenError is returned by TokenVerifier.Verify.
type TokenError struct {
	Reason FailureReason
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", ErrTokenRejected, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s (%s)", ErrTokenRejected, e.Reason)
}

func (e *TokenError) Is(target error) bool {
	return target == ErrTokenRejected
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the failure reason from a verification error.
func ReasonOf(err error) (FailureReason, bool) {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.Reason, true
	}
	return 0, false
}
