package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials covers unknown identifiers, wrong passwords
	// and inactive accounts alike; callers must not be able to tell
	// which one happened.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountInactive is logged internally when a disabled account
	// attempts to authenticate. It never reaches the client as-is.
	ErrAccountInactive = errors.New("account is inactive")

	ErrRateLimited  = errors.New("too many requests")
	ErrTokenExpired = errors.New("token has expired")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
	ErrCSRFRejected = errors.New("csrf verification failed")

	// ErrCredentialNotFound is returned by credential stores when no
	// record matches the identifier.
	ErrCredentialNotFound = errors.New("credential record not found")

	// ErrMissingSecret is a fatal startup condition, never a
	// per-request error.
	ErrMissingSecret = errors.New("signing secret is not configured")

	ErrStoreOperationFailed = errors.New("store operation failed")
)

// ThrottledError carries the retry timing of a rate-limit denial.
// Unlike credential failures this detail is not a secret, so it is
// surfaced to the caller.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Is makes errors.Is(err, ErrRateLimited) match a ThrottledError.
func (e *ThrottledError) Is(target error) bool {
	return target == ErrRateLimited
}
