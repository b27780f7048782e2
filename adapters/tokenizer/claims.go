package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with the session's identity
// snapshot. Role and email reflect the credential record at issuance
// time; role staleness is bounded by the access token lifetime.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// RefreshClaims are just the standard claims. Refresh tokens carry
// only the subject so stale identity data cannot be laundered through
// a refresh.
type RefreshClaims struct {
	jwt.RegisteredClaims
}
