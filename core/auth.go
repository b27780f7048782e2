package core

import "time"

// TokenKind distinguishes the two session token flavours. The kind is
// baked into the signed token so a refresh token replayed at an
// access-only checkpoint is rejected by construction.
type TokenKind string

const (
	// TokenKindAccess marks short-lived tokens authorizing requests.
	TokenKindAccess TokenKind = "session:access"

	// TokenKindRefresh marks longer-lived tokens used only to mint new
	// access tokens.
	TokenKindRefresh TokenKind = "session:refresh"
)

// Claims is the decoded session state carried inside a signed token.
// It is immutable once signed and never stored server-side.
type Claims struct {
	SubjectID string    // Credential record identifier of the user
	Email     string    // Email at issuance time (empty on refresh tokens)
	Role      string    // Role at issuance time (empty on refresh tokens)
	Kind      TokenKind // Access or refresh
	TokenID   string    // Unique token identifier (JTI)
	IssuedAt  time.Time // When the token was signed
	ExpiresAt time.Time // When the token stops being accepted
}

// Credential is the externally persisted record for one account. This
// core only reads and compares it; persistence belongs to the store
// collaborator.
type Credential struct {
	ID           string // Stable subject identifier
	Email        string // Login identifier
	PasswordHash string // Encoded argon2id hash, salt and params embedded
	Role         string // Current role, re-derived at refresh time
	IsActive     bool   // Disabled accounts authenticate like wrong passwords
}
