package ports

import "github.com/storelane/authcore/core"

// Tokenizer converts between session claims and signed tokens.
type Tokenizer interface {
	// Issuance. The returned claims mirror what was signed so callers
	// can derive cookie lifetimes without re-parsing the token.
	IssueAccessToken(subjectID, email, role string) (string, *core.Claims, error)
	IssueRefreshToken(subjectID string) (string, *core.Claims, error)

	// Parsing verifies signature, expiry and token kind.
	ParseAccessToken(token string) (*core.Claims, error)
	ParseRefreshToken(token string) (*core.Claims, error)
}
