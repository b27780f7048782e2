package ports

import (
	"context"

	"github.com/storelane/authcore/core"
)

// CredentialStore is the narrow view of the external user store this
// core consumes. Lookups return core.ErrCredentialNotFound when no
// record matches.
type CredentialStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*core.Credential, error)
	FindByID(ctx context.Context, id string) (*core.Credential, error)

	// UpdatePassword persists a freshly encoded hash for the subject.
	UpdatePassword(ctx context.Context, id string, encodedHash string) error
}
