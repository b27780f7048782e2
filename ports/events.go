package ports

import (
	"context"
	"time"
)

// EventPublisher notifies other systems about security-relevant
// session events.
type EventPublisher interface {
	PublishLogout(ctx context.Context, subjectID string, tokenID string) error
	PublishLockout(ctx context.Context, key string, retryAfter time.Duration) error
}
