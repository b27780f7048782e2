package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/storelane/authcore/ports"
)

const (
	// LogoutTopic carries session termination events.
	LogoutTopic = "auth.logout"

	// LockoutTopic carries rate-limit lockout events for alerting.
	LockoutTopic = "auth.lockout"
)

// LogoutEvent is published when a subject's session is terminated.
type LogoutEvent struct {
	SubjectID string `json:"subject_id"`
	TokenID   string `json:"token_id"`
}

// LockoutEvent is published when a key trips the login limiter. The
// key is a client address or account identifier, never a secret.
type LockoutEvent struct {
	Key        string `json:"key"`
	RetryAfter string `json:"retry_after"`
}

// WatermillPublisher implements the EventPublisher interface using
// Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill-backed publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogout publishes a logout event.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, subjectID string, tokenID string) error {
	return p.publish(LogoutTopic, tokenID, LogoutEvent{
		SubjectID: subjectID,
		TokenID:   tokenID,
	})
}

// PublishLockout publishes a lockout event.
func (p *WatermillPublisher) PublishLockout(ctx context.Context, key string, retryAfter time.Duration) error {
	return p.publish(LockoutTopic, uuid.New().String(), LockoutEvent{
		Key:        key,
		RetryAfter: retryAfter.String(),
	})
}

func (p *WatermillPublisher) publish(topic, id string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.publisher.Publish(topic, message.NewMessage(id, payload)); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
