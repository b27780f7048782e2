package store

import (
	"context"
	"sync"
	"time"

	"github.com/storelane/authcore/ports"
)

type watermark struct {
	issuedBefore time.Time
	expiresAt    time.Time
}

// MemoryStore is an in-memory watermark store for tests and
// single-node development setups.
type MemoryStore struct {
	watermarks map[string]watermark
	mu         sync.RWMutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() ports.WatermarkStore {
	return &MemoryStore{
		watermarks: make(map[string]watermark),
	}
}

// SetWatermark records a revocation watermark for the subject. A
// later watermark replaces an earlier one; an earlier one is ignored.
func (s *MemoryStore) SetWatermark(ctx context.Context, subjectID string, issuedBefore time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.watermarks[subjectID]; ok && existing.issuedBefore.After(issuedBefore) {
		return nil
	}
	s.watermarks[subjectID] = watermark{
		issuedBefore: issuedBefore,
		expiresAt:    time.Now().Add(ttl),
	}
	return nil
}

// Watermark returns the subject's watermark. Lapsed entries are
// treated as absent and dropped on the next write.
func (s *MemoryStore) Watermark(ctx context.Context, subjectID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wm, ok := s.watermarks[subjectID]
	if !ok || time.Now().After(wm.expiresAt) {
		return time.Time{}, false, nil
	}
	return wm.issuedBefore, true, nil
}
