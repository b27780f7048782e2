package ports

import (
	"context"
	"time"
)

// WatermarkStore records per-subject revocation watermarks. Tokens
// issued before a subject's watermark are rejected at verification
// time, which is how logout and password changes invalidate tokens
// that have not yet expired.
type WatermarkStore interface {
	// SetWatermark records that tokens issued before the given instant
	// are no longer acceptable for the subject. The entry may be
	// dropped after ttl, by which time every affected token has
	// expired on its own.
	SetWatermark(ctx context.Context, subjectID string, issuedBefore time.Time, ttl time.Duration) error

	// Watermark returns the subject's current watermark, reporting
	// whether one exists.
	Watermark(ctx context.Context, subjectID string) (time.Time, bool, error)
}
