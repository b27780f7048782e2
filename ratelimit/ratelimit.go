// Package ratelimit implements fixed-window request counting keyed by
// an arbitrary string, typically a client address or account
// identifier. Windows reset at fixed boundaries rather than sliding,
// which tolerates brief bursts at a boundary but bounds the sustained
// rate to MaxRequests per Window averaged over two adjacent windows.
package ratelimit

import (
	"sync"
	"time"
)

// Config is one limiter instance's window/threshold pair. Separate
// concerns (login attempts vs general API traffic) get separate
// Limiter instances so their key spaces never mix.
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait before the
// window resets. It is zero for allowed decisions.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.Allowed {
		return 0
	}
	wait := d.ResetAt.Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

type entry struct {
	count     int
	windowEnd time.Time
}

// Limiter counts requests per key in fixed windows. All methods are
// safe for concurrent use; the increment-and-compare in Allow happens
// under the lock so a key can never exceed its limit under concurrent
// load.
type Limiter struct {
	cfg Config

	mu      sync.Mutex
	entries map[string]*entry

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter and starts its background sweep, which drops
// entries whose window has lapsed so memory stays bounded by the
// number of currently active keys. Close stops the sweep.
func New(cfg Config) *Limiter {
	l := &Limiter{
		cfg:     cfg,
		entries: make(map[string]*entry),
		stop:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow records one request for key and decides whether it is within
// the configured budget.
func (l *Limiter) Allow(key string) Decision {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.After(e.windowEnd) {
		e = &entry{count: 1, windowEnd: now.Add(l.cfg.Window)}
		l.entries[key] = e
		return Decision{
			Allowed:   true,
			Remaining: l.cfg.MaxRequests - 1,
			ResetAt:   e.windowEnd,
		}
	}

	e.count++
	remaining := l.cfg.MaxRequests - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   e.count <= l.cfg.MaxRequests,
		Remaining: remaining,
		ResetAt:   e.windowEnd,
	}
}

// Close stops the background sweep.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

func (l *Limiter) sweep() {
	interval := l.cfg.Window
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, e := range l.entries {
				if now.After(e.windowEnd) {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
