// File: internal/session/registry.go

// Package session keeps browser handles parked while their owner waits for an
// out-of-band verification code. The registry is process-wide, keyed by the
// caller-supplied email, and evicts abandoned entries on a timer so a
// forgotten challenge never leaks a browser.
package session

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handle is a suspended automation handle. The registry owns it from Put
// until either Remove (ownership transfer to the resuming caller) or eviction
// (closed here, best effort).
type Handle interface {
	Close() error
}

type entry struct {
	handle    Handle
	createdAt time.Time
}

// Registry is a concurrency-safe map of pending verification sessions. No
// operation holds the lock across I/O: handle closes always happen after
// unlocking.
type Registry struct {
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger

	// now is swappable for tests.
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewRegistry creates an empty registry. Call StartSweeper to begin TTL
// eviction and Close at shutdown.
func NewRegistry(ttl, sweepInterval time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		ttl:      ttl,
		interval: sweepInterval,
		logger:   logger.Named("sessions"),
		now:      time.Now,
		entries:  make(map[string]entry),
		stop:     make(chan struct{}),
	}
}

// Put registers the suspended session for key, replacing any existing entry.
// A displaced handle is closed so two open browsers never exist for one
// identity.
func (r *Registry) Put(key string, h Handle) {
	r.mu.Lock()
	displaced, hadOld := r.entries[key]
	r.entries[key] = entry{handle: h, createdAt: r.now()}
	r.mu.Unlock()

	if hadOld {
		r.logger.Warn("Replacing pending verification session.", zap.String("key", key))
		r.closeQuietly(key, displaced.handle)
	}
	r.logger.Info("Suspended session registered.", zap.String("key", key))
}

// Get returns the pending session for key. A miss is not an error; it means
// no verification is pending.
func (r *Registry) Get(key string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	return e.handle, true
}

// Remove deletes the entry without closing its handle; the resume path takes
// ownership. Returns false when no entry existed.
func (r *Registry) Remove(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; !ok {
		return false
	}
	delete(r.entries, key)
	return true
}

// Len reports the number of pending sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// StartSweeper launches the background eviction loop.
func (r *Registry) StartSweeper() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweepOnce()
			case <-r.stop:
				return
			}
		}
	}()
}

// sweepOnce evicts every entry older than the TTL, closing its handle after
// the lock is released.
func (r *Registry) sweepOnce() {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []struct {
		key    string
		handle Handle
	}
	for key, e := range r.entries {
		if e.createdAt.Before(cutoff) {
			expired = append(expired, struct {
				key    string
				handle Handle
			}{key, e.handle})
			delete(r.entries, key)
		}
	}
	r.mu.Unlock()

	for _, e := range expired {
		r.logger.Warn("Evicting expired verification session.", zap.String("key", e.key))
		r.closeQuietly(e.key, e.handle)
	}
}

// Close stops the sweeper and closes every remaining handle.
func (r *Registry) Close() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	r.wg.Wait()

	r.mu.Lock()
	remaining := r.entries
	r.entries = make(map[string]entry)
	r.mu.Unlock()

	for key, e := range remaining {
		r.closeQuietly(key, e.handle)
	}
}

// closeQuietly closes a handle the registry owns; failures are logged, never
// propagated.
func (r *Registry) closeQuietly(key string, h Handle) {
	if err := h.Close(); err != nil {
		r.logger.Warn("Failed to close suspended session handle.",
			zap.String("key", key), zap.Error(err))
	}
}
