package auth

import (
	"sync"
	"time"
)

// Denylist holds the ids of signed-out access tokens until they would have
// expired on their own. Safe for concurrent use.
type Denylist struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti -> token expiry
	now     func() time.Time
	done    chan struct{}
}

// NewDenylist starts a background sweep of expired entries every interval.
func NewDenylist(interval time.Duration) *Denylist {
	d := &Denylist{
		entries: make(map[string]time.Time),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go d.cleanupLoop(interval)
	return d
}

// Revoke denies the token id until expiresAt.
func (d *Denylist) Revoke(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[jti] = expiresAt
}

func (d *Denylist) IsRevoked(jti string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.entries[jti]
	return ok
}

func (d *Denylist) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Close stops the sweep. Calling it more than once is harmless.
func (d *Denylist) Close() {
	select {
	case <-d.done:
	default:
		close(d.done)
	}
}

func (d *Denylist) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			d.cleanup()
		}
	}
}

func (d *Denylist) cleanup() {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()
	for jti, exp := range d.entries {
		if now.After(exp) {
			delete(d.entries, jti)
		}
	}
}
