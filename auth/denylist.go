package auth

import (
	"sync"
	"time"
)

// Denylist holds revoked token ids until their natural expiry. Memory is
// bounded because entries never outlive the token TTL.
type Denylist struct {
	mu      sync.Mutex
	entries map[string]time.Time // token id -> expiry
}

func NewDenylist() *Denylist {
	return &Denylist{entries: make(map[string]time.Time)}
}

func (d *Denylist) Add(tokenID string, ttl time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[tokenID] = time.Now().Add(ttl)
}

func (d *Denylist) Contains(tokenID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.entries[tokenID]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(d.entries, tokenID)
		return false
	}
	return true
}

// Sweep removes expired entries. Call periodically; lookups also purge
// lazily, so sweeping is about bounding the map, not correctness.
func (d *Denylist) Sweep() {
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, exp := range d.entries {
		if now.After(exp) {
			delete(d.entries, id)
		}
	}
}

// StartJanitor sweeps on an interval until ctx is done.
func (d *Denylist) StartJanitor(ctx interface{ Done() <-chan struct{} }, every time.Duration) {
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				d.Sweep()
			}
		}
	}()
}
