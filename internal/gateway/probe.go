package gateway

import (
	"context"
	"sync"
	"time"
)

// probeStatus is the tri-state availability flag.
type probeStatus int

const (
	probeUnknown probeStatus = iota
	probeTrue
	probeFalse
)

// ProbeCache caches an availability probe across requests. A positive result
// is sticky for the process lifetime; a negative result is re-probed only
// after the cool-down elapses, so a consistently-broken environment is not
// hammered. The cache is process-wide shared state; access is serialized and
// last-writer-wins, which is fine because it is an optimization, not a
// correctness mechanism.
type ProbeCache struct {
	mu          sync.Mutex
	status      probeStatus
	lastChecked time.Time
	cooldown    time.Duration
	now         func() time.Time
}

// NewProbeCache creates a cache with the given negative-result cool-down.
func NewProbeCache(cooldown time.Duration) *ProbeCache {
	return &ProbeCache{cooldown: cooldown, now: time.Now}
}

// NewProbeCacheWithClock injects a clock so tests can simulate cool-down
// expiry without real timers.
func NewProbeCacheWithClock(cooldown time.Duration, now func() time.Time) *ProbeCache {
	return &ProbeCache{cooldown: cooldown, now: now}
}

// Available returns cached availability, invoking probe only when the cached
// state is unknown or a stale negative.
func (c *ProbeCache) Available(ctx context.Context, probe func(ctx context.Context) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case probeTrue:
		return true
	case probeFalse:
		if c.now().Sub(c.lastChecked) < c.cooldown {
			return false
		}
	}

	c.lastChecked = c.now()
	if probe(ctx) {
		c.status = probeTrue
		return true
	}
	c.status = probeFalse
	return false
}

// Reset clears the cached state back to unknown.
func (c *ProbeCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = probeUnknown
	c.lastChecked = time.Time{}
}
