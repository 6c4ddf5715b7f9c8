package cmd

import (
	"sync"
	"time"

	"github.com/mj1618/dslr-remote/internal/automation"
)

// probeCacheEntry holds a detected window state with its timestamp.
type probeCacheEntry struct {
	probe     automation.Probe
	timestamp time.Time
}

// probeCache provides a TTL-based cache for window-state probes, so agents
// polling the state tool do not rebuild the control tree on every call.
type probeCache struct {
	mu     sync.Mutex
	entry  *probeCacheEntry
	ttl    time.Duration
	detect func() (automation.Probe, error)
}

// newProbeCache creates a new cache. A ttl of 0 disables caching.
func newProbeCache(ttl time.Duration, detect func() (automation.Probe, error)) *probeCache {
	return &probeCache{ttl: ttl, detect: detect}
}

// probe returns the cached probe if within TTL, otherwise probes fresh.
// Failed probes are not cached.
func (c *probeCache) probe() (automation.Probe, error) {
	if c.ttl == 0 {
		return c.detect()
	}

	c.mu.Lock()
	if c.entry != nil && time.Since(c.entry.timestamp) < c.ttl {
		p := c.entry.probe
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	p, err := c.detect()
	if err != nil {
		return automation.Probe{}, err
	}

	c.mu.Lock()
	c.entry = &probeCacheEntry{probe: p, timestamp: time.Now()}
	c.mu.Unlock()

	return p, nil
}

// invalidate drops the cached probe. Call it after anything that clicks.
func (c *probeCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}
