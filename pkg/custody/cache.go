// cache.go caches custody public-key responses to cut round trips. Entries
// are keyed by the exact version string requested and expire after a TTL;
// a rotation must invalidate explicitly rather than wait for expiry.

package custody

import (
	"sync"
	"time"
)

type cacheEntry struct {
	info      *PublicKeyInfo
	expiresAt time.Time
}

// publicKeyCache is a TTL cache for PublicKeyInfo responses. A zero TTL
// disables caching entirely.
type publicKeyCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func newPublicKeyCache(ttl time.Duration) *publicKeyCache {
	return &publicKeyCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *publicKeyCache) get(version string) (*PublicKeyInfo, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[version]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.info, true
}

func (c *publicKeyCache) put(version string, info *PublicKeyInfo) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[version] = cacheEntry{info: info, expiresAt: c.now().Add(c.ttl)}
}

// invalidate drops the entry for one version.
func (c *publicKeyCache) invalidate(version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, version)
}

// invalidateAll drops every entry. Called after a rotation, when the
// "current" alias and any version listing may have changed.
func (c *publicKeyCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
