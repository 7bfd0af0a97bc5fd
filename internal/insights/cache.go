package insights

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// DefaultContextTTL bounds how stale a cached personalization context can get.
const DefaultContextTTL = 5 * time.Minute

// ContextCache memoizes rendered personalization context per user for a
// short TTL. It is an optimization only: entries are dropped on any memory
// write and last-writer-wins races are harmless.
type ContextCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewContextCache(ttl time.Duration) (*ContextCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 20, // ~1MB of rendered context strings
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &ContextCache{cache: c, ttl: ttl}, nil
}

func (c *ContextCache) Get(userID string) (string, bool) {
	v, ok := c.cache.Get(userID)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *ContextCache) Set(userID, rendered string) {
	c.cache.SetWithTTL(userID, rendered, int64(len(rendered)), c.ttl)
}

// Invalidate drops a user's entry; called after memory writes.
func (c *ContextCache) Invalidate(userID string) {
	c.cache.Del(userID)
}
