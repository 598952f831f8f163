package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/coocood/freecache"
	"github.com/prometheus/client_golang/prometheus"
)

// Cache holds computed statistics per user for a short time.
//
// freecache cannot delete by prefix, so every key embeds the user's
// generation number and Invalidate just bumps it. Old entries age out.
type Cache struct {
	fc      *freecache.Cache
	ttl     int
	log     *slog.Logger
	metrics *metrics.Manager

	mu  sync.Mutex
	gen map[int]uint64
}

// NewCache creates a cache of sizeMB megabytes whose entries live for ttl.
func NewCache(sizeMB int, ttl time.Duration, m *metrics.Manager, logger *slog.Logger) *Cache {
	return &Cache{
		fc:      freecache.NewCache(max(sizeMB, 1) * 1024 * 1024),
		ttl:     max(int(ttl/time.Second), 1),
		log:     logger,
		metrics: m,
		gen:     make(map[int]uint64),
	}
}

// Invalidate drops every cached entry of the given users.
func (c *Cache) Invalidate(userIDs ...int) {
	c.mu.Lock()
	for _, id := range userIDs {
		c.gen[id]++
	}
	c.mu.Unlock()
}

func (c *Cache) key(userID int, name string) []byte {
	c.mu.Lock()
	g := c.gen[userID]
	c.mu.Unlock()
	return fmt.Appendf(nil, "u%d::g%d::%s", userID, g, name)
}

func (c *Cache) count(result string) {
	if c.metrics != nil {
		c.metrics.CounterCache.With(prometheus.Labels{"result": result}).Inc()
	}
}

// cached returns the value stored under name for the user, or computes it with
// load and stores it. A nil cache always calls load.
func cached[T any](c *Cache, userID int, name string, load func() (T, error)) (T, error) {
	if c == nil {
		return load()
	}

	key := c.key(userID, name)
	if b, err := c.fc.Get(key); err == nil {
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			c.count("hit")
			return v, nil
		} else {
			c.log.Warn("decoding cached stats", "key", string(key), "error", err)
		}
	}
	c.count("miss")

	v, err := load()
	if err != nil {
		return v, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("encoding stats for cache", "key", string(key), "error", err)
		return v, nil
	}
	if err := c.fc.Set(key, b, c.ttl); err != nil {
		c.log.Debug("stats not cached", "key", string(key), "error", err)
	}
	return v, nil
}
