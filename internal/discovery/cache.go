package discovery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quangdm/fleetdeck/internal/api"
	"github.com/quangdm/fleetdeck/internal/models"
)

// Cache memoizes the last full discovery round at process scope, shared
// by every session. Refreshes coalesce: the mutex is held across the
// in-flight discovery, so concurrent callers block on one fetch instead
// of issuing duplicates, and the snapshot is only ever replaced whole.
type Cache struct {
	disc *Discoverer
	ttl  time.Duration
	log  *zap.Logger

	mu   sync.Mutex
	snap *models.FleetSnapshot

	now func() time.Time // overridable in tests
}

// NewCache creates a cache with the given freshness window.
func NewCache(disc *Discoverer, ttl time.Duration, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Cache{disc: disc, ttl: ttl, log: log, now: time.Now}
}

// GetOrRefresh returns the cached snapshot if it is still fresh,
// performing a discovery round otherwise.
func (c *Cache) GetOrRefresh(ctx context.Context) *models.FleetSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap != nil && c.now().Sub(c.snap.FetchedAt) < c.ttl {
		api.CacheHits.Inc()
		return c.snap
	}
	return c.refreshLocked(ctx)
}

// ForceRefresh re-fetches regardless of TTL. Used by explicit refresh
// actions.
func (c *Cache) ForceRefresh(ctx context.Context) *models.FleetSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Cache) refreshLocked(ctx context.Context) *models.FleetSnapshot {
	snap := c.disc.DiscoverAll(ctx)

	// FetchedAt must never move backwards across replacements.
	if c.snap != nil && snap.FetchedAt.Before(c.snap.FetchedAt) {
		snap.FetchedAt = c.snap.FetchedAt
	}
	c.snap = snap
	c.log.Debug("fleet snapshot replaced",
		zap.Int("instances", len(snap.Instances)),
		zap.Time("fetched_at", snap.FetchedAt))
	return snap
}
