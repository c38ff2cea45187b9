package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quangdm/fleetdeck/internal/models"
)

func newCacheUnderTest(client *fakeClient, ttl time.Duration) *Cache {
	d := New(client, zap.NewNop(), Options{})
	return NewCache(d, ttl, zap.NewNop())
}

func TestCacheServesFreshSnapshot(t *testing.T) {
	client := &fakeClient{
		regions:   []string{"a"},
		instances: map[string][]models.Instance{"a": regionInstances("a", 2)},
	}
	c := newCacheUnderTest(client, time.Minute)
	ctx := context.Background()

	first := c.GetOrRefresh(ctx)
	second := c.GetOrRefresh(ctx)
	require.Same(t, first, second, "a fresh snapshot is shared, not refetched")
	require.Equal(t, 1, client.describeCalls)
}

func TestCacheRefreshesPastTTL(t *testing.T) {
	client := &fakeClient{
		regions:   []string{"a"},
		instances: map[string][]models.Instance{"a": regionInstances("a", 1)},
	}
	c := newCacheUnderTest(client, time.Minute)
	ctx := context.Background()

	first := c.GetOrRefresh(ctx)

	// Age the clock past the TTL.
	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	second := c.GetOrRefresh(ctx)
	require.NotSame(t, first, second)
	require.Equal(t, 2, client.describeCalls)
	require.False(t, second.FetchedAt.Before(first.FetchedAt), "FetchedAt never moves backwards")
}

func TestForceRefreshIgnoresTTL(t *testing.T) {
	client := &fakeClient{
		regions:   []string{"a"},
		instances: map[string][]models.Instance{"a": regionInstances("a", 1)},
	}
	c := newCacheUnderTest(client, time.Hour)
	ctx := context.Background()

	c.GetOrRefresh(ctx)
	c.ForceRefresh(ctx)
	require.Equal(t, 2, client.describeCalls)
}

func TestCacheConcurrentReadersCoalesce(t *testing.T) {
	client := &fakeClient{
		regions:   []string{"a"},
		instances: map[string][]models.Instance{"a": regionInstances("a", 1)},
		delay:     20 * time.Millisecond,
	}
	c := newCacheUnderTest(client, time.Minute)
	ctx := context.Background()

	done := make(chan *models.FleetSnapshot, 4)
	for i := 0; i < 4; i++ {
		go func() { done <- c.GetOrRefresh(ctx) }()
	}
	first := <-done
	for i := 0; i < 3; i++ {
		require.Same(t, first, <-done)
	}
	require.Equal(t, 1, client.describeCalls, "concurrent callers share one in-flight refresh")
}
