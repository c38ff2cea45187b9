package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quangdm/fleetdeck/internal/models"
)

// testHarness wires a tracker whose fetch blocks until released, so
// tests can hold a job at the pre-render point.
type testHarness struct {
	tracker *Tracker

	fetchStarted chan string // surfaceID of each fetch as it begins
	fetchRelease chan struct{}
	fetchErr     atomic.Value // error to return, if set

	renders    atomic.Int64
	renderErrs atomic.Int64
	lastErrMsg atomic.Value
}

func newHarness(t *testing.T, workers int) *testHarness {
	h := &testHarness{
		fetchStarted: make(chan string, 8),
		fetchRelease: make(chan struct{}, 8),
	}
	snap := &models.FleetSnapshot{
		Instances: []models.Instance{{ID: "i-1", Region: "us-east-2"}},
		FetchedAt: time.Now(),
	}
	h.tracker = NewTracker(
		func(ctx context.Context) (*models.FleetSnapshot, error) {
			h.fetchStarted <- "fetch"
			<-h.fetchRelease
			if err, ok := h.fetchErr.Load().(error); ok && err != nil {
				return nil, err
			}
			return snap, nil
		},
		func(ctx context.Context, surfaceID string, s *models.FleetSnapshot) error {
			h.renders.Add(1)
			return nil
		},
		func(ctx context.Context, surfaceID, message string) {
			h.renderErrs.Add(1)
			h.lastErrMsg.Store(message)
		},
		workers, zap.NewNop())
	h.tracker.Start()
	t.Cleanup(func() {
		// Unblock any fetch still parked before draining the pool.
		close(h.fetchRelease)
		h.tracker.Stop()
	})
	return h
}

func waitFetchStarted(t *testing.T, h *testHarness) {
	select {
	case <-h.fetchStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch never started")
	}
}

func TestJobCompletesAndCachesSnapshot(t *testing.T) {
	h := newHarness(t, 3)

	jobID, err := h.tracker.StartJob("sess-1", "surface-1")
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	waitFetchStarted(t, h)
	h.fetchRelease <- struct{}{}

	require.Eventually(t, func() bool {
		return h.renders.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	snap, ok := h.tracker.CachedSnapshot("sess-1")
	require.True(t, ok, "completed job keeps its snapshot for pagination")
	require.Len(t, snap.Instances, 1)

	jobs := h.tracker.SessionJobs("sess-1")
	require.Len(t, jobs, 1)
	require.Equal(t, StatusCompleted, jobs[0].Status)
}

func TestCancelMidFetchSuppressesRender(t *testing.T) {
	h := newHarness(t, 3)

	_, err := h.tracker.StartJob("sess-1", "surface-1")
	require.NoError(t, err)
	waitFetchStarted(t, h)

	// The surface closes while the fetch is in flight.
	h.tracker.Cancel("sess-1")
	h.fetchRelease <- struct{}{}

	require.Eventually(t, func() bool {
		return len(h.tracker.SessionJobs("sess-1")) == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.Zero(t, h.renders.Load(), "cancelled job must not touch the surface")
	require.Zero(t, h.renderErrs.Load())
	_, ok := h.tracker.CachedSnapshot("sess-1")
	require.False(t, ok)
}

func TestStartJobSupersedesPriorJob(t *testing.T) {
	h := newHarness(t, 3)

	_, err := h.tracker.StartJob("sess-1", "surface-1")
	require.NoError(t, err)
	waitFetchStarted(t, h)

	second, err := h.tracker.StartJob("sess-1", "surface-1")
	require.NoError(t, err)
	waitFetchStarted(t, h)

	jobs := h.tracker.SessionJobs("sess-1")
	require.Len(t, jobs, 1, "no duplicate entries after supersession")
	require.Equal(t, second, jobs[0].JobID)

	h.fetchRelease <- struct{}{}
	h.fetchRelease <- struct{}{}

	require.Eventually(t, func() bool {
		return h.renders.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	jobs = h.tracker.SessionJobs("sess-1")
	require.Len(t, jobs, 1)
	require.Equal(t, StatusCompleted, jobs[0].Status)
}

func TestFetchErrorRendersErrorViewAndCleansUp(t *testing.T) {
	h := newHarness(t, 3)
	h.fetchErr.Store(errors.New("DescribeInstances: credentials expired"))

	_, err := h.tracker.StartJob("sess-1", "surface-1")
	require.NoError(t, err)
	waitFetchStarted(t, h)
	h.fetchRelease <- struct{}{}

	require.Eventually(t, func() bool {
		return h.renderErrs.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Zero(t, h.renders.Load())
	require.Contains(t, h.lastErrMsg.Load().(string), "credentials expired")

	require.Eventually(t, func() bool {
		return len(h.tracker.SessionJobs("sess-1")) == 0
	}, 2*time.Second, 10*time.Millisecond, "job entry is cleaned up on error")
}

func TestCancelScopedToSession(t *testing.T) {
	h := newHarness(t, 3)

	_, err := h.tracker.StartJob("sess-1", "surface-1")
	require.NoError(t, err)
	_, err = h.tracker.StartJob("sess-2", "surface-2")
	require.NoError(t, err)
	waitFetchStarted(t, h)
	waitFetchStarted(t, h)

	h.tracker.Cancel("sess-1")

	h.fetchRelease <- struct{}{}
	h.fetchRelease <- struct{}{}

	require.Eventually(t, func() bool {
		return h.renders.Load() == 1
	}, 2*time.Second, 10*time.Millisecond, "the other session's job still completes")

	_, ok := h.tracker.CachedSnapshot("sess-2")
	require.True(t, ok)
	_, ok = h.tracker.CachedSnapshot("sess-1")
	require.False(t, ok)
}

func TestCancelAfterCompletionDropsSnapshot(t *testing.T) {
	h := newHarness(t, 3)

	_, err := h.tracker.StartJob("sess-1", "surface-1")
	require.NoError(t, err)
	waitFetchStarted(t, h)
	h.fetchRelease <- struct{}{}

	require.Eventually(t, func() bool {
		_, ok := h.tracker.CachedSnapshot("sess-1")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	h.tracker.Cancel("sess-1")
	require.Empty(t, h.tracker.SessionJobs("sess-1"))
}
