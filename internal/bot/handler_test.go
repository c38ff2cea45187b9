package bot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quangdm/fleetdeck/internal/models"
	"github.com/quangdm/fleetdeck/internal/session"
)

func newDispatchHandler(t *testing.T) (*Handler, *session.Tracker) {
	fetch := func(ctx context.Context) (*models.FleetSnapshot, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	render := func(ctx context.Context, surfaceID string, snap *models.FleetSnapshot) error { return nil }
	renderErr := func(ctx context.Context, surfaceID, message string) {}

	tracker := session.NewTracker(fetch, render, renderErr, 1, zap.NewNop())
	tracker.Start()
	t.Cleanup(tracker.Stop)

	h := NewHandler(nil, nil, tracker, nil, nil, NewViews(20, "us-east-2"), "us-east-2", zap.NewNop())
	return h, tracker
}

func TestDispatchRoutesBySubject(t *testing.T) {
	h, tracker := newDispatchHandler(t)

	_, err := tracker.StartJob("sess-1", "sess-1")
	require.NoError(t, err)
	require.Len(t, tracker.SessionJobs("sess-1"), 1)

	b, _ := json.Marshal(CloseSession{SessionID: "sess-1"})
	h.dispatch(&nats.Msg{Subject: SubjectCloseSession, Data: b})

	require.Empty(t, tracker.SessionJobs("sess-1"))
}

func TestDispatchIgnoresUnknownSubject(t *testing.T) {
	h, _ := newDispatchHandler(t)

	h.dispatch(&nats.Msg{Subject: "fleet.events.unknown", Data: []byte("{}")})
}
