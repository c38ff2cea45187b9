package bot

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quangdm/fleetdeck/internal/models"
	"github.com/quangdm/fleetdeck/internal/ref"
)

func TestFleetViewCarriesManageRefs(t *testing.T) {
	v := NewViews(20, "us-east-2")
	snap := &models.FleetSnapshot{
		Instances: []models.Instance{
			{ID: "i-1", Name: "web", State: models.StateRunning, Region: "eu-west-1"},
			{ID: "i-2", Name: "api", State: models.StateStopped, Region: "eu-west-1"},
			{ID: "i-3", Name: "db", State: models.StateRunning, Region: "us-east-2"},
		},
		FetchedAt:     time.Now(),
		FailedRegions: []string{"ap-south-1"},
	}

	var out fleetView
	require.NoError(t, json.Unmarshal(v.FleetView(snap, 1), &out))

	require.Equal(t, "fleet_list", out.Type)
	require.Equal(t, 3, out.TotalItems)
	require.Equal(t, []string{"ap-south-1"}, out.FailedRegions)
	require.Len(t, out.Groups, 2)
	require.Equal(t, "eu-west-1", out.Groups[0].Region)
	require.Equal(t, "i-1|eu-west-1", out.Groups[0].Instances[0].ManageRef)

	// The token must round-trip back to the mutation target.
	id, region := ref.Decode(out.Groups[0].Instances[1].ManageRef, "us-east-2")
	require.Equal(t, "i-2", id)
	require.Equal(t, "eu-west-1", region)
}

func TestFleetViewPagination(t *testing.T) {
	v := NewViews(2, "us-east-2")
	snap := &models.FleetSnapshot{
		Instances: []models.Instance{
			{ID: "i-1", Region: "a"}, {ID: "i-2", Region: "a"},
			{ID: "i-3", Region: "b"}, {ID: "i-4", Region: "b"}, {ID: "i-5", Region: "b"},
		},
		FetchedAt: time.Now(),
	}

	var out fleetView
	require.NoError(t, json.Unmarshal(v.FleetView(snap, 2), &out))
	require.Equal(t, 2, out.CurrentPage)
	require.Equal(t, 3, out.TotalPages)
	require.True(t, out.HasPrev)
	require.True(t, out.HasNext)
	require.Len(t, out.Groups, 1)
	require.Equal(t, "b", out.Groups[0].Region)
}

func TestErrorViewHasRetryAffordance(t *testing.T) {
	v := NewViews(20, "us-east-2")
	var out map[string]any
	require.NoError(t, json.Unmarshal(v.ErrorView("boom"), &out))
	require.Equal(t, "error", out["type"])
	require.Equal(t, true, out["retry"])
	require.Contains(t, out["message"], "boom")
}

func TestAccessDeniedViewIsFixed(t *testing.T) {
	v := NewViews(20, "us-east-2")
	var out map[string]any
	require.NoError(t, json.Unmarshal(v.AccessDeniedView(), &out))
	require.Equal(t, "access_denied", out["type"])
	require.Equal(t, "❌ You are not authorized to use this command.", out["message"])
}
