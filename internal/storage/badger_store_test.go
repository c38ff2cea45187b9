package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quangdm/fleetdeck/internal/models"
)

func newStore(t *testing.T) Store {
	s, err := NewInMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	inst := models.Instance{ID: "i-1", Name: "web", State: models.StateRunning, Region: "us-east-2"}
	require.NoError(t, s.PutInstance(ctx, inst))

	got, err := s.GetInstance(ctx, "us-east-2", "i-1")
	require.NoError(t, err)
	require.Equal(t, inst, got)

	require.NoError(t, s.DeleteInstance(ctx, "us-east-2", "i-1"))
	_, err = s.GetInstance(ctx, "us-east-2", "i-1")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestListRegionIsScoped(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, inst := range []models.Instance{
		{ID: "i-a1", Region: "ap-south-1"},
		{ID: "i-a2", Region: "ap-south-1"},
		{ID: "i-b1", Region: "eu-west-1"},
	} {
		require.NoError(t, s.PutInstance(ctx, inst))
	}

	got, err := s.ListRegion(ctx, "ap-south-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, inst := range got {
		require.Equal(t, "ap-south-1", inst.Region)
	}

	empty, err := s.ListRegion(ctx, "sa-east-1")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestRegionsDistinct(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, inst := range []models.Instance{
		{ID: "i-1", Region: "eu-west-1"},
		{ID: "i-2", Region: "eu-west-1"},
		{ID: "i-3", Region: "us-east-2"},
	} {
		require.NoError(t, s.PutInstance(ctx, inst))
	}

	regions, err := s.Regions(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"eu-west-1", "us-east-2"}, regions)
}
