// Package provider defines the capability fleetdeck needs from a cloud
// provider, vendor-agnostic so implementations can be swapped (a real
// cloud API, or the local simulator when no credentials are available).
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/quangdm/fleetdeck/internal/models"
)

// RegionClient is the per-region capability wrapping the provider's
// describe/start/stop calls. Implementations are stateless from the
// caller's perspective and safe for concurrent use. They never aggregate
// across regions; that is discovery's job.
type RegionClient interface {
	// Regions enumerates the regions reachable with the current
	// credentials.
	Regions(ctx context.Context) ([]string, error)

	// DescribeRegion lists the non-terminated instances in one region,
	// in the provider-returned order.
	DescribeRegion(ctx context.Context, region string) ([]models.Instance, error)

	// Start requests a start of the given instance. The returned message
	// is a human-readable acknowledgment.
	Start(ctx context.Context, region, id string) (string, error)

	// Stop requests a stop of the given instance.
	Stop(ctx context.Context, region, id string) (string, error)

	// Describe returns the expanded status of one instance.
	Describe(ctx context.Context, region, id string) (models.InstanceDetail, error)
}

// ErrInstanceNotFound is returned when an instance id does not exist in
// the addressed region.
var ErrInstanceNotFound = errors.New("instance not found")

// Error wraps a provider-side rejection or failure of a single call. The
// message is surfaced verbatim to the caller and never retried.
type Error struct {
	Op     string
	Region string
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Region, e.Msg)
}

// UnreachableError marks a region that could not be queried at all
// (network or credential failure). Discovery degrades such a region to an
// empty result instead of failing the round.
type UnreachableError struct {
	Region string
	Cause  error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("region %s unreachable: %v", e.Region, e.Cause)
}

func (e *UnreachableError) Unwrap() error { return e.Cause }
