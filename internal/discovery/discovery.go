// Package discovery fans per-region fleet queries out across an unknown
// region set and folds the partial results into one snapshot. A failing
// region degrades to an entry in FailedRegions; it never fails the round.
package discovery

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/quangdm/fleetdeck/internal/api"
	"github.com/quangdm/fleetdeck/internal/models"
	"github.com/quangdm/fleetdeck/internal/provider"
)

// Discoverer performs fleet-wide discovery rounds.
type Discoverer struct {
	client   provider.RegionClient
	fallback provider.RegionClient // optional no-credentials dataset
	log      *zap.Logger
	tracer   trace.Tracer

	fanOut        int
	regionTimeout time.Duration
	wellKnown     []string
}

// Options tune a Discoverer; zero values fall back to defaults.
type Options struct {
	// FanOut caps simultaneous region queries (default 10).
	FanOut int
	// RegionTimeout bounds one per-region call (default 8s).
	RegionTimeout time.Duration
	// WellKnown is the region list used when enumeration fails.
	WellKnown []string
	// Fallback serves the dataset used when no region is reachable.
	Fallback provider.RegionClient
}

// New creates a Discoverer over the given client.
func New(client provider.RegionClient, log *zap.Logger, opts Options) *Discoverer {
	if opts.FanOut <= 0 {
		opts.FanOut = 10
	}
	if opts.RegionTimeout <= 0 {
		opts.RegionTimeout = 8 * time.Second
	}
	return &Discoverer{
		client:        client,
		fallback:      opts.Fallback,
		log:           log,
		tracer:        otel.Tracer("fleetdeck/discovery"),
		fanOut:        opts.FanOut,
		regionTimeout: opts.RegionTimeout,
		wellKnown:     opts.WellKnown,
	}
}

// DiscoverAll queries every region concurrently and returns the unioned
// snapshot once all regions have settled. Region enumeration failures fall
// back to the well-known list; if every region then fails, the
// no-credentials fallback dataset is used so the rest of the system stays
// exercisable.
func (d *Discoverer) DiscoverAll(ctx context.Context) *models.FleetSnapshot {
	ctx, span := d.tracer.Start(ctx, "fleet.discover_all")
	defer span.End()

	start := time.Now()

	regions, err := d.client.Regions(ctx)
	if err != nil || len(regions) == 0 {
		if err != nil {
			d.log.Warn("region enumeration failed, using well-known list", zap.Error(err))
		}
		regions = d.wellKnown
	}

	snap := d.discover(ctx, d.client, regions)

	if len(snap.FailedRegions) == len(regions) && d.fallback != nil {
		d.log.Warn("no region reachable, falling back to local dataset",
			zap.Int("regions", len(regions)))
		if fbRegions, err := d.fallback.Regions(ctx); err == nil && len(fbRegions) > 0 {
			snap = d.discover(ctx, d.fallback, fbRegions)
		}
	}

	api.DiscoveryRounds.Inc()
	api.DiscoveryDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("fleet.instances", len(snap.Instances)),
		attribute.Int("fleet.failed_regions", len(snap.FailedRegions)),
	)
	d.log.Info("discovery round complete",
		zap.Int("instances", len(snap.Instances)),
		zap.Strings("failed_regions", snap.FailedRegions),
		zap.Duration("took", time.Since(start)))

	return snap
}

// discover runs one bounded fan-out over the given regions and folds the
// results in enumeration order, so region grouping is stable even though
// fan-in order is not.
func (d *Discoverer) discover(ctx context.Context, client provider.RegionClient, regions []string) *models.FleetSnapshot {
	results := make([]models.RegionResult, len(regions))

	sem := make(chan struct{}, d.fanOut)
	var wg sync.WaitGroup
	for i, region := range regions {
		wg.Add(1)
		go func(i int, region string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = d.discoverRegion(ctx, client, region)
		}(i, region)
	}
	wg.Wait()

	snap := &models.FleetSnapshot{FetchedAt: time.Now().UTC()}
	for _, res := range results {
		if res.Err != nil {
			snap.FailedRegions = append(snap.FailedRegions, res.Region)
			continue
		}
		snap.Instances = append(snap.Instances, res.Instances...)
	}
	return snap
}

// DiscoverRegion is the single-shot, retryless primitive for one region.
func (d *Discoverer) DiscoverRegion(ctx context.Context, region string) models.RegionResult {
	return d.discoverRegion(ctx, d.client, region)
}

func (d *Discoverer) discoverRegion(ctx context.Context, client provider.RegionClient, region string) models.RegionResult {
	ctx, span := d.tracer.Start(ctx, "fleet.discover_region",
		trace.WithAttributes(attribute.String("fleet.region", region)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, d.regionTimeout)
	defer cancel()

	instances, err := client.DescribeRegion(ctx, region)
	if err != nil {
		api.RegionFailures.WithLabelValues(region).Inc()
		span.RecordError(err)
		d.log.Warn("region discovery failed", zap.String("region", region), zap.Error(err))
		return models.RegionResult{Region: region, Err: err}
	}
	return models.RegionResult{Region: region, Instances: instances}
}
