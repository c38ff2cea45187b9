// Package sim is the no-credentials provider: a local simulation of a
// multi-region fleet backed by a Badger store. It keeps the rest of the
// system exercisable when no real cloud API is reachable, and doubles as
// the fault-injection surface for tests.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quangdm/fleetdeck/internal/models"
	"github.com/quangdm/fleetdeck/internal/provider"
	"github.com/quangdm/fleetdeck/internal/storage"
)

// Client implements provider.RegionClient against a local store.
type Client struct {
	store storage.Store
	log   *zap.Logger

	// fault injection state
	mu          sync.RWMutex
	unreachable map[string]bool
	latency     map[string]time.Duration

	// operations mutex per instance id
	opMu sync.Map

	bootDelay time.Duration
}

// New creates a simulated client over the given store.
func New(store storage.Store, log *zap.Logger) *Client {
	return &Client{
		store:       store,
		log:         log,
		unreachable: make(map[string]bool),
		latency:     make(map[string]time.Duration),
		bootDelay:   500 * time.Millisecond,
	}
}

// SetBootDelay overrides the simulated start/stop transition time.
func (c *Client) SetBootDelay(d time.Duration) { c.bootDelay = d }

// SetUnreachable marks a region as partitioned: every read or mutation
// against it fails with an UnreachableError until healed.
func (c *Client) SetUnreachable(region string, down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if down {
		c.unreachable[region] = true
	} else {
		delete(c.unreachable, region)
	}
}

// SetLatency injects a fixed delay before region reads.
func (c *Client) SetLatency(region string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d <= 0 {
		delete(c.latency, region)
	} else {
		c.latency[region] = d
	}
}

// Seed loads instances into the store.
func (c *Client) Seed(ctx context.Context, instances []models.Instance) error {
	for _, inst := range instances {
		if err := c.store.PutInstance(ctx, inst); err != nil {
			return fmt.Errorf("seed %s: %w", inst.ID, err)
		}
	}
	return nil
}

func (c *Client) Regions(ctx context.Context) ([]string, error) {
	return c.store.Regions(ctx)
}

func (c *Client) DescribeRegion(ctx context.Context, region string) ([]models.Instance, error) {
	if err := c.checkRegion(ctx, region); err != nil {
		return nil, err
	}

	all, err := c.store.ListRegion(ctx, region)
	if err != nil {
		return nil, &provider.UnreachableError{Region: region, Cause: err}
	}

	// Terminated instances never leave the provider boundary.
	out := all[:0]
	for _, inst := range all {
		if inst.State == models.StateTerminated {
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}

func (c *Client) Start(ctx context.Context, region, id string) (string, error) {
	if err := c.checkRegion(ctx, region); err != nil {
		return "", err
	}

	unlock := c.lockInstance(id)
	defer unlock()

	inst, err := c.getInstance(ctx, "start", region, id)
	if err != nil {
		return "", err
	}
	if inst.State == models.StateRunning {
		return fmt.Sprintf("Instance %s is already running", id), nil
	}

	inst.State = models.StateStarting
	if err := c.store.PutInstance(ctx, inst); err != nil {
		return "", &provider.Error{Op: "start", Region: region, Msg: err.Error()}
	}

	go c.transition(region, id, models.StateStarting, models.StateRunning)

	return fmt.Sprintf("Starting instance %s", id), nil
}

func (c *Client) Stop(ctx context.Context, region, id string) (string, error) {
	if err := c.checkRegion(ctx, region); err != nil {
		return "", err
	}

	unlock := c.lockInstance(id)
	defer unlock()

	inst, err := c.getInstance(ctx, "stop", region, id)
	if err != nil {
		return "", err
	}
	if inst.State == models.StateStopped {
		return fmt.Sprintf("Instance %s is already stopped", id), nil
	}

	inst.State = models.StateStopping
	if err := c.store.PutInstance(ctx, inst); err != nil {
		return "", &provider.Error{Op: "stop", Region: region, Msg: err.Error()}
	}

	go c.transition(region, id, models.StateStopping, models.StateStopped)

	return fmt.Sprintf("Stopping instance %s", id), nil
}

func (c *Client) Describe(ctx context.Context, region, id string) (models.InstanceDetail, error) {
	if err := c.checkRegion(ctx, region); err != nil {
		return models.InstanceDetail{}, err
	}
	inst, err := c.getInstance(ctx, "describe", region, id)
	if err != nil {
		return models.InstanceDetail{}, err
	}
	return models.InstanceDetail{
		ID:           inst.ID,
		State:        inst.State,
		InstanceType: inst.InstanceType,
		Region:       inst.Region,
		LaunchTime:   inst.LaunchTime,
		PublicIP:     inst.PublicIP,
		PrivateIP:    inst.PrivateIP,
	}, nil
}

// transition simulates the provider-side state machine settling after a
// start or stop request.
func (c *Client) transition(region, id string, via, to models.InstanceState) {
	time.Sleep(c.bootDelay)

	unlock := c.lockInstance(id)
	defer unlock()

	ctx := context.Background()
	inst, err := c.store.GetInstance(ctx, region, id)
	if err != nil {
		return
	}
	// A competing op moved the instance on; leave it alone.
	if inst.State != via {
		return
	}
	inst.State = to
	if err := c.store.PutInstance(ctx, inst); err != nil {
		c.log.Warn("sim transition save failed", zap.String("id", id), zap.Error(err))
	}
}

func (c *Client) checkRegion(ctx context.Context, region string) error {
	c.mu.RLock()
	down := c.unreachable[region]
	delay := c.latency[region]
	c.mu.RUnlock()

	if down {
		return &provider.UnreachableError{Region: region, Cause: errors.New("injected partition")}
	}
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return &provider.UnreachableError{Region: region, Cause: ctx.Err()}
		case <-t.C:
		}
	}
	return nil
}

func (c *Client) getInstance(ctx context.Context, op, region, id string) (models.Instance, error) {
	inst, err := c.store.GetInstance(ctx, region, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Instance{}, &provider.Error{
				Op: op, Region: region,
				Msg: fmt.Sprintf("instance %s not found: %v", id, provider.ErrInstanceNotFound),
			}
		}
		return models.Instance{}, &provider.Error{Op: op, Region: region, Msg: err.Error()}
	}
	return inst, nil
}

// lockInstance ensures only one op per instance at a time.
func (c *Client) lockInstance(id string) func() {
	v, _ := c.opMu.LoadOrStore(id, &sync.Mutex{})
	mtx := v.(*sync.Mutex)
	mtx.Lock()
	return mtx.Unlock
}
