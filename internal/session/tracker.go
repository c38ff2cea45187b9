// Package session tracks background discovery jobs for interactive
// sessions: at most one live job per session, cancellable when the
// session's UI surface closes, with the job table as the single shared
// mutable resource guarded by one lock.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quangdm/fleetdeck/internal/api"
	"github.com/quangdm/fleetdeck/internal/models"
)

// Status is a job's lifecycle state. Jobs move active→completed or
// active→cancelled; there is no transition out of a terminal state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Job is one session's background discovery. A completed job keeps the
// fetched snapshot so same-session pagination can reuse it without a
// fresh fetch.
type Job struct {
	JobID     string
	SessionID string
	SurfaceID string
	Status    Status
	Snapshot  *models.FleetSnapshot
}

// ErrQueueFull is returned when the worker queue cannot accept another
// job; submission never blocks the caller.
var ErrQueueFull = errors.New("session job queue full")

// FetchFunc performs the (possibly slow) discovery.
type FetchFunc func(ctx context.Context) (*models.FleetSnapshot, error)

// RenderFunc delivers the loaded view into the session's surface.
type RenderFunc func(ctx context.Context, surfaceID string, snap *models.FleetSnapshot) error

// RenderErrorFunc delivers an error view with a retry affordance.
// Best effort; failures are logged by the caller, not returned.
type RenderErrorFunc func(ctx context.Context, surfaceID, message string)

// Tracker owns the job table and the bounded worker pool that runs the
// load-and-render workflow.
type Tracker struct {
	fetch     FetchFunc
	render    RenderFunc
	renderErr RenderErrorFunc
	log       *zap.Logger

	mu   sync.Mutex
	jobs map[string]*Job

	queue   chan *Job
	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewTracker wires a tracker; Start must be called before jobs are
// submitted.
func NewTracker(fetch FetchFunc, render RenderFunc, renderErr RenderErrorFunc, workers int, log *zap.Logger) *Tracker {
	if workers <= 0 {
		workers = 3
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		fetch:     fetch,
		render:    render,
		renderErr: renderErr,
		log:       log,
		jobs:      make(map[string]*Job),
		queue:     make(chan *Job, 64),
		workers:   workers,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start spawns the worker pool.
func (t *Tracker) Start() {
	for i := 0; i < t.workers; i++ {
		t.wg.Add(1)
		go t.worker()
	}
}

// Stop cancels the pool and waits for in-flight jobs to drain.
func (t *Tracker) Stop() {
	t.cancel()
	t.wg.Wait()
}

// StartJob registers a new active job for the session and enqueues its
// workflow. Any earlier job for the same session is superseded: a still
// active one is cancelled, and stale entries are dropped. Submission is
// non-blocking; a saturated queue fails fast with ErrQueueFull.
func (t *Tracker) StartJob(sessionID, surfaceID string) (string, error) {
	jobID := uuid.NewString()
	job := &Job{
		JobID:     jobID,
		SessionID: sessionID,
		SurfaceID: surfaceID,
		Status:    StatusActive,
	}

	t.mu.Lock()
	for id, j := range t.jobs {
		if j.SessionID != sessionID {
			continue
		}
		t.finishLocked(j, StatusCancelled)
		delete(t.jobs, id)
	}
	t.jobs[jobID] = job
	api.ActiveJobs.Inc()
	t.mu.Unlock()

	select {
	case t.queue <- job:
	default:
		t.mu.Lock()
		t.finishLocked(job, StatusCancelled)
		delete(t.jobs, jobID)
		t.mu.Unlock()
		return "", ErrQueueFull
	}

	t.log.Info("session job queued",
		zap.String("job_id", jobID),
		zap.String("session_id", sessionID))
	return jobID, nil
}

// Cancel marks every job of the session cancelled and drops the entries.
// By invariant there is at most one active job per session, but stale
// entries are swept too. Other sessions' jobs are untouched.
func (t *Tracker) Cancel(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, j := range t.jobs {
		if j.SessionID != sessionID {
			continue
		}
		t.finishLocked(j, StatusCancelled)
		delete(t.jobs, id)
	}
}

// CachedSnapshot returns the session's completed-job snapshot, if one is
// still tracked.
func (t *Tracker) CachedSnapshot(sessionID string) (*models.FleetSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.SessionID == sessionID && j.Snapshot != nil {
			return j.Snapshot, true
		}
	}
	return nil, false
}

// SessionJobs returns copies of the session's tracked jobs.
func (t *Tracker) SessionJobs(sessionID string) []Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Job
	for _, j := range t.jobs {
		if j.SessionID == sessionID {
			out = append(out, *j)
		}
	}
	return out
}

func (t *Tracker) worker() {
	defer t.wg.Done()
	for {
		select {
		case <-t.ctx.Done():
			return
		case job := <-t.queue:
			t.run(job)
		}
	}
}

// run executes the load-and-render workflow for one job. Status is
// re-checked under the lock before and after the fetch; if the session
// closed in between, the render is abandoned with no side effect on the
// surface. The entry always gets cleaned up; only a successful completion
// keeps it (with its snapshot) for pagination reuse.
func (t *Tracker) run(job *Job) {
	keep := false
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("session job panicked",
				zap.String("job_id", job.JobID), zap.Any("panic", r))
		}
		t.mu.Lock()
		if j, ok := t.jobs[job.JobID]; ok {
			if j.Status == StatusActive {
				t.finishLocked(j, StatusCancelled)
			}
			if !keep {
				delete(t.jobs, job.JobID)
			}
		}
		t.mu.Unlock()
	}()

	if !t.active(job.JobID) {
		return
	}

	snap, err := t.fetch(t.ctx)

	if !t.active(job.JobID) {
		// Session closed mid-fetch; discard the result silently.
		return
	}

	if err != nil {
		t.mu.Lock()
		if j, ok := t.jobs[job.JobID]; ok {
			t.finishLocked(j, StatusCompleted)
		}
		t.mu.Unlock()
		t.log.Warn("session job load failed",
			zap.String("job_id", job.JobID), zap.Error(err))
		t.renderErr(t.ctx, job.SurfaceID, err.Error())
		return
	}

	t.mu.Lock()
	if j, ok := t.jobs[job.JobID]; ok && j.Status == StatusActive {
		t.finishLocked(j, StatusCompleted)
		j.Snapshot = snap
		keep = true
	}
	t.mu.Unlock()
	if !keep {
		return
	}

	if err := t.render(t.ctx, job.SurfaceID, snap); err != nil {
		t.log.Warn("session job render failed",
			zap.String("job_id", job.JobID), zap.Error(err))
		t.renderErr(t.ctx, job.SurfaceID, err.Error())
	}
}

func (t *Tracker) active(jobID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[jobID]
	return ok && j.Status == StatusActive
}

// finishLocked moves a job out of active exactly once, keeping the
// active-jobs gauge honest. Terminal states are never overwritten.
func (t *Tracker) finishLocked(j *Job, status Status) {
	if j.Status != StatusActive {
		return
	}
	j.Status = status
	api.ActiveJobs.Dec()
}
