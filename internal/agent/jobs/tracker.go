// Package jobs tracks asynchronous judge runs on the participant agent.
package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	appErr "shunyata/pkg/errors"
	"shunyata/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRetention is how many finished jobs are kept before eviction.
const DefaultRetention = 100

// ErrCancelled is returned by the reporter once a job has been
// cancelled, telling the executor to stop at its next checkpoint.
var ErrCancelled = errors.New("job cancelled")

// Request is the work order handed to the executor.
type Request struct {
	ProblemID string `json:"problem_id"`
	Language  string `json:"language"`
	Code      string `json:"code"`
}

// Status is the externally visible state of one job.
type Status struct {
	ID          string    `json:"job_id"`
	Phase       string    `json:"status"`
	Progress    int       `json:"progress"`
	Message     string    `json:"message,omitempty"`
	Result      any       `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// Reporter lets the executor publish progress for its job. Report
// returns ErrCancelled once the job has been cancelled.
type Reporter interface {
	Report(phase string, progress int, message string) error
}

// Executor performs one judge run, reporting progress along the way.
// The returned value becomes the job result; a non-nil error marks the
// job failed unless it is ErrCancelled.
type Executor interface {
	Execute(ctx context.Context, req Request, rep Reporter) (any, error)
}

// TerminalPhaser lets a job result name its own terminal phase, so a
// finished run surfaces its execution status instead of a generic label.
type TerminalPhaser interface {
	TerminalPhase() string
}

type job struct {
	status    Status
	cancelled bool
	done      bool
}

// Tracker is an in-memory job map with bounded retention. All access
// goes through one mutex; executors run on their own goroutines.
type Tracker struct {
	mu        sync.Mutex
	jobs      map[string]*job
	executor  Executor
	retention int
	baseCtx   context.Context
}

// NewTracker creates a tracker running jobs against the executor.
func NewTracker(baseCtx context.Context, executor Executor, retention int) *Tracker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Tracker{
		jobs:      make(map[string]*job),
		executor:  executor,
		retention: retention,
		baseCtx:   baseCtx,
	}
}

// Submit registers a new job and starts it on its own goroutine,
// returning the job id immediately.
func (t *Tracker) Submit(req Request) string {
	id := uuid.NewString()
	j := &job{status: Status{
		ID:        id,
		Phase:     "queued",
		Progress:  0,
		CreatedAt: time.Now(),
	}}

	t.mu.Lock()
	t.jobs[id] = j
	t.evictLocked()
	t.mu.Unlock()

	go t.run(id, req)
	return id
}

// Poll returns the current status of a job.
func (t *Tracker) Poll(id string) (Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok {
		return Status{}, appErr.New(appErr.JobNotFound).WithDetail("id", id)
	}
	return j.status, nil
}

// Cancel writes the terminal cancelled record immediately: the very
// next poll sees phase "cancelled" at progress 100. The worker side is
// advisory; it observes the mark at its next progress checkpoint, so an
// in-flight child process may run to its own limit first, and its late
// result is discarded.
func (t *Tracker) Cancel(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok {
		return appErr.New(appErr.JobNotFound).WithDetail("id", id)
	}
	if j.done {
		return appErr.New(appErr.JobAlreadyCompleted).WithDetail("id", id)
	}
	j.cancelled = true
	j.done = true
	j.status.Phase = "cancelled"
	j.status.Progress = 100
	j.status.Message = "Job cancelled by request."
	j.status.CompletedAt = time.Now()
	return nil
}

// List returns every tracked job, newest first.
func (t *Tracker) List() []Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Status, 0, len(t.jobs))
	for _, j := range t.jobs {
		out = append(out, j.status)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

func (t *Tracker) run(id string, req Request) {
	ctx := t.baseCtx
	rep := &reporter{tracker: t, id: id}

	res, err := t.executor.Execute(ctx, req, rep)

	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok {
		return
	}
	if j.cancelled {
		// Cancel already wrote the terminal record.
		return
	}
	j.done = true
	j.status.CompletedAt = time.Now()
	j.status.Progress = 100
	switch {
	case errors.Is(err, ErrCancelled):
		j.status.Phase = "cancelled"
		j.status.Message = "Job cancelled by request."
	case err != nil:
		j.status.Phase = "failed"
		j.status.Error = err.Error()
		logger.Error(ctx, "job failed", zap.String("job_id", id), zap.Error(err))
	default:
		phase := "completed"
		if p, ok := res.(TerminalPhaser); ok && p.TerminalPhase() != "" {
			phase = p.TerminalPhase()
		}
		j.status.Phase = phase
		j.status.Result = res
	}
}

// evictLocked trims finished jobs once the map outgrows the retention
// bound, dropping the oldest-completed first. Running jobs are never
// evicted.
func (t *Tracker) evictLocked() {
	if len(t.jobs) <= t.retention {
		return
	}
	type finished struct {
		id string
		at time.Time
	}
	var done []finished
	for id, j := range t.jobs {
		if j.done {
			done = append(done, finished{id, j.status.CompletedAt})
		}
	}
	sort.Slice(done, func(a, b int) bool { return done[a].at.Before(done[b].at) })
	keep := t.retention / 2
	excess := len(done) - keep
	for i := 0; i < excess; i++ {
		delete(t.jobs, done[i].id)
	}
}

type reporter struct {
	tracker *Tracker
	id      string
}

// Report publishes a checkpoint. Progress is monotonic: a stale lower
// value never overwrites a higher one.
func (r *reporter) Report(phase string, progress int, message string) error {
	t := r.tracker
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[r.id]
	if !ok {
		return ErrCancelled
	}
	if j.cancelled {
		return ErrCancelled
	}
	j.status.Phase = phase
	if progress > j.status.Progress {
		j.status.Progress = progress
	}
	j.status.Message = message
	return nil
}
