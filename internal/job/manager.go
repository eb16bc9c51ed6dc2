// Package job coordinates document runs: small documents run inline, large
// ones run as queued jobs that callers poll for status and progress.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veracite/veracite/internal/model"
	"github.com/veracite/veracite/internal/pipeline"
)

// Runner is the document pipeline as the coordinator sees it
type Runner interface {
	Check(ctx context.Context, source string, raw []byte, progress pipeline.ProgressFunc) (*model.Report, error)
}

// Manager owns job state and the worker slots that execute queued jobs
type Manager struct {
	runner Runner
	cfg    model.JobConfig
	log    *zap.Logger

	mu   sync.Mutex
	jobs map[string]*jobState

	slots chan struct{}
}

// jobState is the live record for one job; Job snapshots are copied out of it
// under the manager lock.
type jobState struct {
	job       model.Job
	cancel    context.CancelFunc
	cancelled bool
	done      chan struct{}
}

// NewManager creates a job manager
func NewManager(runner Runner, cfg model.JobConfig, log *zap.Logger) *Manager {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Manager{
		runner: runner,
		cfg:    cfg,
		log:    log,
		jobs:   make(map[string]*jobState),
		slots:  make(chan struct{}, workers),
	}
}

// ShouldRunAsync reports whether a document of the given size runs as a
// queued job rather than inline
func (m *Manager) ShouldRunAsync(size int) bool {
	return m.cfg.AsyncThresholdBytes > 0 && size >= m.cfg.AsyncThresholdBytes
}

// Submit queues a document run and returns its job ID immediately
func (m *Manager) Submit(source string, raw []byte) string {
	id := uuid.NewString()
	now := time.Now().UTC()

	ctx, cancel := context.WithCancel(context.Background())
	st := &jobState{
		job: model.Job{
			ID:        id,
			Status:    model.JobQueued,
			CreatedAt: now,
			UpdatedAt: now,
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[id] = st
	m.mu.Unlock()

	m.log.Info("job queued",
		zap.String("job_id", id),
		zap.String("source", source),
		zap.Int("bytes", len(raw)))

	go m.run(ctx, st, source, raw)
	return id
}

// run executes one job: wait for a worker slot, run the pipeline under the
// wall-clock budget, record the terminal state.
func (m *Manager) run(ctx context.Context, st *jobState, source string, raw []byte) {
	defer close(st.done)

	select {
	case m.slots <- struct{}{}:
		defer func() { <-m.slots }()
	case <-ctx.Done():
		m.finish(st, model.JobCancelled, nil, nil)
		return
	}

	m.transition(st, model.JobRunning)

	runCtx := ctx
	var cancelBudget context.CancelFunc
	if m.cfg.MaxWallClock > 0 {
		runCtx, cancelBudget = context.WithTimeout(ctx, m.cfg.MaxWallClock)
		defer cancelBudget()
	}

	report, err := m.runner.Check(runCtx, source, raw, func(pct int, step string) {
		m.setProgress(st, pct, step)
	})

	m.mu.Lock()
	cancelled := st.cancelled
	m.mu.Unlock()

	switch {
	case cancelled:
		// Cancelled jobs keep the partial report accumulated so far.
		m.finish(st, model.JobCancelled, report, nil)
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		m.finish(st, model.JobFailed, report,
			fmt.Errorf("%w: exceeded %s", model.ErrJobTimeout, m.cfg.MaxWallClock))
	case err != nil:
		m.finish(st, model.JobFailed, nil, err)
	default:
		m.finish(st, model.JobCompleted, report, nil)
	}
}

// Status returns a snapshot of a job
func (m *Manager) Status(id string) (model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.jobs[id]
	if !ok {
		return model.Job{}, fmt.Errorf("%w: %s", model.ErrJobNotFound, id)
	}
	return st.job, nil
}

// Cancel requests cancellation of a job. Safe to call in any state; terminal
// jobs are unaffected.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	st, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", model.ErrJobNotFound, id)
	}
	if st.job.Status.Terminal() {
		m.mu.Unlock()
		return nil
	}
	st.cancelled = true
	m.mu.Unlock()

	m.log.Info("job cancel requested", zap.String("job_id", id))
	st.cancel()
	return nil
}

// Wait blocks until a job reaches a terminal state or the context ends,
// returning the final snapshot
func (m *Manager) Wait(ctx context.Context, id string) (model.Job, error) {
	m.mu.Lock()
	st, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return model.Job{}, fmt.Errorf("%w: %s", model.ErrJobNotFound, id)
	}

	select {
	case <-st.done:
		return m.Status(id)
	case <-ctx.Done():
		return model.Job{}, ctx.Err()
	}
}

// transition moves a job to a non-terminal state
func (m *Manager) transition(st *jobState, status model.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.job.Status = status
	st.job.UpdatedAt = time.Now().UTC()
}

// setProgress records a progress update; progress never decreases even if
// stages report out of order.
func (m *Manager) setProgress(st *jobState, pct int, step string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pct > st.job.Progress {
		st.job.Progress = pct
		st.job.Step = step
		st.job.UpdatedAt = time.Now().UTC()
	}
}

// finish records a terminal state exactly once
func (m *Manager) finish(st *jobState, status model.JobStatus, report *model.Report, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st.job.Status.Terminal() {
		return
	}
	st.job.Status = status
	st.job.Result = report
	if err != nil {
		st.job.Error = err.Error()
	}
	if status == model.JobCompleted {
		st.job.Progress = 100
	}
	st.job.UpdatedAt = time.Now().UTC()

	m.log.Info("job finished",
		zap.String("job_id", st.job.ID),
		zap.String("status", string(status)))
}
