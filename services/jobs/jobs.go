package jobs

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"sjsage522/partsworker/logger"
	"sjsage522/partsworker/pkg/errors"
	"sjsage522/partsworker/services/worker"
)

const provider = "jobs"

// State is the lifecycle state of a job
type State string

const (
	StateStarted   State = "started"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Runner executes one search
type Runner interface {
	Run(ctx context.Context, search worker.Search) (*worker.Result, error)
}

// Job is a snapshot of a submitted search
type Job struct {
	ID         string
	Search     worker.Search
	State      State
	Result     *worker.Result
	Err        error
	CreatedAt  time.Time
	FinishedAt time.Time
}

type entry struct {
	job  Job
	done chan struct{}
}

// Manager runs searches in the background and keeps their outcome in memory
type Manager struct {
	runner Runner
	ctx    context.Context

	mu   sync.RWMutex
	jobs map[string]*entry
	wg   sync.WaitGroup

	now func() time.Time
	log *logger.Logger
}

// NewManager creates a manager; cancelling ctx cancels all running jobs
func NewManager(ctx context.Context, runner Runner) *Manager {
	return &Manager{
		runner: runner,
		ctx:    ctx,
		jobs:   make(map[string]*entry),
		now:    time.Now,
		log:    logger.ForWorker().WithField("service", "jobs"),
	}
}

// Submit validates the search and starts it in the background
func (m *Manager) Submit(search worker.Search) (Job, error) {
	search.Plate = strings.TrimSpace(search.Plate)
	search.Part = strings.TrimSpace(search.Part)
	if search.Plate == "" || search.Part == "" {
		return Job{}, errors.NewValidation(provider, "license_plate and part_name are required")
	}

	e := &entry{
		job: Job{
			ID:        uuid.NewString(),
			Search:    search,
			State:     StateStarted,
			CreatedAt: m.now(),
		},
		done: make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[e.job.ID] = e
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(e)

	m.log.Info().
		Str("job_id", e.job.ID).
		Str("plate", search.Plate).
		Str("part", search.Part).
		Msg("Job submitted")

	return e.job, nil
}

func (m *Manager) run(e *entry) {
	defer m.wg.Done()
	defer close(e.done)

	m.mu.Lock()
	e.job.State = StateRunning
	search := e.job.Search
	m.mu.Unlock()

	result, err := m.runner.Run(m.ctx, search)

	m.mu.Lock()
	defer m.mu.Unlock()

	e.job.Result = result
	e.job.FinishedAt = m.now()
	if err != nil {
		e.job.State = StateFailed
		e.job.Err = err
		m.log.Warn().Err(err).Str("job_id", e.job.ID).Msg("Job failed")
		return
	}
	e.job.State = StateCompleted
	m.log.Info().Str("job_id", e.job.ID).Int("records", len(result.Records)).Msg("Job completed")
}

// Get returns a snapshot of the job
func (m *Manager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return e.job, true
}

// Wait blocks until the job has finished or ctx is done
func (m *Manager) Wait(ctx context.Context, id string) (Job, error) {
	m.mu.RLock()
	e, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return Job{}, errors.NewNotFound(provider, "unknown job "+id)
	}

	select {
	case <-e.done:
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}

	job, _ := m.Get(id)
	return job, nil
}

// Shutdown waits for running jobs until ctx is done
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
