// Package jobs runs optimizations in the background.
//
// A Manager runs at most one job at a time. Each job gets a cancellable
// context, a unique id, and keeps its result or error once finished.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrRunInProgress is returned by Start while another job is running.
	ErrRunInProgress = errors.New("an optimization is already in progress")
	// ErrNotFound is returned for unknown job ids.
	ErrNotFound = errors.New("no such run")
)

// Status of a job.
type Status int

const (
	Running Status = iota
	Done
	Cancelled
	Failed
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Func is the work of a job. It must return promptly once ctx is done.
type Func func(ctx context.Context) (any, error)

// Job is a single background run.
type Job struct {
	ID      string
	Created time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	status Status
	result any
	err    error
}

// Status returns the current status of the job.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Result returns the value and error returned by the job function.
// They are only meaningful once the job is no longer running.
func (j *Job) Result() (any, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}

// Done is closed when the job finishes.
func (j *Job) Done() <-chan struct{} { return j.done }

// Cancel requests the job to stop.
func (j *Job) Cancel() { j.cancel() }

// Manager runs jobs one at a time.
type Manager struct {
	// OnFinish is called, if not nil, with each job once it is finished.
	OnFinish func(*Job)

	base   context.Context
	mu     sync.Mutex
	jobs   map[string]*Job
	active *Job
}

// NewManager returns a manager whose jobs are cancelled when ctx is.
func NewManager(ctx context.Context) *Manager {
	return &Manager{base: ctx, jobs: make(map[string]*Job)}
}

// Start runs fn in the background.
//
// It returns ErrRunInProgress if a job is already running.
func (m *Manager) Start(fn Func) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return nil, ErrRunInProgress
	}

	ctx, cancel := context.WithCancel(m.base)
	j := &Job{
		ID:      uuid.New().String(),
		Created: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
		status:  Running,
	}
	m.jobs[j.ID] = j
	m.active = j
	log.Printf("run %s started", j.ID)

	go m.run(ctx, j, fn)
	return j, nil
}

func (m *Manager) run(ctx context.Context, j *Job, fn Func) {
	result, err := fn(ctx)
	j.cancel()

	j.mu.Lock()
	j.result, j.err = result, err
	switch {
	case err == nil:
		j.status = Done
	case errors.Is(err, context.Canceled):
		j.status = Cancelled
	default:
		j.status = Failed
	}
	status := j.status
	j.mu.Unlock()
	if err != nil {
		log.Printf("run %s %v: %v", j.ID, status, err)
	} else {
		log.Printf("run %s %v", j.ID, status)
	}

	m.mu.Lock()
	if m.active == j {
		m.active = nil
	}
	m.mu.Unlock()

	if m.OnFinish != nil {
		m.OnFinish(j)
	}
	close(j.done)
}

// Get returns the job 'id'.
func (m *Manager) Get(id string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return j, nil
}

// Active returns the running job, or nil.
func (m *Manager) Active() *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Cancel cancels the job 'id'. Cancelling a finished job does nothing.
func (m *Manager) Cancel(id string) error {
	j, err := m.Get(id)
	if err != nil {
		return err
	}
	j.Cancel()
	return nil
}

// Wait blocks until the job 'id' is finished or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (*Job, error) {
	j, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	select {
	case <-j.done:
		return j, nil
	case <-ctx.Done():
		return j, ctx.Err()
	}
}
