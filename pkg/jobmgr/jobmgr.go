// Package jobmgr runs named fire-and-forget jobs, reports their lifecycle and
// lets shutdown code wait for whatever is still in flight.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(func(st jobmgr.Status) {
//	    log.Println(st.Job, st.State, st.Err)
//	})
//
//	_ = jm.StartAsync(ctx, "commands:global#1", func(ctx context.Context) error {
//	    return submit(ctx)
//	})
//
//	jm.Wait()
package jobmgr

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// State is a lifecycle stage of a job.
type State string

const (
	Running State = "running"
	Done    State = "done"
	Failed  State = "failed"
)

// Status is delivered to the reporter on every lifecycle change.
type Status struct {
	Job     string
	State   State
	Err     error
	Elapsed time.Duration
}

// StatusReporter receives lifecycle events. It is called from the job's
// goroutine.
type StatusReporter func(Status)

type job struct {
	cancel context.CancelFunc
}

// Manager is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*job
	wg       sync.WaitGroup
	reporter StatusReporter
}

// NewManager creates a Manager. The reporter may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*job),
		reporter: reporter,
	}
}

// StartAsync runs runner in its own goroutine and returns immediately. The
// job's context is derived from ctx without its cancellation, so a job
// outlives the request that started it unless stopped explicitly. A job with
// the same name must not already be running.
func (m *Manager) StartAsync(ctx context.Context, name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("job '%s' is already running", name)
	}
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.jobs[name] = &job{cancel: cancel}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer cancel()

		start := time.Now()
		m.report(Status{Job: name, State: Running})

		err := runner(jobCtx)

		m.mu.Lock()
		delete(m.jobs, name)
		m.mu.Unlock()

		st := Status{Job: name, State: Done, Elapsed: time.Since(start)}
		if err != nil {
			st.State, st.Err = Failed, err
		}
		m.report(st)
	}()

	return nil
}

// Stop cancels a running job by name.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("job '%s' not running", name)
	}
	j.cancel()
	return nil
}

// List returns the names of running jobs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Wait blocks until every started job has finished and reported.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) report(st Status) {
	if m.reporter != nil {
		m.reporter(st)
	}
}
