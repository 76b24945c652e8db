package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/user/honeyport/internal/util"
)

// Job represents a periodic job.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	// State
	lastRun    time.Time
	nextRun    time.Time
	lastError  error
	runs       int
	errorCount int
	running    bool
	mu         sync.RWMutex
}

// JobStatus represents the status of a job.
type JobStatus struct {
	Name       string        `json:"name"`
	Interval   time.Duration `json:"interval"`
	LastRun    time.Time     `json:"last_run"`
	NextRun    time.Time     `json:"next_run"`
	LastError  string        `json:"last_error,omitempty"`
	Runs       int           `json:"runs"`
	ErrorCount int           `json:"error_count"`
	Running    bool          `json:"running"`
}

// Scheduler runs each job on its own fixed-period ticker. Ticks missed while
// a job is running are dropped, so a stalled job never triggers a burst of
// catch-up runs.
type Scheduler struct {
	jobs    []*Job
	started bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

// NewScheduler creates a new scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		jobs: make([]*Job, 0),
	}
}

// AddJob adds a job. Jobs added after Start are ignored.
func (s *Scheduler) AddJob(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		util.Warn("Job %s added after scheduler start, ignoring", job.Name)
		return
	}
	s.jobs = append(s.jobs, job)
}

// Start launches one goroutine per job. They stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	jobs := s.jobs
	s.mu.Unlock()

	util.Info("Scheduler started with %d jobs", len(jobs))

	for _, job := range jobs {
		s.wg.Add(1)
		go func(j *Job) {
			defer s.wg.Done()
			s.loop(ctx, j)
		}(job)
	}
}

// Wait waits for every job loop to return.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job *Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	job.mu.Lock()
	job.nextRun = time.Now().Add(job.Interval)
	job.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			util.Debug("Job %s stopping", job.Name)
			return
		case now := <-ticker.C:
			s.runJob(ctx, job, now)
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, job *Job, tick time.Time) {
	job.mu.Lock()
	job.running = true
	job.lastRun = tick
	job.nextRun = tick.Add(job.Interval)
	job.mu.Unlock()

	util.Debug("Running job: %s", job.Name)

	err := job.Run(ctx)

	job.mu.Lock()
	job.running = false
	job.runs++
	if err != nil {
		job.lastError = err
		job.errorCount++
		util.Warn("Job %s failed: %v", job.Name, err)
	} else {
		job.lastError = nil
	}
	job.mu.Unlock()
}

// GetJobStatuses returns the status of all jobs.
func (s *Scheduler) GetJobStatuses() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]JobStatus, len(s.jobs))
	for i, job := range s.jobs {
		job.mu.RLock()
		status := JobStatus{
			Name:       job.Name,
			Interval:   job.Interval,
			LastRun:    job.lastRun,
			NextRun:    job.nextRun,
			Runs:       job.runs,
			ErrorCount: job.errorCount,
			Running:    job.running,
		}
		if job.lastError != nil {
			status.LastError = job.lastError.Error()
		}
		job.mu.RUnlock()
		statuses[i] = status
	}

	return statuses
}

// GetJob returns a job by name.
func (s *Scheduler) GetJob(name string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, job := range s.jobs {
		if job.Name == name {
			return job
		}
	}
	return nil
}
