package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abagames/algo-chip-sub000/internal/composer"
)

// Job status constants
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusComplete   JobStatus = "complete"
	StatusFailed     JobStatus = "failed"
)

// jobTTL is how long a finished job stays queryable.
const jobTTL = 10 * time.Minute

// Job represents one queued composition request
type Job struct {
	ID        string
	Options   composer.Options
	CreatedAt time.Time

	mu     sync.RWMutex
	status JobStatus
	result *composer.Result
	err    string
}

// Status returns the job's current status.
func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Result returns the composition once the job is complete.
func (j *Job) Result() *composer.Result {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.result
}

// Err returns the failure message of a failed job.
func (j *Job) Err() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// JobManager manages queued composition jobs
type JobManager struct {
	jobs     map[string]*Job
	mu       sync.RWMutex
	composer *composer.Composer
}

// NewJobManager creates a new job manager
func NewJobManager(c *composer.Composer) *JobManager {
	return &JobManager{
		jobs:     make(map[string]*Job),
		composer: c,
	}
}

// Create registers a new pending job
func (m *JobManager) Create(opts composer.Options) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &Job{
		ID:        uuid.NewString(),
		Options:   opts,
		CreatedAt: time.Now(),
		status:    StatusPending,
	}
	m.jobs[job.ID] = job
	return job
}

// Get retrieves a job by ID
func (m *JobManager) Get(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// Process runs the composition for a job and records the outcome. The job
// is evicted after its TTL.
func (m *JobManager) Process(job *Job) {
	defer time.AfterFunc(jobTTL, func() {
		m.mu.Lock()
		delete(m.jobs, job.ID)
		m.mu.Unlock()
	})

	job.mu.Lock()
	job.status = StatusProcessing
	job.mu.Unlock()

	result, err := m.composer.Compose(job.Options)

	job.mu.Lock()
	defer job.mu.Unlock()
	if err != nil {
		job.status = StatusFailed
		job.err = err.Error()
		return
	}
	job.status = StatusComplete
	job.result = result
}
