package managers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Job is one independent unit of fitting work
type Job struct {
	ID   string
	Name string
	Run  func(ctx context.Context) error
}

// JobStatus reports the outcome of a job
type JobStatus struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// FitManager runs fit jobs on a bounded worker pool
type FitManager struct {
	pool   *ants.Pool
	logger *zap.SugaredLogger
}

// NewFitManager creates a FitManager with workers goroutines
func NewFitManager(workers int, logger *zap.SugaredLogger) (*FitManager, error) {
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("error creating worker pool: %w", err)
	}
	return &FitManager{pool: pool, logger: logger}, nil
}

// Run executes jobs and waits for all of them. Jobs without an ID get one.
// Jobs still queued when ctx is cancelled fail with the context's error; a
// failing job never affects the others.
func (m *FitManager) Run(ctx context.Context, jobs []Job) []JobStatus {
	var wg sync.WaitGroup
	statuses := make([]JobStatus, len(jobs))

	for i := range jobs {
		job := jobs[i]
		if job.ID == "" {
			job.ID = uuid.NewString()
		}
		statuses[i] = JobStatus{ID: job.ID, Name: job.Name}

		wg.Add(1)
		err := m.pool.Submit(func() {
			defer wg.Done()
			statuses[i] = m.runJob(ctx, job)
		})
		if err != nil {
			wg.Done()
			statuses[i].Err = fmt.Errorf("error submitting job: %w", err)
			statuses[i].Error = statuses[i].Err.Error()
			m.logger.Errorf("could not submit job [%s]: %v", job.Name, err)
		}
	}

	wg.Wait()
	return statuses
}

func (m *FitManager) runJob(ctx context.Context, job Job) JobStatus {
	status := JobStatus{ID: job.ID, Name: job.Name}

	if err := ctx.Err(); err != nil {
		status.Err = err
		status.Error = err.Error()
		m.logger.Warnw("job cancelled before start", "job", job.Name, "id", job.ID)
		return status
	}

	start := time.Now()
	err := job.Run(ctx)
	status.Duration = time.Since(start)

	if err != nil {
		status.Err = err
		status.Error = err.Error()
		m.logger.Errorw("job failed", "job", job.Name, "id", job.ID, "error", err)
		return status
	}

	m.logger.Infow("job finished", "job", job.Name, "id", job.ID, "duration", status.Duration)
	return status
}

// Close releases the worker pool
func (m *FitManager) Close() {
	m.pool.Release()
}
