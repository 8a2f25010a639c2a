// ABOUTME: Crawl worker runs submitted crawl jobs in the background
// ABOUTME: Tracks job status by id and cancels in-flight runs through their context

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsfeed-canon/core/crawl"
	"newsfeed-canon/core/interfaces"
)

// JobKind is the kind of crawl a job runs
type JobKind string

const (
	JobLatest JobKind = "latest"
	JobRange  JobKind = "range"
)

// JobStatus is the lifecycle state of a job
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusCancelled JobStatus = "cancelled"
	StatusFailed    JobStatus = "failed"
)

// CrawlJob describes one crawl request
type CrawlJob struct {
	ID      string
	Kind    JobKind
	Sources []string
	Start   time.Time
	End     time.Time
}

// JobState is the externally visible state of a job
type JobState struct {
	ID          string          `json:"id"`
	Kind        JobKind         `json:"kind"`
	Sources     []string        `json:"sources"`
	Status      JobStatus       `json:"status"`
	Reports     []*crawl.Report `json:"reports,omitempty"`
	Error       string          `json:"error,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

// Runner executes crawls. *crawl.Engine implements it.
type Runner interface {
	CrawlAll(ctx context.Context, sourceCodes []string, parallelism int) ([]*crawl.Report, error)
	CrawlAllRange(ctx context.Context, sourceCodes []string, parallelism int, start, end time.Time) ([]*crawl.Report, error)
}

// CrawlWorker manages background crawl processing
type CrawlWorker struct {
	runner        Runner
	logger        interfaces.Logger
	jobQueue      chan *CrawlJob
	maxWorkers    int
	parallelism   int
	submitTimeout time.Duration
	maxHistory    int

	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	running bool

	// sendMu guards the queue against a send racing Stop's close
	sendMu sync.RWMutex

	mu      sync.Mutex
	jobs    map[string]*JobState
	order   []string
	cancels map[string]context.CancelFunc
}

// WorkerConfig holds configuration for the crawl worker
type WorkerConfig struct {
	MaxWorkers    int
	QueueSize     int
	Parallelism   int
	SubmitTimeout time.Duration
	MaxHistory    int
}

// DefaultWorkerConfig returns the default worker configuration
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		MaxWorkers:    1,
		QueueSize:     16,
		Parallelism:   crawl.DefaultParallelism,
		SubmitTimeout: 5 * time.Second,
		MaxHistory:    100,
	}
}

// NewCrawlWorker creates a new crawl worker
func NewCrawlWorker(runner Runner, config WorkerConfig, logger interfaces.Logger) *CrawlWorker {
	defaults := DefaultWorkerConfig()
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = defaults.MaxWorkers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.Parallelism <= 0 {
		config.Parallelism = defaults.Parallelism
	}
	if config.SubmitTimeout <= 0 {
		config.SubmitTimeout = defaults.SubmitTimeout
	}
	if config.MaxHistory <= 0 {
		config.MaxHistory = defaults.MaxHistory
	}
	if logger == nil {
		logger = interfaces.NopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &CrawlWorker{
		runner:        runner,
		logger:        logger,
		jobQueue:      make(chan *CrawlJob, config.QueueSize),
		maxWorkers:    config.MaxWorkers,
		parallelism:   config.Parallelism,
		submitTimeout: config.SubmitTimeout,
		maxHistory:    config.MaxHistory,
		ctx:           ctx,
		cancel:        cancel,
		jobs:          make(map[string]*JobState),
		cancels:       make(map[string]context.CancelFunc),
	}
}

// Start starts the worker pool
func (cw *CrawlWorker) Start() error {
	cw.sendMu.Lock()
	defer cw.sendMu.Unlock()

	if cw.running {
		return nil
	}
	if cw.ctx.Err() != nil {
		// A stopped worker cannot be restarted
		return ErrWorkerNotRunning
	}

	for i := 0; i < cw.maxWorkers; i++ {
		cw.wg.Add(1)
		go cw.run()
	}
	cw.running = true
	return nil
}

// Stop cancels in-flight jobs and waits for the workers to exit
func (cw *CrawlWorker) Stop() error {
	cw.sendMu.Lock()
	if !cw.running {
		cw.sendMu.Unlock()
		return nil
	}
	cw.running = false
	cw.cancel()
	close(cw.jobQueue)
	cw.sendMu.Unlock()

	cw.wg.Wait()
	return nil
}

// Submit queues job and returns its id
func (cw *CrawlWorker) Submit(job *CrawlJob) (string, error) {
	cw.sendMu.RLock()
	defer cw.sendMu.RUnlock()

	if !cw.running {
		return "", ErrWorkerNotRunning
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Kind == "" {
		job.Kind = JobLatest
	}

	cw.mu.Lock()
	cw.jobs[job.ID] = &JobState{
		ID:          job.ID,
		Kind:        job.Kind,
		Sources:     append([]string(nil), job.Sources...),
		Status:      StatusQueued,
		SubmittedAt: time.Now().UTC(),
	}
	cw.order = append(cw.order, job.ID)
	cw.pruneLocked()
	cw.mu.Unlock()

	timer := time.NewTimer(cw.submitTimeout)
	defer timer.Stop()

	select {
	case cw.jobQueue <- job:
		cw.logger.Info("Crawl job queued", map[string]interface{}{
			"job_id":  job.ID,
			"kind":    string(job.Kind),
			"sources": job.Sources,
		})
		return job.ID, nil
	case <-timer.C:
		cw.forget(job.ID)
		return "", ErrQueueFull
	}
}

// Cancel cancels the job with id, or every queued and running job when id is empty.
// It returns the number of jobs cancelled.
func (cw *CrawlWorker) Cancel(id string) int {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	n := 0
	for jobID, state := range cw.jobs {
		if id != "" && jobID != id {
			continue
		}
		switch state.Status {
		case StatusQueued:
			state.Status = StatusCancelled
			n++
		case StatusRunning:
			if cancel, ok := cw.cancels[jobID]; ok {
				cancel()
				n++
			}
		}
	}
	if n > 0 {
		cw.logger.Warn("Crawl jobs cancelled", map[string]interface{}{"job_id": id, "count": n})
	}
	return n
}

// Status returns a snapshot of the job with id
func (cw *CrawlWorker) Status(id string) (*JobState, bool) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	state, ok := cw.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *state
	snapshot.Sources = append([]string(nil), state.Sources...)
	snapshot.Reports = append([]*crawl.Report(nil), state.Reports...)
	return &snapshot, true
}

// run is the main loop for each worker
func (cw *CrawlWorker) run() {
	defer cw.wg.Done()

	for {
		select {
		case job, ok := <-cw.jobQueue:
			if !ok {
				return
			}
			cw.process(job)
		case <-cw.ctx.Done():
			return
		}
	}
}

// process runs a single crawl job
func (cw *CrawlWorker) process(job *CrawlJob) {
	ctx, cancel := context.WithCancel(cw.ctx)
	defer cancel()

	cw.mu.Lock()
	state, ok := cw.jobs[job.ID]
	if !ok || state.Status == StatusCancelled {
		cw.mu.Unlock()
		return
	}
	started := time.Now().UTC()
	state.Status = StatusRunning
	state.StartedAt = &started
	cw.cancels[job.ID] = cancel
	cw.mu.Unlock()

	fields := map[string]interface{}{"job_id": job.ID, "kind": string(job.Kind)}
	cw.logger.Info("Crawl job started", fields)

	var (
		reports []*crawl.Report
		err     error
	)
	switch job.Kind {
	case JobRange:
		reports, err = cw.runner.CrawlAllRange(ctx, job.Sources, cw.parallelism, job.Start, job.End)
	default:
		reports, err = cw.runner.CrawlAll(ctx, job.Sources, cw.parallelism)
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()
	delete(cw.cancels, job.ID)
	finished := time.Now().UTC()
	state.FinishedAt = &finished
	state.Reports = reports
	switch {
	case ctx.Err() != nil:
		state.Status = StatusCancelled
	case err != nil:
		state.Status = StatusFailed
		state.Error = err.Error()
	default:
		state.Status = StatusCompleted
	}
	cw.logger.Info("Crawl job finished", map[string]interface{}{
		"job_id": job.ID,
		"status": string(state.Status),
	})
}

func (cw *CrawlWorker) forget(id string) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	delete(cw.jobs, id)
	for i, jobID := range cw.order {
		if jobID == id {
			cw.order = append(cw.order[:i], cw.order[i+1:]...)
			break
		}
	}
}

// pruneLocked drops the oldest finished jobs beyond maxHistory. Caller holds mu.
func (cw *CrawlWorker) pruneLocked() {
	for len(cw.order) > cw.maxHistory {
		dropped := false
		for i, jobID := range cw.order {
			state := cw.jobs[jobID]
			if state == nil || state.FinishedAt != nil || state.Status == StatusCancelled {
				delete(cw.jobs, jobID)
				cw.order = append(cw.order[:i], cw.order[i+1:]...)
				dropped = true
				break
			}
		}
		if !dropped {
			return
		}
	}
}

// Error definitions
var (
	ErrWorkerNotRunning = &WorkerError{Message: "worker pool is not running"}
	ErrQueueFull        = &WorkerError{Message: "job queue is full"}
)

// WorkerError represents a worker-specific error
type WorkerError struct {
	Message string
}

func (e *WorkerError) Error() string {
	return e.Message
}
