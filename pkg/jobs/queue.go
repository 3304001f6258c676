package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of background work. Payload carries whatever the handler
// needs to locate its state; for report jobs that is the job row ID.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler executes a job. A non-nil return requeues the job until the
// queue's retry budget is spent.
type Handler func(context.Context, Job) error

// QueueConfig tunes the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue dispatches jobs to a fixed pool of goroutines over a buffered
// channel. Generation work stays inside the process; durability comes from
// the report_jobs table, not from the queue itself.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig

	pending chan Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewQueue builds a queue around the handler. Zero config values fall back
// to conservative defaults.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 8
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		pending: make(chan Job, cfg.BufferSize),
	}
}

// Start spins up the worker pool. Subsequent calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.running = true

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.consume(i)
	}
	q.cfg.Logger.Info("job queue started",
		zap.String("queue", q.name),
		zap.Int("workers", q.cfg.Workers),
	)
}

// Stop signals workers to finish and blocks until they exit. Buffered jobs
// that never ran are recovered from the database on the next boot.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.cfg.Logger.Info("job queue stopped", zap.String("queue", q.name))
}

// Enqueue hands a job to the pool. It fails when the queue has not been
// started or is shutting down, never silently dropping work.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	running := q.running
	ctx := q.ctx
	q.mu.Unlock()

	if !running {
		return fmt.Errorf("enqueue on stopped queue %q", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case q.pending <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue %q shutting down: %w", q.name, ctx.Err())
	}
}

func (q *Queue) consume(worker int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.pending:
			if err := q.handler(q.ctx, job); err != nil {
				q.retry(job, err)
			}
		}
	}
}

// retry schedules another attempt after a delay that doubles per attempt.
func (q *Queue) retry(job Job, cause error) {
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.cfg.Logger.Error("job dropped after exhausting retries",
			zap.String("queue", q.name),
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.Error(cause),
		)
		return
	}

	delay := q.cfg.RetryDelay << (job.Attempt - 1)
	q.cfg.Logger.Warn("job failed, scheduling retry",
		zap.String("queue", q.name),
		zap.String("job_id", job.ID),
		zap.Int("attempt", job.Attempt),
		zap.Duration("delay", delay),
		zap.Error(cause),
	)

	go func(j Job) {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.cfg.Logger.Error("requeue failed",
					zap.String("queue", q.name),
					zap.String("job_id", j.ID),
					zap.Error(err),
				)
			}
		}
	}(job)
}
