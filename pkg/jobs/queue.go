package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Queue dispatch errors.
var (
	ErrNotStarted = errors.New("jobs: queue not started")
	ErrFull       = errors.New("jobs: queue buffer full")
)

// Job is a unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Enqueued time.Time
}

// Handler executes a job. A returned error triggers a retry with
// exponential backoff until the attempt budget is spent.
type Handler func(context.Context, Job) error

// QueueConfig tunes the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

func (cfg *QueueConfig) applyDefaults() {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
}

// Queue is an in-memory job dispatcher. Enqueueing never blocks the
// caller: producers sit on a request path, so a full buffer surfaces
// ErrFull instead of stalling the request.
type Queue struct {
	name string
	run  Handler
	cfg  QueueConfig

	jobs chan Job
	wg   sync.WaitGroup

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewQueue builds a queue that feeds every job to handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	cfg.applyDefaults()
	return &Queue{
		name: name,
		run:  handler,
		cfg:  cfg,
		jobs: make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.started = true

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work(i + 1)
	}
	q.cfg.Logger.Info("job queue started",
		zap.String("queue", q.name), zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.cfg.Logger.Info("job queue stopped", zap.String("queue", q.name))
}

// Enqueue hands a job to the workers without blocking. ErrFull means
// the buffer is saturated and the job was dropped.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()
	if !started {
		return ErrNotStarted
	}

	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrFull
	}
}

func (q *Queue) work(id int) {
	defer q.wg.Done()
	log := q.cfg.Logger.With(zap.String("queue", q.name), zap.Int("worker", id))

	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.attempt(job, log)
		}
	}
}

// attempt retries with doubling delays: RetryDelay, 2x, 4x, ...
func (q *Queue) attempt(job Job, log *zap.Logger) {
	delay := q.cfg.RetryDelay
	for i := 1; i <= q.cfg.MaxRetries; i++ {
		err := q.run(q.ctx, job)
		if err == nil {
			return
		}
		log.Warn("job attempt failed",
			zap.String("job", job.ID), zap.String("type", job.Type),
			zap.Int("attempt", i), zap.Error(err))

		select {
		case <-q.ctx.Done():
			return
		case <-time.After(delay):
			delay *= 2
		}
	}
	log.Error("job dropped after retries",
		zap.String("job", job.ID), zap.String("type", job.Type))
}
