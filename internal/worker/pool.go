// Package worker implements the bounded compute pool the HTTP layer offloads
// cache builds and KPI computations to. This decouples request handling from
// CPU-bound work:
// - the pool size bounds concurrent computation
// - the queue bounds accepted-but-unstarted work (backpressure)
// - a submitted job runs to completion even if the client goes away
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// ErrQueueFull is returned when the job queue cannot accept more work.
var ErrQueueFull = errors.New("worker queue full")

// ErrStopped is returned when the pool is shutting down.
var ErrStopped = errors.New("worker pool stopped")

// Prometheus metrics
var (
	jobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mission_monitor_jobs_submitted_total",
		Help: "Total number of jobs submitted to the compute pool",
	})

	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mission_monitor_jobs_failed_total",
		Help: "Total number of jobs that returned an error",
	})

	jobsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mission_monitor_jobs_rejected_total",
		Help: "Total number of jobs rejected because the queue was full",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mission_monitor_worker_queue_depth",
		Help: "Current depth of the compute queue",
	})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mission_monitor_job_duration_seconds",
		Help:    "Duration of compute jobs",
		Buckets: prometheus.DefBuckets,
	}, []string{"name"})
)

type jobResult struct {
	value any
	err   error
}

type job struct {
	name string
	run  func(ctx context.Context) (any, error)
	ctx  context.Context
	done chan jobResult
}

// PoolConfig configures the compute pool.
type PoolConfig struct {
	WorkerCount int
	QueueSize   int
	Logger      *zap.Logger
}

// Pool manages a fixed set of workers draining a bounded job queue.
type Pool struct {
	jobQueue chan job
	stop     chan struct{}
	wg       sync.WaitGroup
	workers  int
	logger   *zap.SugaredLogger
}

// NewPool creates a compute pool.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	return &Pool{
		jobQueue: make(chan job, cfg.QueueSize),
		stop:     make(chan struct{}),
		workers:  cfg.WorkerCount,
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Infow("Worker pool started",
		"workers", p.workers,
		"queueSize", cap(p.jobQueue),
	)
}

// Stop prevents new submissions and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")
	close(p.stop)
	close(p.jobQueue)
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

// QueueDepth returns the number of queued jobs.
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// Do submits a job and waits for its result. The job itself runs with a
// context detached from the caller's cancellation: an abandoned request does
// not abort a computation already accepted.
func (p *Pool) Do(ctx context.Context, name string, run func(ctx context.Context) (any, error)) (any, error) {
	select {
	case <-p.stop:
		return nil, ErrStopped
	default:
	}

	j := job{
		name: name,
		run:  run,
		ctx:  context.WithoutCancel(ctx),
		done: make(chan jobResult, 1),
	}

	if err := p.enqueue(j); err != nil {
		return nil, err
	}

	result := <-j.done
	return result.value, result.err
}

// enqueue guards against the send-on-closed race with Stop.
func (p *Pool) enqueue(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrStopped
		}
	}()

	select {
	case p.jobQueue <- j:
		jobsSubmitted.Inc()
		queueDepth.Set(float64(len(p.jobQueue)))
		return nil
	default:
		jobsRejected.Inc()
		return ErrQueueFull
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debugw("Worker started", "worker", id)

	for j := range p.jobQueue {
		queueDepth.Set(float64(len(p.jobQueue)))

		begin := time.Now()
		value, err := j.run(j.ctx)
		jobDuration.WithLabelValues(j.name).Observe(time.Since(begin).Seconds())

		if err != nil {
			jobsFailed.Inc()
			p.logger.Errorw("Job failed", "job", j.name, "error", err)
		}

		j.done <- jobResult{value: value, err: err}
	}
}
