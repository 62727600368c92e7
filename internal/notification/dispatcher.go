package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var ErrQueueFull = errors.New("notification queue full")

type Job struct {
	ID      string
	Request SendRequest
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				w.Logger.Debug("notification worker shutting down", "worker_id", w.ID)
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker sending notification", "worker_id", w.ID, "job_id", job.ID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("notification worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type DispatcherConfig struct {
	MaxWorkers   int
	JobQueueSize int
	SendTimeout  time.Duration
}

// Dispatcher sends mail off the request path through a fixed worker pool.
type Dispatcher struct {
	sender      Sender
	sendTimeout time.Duration
	logger      *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	pending    atomic.Int64
	once       sync.Once
	stopOnce   sync.Once
}

func NewDispatcher(sender Sender, config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}
	queueSize := config.JobQueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	sendTimeout := config.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 15 * time.Second
	}

	d := &Dispatcher{
		sender:      sender,
		sendTimeout: sendTimeout,
		logger:      logger,
		maxWorkers:  maxWorkers,
		jobQueue:    make(chan Job, queueSize),
		workerPool:  make(chan chan Job, maxWorkers),
		ctx:         ctx,
		cancel:      cancel,
	}
	d.start()
	return d
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			NewWorker(i, d.workerPool, d.logger).Start(d.ctx, &d.wg, d.process)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("notification worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case job := <-d.jobQueue:
			select {
			case jobChannel := <-d.workerPool:
				select {
				case jobChannel <- job:
				case <-d.ctx.Done():
					return
				}
			case <-d.ctx.Done():
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("notification dispatcher shutting down")
			return
		}
	}
}

// Enqueue never blocks; a full queue drops the job with ErrQueueFull.
func (d *Dispatcher) Enqueue(job Job) error {
	select {
	case <-d.ctx.Done():
		return context.Canceled
	default:
	}

	d.pending.Add(1)
	select {
	case d.jobQueue <- job:
		d.logger.Debug("notification queued", "job_id", job.ID, "queue_length", len(d.jobQueue))
		return nil
	default:
		d.pending.Add(-1)
		d.logger.Warn("notification queue full, dropping message", "job_id", job.ID, "queue_capacity", cap(d.jobQueue))
		return ErrQueueFull
	}
}

func (d *Dispatcher) process(job Job) {
	defer d.pending.Add(-1)
	ctx, cancel := context.WithTimeout(d.ctx, d.sendTimeout)
	defer cancel()

	if _, err := d.sender.Send(ctx, job.Request); err != nil {
		d.logger.Error("notification delivery failed", "job_id", job.ID, "error", err)
	}
}

// Drain waits until every accepted job has been attempted or ctx ends.
func (d *Dispatcher) Drain(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for d.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			d.logger.Warn("notification drain interrupted", "pending", d.pending.Load())
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (d *Dispatcher) Shutdown() {
	d.stopOnce.Do(func() {
		d.logger.Info("shutting down notification dispatcher")
		d.cancel()
		d.wg.Wait()
		d.logger.Info("notification dispatcher shutdown complete")
	})
}
