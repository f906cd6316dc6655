// Package worker drains the ingestion queue into the event record store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/lifeline/internal/adapters/mq/queue"
	"github.com/okian/lifeline/pkg/errs"
	"github.com/okian/lifeline/pkg/logger"
	"github.com/okian/lifeline/pkg/metrics"
)

const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Appender stores one record.
type Appender interface {
	Add(ctx context.Context, r queue.Envelope) error
}

// AppenderFunc adapts a function to Appender.
type AppenderFunc func(ctx context.Context, r queue.Envelope) error

// Add calls f.
func (f AppenderFunc) Add(ctx context.Context, r queue.Envelope) error { //nolint:gocritic // hugeParam
	return f(ctx, r)
}

// Queue defines how workers receive envelopes.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Envelope
}

// FailureHook is told about every envelope the appender refused.
type FailureHook func(ctx context.Context, e queue.Envelope, err error)

// Worker appends queued records until its queue closes.
type Worker interface {
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	appender Appender
	name     string
	onFail   FailureHook
	appended *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, appender Appender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		appender: appender,
		name:     "worker",
		appended: new(atomic.Int64),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes envelopes until the queue channel closes, ctx is done or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	// cancelling releases the queue's forwarding goroutine when we stop early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	envelopes := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-envelopes:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Warn(ctx, "record not appended",
					logger.String("record_id", e.RecordID),
					logger.String("worker", w.name),
					logger.Error(err))
			}
		}
	}
}

// Shutdown signals the worker to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, e queue.Envelope) error { //nolint:gocritic // hugeParam
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.appender.Add(ctx, e); err != nil {
		reason := "store_error"
		switch {
		case errors.Is(err, errs.ErrValidation):
			reason = "validation"
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			reason = "cancelled"
		}
		metrics.RecordWorkerError()
		metrics.RecordRecordRejected(reason)
		metrics.RecordErrorByComponent("worker", reason)
		if w.onFail != nil {
			w.onFail(ctx, e, err)
		}
		return fmt.Errorf("append record %s: %w", e.RecordID, err)
	}

	metrics.RecordRecordIngested()
	w.appended.Add(1)
	w.logger.Debug(ctx, "record appended",
		logger.String("record_id", e.RecordID),
		logger.String("group", e.Record.Group),
		logger.Duration("queued_for", start.Sub(e.EnqueuedAt)))
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	appended atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once

	rateMu    sync.Mutex
	lastCount int64
	lastTick  time.Time

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. workerCount < 1 means runtime.NumCPU().
func NewPool(workerCount int, q Queue, appender Appender, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		lastTick: time.Now(),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, appender, wopts...)
		w.appended = &p.appended
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return p
}

// Start launches every worker and the throughput gauge updater.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	p.rateMu.Lock()
	defer p.rateMu.Unlock()

	now := time.Now()
	count := p.appended.Load()
	if elapsed := now.Sub(p.lastTick).Seconds(); elapsed > 0 {
		metrics.UpdateWorkerMessagesPerSecond(float64(count-p.lastCount) / elapsed)
	}
	p.lastCount = count
	p.lastTick = now
}

// Appended returns how many records the pool has stored.
func (p *Pool) Appended() int64 {
	return p.appended.Load()
}

// Shutdown closes the queue, lets workers drain it, and forces a stop when ctx
// (capped at 30s) expires first.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		for _, w := range p.workers {
			w.shutdownOnce.Do(func() { close(w.shutdown) })
		}
	}

	metrics.UpdateWorkerActiveCount(0)
	p.updateMetrics()
	if timedOut {
		return fmt.Errorf("worker pool drain: %w", shutdownCtx.Err())
	}
	return nil
}
