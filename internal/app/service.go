// Package service wires ingestion (dedupe, queue, workers, store) to the
// survival estimators and exposes what the HTTP API needs.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/lifeline/internal/adapters/mq/queue"
	"github.com/okian/lifeline/internal/adapters/mq/worker"
	"github.com/okian/lifeline/internal/adapters/repository"
	"github.com/okian/lifeline/internal/domain/dedupe"
	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/pkg/errs"
	"github.com/okian/lifeline/pkg/logger"
	"github.com/okian/lifeline/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// Service implements the API dependencies for the survival service.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	deduper dedupe.Deduper
	queue   queue.Queue
	pool    *worker.Pool

	workerCount     int
	queueSize       int
	dedupeSize      int
	maxRecords      int
	maxDomainPoints int
	maxChartItems   int

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Nothing runs until Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       10_000,
		dedupeSize:      100_000,
		maxDomainPoints: 10_000,
		maxChartItems:   16,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the store (unless one was injected), the dedupe set, the
// queue and the worker pool. Calling it twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithMaxRecords(s.maxRecords))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	store := s.store
	appender := worker.AppenderFunc(func(ctx context.Context, e queue.Envelope) error {
		return store.Add(ctx, e.Record)
	})
	// a refused record may be fixed and resubmitted under the same id
	onFail := func(ctx context.Context, e queue.Envelope, _ error) {
		s.deduper.Unrecord(ctx, e.RecordID)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool = worker.NewPool(s.workerCount, s.queue, appender, worker.WithFailureHook(onFail))
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "survival service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("max_records", s.maxRecords),
	)
	return nil
}

// Stop drains the queue into the store and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "survival service stopped",
		logger.Int64("appended", s.pool.Appended()),
		logger.Int("records", s.store.Count(ctx)))
}

// SeenAndRecord reports whether id was already accepted, recording it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordRecordDuplicate()
	}
	return seen
}

// Unrecord forgets id so the record can be resubmitted.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue hands an envelope to the workers without blocking.
func (s *Service) Enqueue(ctx context.Context, e queue.Envelope) bool { //nolint:gocritic // hugeParam
	return s.queue.Enqueue(ctx, e)
}

// Submission is the outcome of Submit.
type Submission struct {
	RecordID  string `json:"record_id"`
	Duplicate bool   `json:"duplicate"`
}

// Submit validates r and queues it for the store. An empty recordID gets a
// fresh uuid; a recordID seen before is reported as duplicate and not queued.
func (s *Service) Submit(ctx context.Context, recordID string, r model.EventRecord) (Submission, error) {
	const op = "service.submit"

	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return Submission{}, errs.Wrap(op, ErrNotStarted)
	}

	if err := r.Validate(); err != nil {
		metrics.RecordRecordRejected("validation")
		return Submission{}, errs.Wrap(op, err)
	}

	if recordID == "" {
		recordID = uuid.NewString()
	}
	sub := Submission{RecordID: recordID}

	if s.SeenAndRecord(ctx, recordID) {
		s.logger.Debug(ctx, "duplicate record", logger.String("record_id", recordID))
		sub.Duplicate = true
		return sub, nil
	}

	if !s.Enqueue(ctx, queue.Envelope{RecordID: recordID, Record: r}) {
		s.Unrecord(ctx, recordID)
		metrics.RecordRecordRejected("backpressure")
		return Submission{}, errs.Wrap(op, fmt.Errorf("%w: record %s", ErrBackpressure, recordID))
	}
	return sub, nil
}

// GroupSummary describes one group held by the store.
type GroupSummary struct {
	Group   string `json:"group"`
	Records int    `json:"records"`
	Events  int    `json:"events"`
}

// Groups lists stored groups in first-insertion order with their counts.
func (s *Service) Groups(ctx context.Context) []GroupSummary {
	names := s.currentStore().Groups(ctx)
	out := make([]GroupSummary, 0, len(names))
	for _, g := range names {
		records := s.currentStore().RecordsForGroup(ctx, g)
		sum := GroupSummary{Group: g, Records: len(records)}
		for _, r := range records {
			if r.EventObserved {
				sum.Events++
			}
		}
		out = append(out, sum)
	}
	return out
}

// GroupRecords returns the records of group in insertion order.
func (s *Service) GroupRecords(ctx context.Context, group string) ([]model.EventRecord, error) {
	const op = "service.group_records"

	records := s.currentStore().RecordsForGroup(ctx, group)
	if len(records) == 0 {
		return nil, errs.Wrap(op, fmt.Errorf("%w: %q", ErrUnknownGroup, group))
	}
	return records, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"maxRecords":  s.maxRecords,
	}
	if s.store != nil {
		stats["records"] = s.store.Count(ctx)
		stats["groups"] = len(s.store.Groups(ctx))
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		stats["appended"] = s.pool.Appended()
	}
	return stats
}

// Size returns the number of remembered record ids.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// currentStore returns the store, creating an empty one for a service that was never started.
func (s *Service) currentStore() repository.Store {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store != nil {
		return store
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithMaxRecords(s.maxRecords))
	}
	return s.store
}
