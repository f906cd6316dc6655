package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/pkg/errs"
	"github.com/okian/lifeline/pkg/metrics"
)

// MemoryStore implements Store in memory. Writers take the lock exclusively;
// readers share it and receive copies.
type MemoryStore struct {
	mu         sync.RWMutex
	byGroup    map[string][]model.EventRecord
	order      []string // groups in first-insertion order
	total      int
	maxRecords int // 0 means unbounded
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byGroup: make(map[string][]model.EventRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateRepositoryRecordsTotal(0)
	metrics.UpdateRepositoryGroupCount(0)
	return s
}

// Add validates r and appends it to its group.
func (s *MemoryStore) Add(ctx context.Context, r model.EventRecord) error {
	const op = "repository.add"
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	// Validate before taking the lock so a rejected record never touches state.
	if err := r.Validate(); err != nil {
		metrics.RecordErrorByComponent("repository", "validation")
		return errs.Wrap(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxRecords > 0 && s.total >= s.maxRecords {
		metrics.RecordErrorByComponent("repository", "store_full")
		return errs.Wrap(op, fmt.Errorf("%w: limit %d", ErrStoreFull, s.maxRecords))
	}

	if _, ok := s.byGroup[r.Group]; !ok {
		s.order = append(s.order, r.Group)
	}
	s.byGroup[r.Group] = append(s.byGroup[r.Group], r)
	s.total++

	metrics.UpdateRepositoryRecordsTotal(s.total)
	metrics.UpdateRepositoryGroupCount(len(s.order))
	return nil
}

// RecordsForGroup returns a copy of the group's records in insertion order.
func (s *MemoryStore) RecordsForGroup(ctx context.Context, group string) []model.EventRecord {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.byGroup[group]
	out := make([]model.EventRecord, len(src))
	copy(out, src)
	return out
}

// Groups lists known groups in order of their first record.
func (s *MemoryStore) Groups(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.order...)
}

// Count returns the number of stored records.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}
