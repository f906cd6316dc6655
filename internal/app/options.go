package service

import (
	"github.com/okian/lifeline/internal/adapters/repository"
	"github.com/okian/lifeline/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingestion workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the ingestion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many record ids are remembered for idempotency.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxRecords caps the store created by Start. 0 leaves it unbounded.
func WithMaxRecords(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRecords = n
		}
	}
}

// WithMaxDomainPoints caps the domain length accepted by Parametric.
func WithMaxDomainPoints(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxDomainPoints = n
		}
	}
}

// WithMaxChartItems caps the number of curves accepted by Chart.
func WithMaxChartItems(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxChartItems = n
		}
	}
}

// WithStore replaces the in-memory store Start would create.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
