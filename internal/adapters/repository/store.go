// Package repository defines the event record store interface and errors.
package repository

import (
	"context"

	"github.com/okian/lifeline/internal/domain/model"
)

// Store is an append-only table of event records partitioned by group.
type Store interface {
	// Add appends a record. It fails with errs.ErrValidation when the record
	// is malformed, leaving the store unchanged.
	Add(ctx context.Context, r model.EventRecord) error

	// RecordsForGroup returns the group's records in insertion order, or an
	// empty slice. The result is a copy.
	RecordsForGroup(ctx context.Context, group string) []model.EventRecord

	// Groups lists known groups in order of their first record.
	Groups(ctx context.Context) []string

	// Count returns the number of records across all groups.
	Count(ctx context.Context) int
}
