// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/lifeline/pkg/errs"
)

// EventRecord is one subject's observed or censored time-to-event.
type EventRecord struct {
	SubjectID     string  `json:"subject_id"`     // free-form subject identifier
	Time          float64 `json:"time"`           // observed time, >= 0
	EventObserved bool    `json:"event_observed"` // false means censored at Time
	Group         string  `json:"group"`          // treatment/cohort label, non-empty
}

// Validate reports whether r may enter a record store.
func (r EventRecord) Validate() error {
	const op = "model.validate_record"
	switch {
	case math.IsNaN(r.Time) || math.IsInf(r.Time, 0):
		return errs.WrapKind(op, errs.ErrValidation, fmt.Errorf("time must be finite, got %v", r.Time))
	case r.Time < 0:
		return errs.WrapKind(op, errs.ErrValidation, fmt.Errorf("time must be >= 0, got %v", r.Time))
	case strings.TrimSpace(r.Group) == "":
		return errs.WrapKind(op, errs.ErrValidation, fmt.Errorf("group must not be empty"))
	}
	return nil
}
