// Package errs defines the error kinds shared across lifeline packages and
// helpers that attach an operation name to them.
//
// Callers match kinds with errors.Is:
//
//	if errors.Is(err, errs.ErrEstimation) { ... }
package errs

import (
	"errors"
	"strings"
)

// Sentinel error kinds.
var (
	// ErrValidation marks a malformed event record.
	ErrValidation = errors.New("validation error")
	// ErrEstimation marks empty or unusable input to survival/hazard estimation.
	ErrEstimation = errors.New("estimation error")
	// ErrInvalidParameter marks out-of-domain parametric model parameters.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEmptyInput marks a chart build with no curves.
	ErrEmptyInput = errors.New("empty input")
)

// Error couples an operation name with an error kind and an optional cause.
type Error struct {
	Op   string // operation, e.g. "survival.kaplan_meier"
	Kind error  // one of the sentinel kinds; may be nil
	Err  error  // underlying cause; may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Kind != nil && e.Err != nil:
		b.WriteString(e.Kind.Error())
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Kind != nil:
		b.WriteString(e.Kind.Error())
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString("unknown error")
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind returns an error of the given kind raised by op, caused by err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap attaches op to err. It returns nil when err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// KindOf reports which sentinel kind err carries, or nil.
func KindOf(err error) error {
	for _, k := range []error{ErrValidation, ErrEstimation, ErrInvalidParameter, ErrEmptyInput} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
