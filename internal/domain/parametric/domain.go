package parametric

import (
	"fmt"
	"math"

	"github.com/okian/lifeline/pkg/errs"
)

// maxDomainPoints bounds generated domains.
const maxDomainPoints = 1_000_000

// Linspace returns n evenly spaced values from start to stop inclusive.
func Linspace(start, stop float64, n int) ([]float64, error) {
	const op = "parametric.linspace"
	switch {
	case !finite(start) || !finite(stop):
		return nil, errs.WrapKind(op, errs.ErrInvalidParameter, fmt.Errorf("bounds must be finite"))
	case n < 1 || n > maxDomainPoints:
		return nil, errs.WrapKind(op, errs.ErrInvalidParameter, fmt.Errorf("n must be in [1, %d], got %d", maxDomainPoints, n))
	case n == 1:
		return []float64{start}, nil
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	// Pin the endpoint so accumulated rounding cannot overshoot it.
	out[n-1] = stop
	return out, nil
}

// Arange returns start, start+step, ... up to but excluding stop.
func Arange(start, stop, step float64) ([]float64, error) {
	const op = "parametric.arange"
	if !finite(start) || !finite(stop) || !finite(step) || step <= 0 {
		return nil, errs.WrapKind(op, errs.ErrInvalidParameter, fmt.Errorf("start/stop must be finite and step > 0"))
	}
	n := int(math.Ceil((stop - start) / step))
	if n <= 0 {
		return []float64{}, nil
	}
	if n > maxDomainPoints {
		return nil, errs.WrapKind(op, errs.ErrInvalidParameter, fmt.Errorf("arange would produce %d points", n))
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out, nil
}
