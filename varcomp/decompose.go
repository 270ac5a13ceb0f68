// Package varcomp partitions the variance of a continuous response between
// crossed random-intercept factors (e.g., flow date and cell line) and the
// residual.
package varcomp

import (
	"fmt"
	"math"
)

// ResidualName is the key under which the residual share is reported.
const ResidualName = "Residual"

// Decomposition is one row of variance shares. Names lists the factors in
// design order followed by ResidualName.
type Decomposition struct {
	Components
	Names    []string
	Variance map[string]float64
	Percent  map[string]float64
}

// Options configures Fit. A nil Fitter uses Profiled REML.
type Options struct {
	Fitter Fitter
}

// Fit estimates the variance components of d and converts them into shares of
// the total variance.
func Fit(d Design, opts Options) (Decomposition, error) {
	fitter := opts.Fitter
	if fitter == nil {
		fitter = Profiled{Method: REML}
	}

	// Validate here as well so a custom Fitter still gets typed errors.
	if _, err := d.validate(); err != nil {
		return Decomposition{}, err
	}

	c, err := fitter.FitComponents(d)
	if err != nil {
		return Decomposition{}, err
	}

	return Decompose(c)
}

// Decompose turns fitted variances into shares that sum to 1.
func Decompose(c Components) (Decomposition, error) {
	if len(c.Factors) != len(c.Variances) {
		return Decomposition{}, fmt.Errorf("%d factor names for %d variances", len(c.Factors), len(c.Variances))
	}

	out := Decomposition{
		Components: c,
		Names:      append(append([]string(nil), c.Factors...), ResidualName),
		Variance:   make(map[string]float64, len(c.Factors)+1),
		Percent:    make(map[string]float64, len(c.Factors)+1),
	}

	total := 0.0
	for k, name := range c.Factors {
		v := c.Variances[k]
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Decomposition{}, &ModelFitError{Reason: fmt.Sprintf("variance of %s is %v", name, v)}
		}
		out.Variance[name] = v
		total += v
	}
	if c.Residual < 0 || math.IsNaN(c.Residual) || math.IsInf(c.Residual, 0) {
		return Decomposition{}, &ModelFitError{Reason: fmt.Sprintf("residual variance is %v", c.Residual)}
	}
	out.Variance[ResidualName] = c.Residual
	total += c.Residual

	if total <= 0 {
		return Decomposition{}, &ModelFitError{Reason: "total variance is zero"}
	}

	for _, name := range out.Names {
		out.Percent[name] = out.Variance[name] / total
	}

	return out, nil
}

// Sum adds up the shares; it is 1 up to rounding.
func (d Decomposition) Sum() float64 {
	sum := 0.0
	for _, name := range d.Names {
		sum += d.Percent[name]
	}
	return sum
}
