// Package pca runs a centered and scaled principal component analysis over
// named protein columns, for visual review of outlier samples. It never
// removes anything itself.
package pca

import (
	"fmt"
	"math"

	"github.com/carbocation/flowvar/intensity"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DegenerateInputError is returned when the data cannot be centered and scaled,
// e.g., a constant column or fewer than two samples.
type DegenerateInputError struct {
	Column string
	Reason string
}

func (e *DegenerateInputError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("pca: degenerate input: %s", e.Reason)
	}
	return fmt.Sprintf("pca: degenerate input in column %s: %s", e.Column, e.Reason)
}

type Result struct {
	SampleIDs []string
	Columns   []string

	// Centers and Scales are the per-column mean and standard deviation that
	// were removed before decomposition.
	Centers []float64
	Scales  []float64

	// Scores has one row per sample and one column per component.
	Scores *mat.Dense

	// Loadings has one row per input column and one column per component.
	Loadings *mat.Dense

	// Variances holds the variance of each component, in decreasing order.
	Variances []float64
}

// Fit decomposes the named protein columns of t. Columns are selected by
// name so that identifier columns can never leak into the decomposition.
func Fit(t intensity.Table, columns []string) (*Result, error) {
	if len(columns) == 0 {
		return nil, &DegenerateInputError{Reason: "no columns selected"}
	}

	n, p := t.Len(), len(columns)
	if n < 2 {
		return nil, &DegenerateInputError{Reason: fmt.Sprintf("need at least 2 samples, have %d", n)}
	}

	out := &Result{
		SampleIDs: t.SampleIDs(),
		Columns:   append([]string(nil), columns...),
		Centers:   make([]float64, p),
		Scales:    make([]float64, p),
	}

	x := mat.NewDense(n, p, nil)
	for j, column := range columns {
		if !t.HasProtein(column) {
			return nil, &DegenerateInputError{Column: column, Reason: "no such column"}
		}

		values, err := t.Column(column)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &DegenerateInputError{Column: column, Reason: fmt.Sprintf("sample %s has no finite value", out.SampleIDs[i])}
			}
		}

		mean, sd := stat.MeanStdDev(values, nil)
		if sd == 0 || math.IsNaN(sd) {
			return nil, &DegenerateInputError{Column: column, Reason: "zero variance; cannot scale"}
		}
		out.Centers[j], out.Scales[j] = mean, sd

		for i, v := range values {
			x.Set(i, j, (v-mean)/sd)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, &DegenerateInputError{Reason: "decomposition failed"}
	}

	loadings := &mat.Dense{}
	pc.VectorsTo(loadings)
	out.Loadings = loadings
	out.Variances = pc.VarsTo(nil)

	// x is already centered, so the scores are a plain projection.
	scores := &mat.Dense{}
	scores.Mul(x, loadings)
	out.Scores = scores

	return out, nil
}

// Components reports how many components were computed.
func (r *Result) Components() int {
	return len(r.Variances)
}

// ProportionOfVariance returns each component's share of the total variance.
func (r *Result) ProportionOfVariance() []float64 {
	total := 0.0
	for _, v := range r.Variances {
		total += v
	}

	out := make([]float64, len(r.Variances))
	for i, v := range r.Variances {
		out[i] = v / total
	}

	return out
}

// Score returns sample i's score on component k (0-indexed).
func (r *Result) Score(i, k int) float64 {
	return r.Scores.At(i, k)
}
