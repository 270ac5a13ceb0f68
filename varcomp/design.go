package varcomp

import (
	"fmt"
	"log"
	"math"

	"github.com/carbocation/flowvar/intensity"
)

// Factor is a categorical grouping column: Levels[i] is observation i's level.
type Factor struct {
	Name   string
	Levels []string
}

// Design is a response with one random intercept per factor.
type Design struct {
	Response []float64
	Factors  []Factor
}

func (d Design) N() int {
	return len(d.Response)
}

// FromTable builds a design from the wide table, using one protein column as
// the response and identifier columns as factors. Samples whose response is
// NaN are dropped.
func FromTable(t intensity.Table, response string, factors ...string) (Design, error) {
	values, err := t.Column(response)
	if err != nil {
		return Design{}, err
	}

	keep := make([]int, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		keep = append(keep, i)
	}
	if dropped := len(values) - len(keep); dropped > 0 {
		log.Printf("Dropped %d samples without a %s value\n", dropped, response)
	}

	out := Design{Response: make([]float64, 0, len(keep))}
	for _, i := range keep {
		out.Response = append(out.Response, values[i])
	}

	for _, name := range factors {
		labels, err := t.Labels(name)
		if err != nil {
			return Design{}, err
		}

		f := Factor{Name: name, Levels: make([]string, 0, len(keep))}
		for _, i := range keep {
			f.Levels = append(f.Levels, labels[i])
		}
		out.Factors = append(out.Factors, f)
	}

	return out, nil
}

// groups maps each observation to a dense level index.
type groups struct {
	name   string
	index  []int
	levels int
}

func (d Design) validate() ([]groups, error) {
	if len(d.Factors) == 0 {
		return nil, fmt.Errorf("design has no factors")
	}

	for i, v := range d.Response {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("response %d is not finite", i)
		}
	}

	seenNames := make(map[string]struct{})
	out := make([]groups, 0, len(d.Factors))
	for _, f := range d.Factors {
		if f.Name == ResidualName {
			return nil, fmt.Errorf("factor name %q is reserved", ResidualName)
		}
		if _, dup := seenNames[f.Name]; dup {
			return nil, fmt.Errorf("factor %s appears twice", f.Name)
		}
		seenNames[f.Name] = struct{}{}

		if len(f.Levels) != len(d.Response) {
			return nil, fmt.Errorf("factor %s has %d levels for %d observations", f.Name, len(f.Levels), len(d.Response))
		}

		g := groups{name: f.Name, index: make([]int, len(f.Levels))}
		code := make(map[string]int)
		for i, level := range f.Levels {
			k, exists := code[level]
			if !exists {
				k = len(code)
				code[level] = k
			}
			g.index[i] = k
		}
		g.levels = len(code)

		if g.levels < 2 {
			return nil, &MissingFactorError{Factor: f.Name, Levels: g.levels}
		}

		out = append(out, g)
	}

	return out, nil
}
