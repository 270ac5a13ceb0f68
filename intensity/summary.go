package intensity

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// LevelSummary describes one protein's intensity within one level of an
// identifier column (e.g., one flow date).
type LevelSummary struct {
	Column string
	Level  string
	N      int
	Mean   float64
	Median float64
	SD     float64 // NaN when N < 2
}

// Summarize groups the samples by column and describes protein in each group.
// Levels are returned in sorted order; NaN intensities are skipped.
func Summarize(t Table, protein, column string) ([]LevelSummary, error) {
	values, err := t.Column(protein)
	if err != nil {
		return nil, err
	}
	labels, err := t.Labels(column)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]stats.Float64Data)
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		groups[labels[i]] = append(groups[labels[i]], v)
	}

	levels := make([]string, 0, len(groups))
	for level := range groups {
		levels = append(levels, level)
	}
	sort.Strings(levels)

	out := make([]LevelSummary, 0, len(levels))
	for _, level := range levels {
		data := groups[level]

		summary := LevelSummary{Column: column, Level: level, N: data.Len(), SD: math.NaN()}
		if summary.Mean, err = data.Mean(); err != nil {
			return nil, err
		}
		if summary.Median, err = data.Median(); err != nil {
			return nil, err
		}
		if data.Len() > 1 {
			if summary.SD, err = data.StandardDeviationSample(); err != nil {
				return nil, err
			}
		}

		out = append(out, summary)
	}

	return out, nil
}
