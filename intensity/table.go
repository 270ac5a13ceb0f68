package intensity

import (
	"fmt"
	"math"
	"sort"
)

// Identifier columns of the wide table. Anything else is a protein.
const (
	ColumnLineID     = "line_id"
	ColumnGenotypeID = "genotype_id"
	ColumnDonor      = "donor"
	ColumnFlowDate   = "flow_date"
)

// Sample is one line measured on one flow date, with one intensity per protein.
// A protein that was not measured is NaN.
type Sample struct {
	LineID     string
	GenotypeID string
	Donor      string
	FlowDate   string
	Purity     float64
	Values     map[string]float64
}

func (s Sample) SampleID() string {
	return SampleID(s.LineID, s.FlowDate)
}

// Label returns the value of an identifier column.
func (s Sample) Label(column string) (string, error) {
	switch column {
	case ColumnLineID:
		return s.LineID, nil
	case ColumnGenotypeID:
		return s.GenotypeID, nil
	case ColumnDonor:
		return s.Donor, nil
	case ColumnFlowDate:
		return s.FlowDate, nil
	}

	return "", fmt.Errorf("%q is not an identifier column", column)
}

// Value returns the intensity of protein, or NaN if it was not measured.
func (s Sample) Value(protein string) float64 {
	v, ok := s.Values[protein]
	if !ok {
		return math.NaN()
	}
	return v
}

// Table is the wide form: one Sample per (line, flow date), with the protein
// columns named explicitly.
type Table struct {
	Proteins []string
	Samples  []Sample
}

func (t Table) Len() int {
	return len(t.Samples)
}

// HasProtein reports whether protein is one of the table's value columns.
func (t Table) HasProtein(protein string) bool {
	for _, v := range t.Proteins {
		if v == protein {
			return true
		}
	}
	return false
}

// Column returns the values of one protein column in sample order.
func (t Table) Column(protein string) ([]float64, error) {
	if !t.HasProtein(protein) {
		return nil, fmt.Errorf("table has no %q column (have %v)", protein, t.Proteins)
	}

	out := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		out[i] = s.Value(protein)
	}

	return out, nil
}

// Labels returns the values of one identifier column in sample order.
func (t Table) Labels(column string) ([]string, error) {
	out := make([]string, len(t.Samples))
	for i, s := range t.Samples {
		v, err := s.Label(column)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return out, nil
}

func (t Table) SampleIDs() []string {
	out := make([]string, len(t.Samples))
	for i, s := range t.Samples {
		out[i] = s.SampleID()
	}
	return out
}

type sampleKey struct {
	LineID   string
	FlowDate string
}

// Pivot turns long records into one Sample per (line, flow date). Identifier
// fields other than line and date are taken from the first record seen for a
// sample. Two records for the same sample and protein are a ShapeError.
func Pivot(records []Record) (Table, error) {
	index := make(map[sampleKey]int)
	proteins := make(map[string]struct{})
	out := Table{}

	for _, r := range records {
		key := sampleKey{LineID: r.LineID, FlowDate: r.FlowDate}

		i, exists := index[key]
		if !exists {
			i = len(out.Samples)
			index[key] = i
			out.Samples = append(out.Samples, Sample{
				LineID:     r.LineID,
				GenotypeID: r.GenotypeID,
				Donor:      r.Donor,
				FlowDate:   r.FlowDate,
				Purity:     r.Purity,
				Values:     make(map[string]float64),
			})
		}

		if _, dup := out.Samples[i].Values[r.Protein]; dup {
			return Table{}, &ShapeError{SampleID: r.SampleID(), Protein: r.Protein}
		}
		out.Samples[i].Values[r.Protein] = r.Intensity
		proteins[r.Protein] = struct{}{}
	}

	for protein := range proteins {
		out.Proteins = append(out.Proteins, protein)
	}
	sort.Strings(out.Proteins)

	sort.Slice(out.Samples, func(i, j int) bool {
		if out.Samples[i].LineID != out.Samples[j].LineID {
			return out.Samples[i].LineID < out.Samples[j].LineID
		}
		return out.Samples[i].FlowDate < out.Samples[j].FlowDate
	})

	return out, nil
}

// Melt is the inverse of Pivot: one Record per measured (sample, protein).
func Melt(t Table) []Record {
	out := make([]Record, 0, len(t.Samples)*len(t.Proteins))
	for _, s := range t.Samples {
		for _, protein := range t.Proteins {
			v, ok := s.Values[protein]
			if !ok {
				continue
			}
			out = append(out, Record{
				LineID:     s.LineID,
				GenotypeID: s.GenotypeID,
				Donor:      s.Donor,
				FlowDate:   s.FlowDate,
				Protein:    protein,
				Purity:     s.Purity,
				Intensity:  v,
			})
		}
	}

	return out
}

// RemoveSamples drops the samples whose SampleID is listed. Ids that match
// nothing are ignored. The input table is not modified.
func RemoveSamples(t Table, sampleIDs []string) Table {
	drop := make(map[string]struct{}, len(sampleIDs))
	for _, v := range sampleIDs {
		drop[v] = struct{}{}
	}

	out := Table{Proteins: append([]string(nil), t.Proteins...)}
	for _, s := range t.Samples {
		if _, exists := drop[s.SampleID()]; exists {
			continue
		}
		out.Samples = append(out.Samples, s)
	}

	return out
}

// ReplicatedLines keeps only samples from lines measured more than once.
func ReplicatedLines(t Table) Table {
	counts := make(map[string]int)
	for _, s := range t.Samples {
		counts[s.LineID]++
	}

	out := Table{Proteins: append([]string(nil), t.Proteins...)}
	for _, s := range t.Samples {
		if counts[s.LineID] > 1 {
			out.Samples = append(out.Samples, s)
		}
	}

	return out
}
