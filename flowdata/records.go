// Package flowdata loads the two input tables of the CD14 analysis: per-sample
// flow cytometry channel summaries and cell line metadata.
package flowdata

// Measurement is one channel summary from one flow cytometry run. Mean1 and
// Mean2 are the stained and background channel means.
type Measurement struct {
	Donor    string  `csv:"donor" parquet:"donor"`
	Channel  string  `csv:"channel" parquet:"channel"`
	FlowDate string  `csv:"flow_date" parquet:"flow_date"`
	Mean1    float64 `csv:"mean1" parquet:"mean1"`
	Mean2    float64 `csv:"mean2" parquet:"mean2"`
	Purity   float64 `csv:"purity" parquet:"purity"`
}

// LineMeta describes one cell line. Tables may carry more columns; they are
// ignored.
type LineMeta struct {
	LineID     string `csv:"line_id" parquet:"line_id"`
	Donor      string `csv:"donor" parquet:"donor"`
	GenotypeID string `csv:"genotype_id" parquet:"genotype_id"`
}

// Key identifies the (line, donor, genotype) triple used for deduplication.
type Key struct {
	LineID     string
	Donor      string
	GenotypeID string
}

func (l LineMeta) Key() Key {
	return Key{LineID: l.LineID, Donor: l.Donor, GenotypeID: l.GenotypeID}
}

// DistinctLines drops repeated (line_id, donor, genotype_id) rows, keeping the
// first occurrence of each.
func DistinctLines(meta []LineMeta) []LineMeta {
	seen := make(map[Key]struct{}, len(meta))
	out := make([]LineMeta, 0, len(meta))
	for _, v := range meta {
		if _, exists := seen[v.Key()]; exists {
			continue
		}
		seen[v.Key()] = struct{}{}
		out = append(out, v)
	}

	return out
}
