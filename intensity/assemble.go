package intensity

import (
	"log"

	"github.com/carbocation/flowvar/flowdata"
)

// Record is one protein's background-corrected signal for one line on one day.
type Record struct {
	LineID     string
	GenotypeID string
	Donor      string
	FlowDate   string
	Protein    string
	Purity     float64
	Intensity  float64
}

// SampleID concatenates the line and flow date that identify a sample.
func SampleID(lineID, flowDate string) string {
	return lineID + "_" + flowDate
}

func (r Record) SampleID() string {
	return SampleID(r.LineID, r.FlowDate)
}

type AssembleOptions struct {
	Channels ChannelMap
	Aliases  AliasTable

	// SkipUnmappedChannels drops measurements on channels outside Channels
	// instead of failing.
	SkipUnmappedChannels bool
}

// AssembleStats counts the rows that did not make it into the output.
type AssembleStats struct {
	Measurements      int
	UnmappedChannels  int
	DonorsWithoutLine int
	Records           int
}

// Assemble joins measurements to the channel map and to line metadata and
// computes intensity as Mean1 - Mean2. Donor aliases are resolved before the
// metadata join. A donor with several lines yields one record per line.
func Assemble(ms []flowdata.Measurement, meta []flowdata.LineMeta, opts AssembleOptions) ([]Record, AssembleStats, error) {
	stats := AssembleStats{Measurements: len(ms)}

	// donor => lines
	linesByDonor := make(map[string][]flowdata.LineMeta)
	for _, line := range flowdata.DistinctLines(meta) {
		linesByDonor[line.Donor] = append(linesByDonor[line.Donor], line)
	}

	out := make([]Record, 0, len(ms))
	for _, m := range ms {
		protein, err := opts.Channels.Protein(m.Channel)
		if err != nil && opts.SkipUnmappedChannels {
			stats.UnmappedChannels++
			continue
		} else if err != nil {
			return nil, stats, &UnmappedChannelError{Channel: m.Channel, Donor: m.Donor, Date: m.FlowDate}
		}

		donor := opts.Aliases.Normalize(m.Donor)

		lines, ok := linesByDonor[donor]
		if !ok {
			stats.DonorsWithoutLine++
			continue
		}

		for _, line := range lines {
			out = append(out, Record{
				LineID:     line.LineID,
				GenotypeID: line.GenotypeID,
				Donor:      donor,
				FlowDate:   m.FlowDate,
				Protein:    protein,
				Purity:     m.Purity,
				Intensity:  m.Mean1 - m.Mean2,
			})
		}
	}
	stats.Records = len(out)

	if stats.UnmappedChannels > 0 {
		log.Printf("Skipped %d measurements on unmapped channels\n", stats.UnmappedChannels)
	}
	if stats.DonorsWithoutLine > 0 {
		log.Printf("Dropped %d measurements whose donor has no line metadata\n", stats.DonorsWithoutLine)
	}

	return out, stats, nil
}
