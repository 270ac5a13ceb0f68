package intensity

import "fmt"

// UnmappedChannelError is returned when a measurement names a channel that the
// channel map does not know about.
type UnmappedChannelError struct {
	Channel string
	Donor   string
	Date    string
}

func (e *UnmappedChannelError) Error() string {
	if e.Donor == "" {
		return fmt.Sprintf("channel %q has no protein mapping", e.Channel)
	}
	return fmt.Sprintf("channel %q (donor %s, flow_date %s) has no protein mapping", e.Channel, e.Donor, e.Date)
}

// ShapeError is returned when pivoting finds more than one value for the same
// sample and protein.
type ShapeError struct {
	SampleID string
	Protein  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("pivot: sample %s has more than one %s value", e.SampleID, e.Protein)
}
