package flowvar

import (
	"bytes"

	"github.com/csimplestring/go-csv/detector"
)

// delimiterPreference breaks ties when the detector reports several characters
// that occur on every sampled line.
var delimiterPreference = []rune{',', '\t', ';', '|'}

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in a CSV-like table. Only the first few lines are inspected.
func DetermineDelimiter(table []byte) rune {
	head := table
	for i, lines := 0, 0; i < len(table); i++ {
		if table[i] == '\n' {
			lines++
		}
		if lines == 10 {
			head = table[:i]
			break
		}
	}
	head = bytes.TrimRight(head, "\r\n")

	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(head), '"')

	found := make(map[rune]struct{})
	for _, v := range delimiters {
		if len(v) > 0 {
			found[rune(v[0])] = struct{}{}
		}
	}
	for _, v := range delimiterPreference {
		if _, ok := found[v]; ok {
			return v
		}
	}
	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	// Nothing was consistent across lines, so fall back to whichever known
	// delimiter is most common in the header.
	header := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		header = head[:i]
	}
	best, bestCount := ',', 0
	for _, v := range delimiterPreference {
		if n := bytes.Count(header, []byte(string(v))); n > bestCount {
			best, bestCount = v, n
		}
	}

	return best
}
