package intensity

import (
	"fmt"
	"sort"
)

// ChannelMap maps instrument channel names to the protein each one stains.
type ChannelMap map[string]string

// DefaultChannels reproduces the panel used for the CD14 analysis.
func DefaultChannels() ChannelMap {
	return ChannelMap{
		"APC-A":  "CD14",
		"PE-A":   "CD16",
		"FITC-A": "CD206",
	}
}

// Protein returns the protein measured on channel.
func (c ChannelMap) Protein(channel string) (string, error) {
	protein, ok := c[channel]
	if !ok {
		return "", &UnmappedChannelError{Channel: channel}
	}

	return protein, nil
}

// Proteins lists the mapped proteins in sorted order.
func (c ChannelMap) Proteins() []string {
	seen := make(map[string]struct{}, len(c))
	out := make([]string, 0, len(c))
	for _, protein := range c {
		if _, exists := seen[protein]; exists {
			continue
		}
		seen[protein] = struct{}{}
		out = append(out, protein)
	}
	sort.Strings(out)

	return out
}

// AliasTable resolves historical donor identifiers to one canonical donor.
type AliasTable map[string]string

// DefaultAliases holds the one known donor that was recorded under two names.
func DefaultAliases() AliasTable {
	return AliasTable{"fpdj": "nibo"}
}

// Normalize returns the canonical donor for donor. Chains of aliases are
// followed to their end, so Normalize(Normalize(x)) == Normalize(x) as long
// as the table has no cycles.
func (a AliasTable) Normalize(donor string) string {
	seen := map[string]struct{}{}
	for {
		next, ok := a[donor]
		if !ok || next == donor {
			return donor
		}
		if _, looped := seen[donor]; looped {
			return donor
		}
		seen[donor] = struct{}{}
		donor = next
	}
}

// Validate rejects alias chains that loop back on themselves.
func (a AliasTable) Validate() error {
	for start := range a {
		seen := map[string]struct{}{start: {}}
		for donor := a[start]; ; donor = a[donor] {
			if _, ok := a[donor]; !ok || a[donor] == donor {
				break
			}
			if _, looped := seen[donor]; looped {
				return fmt.Errorf("donor alias %q is part of a cycle", start)
			}
			seen[donor] = struct{}{}
		}
	}

	return nil
}
