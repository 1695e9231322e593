package text

import (
	"github.com/rivo/uniseg"
)

// Opportunity is a line break opportunity after Offset.
type Opportunity struct {
	Offset    int
	Mandatory bool
}

// BreakOpportunities returns UAX #14 break positions inside s. The end of
// text is not reported.
func BreakOpportunities(s string) []Opportunity {
	var out []Opportunity
	state := -1
	offset := 0
	rest := s
	for len(rest) > 0 {
		var seg string
		var must bool
		seg, rest, must, state = uniseg.FirstLineSegmentInString(rest, state)
		offset += len(seg)
		if len(rest) == 0 {
			break
		}
		out = append(out, Opportunity{Offset: offset, Mandatory: must})
	}
	return out
}

// GraphemeBoundaries returns the end offset of every grapheme cluster in s.
func GraphemeBoundaries(s string) []int {
	var out []int
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		_, to := g.Positions()
		out = append(out, to)
	}
	return out
}

// LongestUnbreakable returns the byte range of the widest segment between
// break opportunities as measured by width.
func LongestUnbreakable(s string, width func(ByteRange) float32) (ByteRange, float32) {
	var best ByteRange
	var bestW float32
	start := 0
	ends := BreakOpportunities(s)
	for _, o := range append(ends, Opportunity{Offset: len(s)}) {
		r := ByteRange{Start: start, End: o.Offset}
		if w := width(r); w > bestW {
			best, bestW = r, w
		}
		start = o.Offset
	}
	return best, bestW
}
