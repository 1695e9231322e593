package text

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/bidi"

	"github.com/xkilldash9x/trellis/internal/layout/style"
)

// BaseLevel returns the paragraph embedding level for a direction.
func BaseLevel(dir style.Direction) uint8 {
	if dir == style.RTL {
		return 1
	}
	return 0
}

func classOf(r rune) bidi.Class {
	p, _ := bidi.LookupRune(r)
	switch c := p.Class(); c {
	case bidi.LRE, bidi.RLE, bidi.LRO, bidi.RLO, bidi.PDF, bidi.LRI, bidi.RLI, bidi.FSI, bidi.PDI, bidi.Control:
		// Explicit embeddings and isolates are not supported; they only
		// affect neighbours as neutrals.
		return bidi.BN
	default:
		return c
	}
}

func isStrongOrNumber(c bidi.Class) (rtl bool, ok bool) {
	switch c {
	case bidi.L:
		return false, true
	case bidi.R, bidi.AL, bidi.EN, bidi.AN:
		return true, true
	}
	return false, false
}

// ResolveLevels runs the implicit bidi rules (W1-W7, N1-N2, I1-I2) over s
// with a single paragraph level. The result holds one level per byte.
func ResolveLevels(s string, dir style.Direction) []uint8 {
	base := BaseLevel(dir)
	levels := make([]uint8, len(s))
	if len(s) == 0 {
		return levels
	}

	type unit struct {
		start, end int
		class      bidi.Class
	}
	units := make([]unit, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		units = append(units, unit{start: i, end: i + size, class: classOf(r)})
		i += size
	}

	sos := bidi.L
	if base == 1 {
		sos = bidi.R
	}

	// W1-W3.
	prev := sos
	lastStrong := sos
	for i := range units {
		c := units[i].class
		if c == bidi.NSM {
			c = prev
		}
		switch c {
		case bidi.L, bidi.R:
			lastStrong = c
		case bidi.AL:
			lastStrong = c
			c = bidi.R
		case bidi.EN:
			if lastStrong == bidi.AL {
				c = bidi.AN
			}
		}
		units[i].class = c
		if c != bidi.BN {
			prev = c
		}
	}

	// W4.
	for i := 1; i+1 < len(units); i++ {
		a, c, b := units[i-1].class, units[i].class, units[i+1].class
		if c == bidi.ES && a == bidi.EN && b == bidi.EN {
			units[i].class = bidi.EN
		} else if c == bidi.CS && a == b && (a == bidi.EN || a == bidi.AN) {
			units[i].class = a
		}
	}

	// W5: ET sequences adjacent to EN become EN.
	for i := 0; i < len(units); i++ {
		if units[i].class != bidi.ET {
			continue
		}
		j := i
		for j < len(units) && units[j].class == bidi.ET {
			j++
		}
		if (i > 0 && units[i-1].class == bidi.EN) || (j < len(units) && units[j].class == bidi.EN) {
			for k := i; k < j; k++ {
				units[k].class = bidi.EN
			}
		}
		i = j - 1
	}

	// W6, W7.
	lastStrong = sos
	for i := range units {
		switch units[i].class {
		case bidi.ES, bidi.ET, bidi.CS:
			units[i].class = bidi.ON
		case bidi.L, bidi.R:
			lastStrong = units[i].class
		case bidi.EN:
			if lastStrong == bidi.L {
				units[i].class = bidi.L
			}
		}
	}

	// N1, N2: neutral sequences take the surrounding direction when both
	// sides agree, otherwise the embedding direction.
	for i := 0; i < len(units); i++ {
		if _, strong := isStrongOrNumber(units[i].class); strong {
			continue
		}
		j := i
		for j < len(units) {
			if _, strong := isStrongOrNumber(units[j].class); strong {
				break
			}
			j++
		}
		before := base == 1
		if i > 0 {
			before, _ = isStrongOrNumber(units[i-1].class)
		}
		after := base == 1
		if j < len(units) {
			after, _ = isStrongOrNumber(units[j].class)
		}
		resolved := bidi.L
		if before == after {
			if before {
				resolved = bidi.R
			}
		} else if base == 1 {
			resolved = bidi.R
		}
		for k := i; k < j; k++ {
			units[k].class = resolved
		}
		i = j - 1
	}

	// I1, I2.
	for _, u := range units {
		lvl := base
		if base%2 == 0 {
			switch u.class {
			case bidi.R:
				lvl++
			case bidi.AN, bidi.EN:
				lvl += 2
			}
		} else {
			switch u.class {
			case bidi.L, bidi.EN, bidi.AN:
				lvl++
			}
		}
		for k := u.start; k < u.end; k++ {
			levels[k] = lvl
		}
	}
	return levels
}

// IsBidiWhitespace reports characters reset to the paragraph level at line
// ends (rule L1).
func IsBidiWhitespace(r rune) bool {
	p, _ := bidi.LookupRune(r)
	switch p.Class() {
	case bidi.WS, bidi.S, bidi.B:
		return true
	}
	return false
}

// VisualOrder applies rule L2 to a sequence of run levels and returns the
// logical indices in visual order.
func VisualOrder(levels []uint8) []int {
	order := make([]int, len(levels))
	for i := range order {
		order[i] = i
	}
	if len(levels) == 0 {
		return order
	}
	var highest uint8
	lowestOdd := uint8(255)
	for _, l := range levels {
		if l > highest {
			highest = l
		}
		if l%2 == 1 && l < lowestOdd {
			lowestOdd = l
		}
	}
	if lowestOdd == 255 {
		return order
	}
	for lvl := highest; lvl >= lowestOdd; lvl-- {
		for i := 0; i < len(order); {
			if levels[order[i]] < lvl {
				i++
				continue
			}
			j := i
			for j < len(order) && levels[order[j]] >= lvl {
				j++
			}
			for a, b := i, j-1; a < b; a, b = a+1, b-1 {
				order[a], order[b] = order[b], order[a]
			}
			i = j
		}
		if lvl == 0 {
			break
		}
	}
	return order
}
