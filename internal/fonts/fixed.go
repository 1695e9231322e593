package fonts

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/xkilldash9x/trellis/internal/layout/text"
)

// Fixed is a deterministic provider where every cell has the same advance.
// East Asian wide characters take two cells and zero-width characters none,
// following the terminal cell model. It is used for tests and for headless
// rendering where real fonts are unavailable.
type Fixed struct {
	// EmRatio is the cell advance as a fraction of the font size.
	EmRatio float32
	// SpaceRatio is the advance of U+0020 as a fraction of the font size.
	SpaceRatio float32
	// Ascent and Descent are fractions of the font size.
	Ascent  float32
	Descent float32
	LineGap float32

	families map[string]text.FontHandle
	cond     *runewidth.Condition
}

const defaultFamily text.FontHandle = 1

// NewFixed returns a provider answering to the given families plus the
// generic ones. Unknown families do not match, so callers see fallback.
func NewFixed(emRatio, spaceRatio float32, families ...string) *Fixed {
	f := &Fixed{
		EmRatio:    emRatio,
		SpaceRatio: spaceRatio,
		Ascent:     0.8,
		Descent:    0.2,
		families:   map[string]text.FontHandle{},
		cond:       runewidth.NewCondition(),
	}
	f.cond.EastAsianWidth = false
	for _, g := range []string{"serif", "sans-serif", "monospace", "system-ui"} {
		f.families[g] = defaultFamily
	}
	for i, name := range families {
		f.families[strings.ToLower(name)] = text.FontHandle(i + 2)
	}
	return f
}

func (f *Fixed) Match(q text.FontQuery) (text.FontHandle, bool) {
	if q.Family == "" {
		return defaultFamily, true
	}
	h, ok := f.families[strings.ToLower(q.Family)]
	return h, ok
}

// Advance returns the advance of r at size.
func (f *Fixed) Advance(r rune, size float32) float32 {
	switch r {
	case ' ', '\u00a0':
		return size * f.SpaceRatio
	case '\t':
		return size * f.SpaceRatio * 8
	case '\u00ad', '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
		return 0
	}
	return size * f.EmRatio * float32(f.cond.RuneWidth(r))
}

func (f *Fixed) Shape(req text.ShapeRequest) []text.Glyph {
	out := make([]text.Glyph, 0, len(req.Text))
	hash := f.FontHash(req.Font)
	for i := 0; i < len(req.Text); {
		r, n := utf8.DecodeRuneInString(req.Text[i:])
		out = append(out, text.Glyph{
			ID:       text.GlyphID(r),
			Advance:  f.Advance(r, req.Size),
			Cluster:  text.ByteRange{Start: i, End: i + n},
			FontHash: hash,
		})
		i += n
	}
	return out
}

func (f *Fixed) Metrics(_ text.FontHandle, size float32) text.FontMetrics {
	return text.FontMetrics{
		Ascent:    size * f.Ascent,
		Descent:   size * f.Descent,
		LineGap:   size * f.LineGap,
		XHeight:   size * 0.5,
		CapHeight: size * 0.7,
	}
}

func (f *Fixed) GlyphAdvance(_ text.FontHandle, g text.GlyphID, size float32) float32 {
	return f.Advance(rune(g), size)
}

func (f *Fixed) FontHash(h text.FontHandle) uint64 {
	return uint64(h)*0x9e3779b97f4a7c15 ^ uint64(f.EmRatio*1000)
}
