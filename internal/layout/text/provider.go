package text

import (
	"golang.org/x/text/language"

	"github.com/xkilldash9x/trellis/internal/layout/style"
)

// FontHandle is an opaque token issued by a FontProvider.
type FontHandle uint64

// GlyphID is a font-specific glyph index. Zero is .notdef.
type GlyphID uint32

// ByteRange is a half-open range of byte offsets into paragraph text.
type ByteRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r ByteRange) Len() int { return r.End - r.Start }

// Contains reports whether offset i lies in the range.
func (r ByteRange) Contains(i int) bool { return i >= r.Start && i < r.End }

// Offset is a glyph placement adjustment relative to the pen position.
type Offset struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Glyph is one shaped glyph. Cluster is relative to the text passed to
// Shape until the shaper rebases it onto the paragraph.
type Glyph struct {
	ID       GlyphID   `json:"id"`
	Advance  float32   `json:"advance"`
	Offset   Offset    `json:"offset"`
	Cluster  ByteRange `json:"cluster"`
	FontHash uint64    `json:"font_hash"`
}

// FontMetrics are in px for the requested size. Descent is positive.
type FontMetrics struct {
	Ascent    float32 `json:"ascent"`
	Descent   float32 `json:"descent"`
	LineGap   float32 `json:"line_gap"`
	XHeight   float32 `json:"x_height"`
	CapHeight float32 `json:"cap_height"`
}

// FontQuery selects a face within one family.
type FontQuery struct {
	Family string
	Weight uint16
	Style  style.FontStyle
}

// ShapeRequest describes a single-font, single-script, single-direction run.
type ShapeRequest struct {
	Text      string
	Script    Script
	Language  language.Tag
	Direction style.Direction
	Font      FontHandle
	Size      float32
	SmallCaps bool
}

// FontProvider is implemented by the host. Shape returns glyphs in logical
// order with clusters relative to req.Text. Implementations must be
// deterministic for identical inputs.
type FontProvider interface {
	Match(q FontQuery) (FontHandle, bool)
	Shape(req ShapeRequest) []Glyph
	Metrics(font FontHandle, size float32) FontMetrics
	GlyphAdvance(font FontHandle, glyph GlyphID, size float32) float32
	FontHash(font FontHandle) uint64
}

// Hyphenator proposes hyphenation points inside a word for hyphens: auto.
// Offsets are byte positions inside word after which a hyphen may be placed.
type Hyphenator interface {
	Hyphenate(word string, lang language.Tag) []int
}
