package text

import (
	"golang.org/x/text/language"

	"github.com/xkilldash9x/trellis/internal/layout/style"
)

// StyleFingerprint is the part of a computed style that influences shaping.
type StyleFingerprint struct {
	FontHash  uint64  `json:"font_hash"`
	Size      float32 `json:"size"`
	Weight    uint16  `json:"weight"`
	Italic    bool    `json:"italic"`
	SmallCaps bool    `json:"small_caps"`
	Language  string  `json:"language"`
	Letter    float32 `json:"letter_spacing"`
	Word      float32 `json:"word_spacing"`
}

// ParseLanguage canonicalizes a BCP 47 tag. Malformed tags fall back to
// language.Und so they still share one cache key.
func ParseLanguage(tag string) language.Tag {
	if tag == "" {
		return language.Und
	}
	t, err := language.Parse(tag)
	if err != nil {
		return language.Und
	}
	return t
}

// Fingerprint builds the shaping fingerprint for a style and resolved font.
func Fingerprint(st *style.ComputedStyle, fontHash uint64) StyleFingerprint {
	return StyleFingerprint{
		FontHash:  fontHash,
		Size:      st.FontSize,
		Weight:    st.FontWeight,
		Italic:    st.FontStyle != style.FontStyleNormal,
		SmallCaps: st.SmallCaps,
		Language:  ParseLanguage(st.Language).String(),
		Letter:    st.LetterSpacing,
		Word:      st.WordSpacing,
	}
}

// Hash folds the fingerprint into a single key.
func (f StyleFingerprint) Hash() uint64 {
	h := style.NewHasher()
	h.U64(f.FontHash)
	h.F32(f.Size)
	h.U32(uint32(f.Weight))
	h.Bool(f.Italic)
	h.Bool(f.SmallCaps)
	h.String(f.Language)
	h.F32(f.Letter)
	h.F32(f.Word)
	return h.Sum()
}

// RunKey identifies a shaped run in the cache.
type RunKey struct {
	Style    uint64 `json:"style"`
	Text     uint64 `json:"text"`
	Script   Script `json:"script"`
	Level    uint8  `json:"level"`
	Language string `json:"language"`
}

// HashString is the content hash used in cache keys.
func HashString(s string) uint64 {
	h := style.NewHasher()
	h.String(s)
	return h.Sum()
}

// ShapeCache memoizes shaped runs across passes.
type ShapeCache interface {
	ShapedRun(key RunKey) (*ShapedRun, bool)
	StoreShapedRun(key RunKey, run *ShapedRun)
}

// BreakKey identifies a line breaking result.
type BreakKey struct {
	Width   float32 `json:"width"`
	Indent  float32 `json:"indent"`
	Content uint64  `json:"content"`
	Style   uint64  `json:"style"`
}

// BreakCache memoizes break positions for uniform-width paragraphs.
type BreakCache interface {
	LineBreaks(key BreakKey) ([]int, bool)
	StoreLineBreaks(key BreakKey, breaks []int)
}
