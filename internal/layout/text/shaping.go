// File: internal/layout/text/shaping.go
package text

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/style"
)

// ShapedRun is the shaping result for one single-style, single-script,
// single-level range. Glyph clusters are relative to Range.Start.
type ShapedRun struct {
	Glyphs  []Glyph          `json:"glyphs"`
	Script  Script           `json:"script"`
	Level   uint8            `json:"level"`
	Style   StyleFingerprint `json:"style"`
	Range   ByteRange        `json:"range"`
	Advance float32          `json:"advance"`
	Metrics FontMetrics      `json:"metrics"`
}

// Rebased returns a copy of r positioned at a different paragraph offset.
// Glyphs are shared.
func (r *ShapedRun) Rebased(start int) *ShapedRun {
	c := *r
	c.Range = ByteRange{Start: start, End: start + r.Range.Len()}
	return &c
}

// ResolvedFont is the outcome of walking a family list.
type ResolvedFont struct {
	Handle  FontHandle
	Hash    uint64
	Metrics FontMetrics
	// Fallbacks are the later families that also matched, in order.
	Fallbacks []FontHandle
}

type fontKey struct {
	families string
	weight   uint16
	style    style.FontStyle
	size     float32
}

// Shaper wraps a FontProvider with family fallback, shaping memoization and
// per-pass diagnostics.
type Shaper struct {
	fonts  FontProvider
	cache  ShapeCache
	diag   *diag.Collector
	hyph   Hyphenator
	params BreakParams

	resolved map[fontKey]ResolvedFont

	// HyphenPenalty is the penalty charged for breaking at a hyphenation point.
	HyphenPenalty float32
}

// NewShaper builds a shaper. cache and hyph may be nil.
func NewShaper(fonts FontProvider, cache ShapeCache, collector *diag.Collector, hyph Hyphenator) *Shaper {
	return &Shaper{
		fonts:         fonts,
		cache:         cache,
		diag:          collector,
		hyph:          hyph,
		params:        DefaultBreakParams(),
		resolved:      make(map[fontKey]ResolvedFont),
		HyphenPenalty: 50,
	}
}

// SetBreakParams overrides the Knuth-Plass parameters.
func (s *Shaper) SetBreakParams(p BreakParams) { s.params = p }

// Fonts exposes the underlying provider.
func (s *Shaper) Fonts() FontProvider { return s.fonts }

// Resolve walks the style's family list. Families the provider does not
// know are reported once per pass and skipped.
func (s *Shaper) Resolve(st *style.ComputedStyle, node int32) ResolvedFont {
	key := fontKey{families: strings.Join(st.FontFamily, ","), weight: st.FontWeight, style: st.FontStyle, size: st.FontSize}
	if rf, ok := s.resolved[key]; ok {
		return rf
	}
	var rf ResolvedFont
	found := false
	for _, fam := range st.FontFamily {
		h, ok := s.fonts.Match(FontQuery{Family: fam, Weight: st.FontWeight, Style: st.FontStyle})
		if !ok {
			s.diag.Resource(diag.CodeMissingFont, node, fam, fmt.Sprintf("font family %q unavailable, trying next", fam))
			continue
		}
		if !found {
			rf.Handle = h
			found = true
		} else {
			rf.Fallbacks = append(rf.Fallbacks, h)
		}
	}
	if !found {
		h, _ := s.fonts.Match(FontQuery{Weight: st.FontWeight, Style: st.FontStyle})
		rf.Handle = h
	}
	rf.Hash = s.fonts.FontHash(rf.Handle)
	rf.Metrics = s.fonts.Metrics(rf.Handle, st.FontSize)
	s.resolved[key] = rf
	return rf
}

// ShapeRange shapes text (already cut to one script and level) placed at
// paragraph offset start.
func (s *Shaper) ShapeRange(text string, start int, script Script, level uint8, st *style.ComputedStyle, node int32) *ShapedRun {
	rf := s.Resolve(st, node)
	fp := Fingerprint(st, rf.Hash)
	key := RunKey{Style: fp.Hash(), Text: HashString(text), Script: script, Level: level, Language: fp.Language}
	if s.cache != nil {
		if run, ok := s.cache.ShapedRun(key); ok {
			return run.Rebased(start)
		}
	}

	dir := style.LTR
	if level%2 == 1 {
		dir = style.RTL
	}
	req := ShapeRequest{
		Text:      text,
		Script:    script,
		Language:  ParseLanguage(st.Language),
		Direction: dir,
		Font:      rf.Handle,
		Size:      st.FontSize,
		SmallCaps: st.SmallCaps,
	}
	glyphs := s.fonts.Shape(req)
	metrics := rf.Metrics
	if countNotdef(glyphs) > 0 {
		for _, fb := range rf.Fallbacks {
			req.Font = fb
			alt := s.fonts.Shape(req)
			if countNotdef(alt) < countNotdef(glyphs) {
				glyphs = alt
				metrics = s.fonts.Metrics(fb, st.FontSize)
			}
			if countNotdef(glyphs) == 0 {
				break
			}
		}
	}
	applySpacing(text, glyphs, st.LetterSpacing, st.WordSpacing)

	run := &ShapedRun{
		Glyphs:  glyphs,
		Script:  script,
		Level:   level,
		Style:   fp,
		Range:   ByteRange{Start: 0, End: len(text)},
		Metrics: metrics,
	}
	for _, g := range glyphs {
		run.Advance += g.Advance
	}
	if s.cache != nil {
		s.cache.StoreShapedRun(key, run)
	}
	return run.Rebased(start)
}

func countNotdef(glyphs []Glyph) int {
	n := 0
	for _, g := range glyphs {
		if g.ID == 0 {
			n++
		}
	}
	return n
}

// applySpacing adds letter-spacing after each cluster and word-spacing to
// each space.
func applySpacing(text string, glyphs []Glyph, letter, word float32) {
	if letter == 0 && word == 0 {
		return
	}
	for i := range glyphs {
		last := i+1 == len(glyphs) || glyphs[i+1].Cluster != glyphs[i].Cluster
		if !last {
			continue
		}
		glyphs[i].Advance += letter
		if word != 0 && glyphs[i].Cluster.Start < len(text) {
			r, _ := utf8.DecodeRuneInString(text[glyphs[i].Cluster.Start:])
			if r == ' ' || r == '\u00a0' {
				glyphs[i].Advance += word
			}
		}
	}
}

// ShapeString shapes a standalone string in one style, used for generated
// glyphs such as the hyphen inserted at a hyphenation break.
func (s *Shaper) ShapeString(text string, st *style.ComputedStyle, node int32) *ShapedRun {
	script := ScriptCommon
	if r, _ := utf8.DecodeRuneInString(text); r != utf8.RuneError {
		script = ScriptOf(r)
	}
	return s.ShapeRange(text, 0, script, BaseLevel(st.Direction), st, node)
}
