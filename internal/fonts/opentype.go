package fonts

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/text"
)

type face struct {
	family string
	weight uint16
	style  style.FontStyle
	font   *sfnt.Font
	hash   uint64
}

// OpenType serves real outlines through golang.org/x/image/font/sfnt. Shaping
// is one glyph per rune with pair kerning; complex scripts need a host
// provider with a full shaper.
type OpenType struct {
	mu    sync.RWMutex
	faces []face
	// byFamily indexes faces by lower-cased family name.
	byFamily map[string][]int
	fallback string
	bufs     sync.Pool
}

// NewOpenType returns a provider preloaded with the Go fonts, registered as
// "Go" (also answering to the generic families) and "Go Mono".
func NewOpenType() (*OpenType, error) {
	o := &OpenType{byFamily: map[string][]int{}, fallback: "go"}
	o.bufs.New = func() any { return new(sfnt.Buffer) }
	builtin := []struct {
		family string
		weight uint16
		style  style.FontStyle
		data   []byte
	}{
		{"Go", 400, style.FontStyleNormal, goregular.TTF},
		{"Go", 700, style.FontStyleNormal, gobold.TTF},
		{"Go", 400, style.FontStyleItalic, goitalic.TTF},
		{"Go Mono", 400, style.FontStyleNormal, gomono.TTF},
	}
	for _, b := range builtin {
		if err := o.Register(b.family, b.weight, b.style, b.data); err != nil {
			return nil, fmt.Errorf("failed to load builtin font %s: %w", b.family, err)
		}
	}
	for _, g := range []string{"serif", "sans-serif", "system-ui"} {
		o.byFamily[g] = o.byFamily["go"]
	}
	o.byFamily["monospace"] = o.byFamily["go mono"]
	return o, nil
}

// Register parses and adds a face.
func (o *OpenType) Register(family string, weight uint16, st style.FontStyle, data []byte) error {
	if len(data) == 0 {
		return errors.New("empty font data")
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse font %q: %w", family, err)
	}
	h := fnv.New64a()
	h.Write(data)
	o.mu.Lock()
	defer o.mu.Unlock()
	key := strings.ToLower(family)
	o.faces = append(o.faces, face{family: family, weight: weight, style: st, font: f, hash: h.Sum64()})
	o.byFamily[key] = append(o.byFamily[key], len(o.faces)-1)
	return nil
}

// RegisterFile loads a TrueType or OpenType file from disk.
func (o *OpenType) RegisterFile(family string, weight uint16, st style.FontStyle, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read font file: %w", err)
	}
	return o.Register(family, weight, st, data)
}

// RegisterDir registers every .ttf and .otf file directly inside dir under
// the family named in the font itself. Weight and style come from the
// subfamily name. Files that fail to parse are skipped and reported in the
// returned error after the rest are loaded.
func (o *OpenType) RegisterDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read font directory: %w", err)
	}
	var (
		count int
		errs  []error
	)
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		family, weight, st, err := describe(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		if err := o.Register(family, weight, st, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		count++
	}
	return count, errors.Join(errs...)
}

// describe reads the family and subfamily names of a font file.
func describe(data []byte) (string, uint16, style.FontStyle, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return "", 0, 0, err
	}
	var buf sfnt.Buffer
	family, err := f.Name(&buf, sfnt.NameIDFamily)
	if err != nil || family == "" {
		return "", 0, 0, errors.New("font has no family name")
	}
	weight, st := uint16(400), style.FontStyleNormal
	sub, _ := f.Name(&buf, sfnt.NameIDSubfamily)
	sub = strings.ToLower(sub)
	switch {
	case strings.Contains(sub, "black"), strings.Contains(sub, "heavy"):
		weight = 900
	case strings.Contains(sub, "semibold"), strings.Contains(sub, "demibold"):
		weight = 600
	case strings.Contains(sub, "bold"):
		weight = 700
	case strings.Contains(sub, "medium"):
		weight = 500
	case strings.Contains(sub, "light"):
		weight = 300
	case strings.Contains(sub, "thin"):
		weight = 100
	}
	if strings.Contains(sub, "italic") || strings.Contains(sub, "oblique") {
		st = style.FontStyleItalic
	}
	return family, weight, st, nil
}

func (o *OpenType) Match(q text.FontQuery) (text.FontHandle, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	family := strings.ToLower(q.Family)
	if family == "" {
		family = o.fallback
	}
	idx, ok := o.byFamily[family]
	if !ok || len(idx) == 0 {
		return 0, false
	}
	best, bestScore := idx[0], -1
	for _, i := range idx {
		f := o.faces[i]
		score := 0
		if f.style == q.Style {
			score += 10000
		}
		d := int(f.weight) - int(q.Weight)
		if d < 0 {
			d = -d
		}
		score += 1000 - d
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return text.FontHandle(best + 1), true
}

func (o *OpenType) face(h text.FontHandle) (face, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	i := int(h) - 1
	if i < 0 || i >= len(o.faces) {
		return face{}, false
	}
	return o.faces[i], true
}

func ppem(size float32) fixed.Int26_6 { return fixed.Int26_6(size*64 + 0.5) }

func toPx(v fixed.Int26_6) float32 { return float32(v) / 64 }

func (o *OpenType) Shape(req text.ShapeRequest) []text.Glyph {
	f, ok := o.face(req.Font)
	if !ok {
		return nil
	}
	buf := o.bufs.Get().(*sfnt.Buffer)
	defer o.bufs.Put(buf)

	size := ppem(req.Size)
	out := make([]text.Glyph, 0, utf8.RuneCountInString(req.Text))
	var prev sfnt.GlyphIndex
	for i := 0; i < len(req.Text); {
		r, n := utf8.DecodeRuneInString(req.Text[i:])
		gi, err := f.font.GlyphIndex(buf, r)
		if err != nil {
			gi = 0
		}
		var adv float32
		if !zeroWidth(r) {
			if a, err := f.font.GlyphAdvance(buf, gi, size, font.HintingNone); err == nil {
				adv = toPx(a)
			}
		}
		if len(out) > 0 && prev != 0 && gi != 0 {
			if k, err := f.font.Kern(buf, prev, gi, size, font.HintingNone); err == nil {
				out[len(out)-1].Advance += toPx(k)
			}
		}
		out = append(out, text.Glyph{
			ID:       text.GlyphID(gi),
			Advance:  adv,
			Cluster:  text.ByteRange{Start: i, End: i + n},
			FontHash: f.hash,
		})
		prev = gi
		i += n
	}
	return out
}

func zeroWidth(r rune) bool {
	switch r {
	case '\u00ad', '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff', '\n', '\r':
		return true
	}
	return false
}

func (o *OpenType) Metrics(h text.FontHandle, size float32) text.FontMetrics {
	f, ok := o.face(h)
	if !ok {
		return text.FontMetrics{Ascent: size * 0.8, Descent: size * 0.2}
	}
	buf := o.bufs.Get().(*sfnt.Buffer)
	defer o.bufs.Put(buf)
	m, err := f.font.Metrics(buf, ppem(size), font.HintingNone)
	if err != nil {
		return text.FontMetrics{Ascent: size * 0.8, Descent: size * 0.2}
	}
	asc, desc := toPx(m.Ascent), toPx(m.Descent)
	gap := toPx(m.Height) - asc - desc
	if gap < 0 {
		gap = 0
	}
	return text.FontMetrics{Ascent: asc, Descent: desc, LineGap: gap, XHeight: toPx(m.XHeight), CapHeight: toPx(m.CapHeight)}
}

func (o *OpenType) GlyphAdvance(h text.FontHandle, g text.GlyphID, size float32) float32 {
	f, ok := o.face(h)
	if !ok {
		return 0
	}
	buf := o.bufs.Get().(*sfnt.Buffer)
	defer o.bufs.Put(buf)
	a, err := f.font.GlyphAdvance(buf, sfnt.GlyphIndex(g), ppem(size), font.HintingNone)
	if err != nil {
		return 0
	}
	return toPx(a)
}

func (o *OpenType) FontHash(h text.FontHandle) uint64 {
	f, ok := o.face(h)
	if !ok {
		return 0
	}
	return f.hash
}
