// File: internal/export/svg.go
package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/xkilldash9x/trellis/internal/images"
	"github.com/xkilldash9x/trellis/internal/layout"
	"github.com/xkilldash9x/trellis/internal/layout/display"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
)

// SVGOptions configures SVG export.
type SVGOptions struct {
	// Images supplies pixels for image items; without it images are
	// skipped.
	Images layout.ImageProvider
	// Background fills the canvas first when not transparent.
	Background style.Color
	Logger     *zap.Logger
}

type svgWriter struct {
	opts  SVGOptions
	defs  *etree.Element
	stack []*etree.Element
	ids   int
	blurs map[float32]string
}

// SVG renders a display list into an SVG document of the given size.
// Clip, transform and opacity pushes become nested groups.
func SVG(list *display.List, size geom.Size, opts SVGOptions) *etree.Document {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("svg")
	root.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	root.CreateAttr("width", num(size.W))
	root.CreateAttr("height", num(size.H))
	root.CreateAttr("viewBox", fmt.Sprintf("0 0 %s %s", num(size.W), num(size.H)))

	w := &svgWriter{opts: opts, defs: root.CreateElement("defs"), stack: []*etree.Element{root}, blurs: map[float32]string{}}
	if !opts.Background.IsTransparent() {
		fill(w.shape(root, geom.Rect{W: size.W, H: size.H}, style.Radii{}), opts.Background)
	}
	if list != nil {
		for _, it := range list.Items {
			w.item(it)
		}
	}
	if len(w.defs.ChildElements()) == 0 {
		root.RemoveChild(w.defs)
	}
	doc.Indent(2)
	return doc
}

// WriteSVG renders list and writes the document to out.
func WriteSVG(out io.Writer, list *display.List, size geom.Size, opts SVGOptions) error {
	if _, err := SVG(list, size, opts).WriteTo(out); err != nil {
		return fmt.Errorf("failed to write svg: %w", err)
	}
	return nil
}

func (w *svgWriter) top() *etree.Element { return w.stack[len(w.stack)-1] }

func (w *svgWriter) id(prefix string) string {
	w.ids++
	return fmt.Sprintf("%s-%d", prefix, w.ids)
}

func (w *svgWriter) item(it display.Item) {
	parent := w.top()
	switch v := it.(type) {
	case display.Rectangle:
		el := w.shape(parent, v.Rect, v.Radii)
		fill(el, v.Color)
	case display.Border:
		w.border(parent, v)
	case display.BoxShadow:
		w.shadow(parent, v)
	case display.TextRun:
		w.text(parent, v)
	case display.Image:
		w.image(parent, v)
	case display.PushClip:
		clipID := w.id("clip")
		clip := w.defs.CreateElement("clipPath")
		clip.CreateAttr("id", clipID)
		w.shape(clip, v.Rect, v.Radii)
		g := parent.CreateElement("g")
		g.CreateAttr("clip-path", "url(#"+clipID+")")
		w.stack = append(w.stack, g)
	case display.PushTransform:
		m := v.Matrix
		g := parent.CreateElement("g")
		g.CreateAttr("transform", fmt.Sprintf("matrix(%s %s %s %s %s %s)", num(m.A), num(m.B), num(m.C), num(m.D), num(m.E), num(m.F)))
		w.stack = append(w.stack, g)
	case display.PushOpacity:
		g := parent.CreateElement("g")
		g.CreateAttr("opacity", num(v.Opacity))
		w.stack = append(w.stack, g)
	case display.PopClip, display.PopTransform, display.PopOpacity:
		if len(w.stack) > 1 {
			w.stack = w.stack[:len(w.stack)-1]
		}
	}
}

// shape adds a rect, or a path when the corners differ.
func (w *svgWriter) shape(parent *etree.Element, r geom.Rect, radii style.Radii) *etree.Element {
	uniform := radii[0] == radii[1] && radii[1] == radii[2] && radii[2] == radii[3]
	if uniform {
		el := parent.CreateElement("rect")
		el.CreateAttr("x", num(r.X))
		el.CreateAttr("y", num(r.Y))
		el.CreateAttr("width", num(r.W))
		el.CreateAttr("height", num(r.H))
		if radii[0] > 0 {
			el.CreateAttr("rx", num(radii[0]))
		}
		return el
	}
	el := parent.CreateElement("path")
	el.CreateAttr("d", roundedPath(r, radii))
	return el
}

func roundedPath(r geom.Rect, radii style.Radii) string {
	tl, tr, br, bl := radii[0], radii[1], radii[2], radii[3]
	var b strings.Builder
	fmt.Fprintf(&b, "M%s,%s H%s", num(r.X+tl), num(r.Y), num(r.Right()-tr))
	fmt.Fprintf(&b, " A%s,%s 0 0 1 %s,%s", num(tr), num(tr), num(r.Right()), num(r.Y+tr))
	fmt.Fprintf(&b, " V%s A%s,%s 0 0 1 %s,%s", num(r.Bottom()-br), num(br), num(br), num(r.Right()-br), num(r.Bottom()))
	fmt.Fprintf(&b, " H%s A%s,%s 0 0 1 %s,%s", num(r.X+bl), num(bl), num(bl), num(r.X), num(r.Bottom()-bl))
	fmt.Fprintf(&b, " V%s A%s,%s 0 0 1 %s,%s Z", num(r.Y+tl), num(tl), num(tl), num(r.X+tl), num(r.Y))
	return b.String()
}

func rectPath(r geom.Rect) string {
	return fmt.Sprintf("M%s,%s H%s V%s H%s Z", num(r.X), num(r.Y), num(r.Right()), num(r.Bottom()), num(r.X))
}

// border draws each visible side as a trapezoid, or a dashed center line
// for dashed and dotted sides. Rounded borders are stroked as one path.
func (w *svgWriter) border(parent *etree.Element, b display.Border) {
	widths := [4]float32{b.Widths.Top, b.Widths.Right, b.Widths.Bottom, b.Widths.Left}
	r := b.Rect
	if b.Radii != (style.Radii{}) {
		inset := widths[0] / 2
		inner := r.Inset(geom.Edges{Top: inset, Right: inset, Bottom: inset, Left: inset})
		var radii style.Radii
		for i := range radii {
			radii[i] = max(b.Radii[i]-inset, 0)
		}
		el := w.shape(parent, inner, radii)
		el.CreateAttr("fill", "none")
		stroke(el, b.Colors[0], widths[0])
		return
	}

	t, rt, bt, l := widths[0], widths[1], widths[2], widths[3]
	polys := [4][4]geom.Point{
		{{X: r.X, Y: r.Y}, {X: r.Right(), Y: r.Y}, {X: r.Right() - rt, Y: r.Y + t}, {X: r.X + l, Y: r.Y + t}},
		{{X: r.Right(), Y: r.Y}, {X: r.Right(), Y: r.Bottom()}, {X: r.Right() - rt, Y: r.Bottom() - bt}, {X: r.Right() - rt, Y: r.Y + t}},
		{{X: r.X, Y: r.Bottom()}, {X: r.Right(), Y: r.Bottom()}, {X: r.Right() - rt, Y: r.Bottom() - bt}, {X: r.X + l, Y: r.Bottom() - bt}},
		{{X: r.X, Y: r.Y}, {X: r.X, Y: r.Bottom()}, {X: r.X + l, Y: r.Bottom() - bt}, {X: r.X + l, Y: r.Y + t}},
	}
	lines := [4][2]geom.Point{
		{{X: r.X, Y: r.Y + t/2}, {X: r.Right(), Y: r.Y + t/2}},
		{{X: r.Right() - rt/2, Y: r.Y}, {X: r.Right() - rt/2, Y: r.Bottom()}},
		{{X: r.X, Y: r.Bottom() - bt/2}, {X: r.Right(), Y: r.Bottom() - bt/2}},
		{{X: r.X + l/2, Y: r.Y}, {X: r.X + l/2, Y: r.Bottom()}},
	}
	for i, width := range widths {
		if width <= 0 || !b.Styles[i].Visible() || b.Colors[i].IsTransparent() {
			continue
		}
		switch b.Styles[i] {
		case style.BorderDashed, style.BorderDotted:
			el := parent.CreateElement("line")
			el.CreateAttr("x1", num(lines[i][0].X))
			el.CreateAttr("y1", num(lines[i][0].Y))
			el.CreateAttr("x2", num(lines[i][1].X))
			el.CreateAttr("y2", num(lines[i][1].Y))
			stroke(el, b.Colors[i], width)
			dash := width
			if b.Styles[i] == style.BorderDashed {
				dash = 3 * width
			}
			el.CreateAttr("stroke-dasharray", num(dash))
		default:
			pts := make([]string, 0, 4)
			for _, p := range polys[i] {
				pts = append(pts, num(p.X)+","+num(p.Y))
			}
			el := parent.CreateElement("polygon")
			el.CreateAttr("points", strings.Join(pts, " "))
			fill(el, b.Colors[i])
		}
	}
}

// blur returns the id of a shared gaussian blur filter.
func (w *svgWriter) blur(radius float32) string {
	if id, ok := w.blurs[radius]; ok {
		return id
	}
	id := w.id("blur")
	f := w.defs.CreateElement("filter")
	f.CreateAttr("id", id)
	f.CreateAttr("x", "-50%")
	f.CreateAttr("y", "-50%")
	f.CreateAttr("width", "200%")
	f.CreateAttr("height", "200%")
	f.CreateElement("feGaussianBlur").CreateAttr("stdDeviation", num(radius/2))
	w.blurs[radius] = id
	return id
}

func (w *svgWriter) shadow(parent *etree.Element, s display.BoxShadow) {
	if s.Color.IsTransparent() {
		return
	}
	if !s.Inset {
		spread := geom.Edges{Top: s.Spread, Right: s.Spread, Bottom: s.Spread, Left: s.Spread}
		el := w.shape(parent, s.Rect.Translate(s.Offset.X, s.Offset.Y).Outset(spread), s.Radii)
		fill(el, s.Color)
		if s.Blur > 0 {
			el.CreateAttr("filter", "url(#"+w.blur(s.Blur)+")")
		}
		return
	}

	clipID := w.id("clip")
	clip := w.defs.CreateElement("clipPath")
	clip.CreateAttr("id", clipID)
	w.shape(clip, s.Rect, s.Radii)
	g := parent.CreateElement("g")
	g.CreateAttr("clip-path", "url(#"+clipID+")")

	spread := geom.Edges{Top: s.Spread, Right: s.Spread, Bottom: s.Spread, Left: s.Spread}
	hole := s.Rect.Translate(s.Offset.X, s.Offset.Y).Inset(spread)
	grow := s.Blur + s.Spread + float32(math.Abs(float64(s.Offset.X))+math.Abs(float64(s.Offset.Y))) + 1
	outer := s.Rect.Outset(geom.Edges{Top: grow, Right: grow, Bottom: grow, Left: grow})
	el := g.CreateElement("path")
	el.CreateAttr("d", rectPath(outer)+" "+rectPath(hole))
	el.CreateAttr("fill-rule", "evenodd")
	fill(el, s.Color)
	if s.Blur > 0 {
		el.CreateAttr("filter", "url(#"+w.blur(s.Blur)+")")
	}
}

func (w *svgWriter) text(parent *etree.Element, t display.TextRun) {
	if t.Text == "" || t.Color.IsTransparent() {
		return
	}
	el := parent.CreateElement("text")
	el.CreateAttr("x", num(t.Origin.X))
	el.CreateAttr("y", num(t.Origin.Y))
	el.CreateAttr("font-size", num(t.Size))
	el.CreateAttr("xml:space", "preserve")
	if t.Width > 0 {
		el.CreateAttr("textLength", num(t.Width))
		el.CreateAttr("lengthAdjust", "spacingAndGlyphs")
	}
	if t.Vertical {
		el.CreateAttr("writing-mode", "vertical-rl")
	}
	fill(el, t.Color)
	el.SetText(t.Text)
}

func (w *svgWriter) image(parent *etree.Element, im display.Image) {
	if w.opts.Images == nil || im.Rect.Empty() {
		return
	}
	src, ok := w.opts.Images.RGBA(im.Handle)
	if !ok {
		w.opts.Logger.Debug("Skipping unavailable image.", zap.Uint64("handle", uint64(im.Handle)))
		return
	}
	scaled := images.Scaled(src, int(math.Ceil(float64(im.Rect.W))), int(math.Ceil(float64(im.Rect.H))))
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		w.opts.Logger.Warn("Failed to encode image.", zap.Uint64("handle", uint64(im.Handle)), zap.Error(err))
		return
	}
	if im.Radii != (style.Radii{}) {
		clipID := w.id("clip")
		clip := w.defs.CreateElement("clipPath")
		clip.CreateAttr("id", clipID)
		w.shape(clip, im.Rect, im.Radii)
		parent = parent.CreateElement("g")
		parent.CreateAttr("clip-path", "url(#"+clipID+")")
	}
	el := parent.CreateElement("image")
	el.CreateAttr("x", num(im.Rect.X))
	el.CreateAttr("y", num(im.Rect.Y))
	el.CreateAttr("width", num(im.Rect.W))
	el.CreateAttr("height", num(im.Rect.H))
	el.CreateAttr("preserveAspectRatio", "none")
	el.CreateAttr("href", "data:image/png;base64,"+base64.StdEncoding.EncodeToString(buf.Bytes()))
}

func fill(el *etree.Element, c style.Color) {
	el.CreateAttr("fill", rgb(c))
	opacity(el, "fill-opacity", c)
}

func stroke(el *etree.Element, c style.Color, width float32) {
	el.CreateAttr("stroke", rgb(c))
	el.CreateAttr("stroke-width", num(width))
	opacity(el, "stroke-opacity", c)
}

func opacity(el *etree.Element, attr string, c style.Color) {
	if c.A < 255 {
		el.CreateAttr(attr, num(float32(c.A)/255))
	}
}

func rgb(c style.Color) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

func num(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
