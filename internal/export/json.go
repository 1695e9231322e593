package export

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/trellis/api/schemas"
	"github.com/xkilldash9x/trellis/internal/layout"
	"github.com/xkilldash9x/trellis/internal/layout/cache"
	"github.com/xkilldash9x/trellis/internal/layout/display"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Convert builds the wire form of a layout result. styled supplies the
// element ids; it may be nil.
func Convert(res *layout.Result, styled *tree.StyledTree) schemas.RenderResult {
	out := schemas.RenderResult{
		PassID:   res.PassID,
		Document: schemas.Size{W: res.DocumentSize.W, H: res.DocumentSize.H},
		Boxes:    []schemas.Box{},
		Items:    Items(res.DisplayList),
	}
	for i := range res.Rects {
		id := tree.NodeID(i)
		r, ok := res.Rect(id)
		if !ok {
			continue
		}
		box := schemas.Box{
			Node:    int32(id),
			Rect:    rect(r.BorderBox()),
			Content: rect(r.ContentBox()),
			Margin:  edges(r.MarginBox(), r.BorderBox()),
			Border:  edges(r.BorderBox(), r.PaddingBox()),
			Padding: edges(r.PaddingBox(), r.ContentBox()),
			Page:    r.Page,
		}
		if res.Tree != nil && i < res.Tree.Len() {
			b := res.Tree.Box(id)
			box.Kind = b.Kind.String()
			box.Role = b.Role.String()
			box.Tag = b.Tag
		}
		if styled != nil && styled.Contains(id) {
			box.ElementID = styled.Node(id).ElementID
		}
		for _, p := range r.Pieces {
			box.Pieces = append(box.Pieces, rect(p))
		}
		out.Boxes = append(out.Boxes, box)
	}
	for _, p := range res.Pages {
		out.Pages = append(out.Pages, schemas.Page{Index: p.Index, Rect: rect(p.Rect)})
	}
	for _, o := range res.Overflow {
		out.Overflow = append(out.Overflow, schemas.Overflow{
			Node:       int32(o.Node),
			ClientSize: schemas.Size{W: o.ClientSize.W, H: o.ClientSize.H},
			ScrollSize: schemas.Size{W: o.ScrollSize.W, H: o.ScrollSize.H},
		})
	}
	for _, m := range res.Messages {
		out.Messages = append(out.Messages, schemas.Message{
			Level:    m.Level.String(),
			Code:     string(m.Code),
			Node:     m.Node,
			Resource: m.Resource,
			Text:     m.Text,
		})
	}
	out.Cache = cacheStats(res.Stats)
	return out
}

func cacheStats(s cache.Stats) *schemas.CacheStats {
	if s.Pass == 0 {
		return nil
	}
	out := &schemas.CacheStats{Pass: s.Pass}
	for _, c := range []cache.Counters{s.Intrinsic, s.Runs, s.Breaks, s.Subtrees} {
		out.Hits += c.Hits
		out.Misses += c.Misses
		out.Evictions += c.Evicted
	}
	return out
}

// Items converts a display list to its wire form.
func Items(list *display.List) []schemas.DisplayItem {
	out := []schemas.DisplayItem{}
	if list == nil {
		return out
	}
	for _, it := range list.Items {
		item := schemas.DisplayItem{Kind: it.Kind().String(), Node: int32(it.Owner())}
		switch v := it.(type) {
		case display.Rectangle:
			item.Rect, item.Color, item.Radii = rectPtr(v.Rect), Hex(v.Color), radii(v.Radii)
		case display.Border:
			item.Rect, item.Radii = rectPtr(v.Rect), radii(v.Radii)
			item.Widths = &schemas.Edges{Top: v.Widths.Top, Right: v.Widths.Right, Bottom: v.Widths.Bottom, Left: v.Widths.Left}
			for i := range v.Styles {
				item.Styles = append(item.Styles, v.Styles[i].String())
				item.Colors = append(item.Colors, Hex(v.Colors[i]))
			}
		case display.BoxShadow:
			item.Rect, item.Color, item.Radii = rectPtr(v.Rect), Hex(v.Color), radii(v.Radii)
			item.Offset = &schemas.Point{X: v.Offset.X, Y: v.Offset.Y}
			item.Blur, item.Spread, item.Inset = v.Blur, v.Spread, v.Inset
		case display.TextRun:
			item.Rect = rectPtr(v.Bounds())
			item.Origin = &schemas.Point{X: v.Origin.X, Y: v.Origin.Y}
			item.Text, item.Color, item.Font, item.Size = v.Text, Hex(v.Color), v.FontHash, v.Size
			for _, g := range v.Glyphs {
				item.Glyphs = append(item.Glyphs, schemas.Glyph{ID: uint32(g.ID), X: g.X, Y: g.Y, Advance: g.Advance})
			}
		case display.Image:
			item.Rect, item.Radii = rectPtr(v.Rect), radii(v.Radii)
			item.Image, item.Background = uint64(v.Handle), v.Background
		case display.PushClip:
			item.Rect, item.Radii = rectPtr(v.Rect), radii(v.Radii)
		case display.PushTransform:
			m := v.Matrix
			item.Matrix = &[6]float32{m.A, m.B, m.C, m.D, m.E, m.F}
		case display.PushOpacity:
			o := v.Opacity
			item.Opacity = &o
		}
		out = append(out, item)
	}
	return out
}

// JSON writes v with jsoniter, indented when pretty is set.
func JSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// Hex formats a color as #rrggbbaa.
func Hex(c style.Color) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func rect(r geom.Rect) schemas.Rect {
	return schemas.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H}
}

func rectPtr(r geom.Rect) *schemas.Rect {
	out := rect(r)
	return &out
}

// edges measures how far inner sits inside outer on each side.
func edges(outer, inner geom.Rect) schemas.Edges {
	return schemas.Edges{
		Top:    inner.Y - outer.Y,
		Right:  outer.X + outer.W - inner.X - inner.W,
		Bottom: outer.Y + outer.H - inner.Y - inner.H,
		Left:   inner.X - outer.X,
	}
}

func radii(r style.Radii) *[4]float32 {
	if r == (style.Radii{}) {
		return nil
	}
	out := [4]float32(r)
	return &out
}
