// File: internal/layout/engine.go
package layout

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/trellis/internal/layout/boxtree"
	"github.com/xkilldash9x/trellis/internal/layout/cache"
	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/display"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/text"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// Options configures an Engine. The zero value lays out without caching,
// with TeX line breaking defaults.
type Options struct {
	Cache cache.Config
	// DebugAssertions turns display list stack misuse into panics.
	DebugAssertions bool
	// Break overrides the line breaker parameters when Tolerance is set.
	Break         text.BreakParams
	HyphenPenalty float32
	Hyphenator    text.Hyphenator
	// Solver replaces FlowSolver when set.
	Solver Solver
}

// Engine runs layout passes. It owns its cache, so one Engine must not be
// used from more than one goroutine at a time.
type Engine struct {
	fonts  text.FontProvider
	images ImageProvider
	cache  *cache.LayoutCache
	opts   Options
	logger *zap.Logger
}

// NewEngine builds an engine over the given providers. images may be nil
// when documents carry no images.
func NewEngine(fonts text.FontProvider, images ImageProvider, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Solver == nil {
		opts.Solver = FlowSolver{}
	}
	logger = logger.Named("layout")
	return &Engine{
		fonts:  fonts,
		images: images,
		cache:  cache.New(opts.Cache, logger),
		opts:   opts,
		logger: logger,
	}
}

// Cache exposes the engine's cache for snapshots and statistics.
func (e *Engine) Cache() *cache.LayoutCache { return e.cache }

// Layout runs one pass over styled. It never fails: problems are reported
// in Result.Messages and the affected boxes fall back to safe defaults.
func (e *Engine) Layout(styled *tree.StyledTree, vp Viewport) *Result {
	start := time.Now()
	passID := uuid.NewString()
	logger := e.logger.With(zap.String("pass_id", passID))
	collector := diag.NewCollector(logger)
	if vp.Scale <= 0 {
		vp.Scale = 1
	}

	e.cache.BeginPass()
	lt := boxtree.Build(styled, collector)
	wm := geom.HorizontalTB
	if lt.Root != tree.None && lt.Box(lt.Root).Style != nil {
		wm = lt.Box(lt.Root).Style.WritingMode
	}

	shaper := text.NewShaper(e.fonts, e.cache, collector, e.opts.Hyphenator)
	if e.opts.Break.Tolerance > 0 {
		shaper.SetBreakParams(e.opts.Break)
	}
	if e.opts.HyphenPenalty > 0 {
		shaper.HyphenPenalty = e.opts.HyphenPenalty
	}
	ctx := &SolveContext{
		Tree:        lt,
		Shaper:      shaper,
		Images:      e.images,
		Cache:       e.cache,
		Diag:        collector,
		Logger:      logger,
		Viewport:    vp,
		WritingMode: wm,
	}
	frames := e.opts.Solver.Solve(ctx)

	g := newGeometry(lt, frames, wm, vp)
	g.resolveRaw()
	icb := wm.SizeToLogical(vp.Size)
	if vp.Paged {
		page := vp.PageSize
		if page.W <= 0 || page.H <= 0 {
			page = vp.Size
		}
		if h := wm.SizeToLogical(page).Block; h > 0 {
			g.paginate(h, collector)
			icb.Inline = wm.SizeToLogical(page).Inline
		}
	}
	g.place()

	b := display.NewBuilder(vp.Scale, e.opts.DebugAssertions, collector)
	p := newPainter(lt, frames, g, b, collector, e.images)
	p.paint()
	list := b.Finish()

	contexts := assignContexts(lt)
	res := &Result{
		PassID:      passID,
		Rects:       buildRects(frames, g, contexts),
		Tree:        lt,
		DisplayList: list,
		HitTest:     p.hits,
	}
	res.Overflow = overflowSummaries(lt, res.Rects)
	res.Fragments, res.Pages = g.fragments(icb)
	res.DocumentSize = documentSize(g, vp, len(res.Pages))
	res.Stats = e.cache.EndPass()
	res.Messages = collector.Messages()

	logger.Debug("Layout pass finished.",
		zap.String("solver", e.opts.Solver.Name()),
		zap.Int("boxes", lt.Len()),
		zap.Int("display_items", list.Len()),
		zap.Int("pages", len(res.Pages)),
		zap.Int("messages", len(res.Messages)),
		zap.Duration("duration", time.Since(start)),
	)
	return res
}

// buildRects converts frames into the dense public geometry.
func buildRects(frames []Frame, g *geometry, contexts []tree.NodeID) []PositionedRect {
	out := make([]PositionedRect, len(frames))
	for i := range frames {
		f := &frames[i]
		if !f.Laid {
			continue
		}
		id := tree.NodeID(i)
		r := PositionedRect{
			Laid:            true,
			Origin:          f.Origin,
			Size:            f.Size,
			Margin:          f.Margin,
			Border:          f.Border,
			Padding:         f.Padding,
			Rect:            g.physical(g.border[id]),
			Lines:           f.Lines,
			StackingContext: contexts[id],
			wm:              g.wm,
		}
		for k, piece := range f.Pieces {
			pr := g.physical(g.piece(id, piece))
			r.Pieces = append(r.Pieces, pr)
			if k == 0 {
				r.Rect = pr
			} else {
				r.Rect = r.Rect.Union(pr)
			}
		}
		if g.pager != nil {
			r.Page = g.pager.pageOf(g.border[id].Origin.Block)
		}
		out[i] = r
	}
	return out
}

// overflowSummaries measures every scroll container against the boxes it
// contains.
func overflowSummaries(lt *boxtree.LayoutTree, rects []PositionedRect) []Overflow {
	var out []Overflow
	for i := range rects {
		id := tree.NodeID(i)
		r := &rects[i]
		st := lt.Box(id).Style
		if !r.Laid || st == nil || !(st.OverflowX.IsScrollContainer() || st.OverflowY.IsScrollContainer()) {
			continue
		}
		pad := r.PaddingBox()
		var ext geom.Rect
		found := false
		lt.Walk(id, func(d tree.NodeID) bool {
			if d == id {
				return true
			}
			if !rects[d].Laid {
				return false
			}
			if clippedBy(lt, d, id) {
				if mb := rects[d].MarginBox(); found {
					ext = ext.Union(mb)
				} else {
					ext, found = mb, true
				}
			}
			return true
		})
		o := Overflow{Node: id, ClientSize: geom.Size{W: pad.W, H: pad.H}}
		o.ScrollSize = o.ClientSize
		if found {
			padding := r.wm.EdgesToPhysical(r.Padding)
			o.ScrollSize.W = geom.Max(pad.W, ext.Right()+padding.Right-pad.X)
			o.ScrollSize.H = geom.Max(pad.H, ext.Bottom()+padding.Bottom-pad.Y)
		}
		out = append(out, o)
	}
	return out
}

// documentSize is the physical size of the document: the laid out extent,
// at least the viewport, or the stacked pages in paged mode.
func documentSize(g *geometry, vp Viewport, pages int) geom.Size {
	ext := g.wm.SizeToPhysical(g.documentExtent())
	if pages > 0 && g.pager != nil {
		l := g.wm.SizeToLogical(vp.Size)
		l.Block = float32(pages) * g.pager.height
		return g.wm.SizeToPhysical(l)
	}
	return geom.Size{W: geom.Max(ext.W, vp.Size.W), H: geom.Max(ext.H, vp.Size.H)}
}
