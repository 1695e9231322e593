package layout

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/trellis/internal/layout/boxtree"
	"github.com/xkilldash9x/trellis/internal/layout/cache"
	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/text"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// Frame is the geometry a solver assigns to one box, in logical
// coordinates. Origin is the border box origin relative to the content box
// of the nearest ancestor that is not an inline box; the root is relative
// to the initial containing block.
type Frame struct {
	Laid    bool
	Origin  geom.LogicalPoint
	Size    geom.LogicalSize
	Margin  geom.LogicalEdges
	Border  geom.LogicalEdges
	Padding geom.LogicalEdges
	// Rel is the relative or sticky offset, applied on top of Origin.
	Rel geom.LogicalPoint
	// Lines are the line boxes of a block container, in its content box
	// coordinates.
	Lines []text.LineBox
	// Baseline and LastBaseline are measured from the border box top.
	Baseline     float32
	LastBaseline float32
	HasBaseline  bool
	// Static is the static position of an out-of-flow box in its parent's
	// content box coordinates.
	Static geom.LogicalPoint
	// Pieces are the per-line border boxes of an inline box, in the same
	// coordinates as Origin.
	Pieces []geom.LogicalRect
	// ContentExtent is the block size of the laid out content, used for
	// scrollable overflow.
	ContentExtent geom.LogicalSize

	// cbInline is the inline size percentages on the edges resolved against.
	cbInline float32
}

// contentOffset is the distance from the border box origin to the content
// box origin.
func (f *Frame) contentOffset() geom.LogicalPoint {
	return geom.LogicalPoint{
		Inline: f.Border.InlineStart + f.Padding.InlineStart,
		Block:  f.Border.BlockStart + f.Padding.BlockStart,
	}
}

// contentSize is the size of the content box.
func (f *Frame) contentSize() geom.LogicalSize {
	return geom.LogicalSize{
		Inline: geom.Max(0, f.Size.Inline-f.Border.InlineSum()-f.Padding.InlineSum()),
		Block:  geom.Max(0, f.Size.Block-f.Border.BlockSum()-f.Padding.BlockSum()),
	}
}

// paddingBox returns the padding box relative to the border box origin.
func (f *Frame) paddingBox() geom.LogicalRect {
	return geom.LogicalRect{
		Origin: geom.LogicalPoint{Inline: f.Border.InlineStart, Block: f.Border.BlockStart},
		Size: geom.LogicalSize{
			Inline: geom.Max(0, f.Size.Inline-f.Border.InlineSum()),
			Block:  geom.Max(0, f.Size.Block-f.Border.BlockSum()),
		},
	}
}

// SolveContext carries everything a solver may read during one pass.
type SolveContext struct {
	Tree        *boxtree.LayoutTree
	Shaper      *text.Shaper
	Images      ImageProvider
	Cache       *cache.LayoutCache
	Diag        *diag.Collector
	Logger      *zap.Logger
	Viewport    Viewport
	WritingMode geom.WritingMode
}

// Solver computes frames for every box of a layout tree. Everything after
// it (transforms, paging, stacking, painting) only reads frames, so a
// different constraint solver can replace FlowSolver without touching the
// rest of the pipeline.
type Solver interface {
	Name() string
	Solve(ctx *SolveContext) []Frame
}

// FlowSolver implements CSS normal flow, floats, inline layout, flexbox,
// basic tables and absolute positioning.
type FlowSolver struct{}

func (FlowSolver) Name() string { return "flow" }

// Solve lays out the whole tree.
func (FlowSolver) Solve(ctx *SolveContext) []Frame {
	p := newPass(ctx)
	p.run()
	return p.frames
}

// pass is the mutable state of one Solve call.
type pass struct {
	ctx    *SolveContext
	lt     *boxtree.LayoutTree
	frames []Frame
	shaper *text.Shaper
	diag   *diag.Collector
	cache  *cache.LayoutCache
	wm     geom.WritingMode
	icb    geom.LogicalSize

	intrinsics   map[tree.NodeID]cache.Intrinsic
	fingerprints map[tree.NodeID]uint64
	cacheable    map[tree.NodeID]bool
	// blockOverride holds border box block sizes imposed by a parent, such
	// as stretched flex items and table cells.
	blockOverride map[tree.NodeID]float32
}

func newPass(ctx *SolveContext) *pass {
	wm := ctx.WritingMode
	return &pass{
		ctx:          ctx,
		lt:           ctx.Tree,
		frames:       make([]Frame, ctx.Tree.Len()),
		shaper:       ctx.Shaper,
		diag:         ctx.Diag,
		cache:        ctx.Cache,
		wm:           wm,
		icb:          wm.SizeToLogical(ctx.Viewport.Size),
		intrinsics:   map[tree.NodeID]cache.Intrinsic{},
		fingerprints: map[tree.NodeID]uint64{},
		cacheable:    map[tree.NodeID]bool{},

		blockOverride: map[tree.NodeID]float32{},
	}
}

func (p *pass) box(id tree.NodeID) *boxtree.Box { return p.lt.Box(id) }

func (p *pass) run() {
	root := p.lt.Root
	if root == tree.None || !p.lt.Present(root) {
		return
	}
	f := &p.frames[root]
	p.setEdges(root, p.icb.Inline)
	width := p.blockInlineSize(root, p.icb.Inline)
	f.Origin = geom.LogicalPoint{Inline: f.Margin.InlineStart, Block: f.Margin.BlockStart}
	fc := newFloatContext()
	base := f.Origin.Add(f.contentOffset())
	p.layoutChild(root, width, p.icb.Block, true, fc, base)

	// Fixed boxes whose containing block is the viewport.
	for _, id := range p.lt.Viewport {
		p.layoutAbsolute(id, tree.None)
	}
	p.applyRelative(root)
}
