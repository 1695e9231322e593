package geom

import "math"

// Epsilon is the tolerance used for every float comparison in layout.
const Epsilon float32 = 0.01

// Approx reports whether a and b are equal within Epsilon.
func Approx(a, b float32) bool {
	return Abs(a-b) <= Epsilon
}

// LessOrApprox reports a <= b within Epsilon.
func LessOrApprox(a, b float32) bool {
	return a <= b+Epsilon
}

func Abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func Max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func Min(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// Clamp applies min then max the way CSS does: a max smaller than min loses.
func Clamp(v, lo, hi float32) float32 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// RoundHalfAway rounds to the nearest integer with halves away from zero.
func RoundHalfAway(v float32) float32 {
	return float32(math.Round(float64(v)))
}

// SnapRect rounds a rectangle's edges to device pixels at the given scale.
func SnapRect(r Rect, scale float32) Rect {
	if scale <= 0 {
		scale = 1
	}
	x0 := RoundHalfAway(r.X*scale) / scale
	y0 := RoundHalfAway(r.Y*scale) / scale
	x1 := RoundHalfAway((r.X+r.W)*scale) / scale
	y1 := RoundHalfAway((r.Y+r.H)*scale) / scale
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// -- Logical coordinates --

// LogicalPoint is a position in flow-relative coordinates.
type LogicalPoint struct {
	Inline float32 `json:"inline"`
	Block  float32 `json:"block"`
}

func (p LogicalPoint) Add(o LogicalPoint) LogicalPoint {
	return LogicalPoint{Inline: p.Inline + o.Inline, Block: p.Block + o.Block}
}

// LogicalSize is an extent in flow-relative coordinates.
type LogicalSize struct {
	Inline float32 `json:"inline"`
	Block  float32 `json:"block"`
}

// LogicalEdges holds the four flow-relative sides of a box edge.
type LogicalEdges struct {
	InlineStart float32 `json:"inline_start"`
	InlineEnd   float32 `json:"inline_end"`
	BlockStart  float32 `json:"block_start"`
	BlockEnd    float32 `json:"block_end"`
}

// InlineSum returns the total of both inline sides.
func (e LogicalEdges) InlineSum() float32 { return e.InlineStart + e.InlineEnd }

// BlockSum returns the total of both block sides.
func (e LogicalEdges) BlockSum() float32 { return e.BlockStart + e.BlockEnd }

// Add sums two edge sets side by side.
func (e LogicalEdges) Add(o LogicalEdges) LogicalEdges {
	return LogicalEdges{
		InlineStart: e.InlineStart + o.InlineStart,
		InlineEnd:   e.InlineEnd + o.InlineEnd,
		BlockStart:  e.BlockStart + o.BlockStart,
		BlockEnd:    e.BlockEnd + o.BlockEnd,
	}
}

// LogicalRect is a flow-relative rectangle.
type LogicalRect struct {
	Origin LogicalPoint `json:"origin"`
	Size   LogicalSize  `json:"size"`
}

func (r LogicalRect) InlineEnd() float32 { return r.Origin.Inline + r.Size.Inline }
func (r LogicalRect) BlockEnd() float32  { return r.Origin.Block + r.Size.Block }

// Deflate shrinks the rectangle by the given edges.
func (r LogicalRect) Deflate(e LogicalEdges) LogicalRect {
	return LogicalRect{
		Origin: LogicalPoint{Inline: r.Origin.Inline + e.InlineStart, Block: r.Origin.Block + e.BlockStart},
		Size: LogicalSize{
			Inline: Max(0, r.Size.Inline-e.InlineSum()),
			Block:  Max(0, r.Size.Block-e.BlockSum()),
		},
	}
}

// Inflate grows the rectangle by the given edges.
func (r LogicalRect) Inflate(e LogicalEdges) LogicalRect {
	return LogicalRect{
		Origin: LogicalPoint{Inline: r.Origin.Inline - e.InlineStart, Block: r.Origin.Block - e.BlockStart},
		Size:   LogicalSize{Inline: r.Size.Inline + e.InlineSum(), Block: r.Size.Block + e.BlockSum()},
	}
}

// -- Physical coordinates --

type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

type Size struct {
	W float32 `json:"w"`
	H float32 `json:"h"`
}

type Rect struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	W float32 `json:"w"`
	H float32 `json:"h"`
}

// Edges holds physical side widths.
type Edges struct {
	Top    float32 `json:"top"`
	Right  float32 `json:"right"`
	Bottom float32 `json:"bottom"`
	Left   float32 `json:"left"`
}

func (r Rect) Right() float32  { return r.X + r.W }
func (r Rect) Bottom() float32 { return r.Y + r.H }

// Empty reports a rectangle with no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Contains uses half-open edges so adjacent boxes never both claim a point.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Translate moves the rectangle by dx, dy.
func (r Rect) Translate(dx, dy float32) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Intersect returns the overlapping area, or a zero rect.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := Max(r.X, o.X), Max(r.Y, o.Y)
	x1, y1 := Min(r.Right(), o.Right()), Min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Union returns the bounding box of both rectangles. Empty inputs are ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0, y0 := Min(r.X, o.X), Min(r.Y, o.Y)
	x1, y1 := Max(r.Right(), o.Right()), Max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Inset shrinks the rectangle by the edges.
func (r Rect) Inset(e Edges) Rect {
	return Rect{
		X: r.X + e.Left,
		Y: r.Y + e.Top,
		W: Max(0, r.W-e.Left-e.Right),
		H: Max(0, r.H-e.Top-e.Bottom),
	}
}

// Outset grows the rectangle by the edges.
func (r Rect) Outset(e Edges) Rect {
	return Rect{X: r.X - e.Left, Y: r.Y - e.Top, W: r.W + e.Left + e.Right, H: r.H + e.Top + e.Bottom}
}

// -- Writing modes --

// WritingMode selects the mapping from logical to physical axes.
type WritingMode uint8

const (
	HorizontalTB WritingMode = iota
	VerticalRL
	VerticalLR
)

func (w WritingMode) String() string {
	switch w {
	case VerticalRL:
		return "vertical-rl"
	case VerticalLR:
		return "vertical-lr"
	default:
		return "horizontal-tb"
	}
}

// IsVertical reports whether the inline axis runs top to bottom.
func (w WritingMode) IsVertical() bool { return w != HorizontalTB }

// SizeToPhysical maps a logical size to width and height.
func (w WritingMode) SizeToPhysical(s LogicalSize) Size {
	if w.IsVertical() {
		return Size{W: s.Block, H: s.Inline}
	}
	return Size{W: s.Inline, H: s.Block}
}

// SizeToLogical is the inverse of SizeToPhysical.
func (w WritingMode) SizeToLogical(s Size) LogicalSize {
	if w.IsVertical() {
		return LogicalSize{Inline: s.H, Block: s.W}
	}
	return LogicalSize{Inline: s.W, Block: s.H}
}

// RectToPhysical converts a logical rectangle inside a container whose
// physical size is given. vertical-rl counts block offsets from the right.
func (w WritingMode) RectToPhysical(r LogicalRect, container Size) Rect {
	switch w {
	case VerticalLR:
		return Rect{X: r.Origin.Block, Y: r.Origin.Inline, W: r.Size.Block, H: r.Size.Inline}
	case VerticalRL:
		return Rect{X: container.W - r.Origin.Block - r.Size.Block, Y: r.Origin.Inline, W: r.Size.Block, H: r.Size.Inline}
	default:
		return Rect{X: r.Origin.Inline, Y: r.Origin.Block, W: r.Size.Inline, H: r.Size.Block}
	}
}

// PointToLogical maps a physical point into logical coordinates of a container.
func (w WritingMode) PointToLogical(p Point, container Size) LogicalPoint {
	switch w {
	case VerticalLR:
		return LogicalPoint{Inline: p.Y, Block: p.X}
	case VerticalRL:
		return LogicalPoint{Inline: p.Y, Block: container.W - p.X}
	default:
		return LogicalPoint{Inline: p.X, Block: p.Y}
	}
}

// EdgesToPhysical maps logical edges onto physical sides.
func (w WritingMode) EdgesToPhysical(e LogicalEdges) Edges {
	switch w {
	case VerticalLR:
		return Edges{Top: e.InlineStart, Bottom: e.InlineEnd, Left: e.BlockStart, Right: e.BlockEnd}
	case VerticalRL:
		return Edges{Top: e.InlineStart, Bottom: e.InlineEnd, Right: e.BlockStart, Left: e.BlockEnd}
	default:
		return Edges{Left: e.InlineStart, Right: e.InlineEnd, Top: e.BlockStart, Bottom: e.BlockEnd}
	}
}

// EdgesToLogical is the inverse of EdgesToPhysical.
func (w WritingMode) EdgesToLogical(e Edges) LogicalEdges {
	switch w {
	case VerticalLR:
		return LogicalEdges{InlineStart: e.Top, InlineEnd: e.Bottom, BlockStart: e.Left, BlockEnd: e.Right}
	case VerticalRL:
		return LogicalEdges{InlineStart: e.Top, InlineEnd: e.Bottom, BlockStart: e.Right, BlockEnd: e.Left}
	default:
		return LogicalEdges{InlineStart: e.Left, InlineEnd: e.Right, BlockStart: e.Top, BlockEnd: e.Bottom}
	}
}
