package text

import (
	"math"
)

// NodeKind is the Knuth-Plass item type.
type NodeKind uint8

const (
	NodeBox NodeKind = iota
	NodeGlue
	NodePenalty
)

// Infinity is the penalty magnitude that forbids (+) or forces (-) a break.
const Infinity float32 = 10000

// Node is one box, glue or penalty of the paragraph model. Fill marks the
// finishing glue that stretches without limit.
type Node struct {
	Kind    NodeKind
	Width   float32
	Stretch float32
	Shrink  float32
	Penalty float32
	Flagged bool
	Fill    bool

	// Item and Range map the node back onto paragraph content.
	Item  int
	Range ByteRange
}

// Forced reports a mandatory break.
func (n Node) Forced() bool { return n.Kind == NodePenalty && n.Penalty <= -Infinity }

// BreakParams tune the line breaker.
type BreakParams struct {
	// Tolerance is the maximum badness accepted in the first pass.
	Tolerance       float64
	LinePenalty     float64
	FlaggedDemerits float64
	FitnessDemerits float64
}

// DefaultBreakParams mirror TeX's plain format.
func DefaultBreakParams() BreakParams {
	return BreakParams{Tolerance: 200, LinePenalty: 10, FlaggedDemerits: 3000, FitnessDemerits: 100}
}

type activeNode struct {
	position int
	line     int
	fitness  int
	width    float32
	stretch  float32
	shrink   float32
	fill     int
	demerits float64
	prev     *activeNode
	overfull bool
}

type sums struct {
	width, stretch, shrink float32
	fill                   int
}

// LineWidthFunc returns the available width of line i (zero based).
type LineWidthFunc func(line int) float32

// BreakResult lists chosen break positions (node indices) and whether any
// line had to overflow its width.
type BreakResult struct {
	Breaks   []int
	Overfull []bool
}

// BreakLines runs Knuth-Plass over nodes. The last node must be a forced
// penalty. A first pass honors params.Tolerance; if no feasible set exists
// a second pass accepts any badness and lets unbreakable material overflow.
func BreakLines(nodes []Node, widths LineWidthFunc, params BreakParams) BreakResult {
	if res, ok := breakPass(nodes, widths, params, false); ok {
		return res
	}
	res, _ := breakPass(nodes, widths, params, true)
	return res
}

func (a *activeNode) ratio(total sums, nodes []Node, b int, width float32) float64 {
	l := total.width - a.width
	if nodes[b].Kind == NodePenalty {
		l += nodes[b].Width
	}
	switch {
	case l < width:
		if total.fill-a.fill > 0 {
			return 0
		}
		y := total.stretch - a.stretch
		if y <= 0 {
			return math.Inf(1)
		}
		return float64((width - l) / y)
	case l > width:
		z := total.shrink - a.shrink
		if z <= 0 {
			if l-width <= 0.01 {
				return 0
			}
			return math.Inf(-1)
		}
		return float64((width - l) / z)
	}
	return 0
}

func fitnessClass(r float64) int {
	switch {
	case r < -0.5:
		return 0
	case r <= 0.5:
		return 1
	case r <= 1:
		return 2
	}
	return 3
}

func breakPass(nodes []Node, widths LineWidthFunc, params BreakParams, emergency bool) (BreakResult, bool) {
	active := []*activeNode{{position: -1, fitness: 1}}
	var total sums

	// sumAfter returns the running totals from break b up to the next box,
	// skipping discardable glue and penalties.
	sumAfter := func(b int) sums {
		s := total
		for i := b; i < len(nodes); i++ {
			n := nodes[i]
			switch n.Kind {
			case NodeBox:
				return s
			case NodeGlue:
				s.width += n.Width
				s.stretch += n.Stretch
				s.shrink += n.Shrink
				if n.Fill {
					s.fill++
				}
			default:
				if n.Forced() && i > b {
					return s
				}
			}
		}
		return s
	}

	for b, n := range nodes {
		legal := false
		switch n.Kind {
		case NodeBox:
			total.width += n.Width
		case NodeGlue:
			legal = b > 0 && nodes[b-1].Kind == NodeBox
		case NodePenalty:
			legal = n.Penalty < Infinity
		}

		if legal {
			var candidates [4]*activeNode
			var deactivated []*activeNode
			kept := active[:0:0]
			for _, a := range active {
				r := a.ratio(total, nodes, b, widths(a.line))
				if r < -1 || n.Forced() {
					deactivated = append(deactivated, a)
				} else {
					kept = append(kept, a)
				}
				if r < -1 {
					continue
				}
				badness := 100 * math.Pow(math.Abs(r), 3)
				if math.IsInf(r, 1) {
					badness = math.Inf(1)
				}
				if badness > params.Tolerance && !emergency {
					continue
				}
				if math.IsInf(badness, 1) {
					badness = 1e8
				}
				d := params.LinePenalty + badness
				d *= d
				p := float64(n.Penalty)
				switch {
				case n.Kind == NodePenalty && p >= 0:
					d += p * p
				case n.Kind == NodePenalty && p > -float64(Infinity):
					d -= p * p
				}
				if n.Kind == NodePenalty && n.Flagged && a.position >= 0 && nodes[a.position].Kind == NodePenalty && nodes[a.position].Flagged {
					d += params.FlaggedDemerits
				}
				fc := fitnessClass(r)
				if a.position >= 0 && absInt(fc-a.fitness) > 1 {
					d += params.FitnessDemerits
				}
				d += a.demerits
				if c := candidates[fc]; c == nil || d < c.demerits {
					candidates[fc] = &activeNode{position: b, line: a.line + 1, fitness: fc, demerits: d, prev: a}
				}
			}
			active = kept
			after := sumAfter(b)
			added := false
			for _, c := range candidates {
				if c == nil {
					continue
				}
				c.width, c.stretch, c.shrink, c.fill = after.width, after.stretch, after.shrink, after.fill
				active = append(active, c)
				added = true
			}
			if len(active) == 0 && !added {
				if !emergency {
					return BreakResult{}, false
				}
				// Every candidate overflows: break after the overflowing
				// material, starting from the latest surviving break.
				best := deactivated[0]
				for _, a := range deactivated[1:] {
					if a.position > best.position || (a.position == best.position && a.demerits < best.demerits) {
						best = a
					}
				}
				active = append(active, &activeNode{
					position: b, line: best.line + 1, fitness: 1, demerits: best.demerits + 1e8,
					prev: best, overfull: true,
					width: after.width, stretch: after.stretch, shrink: after.shrink, fill: after.fill,
				})
			}
		}

		if n.Kind == NodeGlue {
			total.width += n.Width
			total.stretch += n.Stretch
			total.shrink += n.Shrink
			if n.Fill {
				total.fill++
			}
		}
	}

	if len(active) == 0 {
		return BreakResult{}, false
	}
	best := active[0]
	for _, a := range active[1:] {
		if a.demerits < best.demerits {
			best = a
		}
	}
	var res BreakResult
	for a := best; a != nil && a.position >= 0; a = a.prev {
		res.Breaks = append(res.Breaks, a.position)
		res.Overfull = append(res.Overfull, a.overfull)
	}
	for i, j := 0, len(res.Breaks)-1; i < j; i, j = i+1, j-1 {
		res.Breaks[i], res.Breaks[j] = res.Breaks[j], res.Breaks[i]
		res.Overfull[i], res.Overfull[j] = res.Overfull[j], res.Overfull[i]
	}
	return res, true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
