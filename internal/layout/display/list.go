package display

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// ErrUnbalanced is returned by Validate when pushes and pops do not nest.
var ErrUnbalanced = errors.New("display list stack is unbalanced")

// List is the ordered output of a layout pass.
type List struct {
	Items []Item
}

func (l *List) Len() int { return len(l.Items) }

// Count returns the number of items of kind k.
func (l *List) Count(k Kind) int {
	n := 0
	for _, it := range l.Items {
		if it.Kind() == k {
			n++
		}
	}
	return n
}

// Validate checks that every pop closes the most recent open push of the
// same kind and that nothing is left open.
func (l *List) Validate() error {
	var stack []Kind
	for i, it := range l.Items {
		k := it.Kind()
		switch {
		case k.IsPush():
			stack = append(stack, k)
		case k.IsPop():
			if len(stack) == 0 || stack[len(stack)-1] != pairOf(k) {
				return fmt.Errorf("%w: %s at item %d", ErrUnbalanced, k, i)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("%w: %d left open", ErrUnbalanced, len(stack))
	}
	return nil
}

// Bounds is the union of drawing item bounds, ignoring transforms.
func (l *List) Bounds() geom.Rect {
	var out geom.Rect
	first := true
	for _, it := range l.Items {
		k := it.Kind()
		if k.IsPush() || k.IsPop() {
			continue
		}
		if first {
			out, first = it.Bounds(), false
			continue
		}
		out = out.Union(it.Bounds())
	}
	return out
}

// Window returns the part of the list visible through view, translated so
// view's origin maps to (0, 0). Drawing items outside the view are dropped
// when no transform is in effect; stack items are kept so the result stays
// balanced.
func (l *List) Window(view geom.Rect) *List {
	out := &List{Items: make([]Item, 0, len(l.Items)+4)}
	out.Items = append(out.Items,
		PushTransform{Node: tree.None, Matrix: geom.Translate(-view.X, -view.Y)},
		PushClip{Node: tree.None, Rect: view},
	)
	transforms := 0
	for _, it := range l.Items {
		switch it.Kind() {
		case KindPushTransform:
			transforms++
		case KindPopTransform:
			transforms--
		case KindPushClip, KindPopClip, KindPushOpacity, KindPopOpacity:
		default:
			if transforms == 0 && it.Bounds().Intersect(view).Empty() {
				continue
			}
		}
		out.Items = append(out.Items, it)
	}
	out.Items = append(out.Items, PopClip{Node: tree.None}, PopTransform{Node: tree.None})
	return out
}

// Mark records the builder state at the start of a fragment.
type Mark struct {
	items int
	depth int
	node  tree.NodeID
}

// Builder appends items while tracking the push/pop stack. Drawing rects
// are snapped to device pixels once, here.
type Builder struct {
	items []Item
	open  []Item
	scale float32
	debug bool
	diag  *diag.Collector
}

// NewBuilder returns a builder snapping at scale. With debug set, stack
// misuse panics instead of being repaired.
func NewBuilder(scale float32, debug bool, c *diag.Collector) *Builder {
	if scale <= 0 {
		scale = 1
	}
	return &Builder{scale: scale, debug: debug, diag: c}
}

// Depth is the number of open pushes.
func (b *Builder) Depth() int { return len(b.open) }

// Draw appends a drawing item.
func (b *Builder) Draw(it Item) {
	switch v := it.(type) {
	case Rectangle:
		v.Rect = b.snap(v.Rect)
		it = v
	case Border:
		v.Rect = b.snap(v.Rect)
		it = v
	case BoxShadow:
		v.Rect = b.snap(v.Rect)
		it = v
	case Image:
		v.Rect = b.snap(v.Rect)
		it = v
	}
	b.items = append(b.items, it)
}

func (b *Builder) snap(r geom.Rect) geom.Rect { return geom.SnapRect(r, b.scale) }

// PushClip opens a clip.
func (b *Builder) PushClip(c PushClip) {
	c.Rect = b.snap(c.Rect)
	b.push(c)
}

func (b *Builder) PushTransform(t PushTransform) { b.push(t) }
func (b *Builder) PushOpacity(o PushOpacity)     { b.push(o) }

func (b *Builder) push(it Item) {
	b.items = append(b.items, it)
	b.open = append(b.open, it)
}

// Pop closes the innermost push. k is the pop kind and must pair with the
// open push.
func (b *Builder) Pop(k Kind) {
	n := len(b.open)
	if n == 0 || !k.IsPop() || b.open[n-1].Kind() != pairOf(k) {
		msg := fmt.Sprintf("%s does not match the open stack (depth %d)", k, n)
		if b.debug {
			panic(msg)
		}
		b.diag.Errorf(diag.CodeUnbalancedClip, -1, "%s", msg)
		return
	}
	b.items = append(b.items, popFor(b.open[n-1]))
	b.open = b.open[:n-1]
}

// Begin marks the start of a fragment owned by node.
func (b *Builder) Begin(node tree.NodeID) Mark {
	return Mark{items: len(b.items), depth: len(b.open), node: node}
}

// End checks that the fragment left the stack as it found it. An
// unbalanced fragment panics in debug mode; otherwise the fragment's items
// are dropped and a message is logged.
func (b *Builder) End(m Mark) {
	if len(b.open) == m.depth {
		return
	}
	msg := fmt.Sprintf("fragment for node %d left %d stack entries open", m.node, len(b.open)-m.depth)
	if b.debug {
		panic(msg)
	}
	if len(b.open) < m.depth {
		// Pops escaped the fragment; there is nothing safe to keep.
		b.diag.Errorf(diag.CodeUnbalancedClip, int32(m.node), "%s", msg)
		return
	}
	b.items = b.items[:m.items]
	b.open = b.open[:m.depth]
	b.diag.Errorf(diag.CodeUnbalancedClip, int32(m.node), "%s; fragment dropped", msg)
}

// Finish closes anything left open and returns the list.
func (b *Builder) Finish() *List {
	if n := len(b.open); n > 0 {
		if b.debug {
			panic(fmt.Sprintf("display list finished with %d open entries", n))
		}
		b.diag.Errorf(diag.CodeUnbalancedClip, -1, "display list finished with %d open entries", n)
		for i := n - 1; i >= 0; i-- {
			b.items = append(b.items, popFor(b.open[i]))
		}
		b.open = nil
	}
	b.diag.Logger().Debug("display list built", zap.Int("items", len(b.items)))
	return &List{Items: b.items}
}
