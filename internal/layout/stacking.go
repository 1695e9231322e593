package layout

import (
	"sort"

	"github.com/xkilldash9x/trellis/internal/layout/boxtree"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// layer is a positioned box or stacking context root painted apart from
// normal flow, ordered by z within its stacking context.
type layer struct {
	id tree.NodeID
	z  int32
}

// isContext reports whether id roots a stacking context.
func isContext(lt *boxtree.LayoutTree, id tree.NodeID) bool {
	if id == lt.Root {
		return true
	}
	st := lt.Box(id).Style
	return st != nil && st.CreatesStackingContext()
}

// isLayer reports whether id paints as a layer instead of in flow.
func isLayer(lt *boxtree.LayoutTree, id tree.NodeID) bool {
	if id == lt.Root {
		return false
	}
	st := lt.Box(id).Style
	if st == nil {
		return false
	}
	return st.Position.IsPositioned() || st.CreatesStackingContext()
}

func zOf(lt *boxtree.LayoutTree, id tree.NodeID) int32 {
	st := lt.Box(id).Style
	if st == nil || st.ZIndex.Auto || !st.Position.IsPositioned() {
		return 0
	}
	return st.ZIndex.Value
}

// collectLayers returns the layers that paint in the stacking context
// rooted at ctx, sorted by z and then tree order. Layers that are not
// contexts are descended into; their own layers belong to ctx.
func collectLayers(lt *boxtree.LayoutTree, frames []Frame, ctx tree.NodeID) []layer {
	var out []layer
	var walk func(id tree.NodeID)
	walk = func(id tree.NodeID) {
		for _, c := range lt.Children(id) {
			if !frames[c].Laid {
				continue
			}
			if isLayer(lt, c) {
				out = append(out, layer{id: c, z: zOf(lt, c)})
				if isContext(lt, c) {
					continue
				}
			}
			walk(c)
		}
	}
	walk(ctx)
	sort.SliceStable(out, func(i, j int) bool { return out[i].z < out[j].z })
	return out
}

// assignContexts records for every box the stacking context it paints in.
// A context root paints in its parent's context; the root paints in its own.
func assignContexts(lt *boxtree.LayoutTree) []tree.NodeID {
	out := make([]tree.NodeID, lt.Len())
	for i := range out {
		out[i] = tree.None
	}
	root := lt.Root
	if root == tree.None {
		return out
	}
	var walk func(id, ctx tree.NodeID)
	walk = func(id, ctx tree.NodeID) {
		out[id] = ctx
		next := ctx
		if isContext(lt, id) {
			next = id
		}
		for _, c := range lt.Children(id) {
			walk(c, next)
		}
	}
	walk(root, root)
	return out
}

// clippedBy reports whether the overflow clip of a applies to d: a lies on
// the chain of containing blocks from d upwards.
func clippedBy(lt *boxtree.LayoutTree, d, a tree.NodeID) bool {
	for x := d; x != tree.None; {
		b := lt.Box(x)
		if b.IsOutOfFlow() {
			x = b.ContainingBlock
		} else {
			x = b.Parent
		}
		if x == a {
			return true
		}
	}
	return false
}
