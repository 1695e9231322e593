package hittest

import (
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// Clip is one clip region in effect for an entry, in the coordinate space
// reached through Inverse.
type Clip struct {
	Rect    geom.Rect
	Inverse geom.Matrix
}

// Entry is one hit target. Rect is the node's padding box in its local
// space; Inverse maps document coordinates into that space.
type Entry struct {
	Node    tree.NodeID
	Rect    geom.Rect
	Inverse geom.Matrix
	Clips   []Clip
	// Context is the stacking context root the entry was painted in.
	Context tree.NodeID
}

func (e *Entry) contains(p geom.Point) bool {
	for _, c := range e.Clips {
		if !c.Rect.Contains(c.Inverse.Apply(p)) {
			return false
		}
	}
	return e.Rect.Contains(e.Inverse.Apply(p))
}

// Index holds entries in paint order. Later entries are on top.
type Index struct {
	Entries []Entry
}

// New returns an empty index.
func New() *Index { return &Index{} }

// Add appends an entry above everything added before.
func (ix *Index) Add(e Entry) { ix.Entries = append(ix.Entries, e) }

func (ix *Index) Len() int { return len(ix.Entries) }

// Hit returns the topmost node whose padding box contains p. Nodes with
// pointer-events: none are never added, so they are transparent here.
func (ix *Index) Hit(p geom.Point) (tree.NodeID, bool) {
	if ix == nil {
		return tree.None, false
	}
	for i := len(ix.Entries) - 1; i >= 0; i-- {
		if ix.Entries[i].contains(p) {
			return ix.Entries[i].Node, true
		}
	}
	return tree.None, false
}

// HitAll returns every node under p, topmost first.
func (ix *Index) HitAll(p geom.Point) []tree.NodeID {
	if ix == nil {
		return nil
	}
	var out []tree.NodeID
	for i := len(ix.Entries) - 1; i >= 0; i-- {
		if ix.Entries[i].contains(p) {
			out = append(out, ix.Entries[i].Node)
		}
	}
	return out
}
