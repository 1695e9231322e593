package layout

import (
	"github.com/xkilldash9x/trellis/internal/layout/cache"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// fingerprint hashes everything that can change the layout of the subtree
// at id: roles, layout-affecting style, text, images and the fingerprints
// of every child.
func (p *pass) fingerprint(id tree.NodeID) uint64 {
	if v, ok := p.fingerprints[id]; ok {
		return v
	}
	b := p.box(id)
	h := style.NewHasher()
	h.U32(uint32(id))
	h.U8(uint8(b.Role))
	h.U8(uint8(b.Inner))
	h.U8(uint8(b.Kind))
	h.U32(b.Version)
	if b.Style != nil {
		h.U64(b.Style.LayoutHash())
	}
	h.String(b.Text)
	h.U64(uint64(b.Image))
	h.U8(uint8(b.Replaced))
	if b.Image != 0 && p.ctx.Images != nil {
		sz, ok := p.ctx.Images.IntrinsicSize(b.Image)
		h.Bool(ok)
		h.F32(sz.W)
		h.F32(sz.H)
	}
	for c := b.FirstChild; c != tree.None; c = p.box(c).NextSibling {
		h.U64(p.fingerprint(c))
	}
	v := h.Sum()
	p.fingerprints[id] = v
	return v
}

// isCacheable reports whether the subtree at id can be laid out on its
// own: no out-of-flow box inside it resolves against a box outside it.
func (p *pass) isCacheable(id tree.NodeID) bool {
	if v, ok := p.cacheable[id]; ok {
		return v
	}
	ok := true
	p.lt.Walk(id, func(d tree.NodeID) bool {
		if !ok {
			return false
		}
		b := p.box(d)
		if b.IsOutOfFlow() && !p.within(b.ContainingBlock, id) {
			ok = false
		}
		return ok
	})
	p.cacheable[id] = ok
	return ok
}

// within reports whether d is root or one of its descendants.
func (p *pass) within(d, root tree.NodeID) bool {
	for ; d != tree.None; d = p.box(d).Parent {
		if d == root {
			return true
		}
	}
	return false
}

// subtreeKey builds the cache key of a formatting context root laid out
// with the given inline size and containing block.
func (p *pass) subtreeKey(id tree.NodeID, inline, cbBlock float32, cbDef bool) (cache.SubtreeKey, bool) {
	if !p.cache.Enabled() || !p.box(id).EstablishesBFC() || !p.isCacheable(id) {
		return cache.SubtreeKey{}, false
	}
	f := &p.frames[id]
	h := style.NewHasher()
	h.U64(p.fingerprint(id))
	// Percentage edges and imposed block sizes are decided by the parent.
	h.F32(f.cbInline)
	if v, ok := p.blockOverride[id]; ok {
		h.Bool(true)
		h.F32(v)
	}
	return cache.SubtreeKey{
		Fingerprint:   h.Sum(),
		Available:     inline,
		BlockSize:     cbBlock,
		DefiniteBlock: cbDef,
		WritingMode:   p.wm,
		Viewport:      p.ctx.Viewport.Size,
	}, true
}

// subtreeFrames is the cached result of laying out a subtree. The first
// entry is the root.
type subtreeFrames struct {
	ids    []tree.NodeID
	frames []Frame
}

// restoreSubtree copies a cached layout into the pass. The root keeps the
// position and margins its parent gave it.
func (p *pass) restoreSubtree(id tree.NodeID, key cache.SubtreeKey) bool {
	v, ok := p.cache.Subtree(key)
	if !ok {
		return false
	}
	st, ok := v.(*subtreeFrames)
	if !ok || len(st.ids) == 0 || st.ids[0] != id {
		return false
	}
	for i, d := range st.ids[1:] {
		p.frames[d] = st.frames[i+1]
	}
	src := st.frames[0]
	f := &p.frames[id]
	f.Size = src.Size
	f.Border, f.Padding = src.Border, src.Padding
	f.Lines = src.Lines
	f.Baseline, f.LastBaseline, f.HasBaseline = src.Baseline, src.LastBaseline, src.HasBaseline
	f.ContentExtent = src.ContentExtent
	f.Laid = true
	return true
}

// storeSubtree snapshots the frames of the subtree at id.
func (p *pass) storeSubtree(id tree.NodeID, key cache.SubtreeKey) {
	var st subtreeFrames
	p.lt.Walk(id, func(d tree.NodeID) bool {
		st.ids = append(st.ids, d)
		st.frames = append(st.frames, p.frames[d])
		return true
	})
	p.cache.StoreSubtree(key, &st)
}
