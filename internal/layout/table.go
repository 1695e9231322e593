package layout

import (
	"github.com/xkilldash9x/trellis/internal/layout/boxtree"
	"github.com/xkilldash9x/trellis/internal/layout/cache"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// tableGrid is the row and cell structure of a fixed-up table. Every cell
// spans exactly one column and one row.
type tableGrid struct {
	captions []tree.NodeID
	groups   []tableGroup
	columns  int
	// oof are out-of-flow boxes that sit directly in the table, a group or
	// a row.
	oof []tree.NodeID
}

type tableGroup struct {
	id   tree.NodeID
	rows []tableRow
}

type tableRow struct {
	id    tree.NodeID
	cells []tree.NodeID
}

func (p *pass) tableGridOf(id tree.NodeID) tableGrid {
	var g tableGrid
	for _, c := range p.lt.Children(id) {
		cb := p.box(c)
		switch {
		case cb.IsOutOfFlow():
			g.oof = append(g.oof, c)
		case cb.Role == boxtree.RoleTableCaption:
			g.captions = append(g.captions, c)
		case cb.Role == boxtree.RoleTableRowGroup:
			grp := tableGroup{id: c}
			for _, r := range p.lt.Children(c) {
				if p.box(r).IsOutOfFlow() {
					g.oof = append(g.oof, r)
					continue
				}
				row := tableRow{id: r}
				for _, cell := range p.lt.Children(r) {
					if p.box(cell).IsOutOfFlow() {
						g.oof = append(g.oof, cell)
						continue
					}
					row.cells = append(row.cells, cell)
				}
				g.columns = max(g.columns, len(row.cells))
				grp.rows = append(grp.rows, row)
			}
			g.groups = append(g.groups, grp)
		}
	}
	return g
}

// columnIntrinsics collects the min-content and max-content width of each
// column from its cells.
func (p *pass) columnIntrinsics(g *tableGrid) []cache.Intrinsic {
	cols := make([]cache.Intrinsic, g.columns)
	for _, grp := range g.groups {
		for _, row := range grp.rows {
			for i, cell := range row.cells {
				ci := p.intrinsic(cell)
				cols[i].Min = geom.Max(cols[i].Min, ci.Min)
				cols[i].Max = geom.Max(cols[i].Max, geom.Max(ci.Max, ci.Min))
			}
		}
	}
	return cols
}

// distributeColumns assigns column widths in two passes: every column gets
// its min-content width, then the space up to max-content is shared in
// proportion to each column's range, and any surplus in proportion to
// max-content.
func distributeColumns(cols []cache.Intrinsic, avail float32) []float32 {
	widths := make([]float32, len(cols))
	var sumMin, sumMax float32
	for _, c := range cols {
		sumMin += c.Min
		sumMax += c.Max
	}
	switch {
	case avail <= sumMin:
		for i, c := range cols {
			widths[i] = c.Min
		}
	case avail <= sumMax:
		k := (avail - sumMin) / (sumMax - sumMin)
		for i, c := range cols {
			widths[i] = c.Min + (c.Max-c.Min)*k
		}
	default:
		extra := avail - sumMax
		for i, c := range cols {
			if sumMax > 0 {
				widths[i] = c.Max + extra*c.Max/sumMax
			} else {
				widths[i] = extra / float32(len(cols))
			}
		}
	}
	return widths
}

// tableIntrinsic is the sum of the column widths, at least as wide as the
// widest caption.
func (p *pass) tableIntrinsic(id tree.NodeID) cache.Intrinsic {
	g := p.tableGridOf(id)
	var in cache.Intrinsic
	for _, c := range p.columnIntrinsics(&g) {
		in.Min += c.Min
		in.Max += c.Max
	}
	for _, c := range g.captions {
		ci := p.outerIntrinsic(c)
		in.Min = geom.Max(in.Min, ci.Min)
		in.Max = geom.Max(in.Max, ci.Min)
	}
	return in
}

// layoutTable places captions above the row groups, sizes rows to their
// tallest cell and stretches every cell to its row.
func (p *pass) layoutTable(id tree.NodeID, cbBlock float32, cbDef bool) {
	f := &p.frames[id]
	contentInline := f.contentSize().Inline
	bp := p.blockBP(id)
	g := p.tableGridOf(id)
	widths := distributeColumns(p.columnIntrinsics(&g), contentInline)

	var y float32
	for _, c := range g.captions {
		p.setEdges(c, contentInline)
		cf := &p.frames[c]
		w := p.blockInlineSize(c, contentInline)
		cf.Origin = geom.LogicalPoint{Inline: cf.Margin.InlineStart, Block: y + cf.Margin.BlockStart}
		p.layoutChild(c, w, 0, false, nil, geom.LogicalPoint{})
		y += cf.Size.Block + cf.Margin.BlockSum()
	}

	f.HasBaseline = false
	for _, grp := range g.groups {
		gf := &p.frames[grp.id]
		p.clearEdges(grp.id)
		gf.Origin = geom.LogicalPoint{Block: y}
		var gy float32
		for _, row := range grp.rows {
			rh := p.layoutTableRow(row, widths, contentInline)
			rf := &p.frames[row.id]
			rf.Origin = geom.LogicalPoint{Block: gy}
			if !f.HasBaseline && len(row.cells) > 0 {
				cf := &p.frames[row.cells[0]]
				if cf.HasBaseline {
					f.Baseline = f.Border.BlockStart + f.Padding.BlockStart + y + gy + cf.Baseline
					f.HasBaseline = true
				}
			}
			gy += rh
		}
		gf.Size = geom.LogicalSize{Inline: contentInline, Block: gy}
		gf.Laid = true
		p.layoutPositionedOf(grp.id)
		y += gf.Size.Block
	}
	f.LastBaseline = f.Baseline

	for _, c := range g.oof {
		p.frames[c].Static = geom.LogicalPoint{}
		if p.box(c).Parent == id {
			p.frames[c].Static.Block = y
		}
	}

	var used float32
	for _, w := range widths {
		used += w
	}
	f.ContentExtent = geom.LogicalSize{Inline: geom.Max(contentInline, used), Block: y}
	size := y + bp
	if spec, ok := p.specifiedBlock(id, cbBlock, cbDef); ok {
		size = geom.Max(size, spec)
	}
	f.Size.Block = p.clampBlock(id, size, cbBlock, cbDef)
}

// clearEdges zeroes the edges of rows and row groups, which take no
// margins, borders or padding in the separated borders model.
func (p *pass) clearEdges(id tree.NodeID) {
	f := &p.frames[id]
	f.Margin, f.Border, f.Padding = geom.LogicalEdges{}, geom.LogicalEdges{}, geom.LogicalEdges{}
}

// layoutTableRow lays out the cells of one row and returns the row height.
func (p *pass) layoutTableRow(row tableRow, widths []float32, contentInline float32) float32 {
	rf := &p.frames[row.id]
	p.clearEdges(row.id)

	var rh float32
	if spec, ok := p.specifiedBlock(row.id, 0, false); ok {
		rh = spec
	}
	var x float32
	for i, cell := range row.cells {
		cf := &p.frames[cell]
		p.setEdges(cell, contentInline)
		cf.Margin = geom.LogicalEdges{}
		delete(p.blockOverride, cell)
		cf.Origin = geom.LogicalPoint{Inline: x}
		p.layoutChild(cell, widths[i], 0, false, nil, geom.LogicalPoint{})
		rh = geom.Max(rh, cf.Size.Block)
		x += widths[i]
	}
	for i, cell := range row.cells {
		cf := &p.frames[cell]
		if geom.Approx(cf.Size.Block, rh) {
			continue
		}
		p.blockOverride[cell] = rh
		p.layoutChild(cell, widths[i], 0, false, nil, geom.LogicalPoint{})
	}
	rf.Size = geom.LogicalSize{Inline: contentInline, Block: rh}
	rf.Laid = true
	p.layoutPositionedOf(row.id)
	return rh
}
