package boxtree

import (
	"strings"

	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

type builder struct {
	src     *tree.StyledTree
	lt      *LayoutTree
	diag    *diag.Collector
	visited []bool
}

// Build turns a styled tree into a layout tree. It never fails: structural
// defects are dropped and reported through the collector.
func Build(src *tree.StyledTree, c *diag.Collector) *LayoutTree {
	n := src.Len()
	lt := &LayoutTree{Boxes: make([]Box, n, n+n/4+8), Root: tree.None, StyledLen: n}
	for i := range lt.Boxes {
		lt.Boxes[i] = emptyBox(tree.NodeID(i))
	}
	b := &builder{src: src, lt: lt, diag: c, visited: make([]bool, n)}

	for _, p := range src.Validate() {
		c.Warnf(diag.CodeInvalidTree, int32(p.Node), "%s", p.String())
	}

	root := src.Root()
	if !src.Contains(root) {
		return lt
	}
	b.visited[root] = true
	if !b.build(root, tree.None, root, tree.None) {
		return lt
	}
	lt.Root = root
	rb := lt.Box(root)
	switch rb.Role {
	case RoleInline, RoleInlineBlock, RoleFloatLeft, RoleFloatRight, RoleAbsolute, RoleFixed:
		rb.Role = RoleBlock
	}
	rb.ContainingBlock = tree.None
	return lt
}

func emptyBox(id tree.NodeID) Box {
	return Box{
		Source: id, Parent: tree.None, FirstChild: tree.None, LastChild: tree.None,
		PrevSibling: tree.None, NextSibling: tree.None, ContainingBlock: tree.None,
	}
}

func (b *builder) newAnonymous(reason tree.AnonymousReason, role Role, inner Inner, st *style.ComputedStyle, source tree.NodeID) tree.NodeID {
	id := tree.NodeID(len(b.lt.Boxes))
	box := emptyBox(source)
	box.Present = true
	box.Kind = tree.KindAnonymous
	box.Anonymous = reason
	box.Role = role
	box.Inner = inner
	box.Style = st
	b.lt.Boxes = append(b.lt.Boxes, box)
	return id
}

// roleFor decides role and inner context from computed style.
func roleFor(n *tree.Node) (Role, Inner) {
	st := n.Style
	switch n.Kind {
	case tree.KindText:
		return RoleText, InnerNone
	case tree.KindReplaced:
		return placedRole(st, RoleReplaced), InnerReplaced
	}
	if n.Tag == "br" {
		return RoleLineBreak, InnerNone
	}
	d := st.OuterDisplay()
	inner := InnerFlow
	switch d {
	case style.DisplayFlex, style.DisplayInlineFlex:
		inner = InnerFlex
	case style.DisplayTable, style.DisplayInlineTable:
		inner = InnerTable
	}
	var role Role
	switch d {
	case style.DisplayInline:
		role = RoleInline
	case style.DisplayInlineBlock, style.DisplayInlineFlex, style.DisplayInlineTable:
		role = RoleInlineBlock
	case style.DisplayFlex:
		role = RoleFlex
	case style.DisplayTable:
		role = RoleTable
	case style.DisplayTableRowGroup, style.DisplayTableHeaderGroup, style.DisplayTableFooterGroup:
		role = RoleTableRowGroup
	case style.DisplayTableRow:
		role = RoleTableRow
	case style.DisplayTableCell:
		role = RoleTableCell
	case style.DisplayTableCaption:
		role = RoleTableCaption
	default:
		role = RoleBlock
	}
	return placedRole(st, role), inner
}

// placedRole overrides the role for floats and out-of-flow boxes.
func placedRole(st *style.ComputedStyle, role Role) Role {
	switch {
	case st.Position == style.PositionAbsolute:
		return RoleAbsolute
	case st.Position == style.PositionFixed:
		return RoleFixed
	case st.Float == style.FloatLeft:
		return RoleFloatLeft
	case st.Float == style.FloatRight:
		return RoleFloatRight
	}
	return role
}

// build creates the box for id and its subtree. cbAbs is the containing
// block for absolute descendants, cbFixed for fixed ones (None = viewport).
func (b *builder) build(id, parent, cbAbs, cbFixed tree.NodeID) bool {
	n := b.src.Node(id)
	st := n.Style
	if st == nil {
		st = style.Initial()
	}
	if n.Kind != tree.KindText && st.Display == style.DisplayNone {
		return false
	}
	if st.Display == style.DisplayTableColumn || st.Display == style.DisplayTableColumnGroup {
		return false
	}

	box := b.lt.Box(id)
	box.Present = true
	box.Kind = n.Kind
	box.Style = st
	box.Tag = n.Tag
	box.Text = n.Text
	box.Image = n.Image
	box.Replaced = n.Replaced
	box.Version = n.Version
	box.Role, box.Inner = roleFor(n)
	box.Parent = parent

	switch {
	case parent == tree.None:
	case box.Role == RoleAbsolute:
		box.ContainingBlock = cbAbs
		b.lt.Box(cbAbs).Positioned = append(b.lt.Box(cbAbs).Positioned, id)
	case box.Role == RoleFixed:
		box.ContainingBlock = cbFixed
		if cbFixed == tree.None {
			b.lt.Viewport = append(b.lt.Viewport, id)
		} else {
			b.lt.Box(cbFixed).Positioned = append(b.lt.Box(cbFixed).Positioned, id)
		}
	}

	if n.Kind == tree.KindText {
		return true
	}

	childCbAbs, childCbFixed := cbAbs, cbFixed
	if st.Position.IsPositioned() || st.HasTransform() {
		childCbAbs = id
	}
	if st.HasTransform() {
		childCbFixed = id
	}

	var kids []tree.NodeID
	if g := st.Before; g != nil && box.Inner != InnerReplaced {
		if k, ok := b.generated(g, tree.AnonPseudoBefore, id, st); ok {
			kids = append(kids, k)
		}
	}
	for _, c := range b.src.ChildrenChecked(id, b.visited) {
		if n.Kind == tree.KindReplaced {
			continue
		}
		if b.build(c, id, childCbAbs, childCbFixed) {
			kids = append(kids, c)
		}
	}
	if g := st.After; g != nil && box.Inner != InnerReplaced {
		if k, ok := b.generated(g, tree.AnonPseudoAfter, id, st); ok {
			kids = append(kids, k)
		}
	}
	if box.Inner == InnerReplaced {
		return true
	}

	if box.Role == RoleInline && b.hasBlockLevel(kids) {
		b.diag.Infof(diag.CodeUnsupported, int32(id), "block inside inline <%s> treated as block", n.Tag)
		box.Role = RoleBlock
	}

	switch {
	case box.Inner == InnerTable:
		kids = b.fixTable(id, kids)
	case box.Role == RoleTableRowGroup:
		kids = b.fixRowGroup(id, kids)
	case box.Role == RoleTableRow:
		kids = b.fixRow(id, kids)
	case box.Inner == InnerFlex:
		kids = b.fixFlex(id, kids)
	case box.Role == RoleInline:
		kids = b.wrapStrayTableParts(id, kids)
	default:
		kids = b.wrapStrayTableParts(id, kids)
		kids = b.fixBlockContainer(id, kids)
	}
	b.setChildren(id, kids)
	return true
}

// generated materializes ::before or ::after content.
func (b *builder) generated(g *style.Generated, reason tree.AnonymousReason, owner tree.NodeID, parent *style.ComputedStyle) (tree.NodeID, bool) {
	if g.Text == "" && g.Image == 0 {
		return tree.None, false
	}
	st := g.Style
	if st == nil {
		st = style.AnonymousFrom(parent, style.DisplayInline)
	}
	if st.Display == style.DisplayNone {
		return tree.None, false
	}
	if g.Image != 0 {
		id := b.newAnonymous(reason, placedRole(st, RoleReplaced), InnerReplaced, st, owner)
		b.lt.Box(id).Image = g.Image
		return id, true
	}
	n := &tree.Node{Kind: tree.KindElement, Style: st}
	role, inner := roleFor(n)
	if role == RoleAbsolute || role == RoleFixed {
		b.diag.Infof(diag.CodeUnsupported, int32(owner), "positioned generated content laid out in flow")
		role = RoleInline
	}
	id := b.newAnonymous(reason, role, inner, st, owner)
	txt := b.newAnonymous(reason, RoleText, InnerNone, style.InheritFrom(st), owner)
	b.lt.Box(txt).Text = g.Text
	b.setChildren(id, []tree.NodeID{txt})
	if role == RoleBlock || role == RoleInlineBlock || role == RoleFloatLeft || role == RoleFloatRight {
		b.setChildren(id, b.fixBlockContainer(id, []tree.NodeID{txt}))
	}
	return id, true
}

func (b *builder) setChildren(parent tree.NodeID, kids []tree.NodeID) {
	p := b.lt.Box(parent)
	p.FirstChild, p.LastChild = tree.None, tree.None
	prev := tree.None
	for _, k := range kids {
		kb := b.lt.Box(k)
		kb.Parent = parent
		kb.PrevSibling = prev
		kb.NextSibling = tree.None
		if prev == tree.None {
			p.FirstChild = k
		} else {
			b.lt.Box(prev).NextSibling = k
		}
		prev = k
	}
	p.LastChild = prev
}

func (b *builder) hasBlockLevel(kids []tree.NodeID) bool {
	for _, k := range kids {
		if b.lt.Box(k).IsBlockLevel() {
			return true
		}
	}
	return false
}

func (b *builder) isCollapsibleWhitespace(id tree.NodeID) bool {
	box := b.lt.Box(id)
	if box.Role != RoleText {
		return false
	}
	if !box.Style.WhiteSpace.CollapsesSpaces() || box.Style.WhiteSpace == style.WhiteSpacePreLine && strings.Contains(box.Text, "\n") {
		return false
	}
	return strings.Trim(box.Text, " \t\n\r\f") == ""
}

// fixBlockContainer wraps runs of inline-level content in anonymous blocks
// when a container mixes block-level and inline-level children.
func (b *builder) fixBlockContainer(parent tree.NodeID, kids []tree.NodeID) []tree.NodeID {
	if !b.hasBlockLevel(kids) {
		return kids
	}
	pst := b.lt.Box(parent).Style
	var out, run []tree.NodeID
	flush := func() {
		if len(run) == 0 {
			return
		}
		inline := false
		for _, k := range run {
			kb := b.lt.Box(k)
			if kb.IsInlineLevel() && !b.isCollapsibleWhitespace(k) {
				inline = true
				break
			}
		}
		if !inline {
			// Only floats, out-of-flow boxes or collapsible whitespace:
			// keep the boxes, drop the whitespace.
			for _, k := range run {
				if !b.isCollapsibleWhitespace(k) {
					out = append(out, k)
				}
			}
			run = run[:0]
			return
		}
		wrap := b.newAnonymous(tree.AnonBlockWrapper, RoleBlock, InnerFlow, style.AnonymousFrom(pst, style.DisplayBlock), parent)
		b.setChildren(wrap, append([]tree.NodeID(nil), run...))
		out = append(out, wrap)
		run = run[:0]
	}
	for _, k := range kids {
		if b.lt.Box(k).IsBlockLevel() {
			flush()
			out = append(out, k)
			continue
		}
		run = append(run, k)
	}
	flush()
	return out
}

// fixFlex blockifies flex items: contiguous text becomes an anonymous block,
// inline-level boxes become blocks.
func (b *builder) fixFlex(parent tree.NodeID, kids []tree.NodeID) []tree.NodeID {
	pst := b.lt.Box(parent).Style
	var out, text []tree.NodeID
	flush := func() {
		if len(text) == 0 {
			return
		}
		allSpace := true
		for _, k := range text {
			if !b.isCollapsibleWhitespace(k) {
				allSpace = false
			}
		}
		if !allSpace {
			wrap := b.newAnonymous(tree.AnonBlockWrapper, RoleBlock, InnerFlow, style.AnonymousFrom(pst, style.DisplayBlock), parent)
			b.setChildren(wrap, append([]tree.NodeID(nil), text...))
			out = append(out, wrap)
		}
		text = text[:0]
	}
	for _, k := range kids {
		kb := b.lt.Box(k)
		switch kb.Role {
		case RoleText, RoleLineBreak:
			text = append(text, k)
			continue
		case RoleInline, RoleInlineBlock, RoleTableRowGroup, RoleTableRow, RoleTableCell, RoleTableCaption, RoleFloatLeft, RoleFloatRight:
			kb.Role = RoleBlock
			if kb.Inner == InnerFlow {
				b.setChildren(k, b.fixBlockContainer(k, b.lt.Children(k)))
			}
		case RoleReplaced:
			// Replaced flex items keep their role; they are sized as blocks.
		}
		flush()
		out = append(out, k)
	}
	flush()
	return out
}

func (b *builder) wrapIn(reason tree.AnonymousReason, role Role, inner Inner, display style.Display, parent tree.NodeID, kids []tree.NodeID) tree.NodeID {
	pst := b.lt.Box(parent).Style
	id := b.newAnonymous(reason, role, inner, style.AnonymousFrom(pst, display), parent)
	b.setChildren(id, append([]tree.NodeID(nil), kids...))
	return id
}

// fixTable groups a table's children: captions stay, stray rows get an
// anonymous row group, other content gets an anonymous row group and row.
func (b *builder) fixTable(table tree.NodeID, kids []tree.NodeID) []tree.NodeID {
	var out, rows, loose []tree.NodeID
	flushRows := func() {
		if len(rows) > 0 {
			out = append(out, b.wrapIn(tree.AnonTableRowGroup, RoleTableRowGroup, InnerFlow, style.DisplayTableRowGroup, table, rows))
			rows = rows[:0]
		}
	}
	flushLoose := func() {
		if len(loose) == 0 {
			return
		}
		row := b.wrapIn(tree.AnonTableRow, RoleTableRow, InnerFlow, style.DisplayTableRow, table, nil)
		b.setChildren(row, b.fixRow(row, loose))
		rows = append(rows, row)
		loose = loose[:0]
	}
	for _, k := range kids {
		kb := b.lt.Box(k)
		switch {
		case b.isCollapsibleWhitespace(k):
			continue
		case kb.Role == RoleTableCaption, kb.Role == RoleTableRowGroup, kb.IsOutOfFlow():
			flushLoose()
			flushRows()
			out = append(out, k)
		case kb.Role == RoleTableRow:
			flushLoose()
			rows = append(rows, k)
		default:
			loose = append(loose, k)
		}
	}
	flushLoose()
	flushRows()
	return out
}

// fixRowGroup wraps non-row children of a row group in anonymous rows.
func (b *builder) fixRowGroup(group tree.NodeID, kids []tree.NodeID) []tree.NodeID {
	var out, loose []tree.NodeID
	flush := func() {
		if len(loose) == 0 {
			return
		}
		row := b.wrapIn(tree.AnonTableRow, RoleTableRow, InnerFlow, style.DisplayTableRow, group, nil)
		b.setChildren(row, b.fixRow(row, loose))
		out = append(out, row)
		loose = loose[:0]
	}
	for _, k := range kids {
		kb := b.lt.Box(k)
		switch {
		case b.isCollapsibleWhitespace(k):
		case kb.Role == RoleTableRow || kb.IsOutOfFlow():
			flush()
			out = append(out, k)
		default:
			loose = append(loose, k)
		}
	}
	flush()
	return out
}

// fixRow wraps consecutive non-cell children of a row in anonymous cells.
func (b *builder) fixRow(row tree.NodeID, kids []tree.NodeID) []tree.NodeID {
	var out, loose []tree.NodeID
	flush := func() {
		if len(loose) == 0 {
			return
		}
		cell := b.wrapIn(tree.AnonTableCell, RoleTableCell, InnerFlow, style.DisplayTableCell, row, loose)
		b.setChildren(cell, b.fixBlockContainer(cell, loose))
		out = append(out, cell)
		loose = loose[:0]
	}
	for _, k := range kids {
		kb := b.lt.Box(k)
		switch {
		case b.isCollapsibleWhitespace(k) && len(loose) == 0:
		case kb.Role == RoleTableCell || kb.IsOutOfFlow():
			flush()
			out = append(out, k)
		default:
			loose = append(loose, k)
		}
	}
	flush()
	return out
}

// wrapStrayTableParts gives table-internal boxes outside a table an
// anonymous table parent.
func (b *builder) wrapStrayTableParts(parent tree.NodeID, kids []tree.NodeID) []tree.NodeID {
	var out, run []tree.NodeID
	flush := func() {
		if len(run) == 0 {
			return
		}
		table := b.wrapIn(tree.AnonTable, RoleTable, InnerTable, style.DisplayTable, parent, nil)
		b.setChildren(table, b.fixTable(table, run))
		out = append(out, table)
		run = run[:0]
	}
	for _, k := range kids {
		kb := b.lt.Box(k)
		if kb.IsTablePart() {
			run = append(run, k)
			continue
		}
		if len(run) > 0 && b.isCollapsibleWhitespace(k) {
			continue
		}
		flush()
		out = append(out, k)
	}
	flush()
	return out
}
