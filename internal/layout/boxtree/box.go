package boxtree

import (
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// Role is the layout role of a box, decided once by the builder.
type Role uint8

const (
	RoleBlock Role = iota
	RoleInline
	RoleInlineBlock
	RoleFlex
	RoleTable
	RoleTableRowGroup
	RoleTableRow
	RoleTableCell
	RoleTableCaption
	RoleFloatLeft
	RoleFloatRight
	RoleAbsolute
	RoleFixed
	RoleReplaced
	RoleText
	RoleLineBreak
)

var roleNames = [...]string{
	"block", "inline", "inline-block", "flex", "table", "table-row-group",
	"table-row", "table-cell", "table-caption", "float-left", "float-right",
	"absolute", "fixed", "replaced", "text", "line-break",
}

func (r Role) String() string { return roleNames[r] }

// Inner is the formatting context a box establishes for its children.
type Inner uint8

const (
	InnerFlow Inner = iota
	InnerFlex
	InnerTable
	InnerReplaced
	InnerNone
)

// Box is one slot of the layout tree. Slots below StyledLen mirror the
// styled node with the same id; later slots are anonymous boxes.
type Box struct {
	Present   bool
	Kind      tree.NodeKind
	Anonymous tree.AnonymousReason
	Role      Role
	Inner     Inner
	Style     *style.ComputedStyle
	Tag       string
	Text      string
	Image     style.ImageHandle
	Replaced  tree.ReplacedKind
	// Source is the styled node that caused this box; itself for
	// non-anonymous boxes.
	Source  tree.NodeID
	Version uint32

	Parent      tree.NodeID
	FirstChild  tree.NodeID
	LastChild   tree.NodeID
	PrevSibling tree.NodeID
	NextSibling tree.NodeID

	// ContainingBlock is set for absolute and fixed boxes: the box whose
	// padding box they resolve against, or tree.None for the viewport.
	ContainingBlock tree.NodeID
	// Positioned lists the out-of-flow boxes that use this box as their
	// containing block, in tree order.
	Positioned []tree.NodeID
}

// IsOutOfFlow reports absolute and fixed roles.
func (b *Box) IsOutOfFlow() bool { return b.Role == RoleAbsolute || b.Role == RoleFixed }

// IsFloat reports floated roles.
func (b *Box) IsFloat() bool { return b.Role == RoleFloatLeft || b.Role == RoleFloatRight }

// IsInlineLevel reports boxes that participate in an inline formatting context.
func (b *Box) IsInlineLevel() bool {
	switch b.Role {
	case RoleReplaced:
		return b.Style.OuterDisplay().IsInlineLevel()
	case RoleInline, RoleInlineBlock, RoleText, RoleLineBreak:
		return true
	}
	return false
}

// IsAtomicInline reports inline-level boxes laid out as a single unit.
func (b *Box) IsAtomicInline() bool {
	return b.Role == RoleInlineBlock || b.Role == RoleReplaced && b.IsInlineLevel()
}

// IsBlockLevel reports boxes that stack in a block formatting context.
func (b *Box) IsBlockLevel() bool {
	switch b.Role {
	case RoleReplaced:
		return !b.Style.OuterDisplay().IsInlineLevel()
	case RoleBlock, RoleFlex, RoleTable, RoleTableRowGroup, RoleTableRow, RoleTableCell, RoleTableCaption:
		return true
	}
	return false
}

// IsTablePart reports boxes that require a table ancestor.
func (b *Box) IsTablePart() bool {
	switch b.Role {
	case RoleTableRowGroup, RoleTableRow, RoleTableCell, RoleTableCaption:
		return true
	}
	return false
}

// EstablishesBFC reports whether the box starts a new block formatting
// context for its children.
func (b *Box) EstablishesBFC() bool {
	if b.Inner != InnerFlow {
		return b.Inner == InnerFlex || b.Inner == InnerTable
	}
	switch b.Role {
	case RoleInlineBlock, RoleFloatLeft, RoleFloatRight, RoleAbsolute, RoleFixed, RoleTableCell, RoleTableCaption, RoleFlex, RoleTable:
		return true
	}
	if b.Style.ClipsOverflow() {
		return true
	}
	return false
}

// LayoutTree is the arena produced by Build.
type LayoutTree struct {
	Boxes     []Box
	Root      tree.NodeID
	StyledLen int
	// Viewport lists fixed boxes whose containing block is the viewport.
	Viewport []tree.NodeID
}

func (t *LayoutTree) Box(id tree.NodeID) *Box { return &t.Boxes[id] }
func (t *LayoutTree) Len() int                { return len(t.Boxes) }

// Children returns child ids in tree order.
func (t *LayoutTree) Children(id tree.NodeID) []tree.NodeID {
	var out []tree.NodeID
	for c := t.Boxes[id].FirstChild; c != tree.None; c = t.Boxes[c].NextSibling {
		out = append(out, c)
	}
	return out
}

// Present reports whether id has a box.
func (t *LayoutTree) Present(id tree.NodeID) bool {
	return id >= 0 && int(id) < len(t.Boxes) && t.Boxes[id].Present
}

// Walk visits boxes in pre-order from id.
func (t *LayoutTree) Walk(id tree.NodeID, fn func(id tree.NodeID) bool) {
	if !fn(id) {
		return
	}
	for c := t.Boxes[id].FirstChild; c != tree.None; c = t.Boxes[c].NextSibling {
		t.Walk(c, fn)
	}
}

// HasAncestor reports whether anc is a strict ancestor of id.
func (t *LayoutTree) HasAncestor(id, anc tree.NodeID) bool {
	for p := t.Boxes[id].Parent; p != tree.None; p = t.Boxes[p].Parent {
		if p == anc {
			return true
		}
	}
	return false
}
