package tree

import (
	"github.com/xkilldash9x/trellis/internal/layout/style"
)

// NodeID indexes a node in the arena. Layout boxes share the same space.
type NodeID int32

// None marks an absent link.
const None NodeID = -1

// Valid reports whether the id refers to a slot.
func (id NodeID) Valid() bool { return id >= 0 }

type NodeKind uint8

const (
	KindElement NodeKind = iota
	KindText
	KindReplaced
	KindAnonymous
)

func (k NodeKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindReplaced:
		return "replaced"
	case KindAnonymous:
		return "anonymous"
	default:
		return "element"
	}
}

type ReplacedKind uint8

const (
	ReplacedImage ReplacedKind = iota
	ReplacedIframe
)

// AnonymousReason records why the tree builder synthesized a box.
type AnonymousReason uint8

const (
	AnonBlockWrapper AnonymousReason = iota
	AnonTable
	AnonTableRowGroup
	AnonTableRow
	AnonTableCell
	AnonPseudoBefore
	AnonPseudoAfter
)

func (r AnonymousReason) String() string {
	return [...]string{"block-wrapper", "table", "table-row-group", "table-row", "table-cell", "::before", "::after"}[r]
}

// Node is one arena slot. Links are indices, never pointers.
type Node struct {
	Kind      NodeKind
	Tag       string
	ElementID string
	Text      string
	Replaced  ReplacedKind
	Image     style.ImageHandle
	Anonymous AnonymousReason
	Style     *style.ComputedStyle

	Parent      NodeID
	FirstChild  NodeID
	LastChild   NodeID
	PrevSibling NodeID
	NextSibling NodeID

	// Version increments on every mutation of this node.
	Version uint32
}

// StyledTree is the immutable-per-pass input document. Mutations happen
// between passes.
type StyledTree struct {
	nodes      []Node
	root       NodeID
	generation uint64
}

func New() *StyledTree {
	return &StyledTree{root: None}
}

func (t *StyledTree) add(n Node) NodeID {
	if n.Style == nil {
		n.Style = style.Initial()
	}
	n.Parent, n.FirstChild, n.LastChild, n.PrevSibling, n.NextSibling = None, None, None, None, None
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
	if t.root == None {
		t.root = id
	}
	t.generation++
	return id
}

// AddElement appends a detached element. The first node added becomes root.
func (t *StyledTree) AddElement(tag string, st *style.ComputedStyle) NodeID {
	return t.add(Node{Kind: KindElement, Tag: tag, Style: st})
}

// AddText appends a detached text node.
func (t *StyledTree) AddText(text string, st *style.ComputedStyle) NodeID {
	return t.add(Node{Kind: KindText, Text: text, Style: st})
}

// AddReplaced appends a detached replaced element (image or iframe).
func (t *StyledTree) AddReplaced(kind ReplacedKind, image style.ImageHandle, st *style.ComputedStyle) NodeID {
	tag := "img"
	if kind == ReplacedIframe {
		tag = "iframe"
	}
	return t.add(Node{Kind: KindReplaced, Tag: tag, Replaced: kind, Image: image, Style: st})
}

// AddNode appends a copy of n with its links cleared. Used by loaders that
// fill in several fields at once.
func (t *StyledTree) AddNode(n Node) NodeID {
	return t.add(n)
}

func (t *StyledTree) SetRoot(id NodeID) { t.root = id }
func (t *StyledTree) Root() NodeID      { return t.root }
func (t *StyledTree) Len() int          { return len(t.nodes) }

// Generation changes whenever anything in the tree changes.
func (t *StyledTree) Generation() uint64 { return t.generation }

// Contains reports whether id is inside the arena.
func (t *StyledTree) Contains(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Node returns the slot for id. Callers must not mutate it.
func (t *StyledTree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Style is shorthand for Node(id).Style.
func (t *StyledTree) Style(id NodeID) *style.ComputedStyle {
	return t.nodes[id].Style
}

// Children returns the child ids of id in document order.
func (t *StyledTree) Children(id NodeID) []NodeID {
	var out []NodeID
	for c := t.nodes[id].FirstChild; c != None; c = t.nodes[c].NextSibling {
		out = append(out, c)
		if len(out) > len(t.nodes) {
			break
		}
	}
	return out
}

func (t *StyledTree) touch(id NodeID) {
	t.nodes[id].Version++
	t.generation++
}

func (t *StyledTree) detach(child NodeID) {
	n := &t.nodes[child]
	if n.Parent == None {
		return
	}
	p := &t.nodes[n.Parent]
	if n.PrevSibling != None {
		t.nodes[n.PrevSibling].NextSibling = n.NextSibling
	} else {
		p.FirstChild = n.NextSibling
	}
	if n.NextSibling != None {
		t.nodes[n.NextSibling].PrevSibling = n.PrevSibling
	} else {
		p.LastChild = n.PrevSibling
	}
	t.touch(n.Parent)
	n.Parent, n.PrevSibling, n.NextSibling = None, None, None
}

// AppendChild moves child to the end of parent's child list.
func (t *StyledTree) AppendChild(parent, child NodeID) {
	t.InsertBefore(parent, child, None)
}

// InsertBefore moves child before ref inside parent. A ref of None appends.
func (t *StyledTree) InsertBefore(parent, child, ref NodeID) {
	t.detach(child)
	p := &t.nodes[parent]
	c := &t.nodes[child]
	c.Parent = parent
	if ref == None {
		c.PrevSibling = p.LastChild
		if p.LastChild != None {
			t.nodes[p.LastChild].NextSibling = child
		} else {
			p.FirstChild = child
		}
		p.LastChild = child
	} else {
		r := &t.nodes[ref]
		c.PrevSibling = r.PrevSibling
		c.NextSibling = ref
		if r.PrevSibling != None {
			t.nodes[r.PrevSibling].NextSibling = child
		} else {
			p.FirstChild = child
		}
		r.PrevSibling = child
	}
	t.touch(parent)
	t.touch(child)
}

// Remove detaches the subtree rooted at id. Slots stay allocated.
func (t *StyledTree) Remove(id NodeID) {
	t.detach(id)
	if t.root == id {
		t.root = None
	}
}

// SetStyle replaces a node's computed style.
func (t *StyledTree) SetStyle(id NodeID, st *style.ComputedStyle) {
	t.nodes[id].Style = st
	t.touch(id)
}

// SetText replaces the contents of a text node.
func (t *StyledTree) SetText(id NodeID, text string) {
	t.nodes[id].Text = text
	t.touch(id)
}

// SetImage swaps the resource of a replaced node.
func (t *StyledTree) SetImage(id NodeID, h style.ImageHandle) {
	t.nodes[id].Image = h
	t.touch(id)
}

// SetElementID records the element's id attribute for lookups and debugging.
func (t *StyledTree) SetElementID(id NodeID, elementID string) {
	t.nodes[id].ElementID = elementID
}

// FindByElementID returns the first node with the given id attribute.
func (t *StyledTree) FindByElementID(elementID string) (NodeID, bool) {
	for i := range t.nodes {
		if t.nodes[i].ElementID == elementID {
			return NodeID(i), true
		}
	}
	return None, false
}
