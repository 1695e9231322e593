package tree

import "fmt"

// ProblemKind classifies a structural defect in a styled tree.
type ProblemKind uint8

const (
	ProblemDanglingLink ProblemKind = iota
	ProblemCycle
	ProblemTextWithChildren
	ProblemBadParent
)

// Problem is one defect found by Validate.
type Problem struct {
	Kind ProblemKind
	Node NodeID
}

func (p Problem) String() string {
	switch p.Kind {
	case ProblemCycle:
		return fmt.Sprintf("node %d is reachable twice (cycle)", p.Node)
	case ProblemTextWithChildren:
		return fmt.Sprintf("text node %d has children", p.Node)
	case ProblemBadParent:
		return fmt.Sprintf("node %d has a parent link that disagrees with its position", p.Node)
	default:
		return fmt.Sprintf("node %d links outside the arena", p.Node)
	}
}

// Validate walks the tree from the root and reports defects. The walk never
// revisits a node, so it terminates on cyclic input.
func (t *StyledTree) Validate() []Problem {
	var problems []Problem
	if !t.Contains(t.root) {
		return problems
	}
	seen := make([]bool, len(t.nodes))
	var walk func(id NodeID)
	walk = func(id NodeID) {
		seen[id] = true
		n := &t.nodes[id]
		if n.Kind == KindText && n.FirstChild != None {
			problems = append(problems, Problem{Kind: ProblemTextWithChildren, Node: id})
		}
		for c := n.FirstChild; c != None; c = t.nodes[c].NextSibling {
			if !t.Contains(c) {
				problems = append(problems, Problem{Kind: ProblemDanglingLink, Node: id})
				return
			}
			if seen[c] {
				problems = append(problems, Problem{Kind: ProblemCycle, Node: c})
				return
			}
			if t.nodes[c].Parent != id {
				problems = append(problems, Problem{Kind: ProblemBadParent, Node: c})
			}
			walk(c)
		}
	}
	walk(t.root)
	return problems
}

// ChildrenChecked is Children with defensive checks: dangling links and
// revisits end the list. The visited slice is shared across a walk.
func (t *StyledTree) ChildrenChecked(id NodeID, visited []bool) []NodeID {
	var out []NodeID
	for c := t.nodes[id].FirstChild; c != None; c = t.nodes[c].NextSibling {
		if !t.Contains(c) || visited[c] {
			break
		}
		visited[c] = true
		out = append(out, c)
	}
	return out
}

// SetLinksUnchecked overwrites raw links. Only loaders that rebuild a tree
// from an external encoding use it; Validate should run afterwards.
func (t *StyledTree) SetLinksUnchecked(id, parent, first, last, prev, next NodeID) {
	n := &t.nodes[id]
	n.Parent, n.FirstChild, n.LastChild, n.PrevSibling, n.NextSibling = parent, first, last, prev, next
	t.generation++
}
