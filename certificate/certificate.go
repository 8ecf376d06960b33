// Package certificate implements spec.md's CertificateTree: a tree mirroring
// the decision tree, consulted only when proof production is enabled. Every
// node is labeled by the case split that led to it; siblings are retained
// even once the search backtracks past them, since they are exactly the
// material a refutation proof needs.
package certificate

import (
	"github.com/crillab/plverify/bound"
	"github.com/google/uuid"
)

// NodeID addresses a Node in a Tree's arena. The zero value is not a valid
// NodeID; use Tree.Root().
type NodeID uuid.UUID

// Node is one node of the certificate tree (spec.md §4.E). Children are
// owned by their parent; Parent is a back-reference by ID into the same
// arena, not a pointer, which is the arena-plus-index shape spec.md §9
// suggests for the tree's otherwise-cyclic parent/child relationship.
type Node struct {
	id       NodeID
	parent   NodeID
	hasParent bool
	split    bound.CaseSplit
	hasSplit bool
	children []NodeID
}

// ID returns the node's own identifier.
func (n *Node) ID() NodeID { return n.id }

// Split returns the case split labeling this node and whether the node has
// one (the root never does).
func (n *Node) Split() (bound.CaseSplit, bool) { return n.split, n.hasSplit }

// Tree is an arena of Nodes plus a "current" pointer, per spec.md §4.E:
// "Only the path from root to the current node is 'live'; siblings are
// retained for proof construction."
type Tree struct {
	nodes   map[NodeID]*Node
	root    NodeID
	current NodeID
}

// NewTree returns a Tree containing only an unlabeled root, which is also
// the current node.
func NewTree() *Tree {
	root := NodeID(uuid.New())
	t := &Tree{nodes: map[NodeID]*Node{}}
	t.nodes[root] = &Node{id: root}
	t.root = root
	t.current = root
	return t
}

// Root returns the tree's root node ID.
func (t *Tree) Root() NodeID { return t.root }

// Current returns the currently live node: spec.md §4.E's invariant is that
// this equals the active case of the topmost decision frame.
func (t *Tree) Current() NodeID { return t.current }

// SetCurrent moves the "live" pointer to id, which must already exist in the
// tree (typically a child just added with AddChild, or a parent reached via
// GetParent while popping).
func (t *Tree) SetCurrent(id NodeID) {
	if _, ok := t.nodes[id]; !ok {
		panic("certificate: SetCurrent on unknown node")
	}
	t.current = id
}

// Node returns the node for id.
func (t *Tree) Node(id NodeID) *Node {
	return t.nodes[id]
}

// AddChild adds a new child labeled split under the current node and returns
// its ID, without changing Current — callers move Current explicitly via
// SetCurrent once the corresponding case is actually applied (spec.md §4.D:
// "performSplit creates one child per case in the current certificate node").
func (t *Tree) AddChild(split bound.CaseSplit) NodeID {
	id := NodeID(uuid.New())
	child := &Node{id: id, parent: t.current, hasParent: true, split: split, hasSplit: true}
	t.nodes[id] = child
	parent := t.nodes[t.current]
	parent.children = append(parent.children, id)
	return id
}

// GetChildBySplit returns the existing child of the current node labeled
// with a case-equal split, if any (spec.md §4.E).
func (t *Tree) GetChildBySplit(split bound.CaseSplit) (NodeID, bool) {
	parent := t.nodes[t.current]
	for _, childID := range parent.children {
		if child := t.nodes[childID]; child.split.Equal(split) {
			return childID, true
		}
	}
	return NodeID{}, false
}

// GetParent returns the current node's parent and whether it has one (the
// root does not).
func (t *Tree) GetParent() (NodeID, bool) {
	n := t.nodes[t.current]
	return n.parent, n.hasParent
}

// GetSplit returns the split labeling the current node.
func (t *Tree) GetSplit() (bound.CaseSplit, bool) {
	return t.nodes[t.current].Split()
}

// PathFromRoot returns every split from the root to Current, in order — the
// proof-construction view of "the path from root to the current node".
func (t *Tree) PathFromRoot() []bound.CaseSplit {
	var rev []bound.CaseSplit
	id := t.current
	for {
		n := t.nodes[id]
		if n.hasSplit {
			rev = append(rev, n.split)
		}
		if !n.hasParent {
			break
		}
		id = n.parent
	}
	out := make([]bound.CaseSplit, len(rev))
	for i, s := range rev {
		out[len(rev)-1-i] = s
	}
	return out
}
