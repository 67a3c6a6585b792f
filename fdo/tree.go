// Package fdo implements the atom stream description language: parsing the
// textual form into an atom tree, encoding the tree into verbose or compact
// binary streams and decoding such streams back.
package fdo

import (
	"fdoc/fdo/atoms"
)

// Node is a single parsed atom with its nested children.
type Node struct {
	Def      *atoms.AtomDefinition
	RawArgs  string // argument text exactly as written, may be empty
	Children []*Node
	Depth    int
	Line     int // 1-based source line, 0 for decoded nodes
}

// Tree is an ordered sequence of top level atoms bounded by the
// start-stream / end-stream marker pair.
type Tree struct {
	Nodes []*Node
}

// Walk visits every node depth-first in document order.
func (t *Tree) Walk(visit func(n *Node) error) error {
	for _, n := range t.Nodes {
		if err := n.walk(visit); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) walk(visit func(n *Node) error) error {
	if err := visit(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.walk(visit); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the total number of atoms in document order.
func (t *Tree) Count() int {
	var total int
	_ = t.Walk(func(*Node) error { total++; return nil })
	return total
}

// Equal compares two trees structurally: same atoms with equal argument
// values in the same nesting. Argument text is compared in encoded form so
// that formatting differences ("32-1" vs " 32-1 ") do not matter.
func (t *Tree) Equal(other *Tree, table *atoms.Table) bool {
	if other == nil || len(t.Nodes) != len(other.Nodes) {
		return false
	}
	for i := range t.Nodes {
		if !t.Nodes[i].equal(other.Nodes[i], table) {
			return false
		}
	}
	return true
}

func (n *Node) equal(other *Node, table *atoms.Table) bool {
	if n.Def.Mnemonic != other.Def.Mnemonic || len(n.Children) != len(other.Children) {
		return false
	}
	a, errA := encodeArgs(n, table, VariantRules{IntWidth: 4, PairWidth: 2})
	b, errB := encodeArgs(other, table, VariantRules{IntWidth: 4, PairWidth: 2})
	if errA != nil || errB != nil || string(a) != string(b) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].equal(other.Children[i], table) {
			return false
		}
	}
	return true
}
