package resolver

import (
	"slices"
	"strings"
)

// Namespace is a tree keyed by dotted-name segment. The root is the global
// scope. Nodes are only ever created beneath an existing node, so the tree
// cannot contain cycles.
type Namespace[T any] struct {
	segment  string
	children map[string]*Namespace[T]
	value    T
	set      bool
}

// NewNamespace returns an empty root.
func NewNamespace[T any]() *Namespace[T] {
	return &Namespace[T]{}
}

// SplitName splits a dotted name into its segments.
func SplitName(name string) []string {
	if name == "" {
		return nil
	}
	return strings.Split(name, ".")
}

// Segment returns the node's own path segment. The root's is empty.
func (n *Namespace[T]) Segment() string { return n.segment }

// Ensure returns the node at path, creating missing nodes on the way down.
func (n *Namespace[T]) Ensure(path []string) *Namespace[T] {
	cur := n
	for _, seg := range path {
		next, ok := cur.children[seg]
		if !ok {
			if cur.children == nil {
				cur.children = make(map[string]*Namespace[T])
			}
			next = &Namespace[T]{segment: seg}
			cur.children[seg] = next
		}
		cur = next
	}
	return cur
}

// Find returns the node at path.
func (n *Namespace[T]) Find(path []string) (*Namespace[T], bool) {
	cur := n
	for _, seg := range path {
		next, ok := cur.children[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Value returns the node's value and whether one was set.
func (n *Namespace[T]) Value() (T, bool) { return n.value, n.set }

// Set stores v on the node.
func (n *Namespace[T]) Set(v T) {
	n.value = v
	n.set = true
}

// Children returns the direct children sorted by segment.
func (n *Namespace[T]) Children() []*Namespace[T] {
	out := make([]*Namespace[T], 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Namespace[T]) int { return strings.Compare(a.segment, b.segment) })
	return out
}

// Walk visits every node below n depth-first, parents before children and
// siblings in segment order. path is the node's full path and must not be
// retained. Walk stops early when fn returns false and reports whether it
// ran to completion.
func (n *Namespace[T]) Walk(fn func(path []string, node *Namespace[T]) bool) bool {
	var path []string
	var walk func(*Namespace[T]) bool
	walk = func(node *Namespace[T]) bool {
		for _, c := range node.Children() {
			path = append(path, c.segment)
			if !fn(path, c) || !walk(c) {
				return false
			}
			path = path[:len(path)-1]
		}
		return true
	}
	return walk(n)
}
