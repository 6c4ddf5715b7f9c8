package model

import "fmt"

// ControlHandle is an opaque OS handle to a window or control. It is only
// meaningful for the probe that produced it.
type ControlHandle uintptr

// ChildWindow is one descendant reported by the OS enumeration, paired with
// the handle of its immediate parent.
type ChildWindow struct {
	Handle ControlHandle
	Parent ControlHandle
}

// ControlNode is one entry of a ControlTree arena.
type ControlNode struct {
	Handle   ControlHandle
	Parent   int // -1 for the root
	Children []int
}

// ControlTree is a snapshot of a window's control hierarchy. Nodes live in a
// flat arena and reference each other by index; node 0 is the root.
type ControlTree struct {
	Nodes []ControlNode
	index map[ControlHandle]int
}

// NewControlTree creates a tree containing only the root handle.
func NewControlTree(root ControlHandle) *ControlTree {
	return &ControlTree{
		Nodes: []ControlNode{{Handle: root, Parent: -1}},
		index: map[ControlHandle]int{root: 0},
	}
}

// Root returns the handle of the top-level window.
func (t *ControlTree) Root() ControlHandle {
	return t.Nodes[0].Handle
}

// Len returns the number of nodes including the root.
func (t *ControlTree) Len() int {
	return len(t.Nodes)
}

// Contains reports whether h is already part of the tree.
func (t *ControlTree) Contains(h ControlHandle) bool {
	_, ok := t.index[h]
	return ok
}

// Attach appends child under parent. It returns false when the parent is not
// in the tree or the child is already present.
func (t *ControlTree) Attach(parent, child ControlHandle) bool {
	p, ok := t.index[parent]
	if !ok {
		return false
	}
	if _, dup := t.index[child]; dup {
		return false
	}
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, ControlNode{Handle: child, Parent: p})
	t.Nodes[p].Children = append(t.Nodes[p].Children, idx)
	t.index[child] = idx
	return true
}

// Resolve walks path from the root, taking the i-th child at each level.
func (t *ControlTree) Resolve(path []int) (ControlHandle, error) {
	node := 0
	for depth, i := range path {
		children := t.Nodes[node].Children
		if i < 0 || i >= len(children) {
			return 0, fmt.Errorf("%w: path %v has no child %d at depth %d", ErrControlNotFound, path, i, depth)
		}
		node = children[i]
	}
	return t.Nodes[node].Handle, nil
}
