package catalog

import (
	"sort"
	"strings"
)

// CheckState is the tri-state selection indicator carried by selectable
// nodes. Mixed means some but not all selectable descendants are checked.
type CheckState int

const (
	Unchecked CheckState = iota
	Checked
	Mixed
)

func (s CheckState) String() string {
	switch s {
	case Checked:
		return "checked"
	case Mixed:
		return "mixed"
	default:
		return "unchecked"
	}
}

// Node is one entry of the reconstructed catalog tree. A node is owned by its
// parent; the parent pointer exists only for upward navigation. Titles are
// HTML-unescaped exactly once, at construction, and never re-decoded.
type Node struct {
	Kind        Kind
	Title       string
	RemoteID    int64  // course/section/module id; zero for content nodes
	ResourceURL string // set only for file and url nodes
	FileSize    int64  // set only for file nodes, when the API reports it

	check    CheckState
	parent   *Node
	children []*Node
}

// NewTree returns the synthetic root node. The root is never emitted by a
// fetcher; it pre-exists as the attachment point for courses.
func NewTree() *Node {
	return &Node{Kind: KindRoot}
}

// Parent returns the node's parent, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children in their current order. The slice is
// owned by the node; callers must not mutate it.
func (n *Node) Children() []*Node { return n.children }

// CheckState returns the node's selection state. Only meaningful for
// selectable kinds; everything else is permanently Unchecked.
func (n *Node) CheckState() CheckState { return n.check }

// add appends child as the last child of n, in arrival order.
func (n *Node) add(child *Node) {
	child.parent = n
	n.children = append(n.children, child)
}

// Walk visits n and every descendant in depth-first preorder.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, c := range n.children {
		c.Walk(visit)
	}
}

// Len returns the number of nodes in the subtree rooted at n, excluding n
// itself when n is the synthetic root.
func (n *Node) Len() int {
	count := 0
	n.Walk(func(m *Node) { count++ })
	if n.Kind == KindRoot {
		count--
	}
	return count
}

// SortByTitle orders every level of the subtree by display title, ascending
// and case-insensitive. The sort is stable so equal titles keep arrival
// order. Called once when the event stream ends; later check-state changes
// never reorder, and no insertion happens after finalization within a
// refresh cycle.
func (n *Node) SortByTitle() {
	sort.SliceStable(n.children, func(i, j int) bool {
		return strings.ToLower(n.children[i].Title) < strings.ToLower(n.children[j].Title)
	})
	for _, c := range n.children {
		c.SortByTitle()
	}
}
