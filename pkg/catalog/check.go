package catalog

// SetChecked sets a selectable node to checked or unchecked, pushes the same
// state down to every selectable descendant, then lets every selectable
// ancestor recompute its own state from its subtree (all checked → Checked,
// all unchecked → Unchecked, otherwise Mixed). Calling it on a non-selectable
// node is a no-op.
func SetChecked(n *Node, checked bool) {
	if n == nil || !n.Kind.Selectable() {
		return
	}

	state := Unchecked
	if checked {
		state = Checked
	}
	setSubtree(n, state)

	for p := n.parent; p != nil; p = p.parent {
		if !p.Kind.Selectable() {
			// Non-selectable ancestors carry no persisted state; display
			// aggregation for them is computed on demand (AggregateState).
			continue
		}
		if st, ok := aggregate(p); ok {
			p.check = st
		}
	}
}

// setSubtree applies state to n and all selectable descendants.
func setSubtree(n *Node, state CheckState) {
	n.Walk(func(m *Node) {
		if m.Kind.Selectable() {
			m.check = state
		}
	})
}

// aggregate folds the states of the selectable leaves below n (selectable
// nodes with no selectable descendants of their own) into one tri-state.
// ok is false when the subtree holds no selectable leaf.
func aggregate(n *Node) (state CheckState, ok bool) {
	var checked, unchecked, mixed int
	n.Walk(func(m *Node) {
		if m == n || !m.Kind.Selectable() || hasSelectableChild(m) {
			return
		}
		switch m.check {
		case Checked:
			checked++
		case Mixed:
			mixed++
		default:
			unchecked++
		}
	})

	total := checked + unchecked + mixed
	if total == 0 {
		// A selectable node can itself be a leaf of the selection tree.
		if n.Kind.Selectable() {
			return n.check, true
		}
		return Unchecked, false
	}
	switch {
	case mixed == 0 && unchecked == 0:
		return Checked, true
	case mixed == 0 && checked == 0:
		return Unchecked, true
	default:
		return Mixed, true
	}
}

func hasSelectableChild(n *Node) bool {
	found := false
	n.Walk(func(m *Node) {
		if m != n && m.Kind.Selectable() {
			found = true
		}
	})
	return found
}

// AggregateState computes a display-only tri-state over a node's selectable
// descendants. It is what the UI renders on non-selectable group nodes
// (courses, sections, generic modules) so a user can see at a glance whether
// anything below is selected; the state is never persisted there. ok is
// false when no selectable descendant exists.
func AggregateState(n *Node) (state CheckState, ok bool) {
	if n == nil {
		return Unchecked, false
	}
	return aggregate(n)
}

// CheckedFiles collects, in tree order, every file node below root whose
// state is Checked. This is the batch-download selection.
func CheckedFiles(root *Node) []*Node {
	var out []*Node
	root.Walk(func(m *Node) {
		if m.Kind == KindFile && m.check == Checked {
			out = append(out, m)
		}
	})
	return out
}
