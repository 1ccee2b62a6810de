package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"muddle/pkg/catalog"
)

// TreeModel manages the catalog tree view: cursor, expand/collapse state and
// rendering. Expansion state lives here, keyed by node, so a rebuilt catalog
// starts from the depth default while the tree stays a pure view over
// catalog.Node.
type TreeModel struct {
	root       *catalog.Node
	flatList   []treeRow
	expanded   map[*catalog.Node]bool
	downloaded map[string]bool // resource URLs already in the history store
	cursor     int
	offset     int // index of first rendered row
	width      int
	height     int
	theme      Theme
}

type treeRow struct {
	node  *catalog.Node
	depth int
	last  bool // last child of its parent, for branch glyph choice
	trail []bool // per ancestor level: has siblings below (draw │)
}

// NewTreeModel creates an empty tree view.
func NewTreeModel(theme Theme) TreeModel {
	return TreeModel{
		theme:    theme,
		expanded: make(map[*catalog.Node]bool),
	}
}

// SetSize updates the available dimensions.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.clampScroll()
}

// SetRoot points the view at a (possibly growing) catalog and rebuilds the
// visible row list. Safe to call after every inserted node during a refresh.
func (t *TreeModel) SetRoot(root *catalog.Node) {
	t.root = root
	t.rebuildFlatList()
}

// SetDownloaded marks the resource URLs already present in the download
// history; file rows with a marked URL render a trailing check.
func (t *TreeModel) SetDownloaded(urls map[string]bool) {
	t.downloaded = urls
}

// Reset drops all expansion state, used when a refresh replaces the tree.
func (t *TreeModel) Reset() {
	t.expanded = make(map[*catalog.Node]bool)
	t.cursor = 0
	t.offset = 0
	t.root = nil
	t.flatList = nil
}

// isExpanded applies the depth default (courses and sections open, deeper
// levels closed) unless the user toggled the node explicitly.
func (t *TreeModel) isExpanded(n *catalog.Node, depth int) bool {
	if v, ok := t.expanded[n]; ok {
		return v
	}
	return depth < 2
}

// Selected returns the node under the cursor, nil when the tree is empty.
func (t *TreeModel) Selected() *catalog.Node {
	if t.cursor >= 0 && t.cursor < len(t.flatList) {
		return t.flatList[t.cursor].node
	}
	return nil
}

// NodeCount returns the number of currently visible rows.
func (t *TreeModel) NodeCount() int { return len(t.flatList) }

// MoveDown moves the cursor down one row.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.flatList)-1 {
		t.cursor++
	}
	t.clampScroll()
}

// MoveUp moves the cursor up one row.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
	}
	t.clampScroll()
}

// JumpToTop moves the cursor to the first row.
func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.clampScroll()
}

// JumpToBottom moves the cursor to the last row.
func (t *TreeModel) JumpToBottom() {
	if len(t.flatList) > 0 {
		t.cursor = len(t.flatList) - 1
	}
	t.clampScroll()
}

// PageDown moves the cursor down by half a screen.
func (t *TreeModel) PageDown() {
	step := t.height / 2
	if step < 1 {
		step = 5
	}
	t.cursor += step
	if t.cursor >= len(t.flatList) {
		t.cursor = len(t.flatList) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.clampScroll()
}

// PageUp moves the cursor up by half a screen.
func (t *TreeModel) PageUp() {
	step := t.height / 2
	if step < 1 {
		step = 5
	}
	t.cursor -= step
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.clampScroll()
}

// ToggleExpand flips the expansion of the selected node.
func (t *TreeModel) ToggleExpand() {
	row, ok := t.selectedRow()
	if !ok || len(row.node.Children()) == 0 {
		return
	}
	t.expanded[row.node] = !t.isExpanded(row.node, row.depth)
	t.rebuildFlatList()
}

// ExpandOrMoveToChild handles l/→: expand a collapsed branch, otherwise step
// into the first child.
func (t *TreeModel) ExpandOrMoveToChild() {
	row, ok := t.selectedRow()
	if !ok || len(row.node.Children()) == 0 {
		return
	}
	if !t.isExpanded(row.node, row.depth) {
		t.expanded[row.node] = true
		t.rebuildFlatList()
		return
	}
	if t.cursor < len(t.flatList)-1 {
		t.cursor++
		t.clampScroll()
	}
}

// CollapseOrJumpToParent handles h/←: collapse an expanded branch, otherwise
// jump to the parent row.
func (t *TreeModel) CollapseOrJumpToParent() {
	row, ok := t.selectedRow()
	if !ok {
		return
	}
	if len(row.node.Children()) > 0 && t.isExpanded(row.node, row.depth) {
		t.expanded[row.node] = false
		t.rebuildFlatList()
		return
	}
	parent := row.node.Parent()
	if parent == nil || parent.Kind == catalog.KindRoot {
		return
	}
	for i, r := range t.flatList {
		if r.node == parent {
			t.cursor = i
			t.clampScroll()
			return
		}
	}
}

// ExpandAll opens every branch.
func (t *TreeModel) ExpandAll() {
	t.setAll(true)
}

// CollapseAll closes every branch.
func (t *TreeModel) CollapseAll() {
	t.setAll(false)
}

func (t *TreeModel) setAll(expanded bool) {
	if t.root == nil {
		return
	}
	t.root.Walk(func(n *catalog.Node) {
		if n.Kind != catalog.KindRoot && len(n.Children()) > 0 {
			t.expanded[n] = expanded
		}
	})
	t.rebuildFlatList()
}

func (t *TreeModel) selectedRow() (treeRow, bool) {
	if t.cursor >= 0 && t.cursor < len(t.flatList) {
		return t.flatList[t.cursor], true
	}
	return treeRow{}, false
}

// rebuildFlatList recomputes the visible rows from the catalog and the
// expansion map.
func (t *TreeModel) rebuildFlatList() {
	t.flatList = t.flatList[:0]
	if t.root != nil {
		children := t.root.Children()
		for i, c := range children {
			t.appendVisible(c, 0, i == len(children)-1, nil)
		}
	}
	if t.cursor >= len(t.flatList) {
		t.cursor = len(t.flatList) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.clampScroll()
}

func (t *TreeModel) appendVisible(n *catalog.Node, depth int, last bool, trail []bool) {
	t.flatList = append(t.flatList, treeRow{node: n, depth: depth, last: last, trail: trail})
	if !t.isExpanded(n, depth) {
		return
	}
	childTrail := append(append([]bool(nil), trail...), !last)
	children := n.Children()
	for i, c := range children {
		t.appendVisible(c, depth+1, i == len(children)-1, childTrail)
	}
}

func (t *TreeModel) clampScroll() {
	visible := t.height
	if visible <= 0 {
		visible = 20
	}
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+visible {
		t.offset = t.cursor - visible + 1
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

// View renders the visible window of the tree.
func (t *TreeModel) View() string {
	if len(t.flatList) == 0 {
		return t.renderEmptyState()
	}

	visible := t.height
	if visible <= 0 {
		visible = 20
	}
	end := t.offset + visible
	if end > len(t.flatList) {
		end = len(t.flatList)
	}

	var sb strings.Builder
	for i := t.offset; i < end; i++ {
		line := t.renderRow(t.flatList[i])
		if i == t.cursor {
			line = t.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer
	title := r.NewStyle().Foreground(t.theme.Primary).Bold(true)
	muted := r.NewStyle().Foreground(t.theme.Muted)

	var sb strings.Builder
	sb.WriteString(title.Render("Courses"))
	sb.WriteString("\n\n")
	sb.WriteString(muted.Render("Nothing loaded yet."))
	sb.WriteString("\n")
	sb.WriteString(muted.Render("Press r to refresh."))
	return sb.String()
}

func (t *TreeModel) renderRow(row treeRow) string {
	r := t.theme.Renderer
	var sb strings.Builder

	prefix := t.branchPrefix(row)
	sb.WriteString(r.NewStyle().Foreground(t.theme.Muted).Render(prefix))

	indicator := "•"
	if len(row.node.Children()) > 0 {
		if t.isExpanded(row.node, row.depth) {
			indicator = "▾"
		} else {
			indicator = "▸"
		}
	}
	sb.WriteString(r.NewStyle().Foreground(t.theme.Secondary).Render(indicator))
	sb.WriteString(" ")

	checkbox := t.renderCheckbox(row.node)
	if checkbox != "" {
		sb.WriteString(checkbox)
		sb.WriteString(" ")
	}

	sb.WriteString(t.theme.KindIcon(row.node.Kind))
	sb.WriteString(" ")

	title := row.node.Title
	budget := t.width - lipgloss.Width(prefix) - 12
	if budget < 12 {
		budget = 12
	}
	sb.WriteString(runewidth.Truncate(title, budget, "…"))

	if row.node.Kind == catalog.KindFile && row.node.FileSize > 0 {
		size := r.NewStyle().Foreground(t.theme.Muted).Render(" " + formatSize(row.node.FileSize))
		sb.WriteString(size)
	}
	if t.downloaded[row.node.ResourceURL] && row.node.Kind == catalog.KindFile {
		sb.WriteString(r.NewStyle().Foreground(t.theme.Highlight).Render(" ✓"))
	}

	return sb.String()
}

// renderCheckbox shows the persisted state on selectable nodes and a dimmed
// computed rollup on group nodes that contain anything selectable. Group
// nodes with nothing selectable below get no checkbox at all.
func (t *TreeModel) renderCheckbox(n *catalog.Node) string {
	r := t.theme.Renderer
	if n.Kind.Selectable() {
		glyph := CheckGlyph(n.CheckState())
		if n.CheckState() == catalog.Unchecked {
			return r.NewStyle().Foreground(t.theme.Muted).Render(glyph)
		}
		return r.NewStyle().Foreground(t.theme.Highlight).Render(glyph)
	}
	if st, ok := catalog.AggregateState(n); ok {
		return r.NewStyle().Foreground(t.theme.Muted).Faint(true).Render(CheckGlyph(st))
	}
	return ""
}

func (t *TreeModel) branchPrefix(row treeRow) string {
	if row.depth == 0 {
		return ""
	}
	var sb strings.Builder
	for _, hasMore := range row.trail[1:] {
		if hasMore {
			sb.WriteString("│   ")
		} else {
			sb.WriteString("    ")
		}
	}
	if row.last {
		sb.WriteString("└── ")
	} else {
		sb.WriteString("├── ")
	}
	return sb.String()
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}
