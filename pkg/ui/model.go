package ui

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"muddle/pkg/catalog"
	"muddle/pkg/config"
	"muddle/pkg/history"
	"muddle/pkg/moodle"
)

const splitViewThreshold = 110

// downloadConcurrency bounds parallel file fetches per batch.
const downloadConcurrency = 3

type tab int

const (
	tabCatalog tab = iota
	tabLogs
)

// Downloader is the transfer surface the model needs; moodle.Client
// implements it and tests substitute a fake.
type Downloader interface {
	Download(ctx context.Context, fileURL, dest string) (int64, error)
}

// WorkerAttachedMsg hands the model its fetch worker once the program is
// running. The worker needs program.Send, the program needs the model, so the
// worker is injected via the mailbox after both exist.
type WorkerAttachedMsg struct {
	Worker *FetchWorker
}

// ConfigChangedMsg signals that the config file was edited while running.
type ConfigChangedMsg struct {
	Config config.Config
}

type downloadDoneMsg struct {
	completed int
	failed    int
	err       error
}

// downloadedSetMsg carries the history lookup result for the current tree.
type downloadedSetMsg struct {
	urls map[string]bool
}

type openDoneMsg struct {
	title string
	err   error
}

type statusMsg struct {
	text string
}

// Model is the top-level bubbletea model: the catalog tab (tree plus detail
// pane) and the logs tab, a spinner while a refresh walk is running, and the
// builder that consumes the worker's event stream in arrival order.
type Model struct {
	theme    Theme
	tree     TreeModel
	builder  *catalog.Builder
	worker   *FetchWorker
	client   Downloader
	store    *history.Store
	renderer *glamour.TermRenderer

	spinner  spinner.Model
	detail   viewport.Model
	logs     viewport.Model
	logLines []string

	downloadDir string
	activeTab   tab
	fetching    bool
	splitView   bool
	ready       bool
	width       int
	height      int
	status      string
}

// ModelConfig wires the model's collaborators.
type ModelConfig struct {
	Theme       Theme
	Client      Downloader
	Store       *history.Store
	DownloadDir string
}

// NewModel creates the top-level model. The fetch worker arrives later via
// WorkerAttachedMsg.
func NewModel(cfg ModelConfig) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cfg.Theme.Renderer.NewStyle().Foreground(cfg.Theme.Primary)

	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(72),
	)

	if cfg.DownloadDir == "" {
		cfg.DownloadDir = config.DefaultDownloadDir()
	}

	return Model{
		theme:       cfg.Theme,
		tree:        NewTreeModel(cfg.Theme),
		builder:     catalog.NewBuilder(),
		client:      cfg.Client,
		store:       cfg.Store,
		renderer:    r,
		spinner:     sp,
		downloadDir: cfg.DownloadDir,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case WorkerAttachedMsg:
		m.worker = msg.Worker
		m.startRefresh()

	case NodeLoadedMsg:
		// Arrival order is walk order; the builder's parent inference
		// depends on consuming events exactly as sent.
		if _, err := m.builder.Insert(msg.Event); err == nil {
			m.tree.SetRoot(m.builder.Root())
		}

	case FetchDoneMsg:
		m.fetching = false
		if msg.Err != nil {
			m.status = fmt.Sprintf("refresh failed: %v", msg.Err)
			break
		}
		root := m.builder.Root()
		root.SortByTitle()
		m.tree.SetRoot(root)
		m.status = fmt.Sprintf("loaded %d items", root.Len())
		m.syncDetail()
		cmds = append(cmds, m.lookupDownloadedCmd())

	case LogMsg:
		m.logLines = append(m.logLines, msg.Line)
		if len(m.logLines) > 2000 {
			m.logLines = m.logLines[len(m.logLines)-2000:]
		}
		m.logs.SetContent(strings.Join(m.logLines, "\n"))
		m.logs.GotoBottom()

	case ConfigChangedMsg:
		m.status = "config file changed; restart to apply"

	case downloadDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("download failed: %v", msg.err)
		} else if msg.failed > 0 {
			m.status = fmt.Sprintf("downloaded %d files, %d failed", msg.completed, msg.failed)
		} else {
			m.status = fmt.Sprintf("downloaded %d files", msg.completed)
		}
		cmds = append(cmds, m.lookupDownloadedCmd())

	case downloadedSetMsg:
		m.tree.SetDownloaded(msg.urls)

	case openDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("open %s: %v", msg.title, msg.err)
		} else {
			m.status = fmt.Sprintf("opened %s", msg.title)
		}

	case statusMsg:
		m.status = msg.text

	case spinner.TickMsg:
		if m.fetching {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		newModel, keyCmd := m.handleKey(msg)
		return newModel, keyCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.splitView = msg.Width >= splitViewThreshold
		m.ready = true

		bodyHeight := msg.Height - 3 // tab bar + status bar
		if m.splitView {
			treeWidth := int(float64(msg.Width) * 0.55)
			m.tree.SetSize(treeWidth, bodyHeight)
			m.detail = viewport.New(msg.Width-treeWidth-4, bodyHeight-2)
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(m.detail.Width),
			)
		} else {
			m.tree.SetSize(msg.Width, bodyHeight)
		}
		m.logs = viewport.New(msg.Width, bodyHeight)
		m.logs.SetContent(strings.Join(m.logLines, "\n"))
		m.syncDetail()
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if m.activeTab == tabCatalog {
			m.activeTab = tabLogs
			m.logs.GotoBottom()
		} else {
			m.activeTab = tabCatalog
		}
		return m, nil
	}

	if m.activeTab == tabLogs {
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "j", "down":
		m.tree.MoveDown()
		m.syncDetail()
	case "k", "up":
		m.tree.MoveUp()
		m.syncDetail()
	case "h", "left":
		m.tree.CollapseOrJumpToParent()
		m.syncDetail()
	case "l", "right":
		m.tree.ExpandOrMoveToChild()
		m.syncDetail()
	case "g":
		m.tree.JumpToTop()
		m.syncDetail()
	case "G":
		m.tree.JumpToBottom()
		m.syncDetail()
	case "pgdown":
		m.tree.PageDown()
		m.syncDetail()
	case "pgup":
		m.tree.PageUp()
		m.syncDetail()
	case "e":
		m.tree.ExpandAll()
	case "c":
		m.tree.CollapseAll()
	case " ", "space":
		if sel := m.tree.Selected(); sel != nil {
			catalog.SetChecked(sel, sel.CheckState() != catalog.Checked)
			m.syncDetail()
		}
	case "r":
		m.startRefresh()
	case "d":
		files := catalog.CheckedFiles(m.builder.Root())
		if len(files) == 0 {
			m.status = "nothing checked"
			return m, nil
		}
		m.status = fmt.Sprintf("downloading %d files…", len(files))
		return m, m.downloadCmd(files)
	case "enter":
		if sel := m.tree.Selected(); sel != nil {
			if sel.Kind == catalog.KindFile {
				m.status = fmt.Sprintf("opening %s…", sel.Title)
				return m, m.openCmd(sel)
			}
			m.tree.ToggleExpand()
		}
	case "y":
		if sel := m.tree.Selected(); sel != nil && sel.ResourceURL != "" {
			url := sel.ResourceURL
			return m, func() tea.Msg {
				if err := clipboard.WriteAll(url); err != nil {
					return statusMsg{text: fmt.Sprintf("copy failed: %v", err)}
				}
				return statusMsg{text: "url copied"}
			}
		}
	}

	return m, nil
}

// startRefresh begins a new walk. The builder and tree are replaced up front
// so incoming events grow a fresh tree; a rejected refresh (one already
// running, or worker gone) leaves everything untouched.
func (m *Model) startRefresh() {
	if m.worker == nil {
		return
	}
	if !m.worker.Refresh() {
		m.status = "refresh already running"
		return
	}
	m.fetching = true
	m.status = "refreshing…"
	m.builder = catalog.NewBuilder()
	m.tree.Reset()
	m.tree.SetRoot(m.builder.Root())
}

// lookupDownloadedCmd checks every file in the current tree against the
// download history, off the UI thread.
func (m Model) lookupDownloadedCmd() tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	var urls []string
	m.builder.Root().Walk(func(n *catalog.Node) {
		if n.Kind == catalog.KindFile && n.ResourceURL != "" {
			urls = append(urls, n.ResourceURL)
		}
	})

	return func() tea.Msg {
		ctx := context.Background()
		found := make(map[string]bool, len(urls))
		for _, u := range urls {
			ok, err := store.Downloaded(ctx, u)
			if err != nil {
				log.Printf("ERROR history lookup: %v", err)
				break
			}
			if ok {
				found[u] = true
			}
		}
		return downloadedSetMsg{urls: found}
	}
}

// downloadCmd fetches the checked files concurrently, bounded, and records
// each finished file in history.
func (m Model) downloadCmd(files []*catalog.Node) tea.Cmd {
	client := m.client
	store := m.store
	baseDir := m.downloadDir

	return func() tea.Msg {
		g, ctx := errgroup.WithContext(context.Background())
		g.SetLimit(downloadConcurrency)

		results := make([]error, len(files))
		for i, f := range files {
			i, f := i, f
			g.Go(func() error {
				dest := destPath(baseDir, f)
				n, err := client.Download(ctx, f.ResourceURL, dest)
				if err != nil {
					results[i] = err
					return nil // Keep the batch going; failures are counted.
				}
				if store != nil {
					if err := store.Record(ctx, history.Entry{
						ResourceURL: f.ResourceURL,
						Dest:        dest,
						Size:        n,
						FinishedAt:  time.Now(),
					}); err != nil {
						results[i] = err
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return downloadDoneMsg{err: err}
		}

		var completed, failed int
		for _, err := range results {
			if err != nil {
				failed++
			} else {
				completed++
			}
		}
		return downloadDoneMsg{completed: completed, failed: failed}
	}
}

// openCmd downloads a single file to a temp location and hands it to the
// platform opener.
func (m Model) openCmd(f *catalog.Node) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		dest := destPath(filepath.Join(os.TempDir(), "muddle"), f)
		if _, err := client.Download(context.Background(), f.ResourceURL, dest); err != nil {
			return openDoneMsg{title: f.Title, err: err}
		}
		if err := moodle.OpenFile(dest); err != nil {
			return openDoneMsg{title: f.Title, err: err}
		}
		return openDoneMsg{title: f.Title}
	}
}

// destPath mirrors the catalog hierarchy on disk: course/section/module/file.
func destPath(baseDir string, f *catalog.Node) string {
	parts := []string{sanitize(f.Title)}
	for p := f.Parent(); p != nil && p.Kind != catalog.KindRoot; p = p.Parent() {
		parts = append([]string{sanitize(p.Title)}, parts...)
	}
	return filepath.Join(append([]string{baseDir}, parts...)...)
}

// sanitize keeps hierarchy titles usable as path segments.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, string(filepath.Separator), "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.TrimSpace(s)
	if s == "" {
		return "untitled"
	}
	return s
}

// syncDetail re-renders the detail pane for the selected node.
func (m *Model) syncDetail() {
	if !m.splitView {
		return
	}
	sel := m.tree.Selected()
	if sel == nil {
		m.detail.SetContent("")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s %s\n\n", m.theme.KindIcon(sel.Kind), sel.Title)
	fmt.Fprintf(&sb, "**Kind:** %s\n\n", sel.Kind)
	if sel.RemoteID != 0 {
		fmt.Fprintf(&sb, "**ID:** %d\n\n", sel.RemoteID)
	}
	if sel.ResourceURL != "" {
		fmt.Fprintf(&sb, "**URL:** %s\n\n", sel.ResourceURL)
	}
	if sel.FileSize > 0 {
		fmt.Fprintf(&sb, "**Size:** %s\n\n", formatSize(sel.FileSize))
	}
	if sel.Kind.Selectable() {
		fmt.Fprintf(&sb, "**Selection:** %s\n\n", sel.CheckState())
	} else if st, ok := catalog.AggregateState(sel); ok {
		fmt.Fprintf(&sb, "**Selection below:** %s\n\n", st)
	}
	if n := len(sel.Children()); n > 0 {
		fmt.Fprintf(&sb, "%d items inside.\n", n)
	}

	rendered, err := m.renderer.Render(sb.String())
	if err != nil {
		m.detail.SetContent(sb.String())
		return
	}
	m.detail.SetContent(rendered)
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var body string
	switch m.activeTab {
	case tabLogs:
		body = m.logs.View()
	default:
		if m.splitView {
			treeView := m.theme.Renderer.NewStyle().
				Width(m.tree.width).
				Height(m.height - 3).
				Render(m.tree.View())
			detailView := m.theme.Renderer.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(m.theme.Muted).
				Width(m.detail.Width).
				Height(m.height - 5).
				Render(m.detail.View())
			body = lipgloss.JoinHorizontal(lipgloss.Top, treeView, detailView)
		} else {
			body = m.tree.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabBar(), body, m.renderStatusBar())
}

func (m Model) renderTabBar() string {
	r := m.theme.Renderer
	active := r.NewStyle().Foreground(m.theme.Primary).Bold(true).Padding(0, 1)
	inactive := r.NewStyle().Foreground(m.theme.Muted).Padding(0, 1)

	catalogTab := inactive.Render("Catalog")
	logsTab := inactive.Render(fmt.Sprintf("Logs (%d)", len(m.logLines)))
	if m.activeTab == tabCatalog {
		catalogTab = active.Render("Catalog")
	} else {
		logsTab = active.Render(fmt.Sprintf("Logs (%d)", len(m.logLines)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, catalogTab, logsTab)
}

func (m Model) renderStatusBar() string {
	r := m.theme.Renderer
	help := r.NewStyle().Foreground(m.theme.Muted)
	status := r.NewStyle().Foreground(m.theme.Highlight).Padding(0, 1)

	left := m.status
	if m.fetching {
		left = m.spinner.View() + " " + left
	}

	var keys string
	if m.activeTab == tabLogs {
		keys = "j/k: scroll • tab: catalog • q: quit"
	} else {
		keys = "space: select • d: download • enter: open • y: copy url • r: refresh • tab: logs • q: quit"
	}

	leftSection := status.Render(left)
	rightSection := help.Padding(0, 1).Render(keys)
	gap := m.width - lipgloss.Width(leftSection) - lipgloss.Width(rightSection)
	if gap < 0 {
		gap = 0
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom,
		leftSection,
		r.NewStyle().Width(gap).Render(""),
		rightSection,
	)
}
