// Command muddle is a terminal browser for Moodle course catalogs: it walks
// the courses the token user is enrolled in, shows them as a tree, and
// downloads checked files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"muddle/pkg/catalog"
	"muddle/pkg/config"
	"muddle/pkg/history"
	"muddle/pkg/moodle"
	"muddle/pkg/ui"
)

const version = "0.3.0"

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Config file path (default: <user-config-dir>/muddle/config.yaml)")
	urlFlag := flag.String("url", "", "Moodle instance URL (overrides config and MUDDLE_URL)")
	tokenFlag := flag.String("token", "", "Web service token (overrides config and MUDDLE_TOKEN)")
	downloadDir := flag.String("download-dir", "", "Download directory (overrides config)")
	dump := flag.Bool("dump", false, "Fetch the full catalog, print it as JSON, and exit")
	setup := flag.Bool("setup", false, "Re-run interactive setup even if the config is complete")
	flag.Parse()

	if *help {
		fmt.Println("Usage: muddle [options]")
		fmt.Println("\nA TUI browser and downloader for Moodle courses.")
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("muddle %s\n", version)
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	if *urlFlag != "" {
		cfg.InstanceURL = *urlFlag
	}
	if *tokenFlag != "" {
		cfg.Token = *tokenFlag
	}
	if *downloadDir != "" {
		cfg.DownloadDir = *downloadDir
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))

	if *setup || !cfg.Complete() {
		if !isTerminal {
			fmt.Fprintln(os.Stderr, "Error: no configuration; set MUDDLE_URL and MUDDLE_TOKEN or run setup in a terminal")
			os.Exit(1)
		}
		if err := ui.RunSetup(&cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := config.Save(path, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	client := moodle.NewClient(cfg.InstanceURL, cfg.Token)

	if *dump {
		if err := dumpCatalog(client); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !isTerminal {
		fmt.Fprintln(os.Stderr, "Error: muddle needs a terminal (use --dump for non-interactive output)")
		os.Exit(1)
	}

	// All logging goes through the bridge into the logs tab; stderr belongs
	// to the alternate screen while the UI runs.
	bridge := ui.NewLogBridge()
	log.SetOutput(bridge)
	log.SetFlags(log.Ltime)

	store, err := history.Open(filepath.Join(filepath.Dir(path), "downloads.db"))
	if err != nil {
		log.Printf("ERROR download history unavailable: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	theme := ui.DefaultTheme(lipgloss.DefaultRenderer())
	m := ui.NewModel(ui.ModelConfig{
		Theme:       theme,
		Client:      client,
		Store:       store,
		DownloadDir: cfg.DownloadDir,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())

	worker := ui.NewFetchWorker(client, p.Send)
	defer worker.Stop()

	watcher, err := config.NewWatcher(path)
	if err != nil {
		log.Printf("ERROR config watch unavailable: %v", err)
	} else {
		if err := watcher.Start(); err != nil {
			log.Printf("ERROR config watch failed to start: %v", err)
		} else {
			defer watcher.Stop()
			go func() {
				for range watcher.Changed() {
					updated, err := config.Load(path)
					if err != nil {
						log.Printf("ERROR reloading config: %v", err)
						continue
					}
					p.Send(ui.ConfigChangedMsg{Config: updated})
				}
			}()
		}
	}

	// The worker and bridge need a running mailbox; hand them over from the
	// side so Run can start consuming first.
	go func() {
		bridge.Attach(p.Send)
		p.Send(ui.WorkerAttachedMsg{Worker: worker})
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// dumpNode is the JSON shape of one catalog entry in --dump output.
type dumpNode struct {
	Kind     string      `json:"kind"`
	Title    string      `json:"title"`
	ID       int64       `json:"id,omitempty"`
	URL      string      `json:"url,omitempty"`
	Size     int64       `json:"size,omitempty"`
	Children []*dumpNode `json:"children,omitempty"`
}

// dumpCatalog fetches everything and prints the reconstructed tree as JSON.
func dumpCatalog(client *moodle.Client) error {
	root, err := catalog.NewFetcher(client).Collect(context.Background())
	if err != nil {
		return err
	}

	out := make([]*dumpNode, 0, len(root.Children()))
	for _, c := range root.Children() {
		out = append(out, toDumpNode(c))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Courses []*dumpNode `json:"courses"`
	}{Courses: out})
}

func toDumpNode(n *catalog.Node) *dumpNode {
	d := &dumpNode{
		Kind:  n.Kind.String(),
		Title: n.Title,
		ID:    n.RemoteID,
		URL:   n.ResourceURL,
		Size:  n.FileSize,
	}
	for _, c := range n.Children() {
		d.Children = append(d.Children, toDumpNode(c))
	}
	return d
}
