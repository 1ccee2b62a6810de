package moodle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Download streams the content behind a pluginfile URL to dest, creating
// parent directories as needed. The web service token is appended as a query
// parameter, which is how Moodle authenticates pluginfile fetches. Returns
// the number of bytes written.
func (c *Client) Download(ctx context.Context, fileURL, dest string) (int64, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return 0, fmt.Errorf("moodle: invalid file url %q: %w", fileURL, err)
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("moodle: build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("moodle: download %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("moodle: download %s: status=%d", fileURL, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("moodle: create download dir: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("moodle: create %s: %w", dest, err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return n, fmt.Errorf("moodle: write %s: %w", dest, err)
	}
	return n, nil
}

// OpenFile launches the platform default handler for a local file.
func OpenFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("moodle: open %s: %w", path, err)
	}
	return nil
}
