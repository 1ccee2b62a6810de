package ui

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"

	"muddle/pkg/config"
)

// RunSetup collects the instance URL and token interactively. Used on first
// run, when the config file is missing or incomplete. Existing values are
// pre-filled so re-running setup only changes what the user edits.
func RunSetup(cfg *config.Config) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Moodle URL").
				Description("Base URL of your Moodle instance, e.g. https://moodle.example.edu").
				Value(&cfg.InstanceURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Web service token").
				Description("Site preferences → Security keys → 'Moodle mobile web service'").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Token).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("token must not be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Download directory").
				Description("Where checked files are saved (empty for the default)").
				Value(&cfg.DownloadDir),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	cfg.InstanceURL = strings.TrimRight(strings.TrimSpace(cfg.InstanceURL), "/")
	cfg.Token = strings.TrimSpace(cfg.Token)
	return nil
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("url must not be empty")
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("enter a full url, e.g. https://moodle.example.edu")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return nil
}
