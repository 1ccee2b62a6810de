// Package ui provides the terminal user interface for the catalog browser:
// a tree view over the reconstructed course catalog, a background fetch
// worker, a log tab, and download actions.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"muddle/pkg/catalog"
)

// Theme bundles the renderer and the palette used across all views.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor

	Selected lipgloss.Style
}

// DefaultTheme builds the standard theme for the given renderer.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	primary := lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	secondary := lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	muted := lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	highlight := lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}

	return Theme{
		Renderer:  r,
		Primary:   primary,
		Secondary: secondary,
		Muted:     muted,
		Highlight: highlight,
		Selected: r.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#374151"}).
			Bold(true),
	}
}

// KindIcon returns the glyph shown before a node's title.
func (t Theme) KindIcon(k catalog.Kind) string {
	switch k {
	case catalog.KindCourse:
		return "🎓"
	case catalog.KindSection:
		return "📑"
	case catalog.KindFolder:
		return "📁"
	case catalog.KindResource:
		return "📄"
	case catalog.KindForum:
		return "💬"
	case catalog.KindQuiz:
		return "❓"
	case catalog.KindAttendance:
		return "📅"
	case catalog.KindLabel:
		return "🏷"
	case catalog.KindURL:
		return "🔗"
	case catalog.KindFile:
		return "📎"
	default:
		return "•"
	}
}

// CheckGlyph renders a tri-state checkbox.
func CheckGlyph(s catalog.CheckState) string {
	switch s {
	case catalog.Checked:
		return "[x]"
	case catalog.Mixed:
		return "[~]"
	default:
		return "[ ]"
	}
}
