// Package tui provides an interactive terminal editor for the bundlefile configuration.
package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor  = lipgloss.AdaptiveColor{Light: "#3C6E71", Dark: "#6FB3B8"}
	okColor      = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#66BB6A"}
	failColor    = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#EF5350"}
	dimColor     = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6B6B6B"}
	cautionColor = lipgloss.AdaptiveColor{Light: "#E65100", Dark: "#FFA726"}
)

// styles groups the renderers of one editor session
type styles struct {
	title      lipgloss.Style
	hint       lipgloss.Style
	ok         lipgloss.Style
	fail       lipgloss.Style
	confirm    lipgloss.Style
	selected   lipgloss.Style
	unselected lipgloss.Style
	help       lipgloss.Style
}

// newStyles returns colored styles, or plain ones in accessible mode
func newStyles(accessible bool) styles {
	if accessible {
		plain := lipgloss.NewStyle()
		return styles{
			title: plain.MarginBottom(1), hint: plain, ok: plain, fail: plain,
			confirm: plain, selected: plain.Bold(true), unselected: plain, help: plain.MarginTop(1),
		}
	}
	return styles{
		title:      lipgloss.NewStyle().Bold(true).Foreground(accentColor).MarginBottom(1),
		hint:       lipgloss.NewStyle().Foreground(dimColor),
		ok:         lipgloss.NewStyle().Foreground(okColor),
		fail:       lipgloss.NewStyle().Foreground(failColor),
		confirm:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(cautionColor).Padding(1, 2),
		selected:   lipgloss.NewStyle().Bold(true).Foreground(accentColor),
		unselected: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		help:       lipgloss.NewStyle().Foreground(dimColor).MarginTop(1),
	}
}

// GetTheme returns the huh theme for forms
func GetTheme(accessible bool) *huh.Theme {
	if accessible {
		return huh.ThemeBase()
	}
	return huh.ThemeBase16()
}
