package ui

import "github.com/charmbracelet/lipgloss"

// authctl palette
var (
	accent = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	ok     = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	warn   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	fail   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	muted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(muted)

	fieldStyle = lipgloss.NewStyle().
			Foreground(muted).
			Width(10).
			Align(lipgloss.Right).
			MarginRight(1)

	confirmedBadge = lipgloss.NewStyle().Foreground(ok).Bold(true)
	pendingBadge   = lipgloss.NewStyle().Foreground(warn)

	okStyle   = lipgloss.NewStyle().Foreground(ok).Bold(true)
	hintStyle = lipgloss.NewStyle().Foreground(muted).Italic(true)
	failStyle = lipgloss.NewStyle().Foreground(fail).Bold(true)
)
