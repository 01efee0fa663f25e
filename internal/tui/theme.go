package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the colors of the dashboard.
type Theme struct {
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Text       lipgloss.Color
	Selected   lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Danger     lipgloss.Color
	Background lipgloss.Color
}

var DefaultTheme = Theme{
	Accent:     lipgloss.Color("#7D56F4"),
	Muted:      lipgloss.Color("#6C7086"),
	Text:       lipgloss.Color("#CDD6F4"),
	Selected:   lipgloss.Color("#313244"),
	Success:    lipgloss.Color("#A6E3A1"),
	Warning:    lipgloss.Color("#F9E2AF"),
	Danger:     lipgloss.Color("#F38BA8"),
	Background: lipgloss.Color("#1E1E2E"),
}

type styles struct {
	title       lipgloss.Style
	tab         lipgloss.Style
	activeTab   lipgloss.Style
	header      lipgloss.Style
	row         lipgloss.Style
	selectedRow lipgloss.Style
	muted       lipgloss.Style
	ok          lipgloss.Style
	warn        lipgloss.Style
	bad         lipgloss.Style
	panel       lipgloss.Style
	blocking    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		tab:         lipgloss.NewStyle().Padding(0, 1).Foreground(t.Muted),
		activeTab:   lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(t.Text).Background(t.Accent),
		header:      lipgloss.NewStyle().Bold(true).Foreground(t.Muted),
		row:         lipgloss.NewStyle().Foreground(t.Text),
		selectedRow: lipgloss.NewStyle().Foreground(t.Text).Background(t.Selected).Bold(true),
		muted:       lipgloss.NewStyle().Foreground(t.Muted),
		ok:          lipgloss.NewStyle().Foreground(t.Success),
		warn:        lipgloss.NewStyle().Foreground(t.Warning),
		bad:         lipgloss.NewStyle().Foreground(t.Danger),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Accent).
			Padding(0, 1),
		blocking: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(t.Danger).
			Foreground(t.Danger).
			Padding(1, 3),
	}
}
