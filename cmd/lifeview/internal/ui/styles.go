package ui

import "github.com/charmbracelet/lipgloss"

// Styles holds the Lip Gloss styles for each visual region.
type Styles struct {
	Header       lipgloss.Style
	StateBadge   lipgloss.Style
	Skeleton     lipgloss.Style
	RowTitle     lipgloss.Style
	RowStatus    map[string]lipgloss.Style
	SubtleLoader lipgloss.Style
	ErrorView    lipgloss.Style
	Toast        lipgloss.Style
	Empty        lipgloss.Style
	Muted        lipgloss.Style
	Help         lipgloss.Style
}

// DefaultStyles returns the demo's dark-terminal styles.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")),
		StateBadge: lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("12")),
		Skeleton: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		RowTitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		RowStatus: map[string]lipgloss.Style{
			"synced":   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
			"pending":  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
			"conflict": lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		},
		SubtleLoader: lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")),
		ErrorView: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Foreground(lipgloss.Color("9")).
			Padding(1, 2),
		Toast: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")),
		Empty: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}
