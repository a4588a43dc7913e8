package ui

import "github.com/charmbracelet/lipgloss"

var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	neonOrange  = lipgloss.Color("#FF6700")
	neonRed     = lipgloss.Color("#FF0000")
	dimGray     = lipgloss.Color("#808080")
)

// styles are bound to one renderer so colour detection follows the writer
type styles struct {
	logo      lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	success   lipgloss.Style
	warning   lipgloss.Style
	err       lipgloss.Style
	highlight lipgloss.Style
	dim       lipgloss.Style
	title     lipgloss.Style
	panel     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		logo:      r.NewStyle().Foreground(neonCyan).Bold(true),
		label:     r.NewStyle().Foreground(neonCyan).Bold(true),
		value:     r.NewStyle().Foreground(neonYellow),
		success:   r.NewStyle().Foreground(neonGreen).Bold(true),
		warning:   r.NewStyle().Foreground(neonOrange).Bold(true),
		err:       r.NewStyle().Foreground(neonRed).Bold(true),
		highlight: r.NewStyle().Foreground(neonMagenta),
		dim:       r.NewStyle().Foreground(dimGray),
		title:     r.NewStyle().Foreground(neonMagenta).Bold(true).Underline(true),
		panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonMagenta).
			Padding(0, 1),
	}
}
