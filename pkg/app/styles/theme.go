package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Color palette
	Primary = lipgloss.Color("#FF6B9D")
	Success = lipgloss.Color("#C3E88D")
	Error   = lipgloss.Color("#F07178")
	Muted   = lipgloss.Color("#546E7A")
)

var (
	// Title style for headings
	TitleStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			MarginBottom(1)

	// Muted/dimmed text
	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Completed download summary
	DoneStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	// Failure text
	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error)
)
