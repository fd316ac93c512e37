package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Color palette
	Accent  = lipgloss.Color("#7FB4CA")
	Subtle  = lipgloss.Color("#957FB8")
	Success = lipgloss.Color("#98BB6C")
	Error   = lipgloss.Color("#E46876")
	Info    = lipgloss.Color("#7E9CD8")
	Muted   = lipgloss.Color("#727169")
	Text    = lipgloss.Color("#DCD7BA")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true).
			MarginBottom(1)

	TextStyle = lipgloss.NewStyle().
			Foreground(Text)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Stage name column of the progress view
	StageStyle = lipgloss.NewStyle().
			Foreground(Subtle).
			Width(10)

	StatusRunning = lipgloss.NewStyle().
			Foreground(Info).
			Bold(true)

	StatusCompleted = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	StatusError = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	ProgressBarStyle = lipgloss.NewStyle().
				Foreground(Accent)

	ProgressEmptyStyle = lipgloss.NewStyle().
				Foreground(Muted)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true).
			MarginTop(1)

	// Table header of the catalog listing
	HeaderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
)

// StatusStyle picks the style for a progress status
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "downloading", "processing":
		return StatusRunning
	case "complete":
		return StatusCompleted
	case "error":
		return StatusError
	default:
		return MutedStyle
	}
}
