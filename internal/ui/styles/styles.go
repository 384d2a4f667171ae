package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	// Colors
	Primary    = lipgloss.Color("#7C3AED") // Purple
	Secondary  = lipgloss.Color("#06B6D4") // Cyan
	Success    = lipgloss.Color("#10B981") // Green
	Warning    = lipgloss.Color("#F59E0B") // Amber
	Error      = lipgloss.Color("#EF4444") // Red
	Muted      = lipgloss.Color("#6B7280") // Gray
	Background = lipgloss.Color("#1F2937") // Dark gray
	Foreground = lipgloss.Color("#F9FAFB") // Light gray
	Border     = lipgloss.Color("#374151") // Gray border

	// Header bar shown with the chrome
	Header = lipgloss.NewStyle().
		Foreground(Foreground).
		Background(Primary).
		Padding(0, 1).
		Bold(true)

	// Footer bar shown with the chrome
	FooterBar = lipgloss.NewStyle().
		Foreground(Muted).
		Background(Background).
		Padding(0, 1)

	// Help text
	Help = lipgloss.NewStyle().
		Foreground(Muted)

	HelpKey = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	MutedText = lipgloss.NewStyle().
		Foreground(Muted)

	SecondaryText = lipgloss.NewStyle().
		Foreground(Secondary)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true).
		Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true).
		Padding(0, 1)

	// Stream styles
	ChapterDivider = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	PageFrame = lipgloss.NewStyle().
		Foreground(Border)

	PageLabel = lipgloss.NewStyle().
		Foreground(Foreground)

	Bridge = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	Heart = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	Completed = lipgloss.NewStyle().
		Foreground(Success)

	Spinner = lipgloss.NewStyle().
		Foreground(Secondary)

	// Dialog/Modal styles
	Dialog = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary).
		Padding(1, 2)

	DialogTitle = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true).
		MarginBottom(1)
)

// TruncateText shortens s to at most width cells, adding an ellipsis
func TruncateText(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
