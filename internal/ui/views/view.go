package views

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justyntemme/webby-manga/pkg/models"
)

// ViewType represents different screens in the application
type ViewType int

const (
	ViewReader ViewType = iota
	ViewChapters
	ViewPage
)

// String returns the name of the view
func (v ViewType) String() string {
	switch v {
	case ViewReader:
		return "Reader"
	case ViewChapters:
		return "Chapters"
	case ViewPage:
		return "Page Viewer"
	default:
		return "Unknown"
	}
}

// View is the interface that all views must implement
type View interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (View, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// Message types for inter-view communication

// OpenChapterMsg asks the reader to show a chapter
type OpenChapterMsg struct {
	ChapterID int64
}

// OpenPageMsg opens a single page in the page viewer
type OpenPageMsg struct {
	Chapter models.Chapter
	Images  []models.ChapterImage
	Page    int
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Err error
}

// ClearErrorMsg clears the current error
type ClearErrorMsg struct{}

// SwitchViewMsg requests a view switch
type SwitchViewMsg struct {
	View ViewType
}

// Helper functions to create messages

// SendError creates an error message command
func SendError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Err: err}
	}
}

// ClearError creates a command to clear errors
func ClearError() tea.Cmd {
	return func() tea.Msg {
		return ClearErrorMsg{}
	}
}

// SwitchTo creates a command to switch views
func SwitchTo(view ViewType) tea.Cmd {
	return func() tea.Msg {
		return SwitchViewMsg{View: view}
	}
}
