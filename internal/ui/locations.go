package ui

import tea "github.com/charmbracelet/bubbletea"

// locationMsg reports the chapter the reader is on
type locationMsg struct {
	chapterID int64
}

// Locations carries location changes from the session to the UI loop.
// Only the latest location is kept.
type Locations struct {
	ch chan int64
}

// NewLocations creates an empty location feed
func NewLocations() *Locations {
	return &Locations{ch: make(chan int64, 1)}
}

// ReplaceLocation implements progress.Navigator
func (l *Locations) ReplaceLocation(chapterID int64) {
	for {
		select {
		case l.ch <- chapterID:
			return
		default:
		}
		select {
		case <-l.ch:
		default:
		}
	}
}

// Wait returns a command that delivers the next location
func (l *Locations) Wait() tea.Cmd {
	if l == nil {
		return nil
	}
	return func() tea.Msg {
		return locationMsg{chapterID: <-l.ch}
	}
}
