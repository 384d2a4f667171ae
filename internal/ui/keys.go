package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all application key bindings
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Actions
	Enter  key.Binding
	Escape key.Binding
	Quit   key.Binding
	Help   key.Binding
	Theme  key.Binding

	// Reader specific
	NextChapter  key.Binding
	PrevChapter  key.Binding
	Chapters     key.Binding
	ToggleChrome key.Binding
	Like         key.Binding
}

// DefaultKeyMap returns the default vim-like key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp/^u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d", " "),
			key.WithHelp("PgDn/^d", "page down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "view page"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Theme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("^t", "next theme"),
		),
		NextChapter: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n/→", "next chapter"),
		),
		PrevChapter: key.NewBinding(
			key.WithKeys("p", "left"),
			key.WithHelp("p/←", "prev chapter"),
		),
		Chapters: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "chapter list"),
		),
		ToggleChrome: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle header"),
		),
		Like: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "like chapter"),
		),
	}
}

// ReaderHelp returns the bindings shown in the help overlay
func (k KeyMap) ReaderHelp() []key.Binding {
	return []key.Binding{
		k.Down, k.Up, k.PageDown, k.PageUp,
		k.NextChapter, k.PrevChapter, k.Chapters,
		k.ToggleChrome, k.Like, k.Enter,
	}
}

// GeneralHelp returns the bindings available everywhere
func (k KeyMap) GeneralHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Escape, k.Help, k.Theme}
}
