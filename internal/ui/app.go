package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justyntemme/webby-manga/internal/config"
	"github.com/justyntemme/webby-manga/internal/reader/session"
	"github.com/justyntemme/webby-manga/internal/reader/title"
	"github.com/justyntemme/webby-manga/internal/ui/styles"
	"github.com/justyntemme/webby-manga/internal/ui/views"
)

// Options wires the application to its collaborators
type Options struct {
	Config    *config.Config
	Session   *session.Session
	Pages     views.PageFetcher
	Locations *Locations
	Tuning    config.Tuning
	// Watcher reloads the tuning file; nil disables hot reload
	Watcher *config.TuningWatcher
	Logger  *slog.Logger
	// Chapter is opened on start
	Chapter int64
}

// App is the main application model
type App struct {
	config    *config.Config
	session   *session.Session
	locations *Locations
	watcher   *config.TuningWatcher
	logger    *slog.Logger
	keys      KeyMap

	// Current view state
	currentView views.ViewType

	// Window dimensions
	width  int
	height int

	// View models
	readerView   *views.ReaderView
	chaptersView *views.ChaptersView
	pageView     *views.PageView

	// Error/status message
	err      error
	showHelp bool
}

// NewApp creates a new application instance
func NewApp(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		config:       opts.Config,
		session:      opts.Session,
		locations:    opts.Locations,
		watcher:      opts.Watcher,
		logger:       logger,
		keys:         DefaultKeyMap(),
		currentView:  views.ViewReader,
		width:        80,
		height:       24,
		readerView:   views.NewReaderView(opts.Session),
		chaptersView: views.NewChaptersView(opts.Session),
		pageView:     views.NewPageView(opts.Pages),
	}
	app.applyCells(opts.Tuning.Cell)
	app.readerView.SetChapter(opts.Chapter)

	if opts.Config != nil && opts.Config.Theme != "" {
		styles.SetCurrentTheme(opts.Config.Theme)
	}
	return app
}

// tuningMsg carries a reloaded tuning file
type tuningMsg struct {
	tuning config.Tuning
	err    error
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.readerView.Init(),
		a.locations.Wait(),
		a.waitForTuning(),
		tea.SetWindowTitle("webby-manga"),
	)
}

// waitForTuning waits for the next tuning file change
func (a *App) waitForTuning() tea.Cmd {
	if a.watcher == nil {
		return nil
	}
	w := a.watcher
	return func() tea.Msg {
		t, err := w.Next(context.Background())
		if errors.Is(err, config.ErrWatcherClosed) {
			return nil
		}
		return tuningMsg{tuning: t, err: err}
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.readerView.SetSize(msg.Width, msg.Height)
		a.chaptersView.SetSize(msg.Width, msg.Height)
		a.pageView.SetSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if a.currentView == views.ViewChapters && a.chaptersView.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, a.keys.Help):
			a.showHelp = !a.showHelp
			return a, nil

		case key.Matches(msg, a.keys.Theme):
			a.cycleTheme()
			return a, nil

		case key.Matches(msg, a.keys.Quit):
			if msg.String() == "ctrl+c" || a.currentView == views.ViewReader {
				return a, tea.Quit
			}
			if a.currentView == views.ViewChapters {
				return a.switchView(views.ViewReader)
			}

		case key.Matches(msg, a.keys.Escape):
			if a.showHelp {
				a.showHelp = false
				return a, nil
			}
			if a.currentView == views.ViewReader {
				return a, tea.Quit
			}
			if a.currentView == views.ViewChapters {
				return a.switchView(views.ViewReader)
			}
		}

	case views.OpenChapterMsg:
		return a, a.readerView.Open(msg.ChapterID)

	case views.OpenPageMsg:
		a.pageView.SetPage(msg.Chapter, msg.Images, msg.Page)
		return a.switchView(views.ViewPage)

	case locationMsg:
		a.recordLocation(msg.chapterID)
		return a, a.locations.Wait()

	case tuningMsg:
		if msg.err != nil {
			a.logger.Warn("tuning_reload_failed", slog.String("error", msg.err.Error()))
		} else {
			a.session.Retune(msg.tuning.Session())
			a.applyCells(msg.tuning.Cell)
			a.logger.Info("tuning_reloaded")
		}
		return a, a.waitForTuning()

	case views.ErrorMsg:
		a.err = msg.Err
		return a, nil

	case views.ClearErrorMsg:
		a.err = nil
		return a, nil

	case views.SwitchViewMsg:
		return a.switchView(msg.View)
	}

	return a, a.delegate(msg)
}

// delegate routes input to the current view. The reader also receives every
// other message so its session subscription and spinner keep running.
func (a *App) delegate(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg:
		switch a.currentView {
		case views.ViewReader:
			_, cmd = a.readerView.Update(msg)
		case views.ViewChapters:
			_, cmd = a.chaptersView.Update(msg)
		case views.ViewPage:
			_, cmd = a.pageView.Update(msg)
		}
		return cmd
	}

	_, cmd = a.readerView.Update(msg)
	cmds = append(cmds, cmd)
	switch a.currentView {
	case views.ViewChapters:
		_, cmd = a.chaptersView.Update(msg)
		cmds = append(cmds, cmd)
	case views.ViewPage:
		_, cmd = a.pageView.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// recordLocation stores the active chapter in the recently read list
func (a *App) recordLocation(chapterID int64) {
	snap := a.session.Snapshot()
	if !snap.HasActive || snap.Active.Chapter.ID != chapterID || a.config == nil {
		return
	}
	ch := snap.Active.Chapter
	if err := a.config.AddRecentlyRead(ch.ID, ch.MangaID, title.Build(ch)[title.Medium]); err != nil {
		a.logger.Warn("recently_read_save_failed", slog.Int64("chapter_id", ch.ID), slog.String("error", err.Error()))
	}
}

// cycleTheme switches to the next theme and remembers it
func (a *App) cycleTheme() {
	name := styles.NextTheme()
	if a.config == nil {
		return
	}
	a.config.Theme = name
	if err := a.config.Save(); err != nil {
		a.logger.Warn("theme_save_failed", slog.String("theme", name), slog.String("error", err.Error()))
	}
}

func (a *App) applyCells(cell config.CellTuning) {
	size := views.CellSize{Width: cell.WidthPx, Height: cell.HeightPx}
	a.readerView.SetCellSize(size)
	a.pageView.SetCellSize(size)
}

// View implements tea.Model
func (a *App) View() string {
	if a.showHelp {
		return a.renderHelp()
	}

	var content string
	switch a.currentView {
	case views.ViewReader:
		content = a.readerView.View()
	case views.ViewChapters:
		content = a.chaptersView.View()
	case views.ViewPage:
		content = a.pageView.View()
	default:
		content = "Unknown view"
	}

	// Replace the last line with the error bar
	if a.err != nil {
		errorBar := styles.ErrorStyle.Render("Error: " + a.err.Error())
		lines := strings.Split(content, "\n")
		if len(lines) > 1 {
			lines = lines[:len(lines)-1]
		}
		content = lipgloss.JoinVertical(lipgloss.Left, strings.Join(lines, "\n"), errorBar)
	}
	return content
}

// switchView changes the current view and initializes it
func (a *App) switchView(view views.ViewType) (*App, tea.Cmd) {
	a.currentView = view
	a.err = nil

	switch view {
	case views.ViewChapters:
		return a, a.chaptersView.Init()
	case views.ViewPage:
		return a, a.pageView.Init()
	}
	return a, nil
}

// renderHelp renders the help overlay
func (a *App) renderHelp() string {
	section := func(name string, bindings []key.Binding) string {
		var b strings.Builder
		b.WriteString(styles.HelpKey.Render(name) + "\n")
		for _, binding := range bindings {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-9s %s\n", h.Key, h.Desc))
		}
		return b.String()
	}

	help := styles.Dialog.Width(50).Render(
		styles.DialogTitle.Render("Keyboard Shortcuts") + "\n\n" +
			section("Reader", a.keys.ReaderHelp()) + "\n" +
			styles.HelpKey.Render("Mouse") + "\n" +
			"  wheel     scroll\n" +
			"  tap       toggle header\n" +
			"  2× tap    like chapter\n" +
			"  swipe     next/prev chapter\n\n" +
			section("General", a.keys.GeneralHelp()),
	)

	return lipgloss.Place(
		a.width,
		a.height,
		lipgloss.Center,
		lipgloss.Center,
		help,
	)
}
