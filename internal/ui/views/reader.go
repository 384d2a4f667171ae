package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/justyntemme/webby-manga/internal/reader/gesture"
	"github.com/justyntemme/webby-manga/internal/reader/loader"
	"github.com/justyntemme/webby-manga/internal/reader/session"
	"github.com/justyntemme/webby-manga/internal/ui/styles"
)

const (
	// requestTimeout bounds every user-triggered load
	requestTimeout = 30 * time.Second
	// scrollLines is how far one key press or wheel notch scrolls
	scrollLines = 3
)

// ReaderView displays the continuous chapter stream
type ReaderView struct {
	session *session.Session
	spinner spinner.Model
	cell    CellSize

	chapterID int64
	opening   bool
	err       error

	snap session.Snapshot

	// Last pointer position while the left button is held
	dragging bool
	lastDrag gesture.Point

	// Dimensions in cells
	width  int
	height int
}

// NewReaderView creates a reader over s
func NewReaderView(s *session.Session) *ReaderView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner
	return &ReaderView{
		session: s,
		spinner: sp,
		cell:    DefaultCellSize,
		width:   80,
		height:  24,
	}
}

// SetChapter selects the chapter opened on the next Init
func (v *ReaderView) SetChapter(chapterID int64) {
	v.chapterID = chapterID
}

// SetCellSize changes the assumed cell geometry
func (v *ReaderView) SetCellSize(cell CellSize) {
	if cell.Width <= 0 || cell.Height <= 0 {
		return
	}
	v.cell = cell
	v.resizeSession()
}

// Message types
type readerOpenedMsg struct {
	chapterID int64
	err       error
}

type sessionChangedMsg struct{}

type navigatedMsg struct {
	err error
}

// Init implements View
func (v *ReaderView) Init() tea.Cmd {
	cmds := []tea.Cmd{v.waitForChange(), v.spinner.Tick}
	if v.chapterID != 0 {
		cmds = append(cmds, v.Open(v.chapterID))
	}
	return tea.Batch(cmds...)
}

// Open loads chapterID into the stream
func (v *ReaderView) Open(chapterID int64) tea.Cmd {
	v.chapterID = chapterID
	v.opening = true
	v.err = nil
	s := v.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return readerOpenedMsg{chapterID: chapterID, err: s.Open(ctx, chapterID)}
	}
}

// waitForChange blocks until the session reports a change
func (v *ReaderView) waitForChange() tea.Cmd {
	changes := v.session.Changes()
	return func() tea.Msg {
		<-changes
		return sessionChangedMsg{}
	}
}

// Update implements View
func (v *ReaderView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := v.handleKeyMsg(msg)
		v.snap = v.session.Snapshot()
		return v, cmd
	case tea.MouseMsg:
		cmd := v.handleMouseMsg(msg)
		v.snap = v.session.Snapshot()
		return v, cmd
	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	case sessionChangedMsg:
		v.snap = v.session.Snapshot()
		return v, v.waitForChange()
	case readerOpenedMsg:
		if msg.chapterID != v.chapterID {
			return v, nil
		}
		v.opening = false
		v.err = msg.err
		v.snap = v.session.Snapshot()
		return v, nil
	case navigatedMsg:
		if msg.err != nil && !errors.Is(msg.err, loader.ErrOutOfRange) {
			return v, SendError(msg.err)
		}
		return v, nil
	}
	return v, nil
}

// handleKeyMsg processes key presses
func (v *ReaderView) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	page := v.snap.Viewport.Height * 0.9
	switch msg.String() {
	case "j", "down":
		v.scroll(scrollLines * v.cell.Height)
	case "k", "up":
		v.scroll(-scrollLines * v.cell.Height)
	case "pgdown", " ", "ctrl+d":
		v.scroll(page)
	case "pgup", "ctrl+u":
		v.scroll(-page)
	case "n", "right":
		return v.navigate(v.session.NavigateNext)
	case "p", "left":
		return v.navigate(v.session.NavigatePrev)
	case "h":
		v.session.ToggleChrome()
	case "f":
		v.session.DoubleClick(v.point(v.width/2, v.height/2))
	case "t":
		return SwitchTo(ViewChapters)
	case "enter":
		return v.openCenterPage()
	}
	return nil
}

// handleMouseMsg maps the mouse onto the touch gesture model
func (v *ReaderView) handleMouseMsg(msg tea.MouseMsg) tea.Cmd {
	p := v.point(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			v.scroll(-scrollLines * v.cell.Height)
		case tea.MouseButtonWheelDown:
			v.scroll(scrollLines * v.cell.Height)
		case tea.MouseButtonLeft:
			v.dragging = true
			v.lastDrag = p
			v.session.PointerDown(p)
		}
	case tea.MouseActionMotion:
		if v.dragging {
			// Dragging moves the content with the pointer
			v.scroll(v.lastDrag.Y - p.Y)
			v.lastDrag = p
			v.session.PointerMove(p)
		}
	case tea.MouseActionRelease:
		if v.dragging {
			v.dragging = false
			v.session.PointerUp(p)
		}
	}
	return nil
}

// point converts a cell position to the pixel at the cell's center
func (v *ReaderView) point(x, y int) gesture.Point {
	return gesture.Point{
		X: (float64(x) + 0.5) * v.cell.Width,
		Y: (float64(y) + 0.5) * v.cell.Height,
	}
}

func (v *ReaderView) scroll(delta float64) {
	if delta == 0 {
		return
	}
	v.session.Scroll(delta)
}

func (v *ReaderView) navigate(move func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return navigatedMsg{err: move(ctx)}
	}
}

// openCenterPage opens the page under the middle of the screen
func (v *ReaderView) openCenterPage() tea.Cmd {
	vp := v.snap.Viewport
	y := vp.Top + vp.Height/2
	for _, bv := range v.snap.Blocks {
		if bv.Block.Empty {
			continue
		}
		for i, p := range bv.Block.Pages {
			if y >= p.Top && y < p.Bottom() {
				msg := OpenPageMsg{Chapter: bv.Entry.Chapter, Images: bv.Entry.Images, Page: i}
				return func() tea.Msg { return msg }
			}
		}
	}
	return nil
}

// View implements View
func (v *ReaderView) View() string {
	if v.err != nil {
		text := "Error: " + v.err.Error()
		if errors.Is(v.err, session.ErrChapterNotFound) {
			text = "Chapter not found"
		}
		return v.place(styles.ErrorStyle.Render(text) + "\n\n" + styles.Help.Render("q to quit"))
	}
	if v.chapterID == 0 {
		return v.place(styles.MutedText.Render("No chapter to open.\n\nStart with -chapter <id>."))
	}
	if v.opening && len(v.snap.Blocks) == 0 {
		return v.place(v.spinner.View() + styles.MutedText.Render(" Loading chapter..."))
	}

	rows := renderStream(v.snap, v.width, v.height, v.cell, v.spinner.View())
	hearts := heartColumns(v.snap, v.width, v.height, v.cell)

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = styleRow(row, hearts[i])
	}
	if v.snap.Chrome && len(lines) >= 2 {
		lines[0] = v.renderHeader()
		lines[len(lines)-1] = v.renderFooter()
	}
	return strings.Join(lines, "\n")
}

func (v *ReaderView) place(content string) string {
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, content)
}

// renderHeader renders the chapter title, position and like state
func (v *ReaderView) renderHeader() string {
	var right []string
	if v.snap.LoadingBackward {
		right = append(right, v.spinner.View())
	}
	if v.snap.HasActive {
		right = append(right, v.renderLike())
		right = append(right, fmt.Sprintf("%d/%d", v.snap.Active.Index+1, len(v.snap.Chapters)))
	}
	rightPart := strings.Join(right, "  ")

	// Header padding takes two cells
	available := v.width - lipgloss.Width(rightPart) - 4
	name := ""
	if v.snap.HasActive && available > 0 {
		name = v.session.Title(float64(available) * v.cell.Width).Text
	}
	name = styles.TruncateText(name, max(available, 0))

	gap := max(v.width-2-lipgloss.Width(name)-lipgloss.Width(rightPart), 1)
	return styles.Header.Width(v.width).MaxWidth(v.width).Render(name + strings.Repeat(" ", gap) + rightPart)
}

func (v *ReaderView) renderLike() string {
	count := humanize.Comma(v.snap.Active.Chapter.LikeCount)
	switch {
	case v.snap.Like.InFlight:
		return v.spinner.View() + " " + count
	case v.snap.Like.Liked:
		return "♥ " + count
	default:
		return "♡ " + count
	}
}

// renderFooter renders the key help and forward loading state
func (v *ReaderView) renderFooter() string {
	help := []string{
		styles.HelpKey.Render("j/k") + styles.Help.Render(" scroll"),
		styles.HelpKey.Render("n/p") + styles.Help.Render(" chapter"),
		styles.HelpKey.Render("f") + styles.Help.Render(" like"),
		styles.HelpKey.Render("t") + styles.Help.Render(" chapters"),
		styles.HelpKey.Render("h") + styles.Help.Render(" hide"),
		styles.HelpKey.Render("?") + styles.Help.Render(" help"),
	}
	text := strings.Join(help, "  ")
	if v.snap.LoadingForward {
		text = v.spinner.View() + " " + text
	}
	return styles.FooterBar.Width(v.width).MaxWidth(v.width).Render(text)
}

// SetSize implements View
func (v *ReaderView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.resizeSession()
}

func (v *ReaderView) resizeSession() {
	v.session.Resize(float64(v.width)*v.cell.Width, float64(v.height)*v.cell.Height)
	v.snap = v.session.Snapshot()
}

// Snapshot returns the state last rendered
func (v *ReaderView) Snapshot() session.Snapshot {
	return v.snap
}
