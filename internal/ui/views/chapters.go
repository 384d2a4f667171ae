package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/justyntemme/webby-manga/internal/reader/session"
	"github.com/justyntemme/webby-manga/internal/reader/title"
	"github.com/justyntemme/webby-manga/internal/reader/visibility"
	"github.com/justyntemme/webby-manga/internal/ui/styles"
)

// chapterItem adapts a session chapter row to the list
type chapterItem struct {
	item session.ChapterItem
}

func (i chapterItem) Title() string {
	name := title.Build(i.item.Chapter)[title.Full]
	switch {
	case i.item.Active:
		return "▶ " + name
	case i.item.Completed:
		return "✓ " + name
	default:
		return "  " + name
	}
}

func (i chapterItem) Description() string {
	var parts []string
	switch {
	case i.item.Loading:
		parts = append(parts, "loading")
	case i.item.Completed:
		parts = append(parts, "read")
	case i.item.Phase != visibility.Inactive:
		parts = append(parts, i.item.Phase.String())
	}
	if n := i.item.Chapter.PageCount; n > 0 {
		parts = append(parts, fmt.Sprintf("%d pages", n))
	}
	parts = append(parts, "♥ "+humanize.Comma(i.item.Chapter.LikeCount))
	return "  " + strings.Join(parts, " · ")
}

func (i chapterItem) FilterValue() string {
	return title.Build(i.item.Chapter)[title.Full]
}

// ChaptersView is the chapter jump list
type ChaptersView struct {
	session *session.Session
	list    list.Model

	width  int
	height int
}

// NewChaptersView creates the jump list for s
func NewChaptersView(s *session.Session) *ChaptersView {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(styles.Primary).BorderForeground(styles.Primary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(styles.Secondary).BorderForeground(styles.Primary)

	l := list.New(nil, delegate, 80, 24)
	l.Title = "Chapters"
	l.Styles.Title = styles.Header
	l.SetShowHelp(false)

	return &ChaptersView{
		session: s,
		list:    l,
		width:   80,
		height:  24,
	}
}

// Init implements View
func (v *ChaptersView) Init() tea.Cmd {
	return v.refresh()
}

// refresh reloads the rows and selects the active chapter
func (v *ChaptersView) refresh() tea.Cmd {
	snap := v.session.Snapshot()
	items := make([]list.Item, len(snap.Chapters))
	selected := 0
	for i, ch := range snap.Chapters {
		items[i] = chapterItem{item: ch}
		if ch.Active {
			selected = i
		}
	}
	cmd := v.list.SetItems(items)
	v.list.Select(selected)
	return cmd
}

// Update implements View
func (v *ChaptersView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.list.FilterState() == list.Filtering {
			break
		}
		if msg.String() == "enter" {
			item, ok := v.list.SelectedItem().(chapterItem)
			if !ok {
				return v, nil
			}
			id := item.item.Chapter.ID
			return v, tea.Batch(
				SwitchTo(ViewReader),
				func() tea.Msg { return OpenChapterMsg{ChapterID: id} },
			)
		}
	case sessionChangedMsg:
		return v, v.refresh()
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// Filtering reports whether the list is taking text input
func (v *ChaptersView) Filtering() bool {
	return v.list.FilterState() == list.Filtering
}

// View implements View
func (v *ChaptersView) View() string {
	return v.list.View()
}

// SetSize implements View
func (v *ChaptersView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.list.SetSize(width, height)
}
