package views

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/justyntemme/webby-manga/internal/reader/title"
	"github.com/justyntemme/webby-manga/internal/ui/styles"
	"github.com/justyntemme/webby-manga/internal/ui/terminal"
	"github.com/justyntemme/webby-manga/pkg/models"
)

// Zoom levels available
var zoomLevels = []float64{1.0, 1.5, 2.0, 3.0}

// PageFetcher downloads page images
type PageFetcher interface {
	GetPageImage(ctx context.Context, img models.ChapterImage) ([]byte, string, error)
}

// PageView shows a single page with a terminal graphics protocol
type PageView struct {
	fetcher PageFetcher
	cell    CellSize

	chapter models.Chapter
	images  []models.ChapterImage
	page    int

	loading bool
	err     error
	size    int
	decoded image.Image

	zoomIndex int
	panX      float64
	panY      float64

	termMode terminal.TermImageMode

	width  int
	height int
}

// NewPageView creates a page viewer
func NewPageView(fetcher PageFetcher) *PageView {
	return &PageView{
		fetcher:  fetcher,
		cell:     DefaultCellSize,
		width:    80,
		height:   24,
		termMode: terminal.DetectTerminalMode(),
	}
}

// SetPage selects the chapter and page shown on the next Init
func (v *PageView) SetPage(chapter models.Chapter, images []models.ChapterImage, page int) {
	v.chapter = chapter
	v.images = images
	v.page = max(0, min(page, len(images)-1))
	v.reset()
}

// SetCellSize changes the assumed cell geometry
func (v *PageView) SetCellSize(cell CellSize) {
	if cell.Width > 0 && cell.Height > 0 {
		v.cell = cell
	}
}

func (v *PageView) reset() {
	v.decoded = nil
	v.err = nil
	v.size = 0
	v.zoomIndex = 0
	v.panX, v.panY = 0.5, 0.5
}

// pageLoadedMsg is sent when a page image is downloaded
type pageLoadedMsg struct {
	chapterID int64
	page      int
	img       image.Image
	size      int
	err       error
}

// Init implements View
func (v *PageView) Init() tea.Cmd {
	return v.load()
}

// Update implements View
func (v *PageView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v, v.handleKeyMsg(msg)
	case pageLoadedMsg:
		if msg.chapterID != v.chapter.ID || msg.page != v.page {
			return v, nil
		}
		v.loading = false
		v.err = msg.err
		v.decoded = msg.img
		v.size = msg.size
	}
	return v, nil
}

func (v *PageView) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	switch key {
	case "q", "esc":
		v.Clear()
		return SwitchTo(ViewReader)
	case "+", "=":
		v.zoomIndex = min(v.zoomIndex+1, len(zoomLevels)-1)
		return nil
	case "-", "_":
		v.zoomIndex = max(v.zoomIndex-1, 0)
		return nil
	case "0":
		v.zoomIndex = 0
		v.panX, v.panY = 0.5, 0.5
		return nil
	}

	if v.zoomIndex > 0 {
		switch key {
		case "h", "left":
			v.panX = clamp01(v.panX - panStep)
			return nil
		case "l", "right":
			v.panX = clamp01(v.panX + panStep)
			return nil
		case "k", "up":
			v.panY = clamp01(v.panY - panStep)
			return nil
		case "j", "down":
			v.panY = clamp01(v.panY + panStep)
			return nil
		}
	}

	switch key {
	case "n", " ", "pgdown", "l", "right", "j", "down":
		return v.turn(1)
	case "p", "pgup", "h", "left", "k", "up":
		return v.turn(-1)
	}
	return nil
}

// Pan moves in 10% increments
const panStep = 0.1

func clamp01(f float64) float64 {
	return max(0, min(1, f))
}

func (v *PageView) turn(delta int) tea.Cmd {
	next := v.page + delta
	if next < 0 || next >= len(v.images) {
		return nil
	}
	v.page = next
	v.reset()
	return v.load()
}

func (v *PageView) load() tea.Cmd {
	if v.page >= len(v.images) {
		return nil
	}
	v.loading = true
	img := v.images[v.page]
	chapterID, page := v.chapter.ID, v.page
	fetcher := v.fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		data, _, err := fetcher.GetPageImage(ctx, img)
		if err != nil {
			return pageLoadedMsg{chapterID: chapterID, page: page, err: err}
		}
		decoded, err := terminal.DecodePage(data)
		return pageLoadedMsg{chapterID: chapterID, page: page, img: decoded, size: len(data), err: err}
	}
}

// View implements View
func (v *PageView) View() string {
	var b strings.Builder
	b.WriteString(v.renderHeader() + "\n")

	contentHeight := v.height - 2
	place := func(s string) string {
		return lipgloss.Place(v.width, contentHeight, lipgloss.Center, lipgloss.Center, s)
	}

	switch {
	case v.err != nil:
		b.WriteString(place(styles.ErrorStyle.Render("Error: " + v.err.Error())))
	case v.termMode == terminal.TermModeNone:
		b.WriteString(place(styles.MutedText.Render("Terminal does not support images.\n\nSupported terminals: Kitty, iTerm2, or Sixel-capable terminals.")))
	case v.loading || v.decoded == nil:
		b.WriteString(place(styles.MutedText.Render(fmt.Sprintf("Loading page %d...", v.page+1))))
	default:
		b.WriteString(v.renderImage(contentHeight))
	}

	b.WriteString("\n")
	b.WriteString(v.renderFooter())
	return b.String()
}

func (v *PageView) renderHeader() string {
	name := title.Build(v.chapter)[title.Medium]
	right := ""
	if len(v.images) > 0 {
		right = fmt.Sprintf("%d/%d", v.page+1, len(v.images))
		if v.size > 0 {
			right += "  " + humanize.Bytes(uint64(v.size))
		}
		if v.zoomIndex > 0 {
			right += fmt.Sprintf(" [%d%%]", int(zoomLevels[v.zoomIndex]*100))
		}
	}
	name = styles.TruncateText(name, max(v.width-lipgloss.Width(right)-4, 0))
	gap := max(v.width-2-lipgloss.Width(name)-lipgloss.Width(right), 1)
	return styles.Header.Width(v.width).MaxWidth(v.width).Render(name + strings.Repeat(" ", gap) + right)
}

func (v *PageView) renderImage(rows int) string {
	img := terminal.Fit(v.viewportImage(), int(float64(v.width)*v.cell.Width), int(float64(rows)*v.cell.Height))
	out, err := terminal.RenderImageToString(img, v.termMode)
	if err != nil {
		return styles.ErrorStyle.Render("Render error: " + err.Error())
	}
	return out
}

// viewportImage returns the part of the page visible at the current zoom and pan
func (v *PageView) viewportImage() image.Image {
	zoom := zoomLevels[v.zoomIndex]
	if zoom <= 1 {
		return v.decoded
	}

	bounds := v.decoded.Bounds()
	viewW := int(float64(bounds.Dx()) / zoom)
	viewH := int(float64(bounds.Dy()) / zoom)
	offX := int(v.panX * float64(bounds.Dx()-viewW))
	offY := int(v.panY * float64(bounds.Dy()-viewH))

	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if si, ok := v.decoded.(subImager); ok {
		return si.SubImage(image.Rect(
			bounds.Min.X+offX,
			bounds.Min.Y+offY,
			bounds.Min.X+offX+viewW,
			bounds.Min.Y+offY+viewH,
		))
	}
	return v.decoded
}

func (v *PageView) renderFooter() string {
	help := []string{
		styles.HelpKey.Render("n/p") + styles.Help.Render(" page"),
		styles.HelpKey.Render("+/-") + styles.Help.Render(" zoom"),
		styles.HelpKey.Render("q") + styles.Help.Render(" back"),
	}
	if v.zoomIndex > 0 {
		help = append([]string{styles.HelpKey.Render("hjkl") + styles.Help.Render(" pan")}, help...)
	}
	return styles.FooterBar.Width(v.width).Render(strings.Join(help, "  "))
}

// Clear removes the page image from the terminal
func (v *PageView) Clear() {
	if seq := terminal.ClearImages(v.termMode); seq != "" {
		os.Stdout.WriteString(seq)
	}
}

// SetSize implements View
func (v *PageView) SetSize(width, height int) {
	v.width = width
	v.height = height
}
