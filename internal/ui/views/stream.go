package views

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/justyntemme/webby-manga/internal/reader/layout"
	"github.com/justyntemme/webby-manga/internal/reader/session"
	"github.com/justyntemme/webby-manga/internal/reader/title"
	"github.com/justyntemme/webby-manga/internal/ui/styles"
)

// CellSize is the pixel size of one terminal cell
type CellSize struct {
	Width  float64
	Height float64
}

// DefaultCellSize is used until the tuning says otherwise
var DefaultCellSize = CellSize{Width: 10, Height: 20}

type rowKind int

const (
	rowBlank rowKind = iota
	rowDivider
	rowFrame
	rowPage
	rowMissing
	rowNotFound
	rowBridge
	rowEnd
	rowLoading
)

// streamRow is one plain text terminal row of the chapter stream
type streamRow struct {
	kind rowKind
	text string
}

// renderStream lays the snapshot out as rows of exactly cols cells
func renderStream(snap session.Snapshot, cols, rows int, cell CellSize, spin string) []streamRow {
	out := make([]streamRow, rows)
	vp := snap.Viewport

	boxCols := cols - 2
	if snap.PageWidth > 0 {
		boxCols = min(boxCols, int(snap.PageWidth/cell.Width))
	}
	boxCols = max(boxCols, 8)

	for r := range out {
		top := vp.Top + float64(r)*cell.Height
		out[r] = streamRow{kind: rowBlank}
		for _, bv := range snap.Blocks {
			b := bv.Block
			if top+cell.Height <= b.Rect.Top || top >= b.Rect.Bottom() {
				continue
			}
			// A row may straddle two blocks; the first with content wins
			if row := blockRow(snap, bv, top, cell, boxCols, spin); row.kind != rowBlank {
				out[r] = row
				break
			}
		}
		out[r].text = fill(out[r].text, cols)
	}
	return out
}

func blockRow(snap session.Snapshot, bv session.BlockView, top float64, cell CellSize, boxCols int, spin string) streamRow {
	b := bv.Block
	bottom := top + cell.Height
	starts := func(r layout.Rect) bool { return r.Top >= top && r.Top < bottom }
	contains := func(r layout.Rect) bool { return top < r.Bottom() && bottom > r.Top }

	if b.Empty && len(b.Pages) == 1 && contains(b.Pages[0]) {
		mid := b.Pages[0].Top + b.Pages[0].Height/2
		if mid >= top && mid < bottom {
			return streamRow{kind: rowNotFound, text: center("Chapter not found", boxCols+2)}
		}
		return streamRow{}
	}

	for i, p := range b.Pages {
		if !contains(p) {
			continue
		}
		inRange := i < len(bv.InRange) && bv.InRange[i]
		return pageRow(bv, i, p, top, bottom, boxCols, inRange)
	}

	if contains(b.Header) {
		if b.Index == 0 || !starts(b.Header) {
			return streamRow{}
		}
		label := " " + title.Build(bv.Entry.Chapter)[title.Full] + " "
		return streamRow{kind: rowDivider, text: center("──"+label+"──", boxCols+2)}
	}

	if contains(b.Trailer) && b.Rect.Bottom() >= snap.TotalHeight {
		mid := b.Trailer.Top + cell.Height
		if mid < top || mid >= bottom {
			return streamRow{}
		}
		switch {
		case snap.LoadingForward:
			return streamRow{kind: rowLoading, text: center(spin+" Loading next chapter", boxCols+2)}
		case snap.Next != nil:
			return streamRow{kind: rowBridge, text: center("↓ Next: Ch. "+snap.Next.DisplayNumber(), boxCols+2)}
		default:
			return streamRow{kind: rowEnd, text: center("You're all caught up", boxCols+2)}
		}
	}
	return streamRow{}
}

func pageRow(bv session.BlockView, i int, p layout.Rect, top, bottom float64, boxCols int, inRange bool) streamRow {
	inner := boxCols - 2
	total := len(bv.Block.Pages)

	switch {
	case p.Top >= top && p.Top < bottom:
		label := fmt.Sprintf(" %d/%d ", i+1, total)
		bar := "┌" + label + strings.Repeat("─", max(0, inner-runewidth.StringWidth(label))) + "┐"
		return streamRow{kind: rowFrame, text: " " + bar}
	case p.Bottom() > top && p.Bottom() <= bottom:
		return streamRow{kind: rowFrame, text: " └" + strings.Repeat("─", inner) + "┘"}
	}

	mid := p.Top + p.Height/2
	body := strings.Repeat(" ", inner)
	kind := rowPage
	if !inRange {
		body = strings.Repeat("·", inner)
		kind = rowMissing
	} else if mid >= top && mid < bottom && i < len(bv.Entry.Images) {
		img := bv.Entry.Images[i]
		caption := fmt.Sprintf("page %d", img.PageNumber)
		if img.Width > 0 && img.Height > 0 {
			caption += fmt.Sprintf("  %d×%d", img.Width, img.Height)
		}
		body = center(caption, inner)
	}
	return streamRow{kind: kind, text: " │" + fill(body, inner) + "│"}
}

// styleRow renders a row, drawing heart bursts at the given columns
func styleRow(row streamRow, hearts []int) string {
	style := rowStyle(row.kind)
	if len(hearts) == 0 {
		return style.Render(row.text)
	}

	var b strings.Builder
	col := 0
	text := row.text
	for _, h := range hearts {
		if h < col {
			continue
		}
		left := runewidth.Truncate(runewidth.TruncateLeft(text, col, ""), h-col, "")
		b.WriteString(style.Render(left))
		b.WriteString(styles.Heart.Render("♥"))
		col = h + 1
	}
	b.WriteString(style.Render(runewidth.TruncateLeft(text, col, "")))
	return b.String()
}

func rowStyle(kind rowKind) lipgloss.Style {
	switch kind {
	case rowDivider:
		return styles.ChapterDivider
	case rowFrame, rowMissing:
		return styles.PageFrame
	case rowPage:
		return styles.PageLabel
	case rowNotFound:
		return styles.ErrorStyle.Padding(0)
	case rowBridge:
		return styles.Bridge
	case rowLoading:
		return styles.Spinner
	case rowEnd:
		return styles.MutedText
	default:
		return lipgloss.NewStyle()
	}
}

// heartColumns groups burst positions by row
func heartColumns(snap session.Snapshot, cols, rows int, cell CellSize) map[int][]int {
	hearts := make(map[int][]int)
	for _, burst := range snap.Bursts {
		r := int(math.Floor(burst.At.Y / cell.Height))
		c := int(math.Floor(burst.At.X / cell.Width))
		if r < 0 || r >= rows || c < 0 || c >= cols {
			continue
		}
		hearts[r] = insertSorted(hearts[r], c)
	}
	return hearts
}

func insertSorted(cols []int, c int) []int {
	for i, v := range cols {
		if v == c {
			return cols
		}
		if v > c {
			return append(cols[:i], append([]int{c}, cols[i:]...)...)
		}
	}
	return append(cols, c)
}

func center(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return runewidth.Truncate(s, width, "…")
	}
	return strings.Repeat(" ", (width-w)/2) + s
}

func fill(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, ""), width)
}
