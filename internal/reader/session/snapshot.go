package session

import (
	"github.com/justyntemme/webby-manga/internal/reader/gesture"
	"github.com/justyntemme/webby-manga/internal/reader/layout"
	"github.com/justyntemme/webby-manga/internal/reader/likes"
	"github.com/justyntemme/webby-manga/internal/reader/visibility"
	"github.com/justyntemme/webby-manga/internal/reader/window"
	"github.com/justyntemme/webby-manga/pkg/models"
)

// ChapterItem is one row of the chapter jump list
type ChapterItem struct {
	Index     int
	Chapter   models.Chapter
	Phase     visibility.Phase
	Loaded    bool
	Loading   bool
	Completed bool
	Active    bool
}

// BlockView is a block near the viewport with its content
type BlockView struct {
	Block layout.Block
	Entry window.Entry
	// InRange marks pages close enough to the viewport to be drawn
	InRange []bool
}

// Snapshot is a consistent view of the session for rendering
type Snapshot struct {
	MangaID   int64
	HasActive bool
	Active    window.Entry
	// Next is the chapter after the last loaded one, if any
	Next *models.Chapter

	Chrome          bool
	LoadingForward  bool
	LoadingBackward bool
	Like            likes.State

	Chapters    []ChapterItem
	Blocks      []BlockView
	Viewport    layout.Viewport
	PageWidth   float64
	TotalHeight float64
	Bursts      []gesture.Burst
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	blocks, vp := s.surface.Frame()
	mangaID, _ := s.MangaID()

	snap := Snapshot{
		MangaID:         mangaID,
		Chrome:          s.chrome.Visible(),
		LoadingForward:  s.loader.LoadingForward(),
		LoadingBackward: s.loader.LoadingBackward(),
		Viewport:        vp,
		PageWidth:       s.surface.Metrics().PageWidth(),
		Bursts:          s.gesture.Bursts(),
	}
	if n := len(blocks); n > 0 {
		snap.TotalHeight = blocks[n-1].Rect.Bottom()
		if next, ok := s.loader.ChapterAt(blocks[n-1].Index + 1); ok {
			snap.Next = &next
		}
	}

	if entry, ok := s.store.ActiveEntry(); ok {
		snap.HasActive = true
		snap.Active = entry
		snap.Like = s.likes.State(entry.Chapter.ID)
	}

	phases := s.tracker.Phases()
	for i, ch := range s.loader.Chapters() {
		phase := phases[i]
		snap.Chapters = append(snap.Chapters, ChapterItem{
			Index:     i,
			Chapter:   ch,
			Phase:     phase,
			Loaded:    s.store.Has(i),
			Loading:   s.loader.Loading(i),
			Completed: phase == visibility.Completed || s.progress.IsCompleted(ch.ID),
			Active:    snap.HasActive && snap.Active.Index == i,
		})
	}

	for _, b := range blocks {
		if b.Rect.Bottom() < vp.Top || b.Rect.Top > vp.Bottom() {
			continue
		}
		entry, ok := s.store.Entry(b.Index)
		if !ok {
			continue
		}
		snap.Blocks = append(snap.Blocks, BlockView{
			Block:   b,
			Entry:   entry,
			InRange: s.tracker.InRange(geometry(b, vp), vp.Height),
		})
	}
	return snap
}
