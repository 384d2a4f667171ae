// Package progress reports chapter views and completions to the reading
// progress service, at most once per chapter per session.
package progress

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/justyntemme/webby-manga/internal/reader/optimistic"
	"github.com/justyntemme/webby-manga/pkg/models"
)

// Tracker is the reading progress service
type Tracker interface {
	TrackChapterViewed(ctx context.Context, mangaID, chapterID int64, chapterNumber float64, previous *models.Chapter) error
	MarkChapterCompleted(ctx context.Context, mangaID, chapterID int64, chapterNumber float64) error
	IsChapterCompleted(chapterID int64) bool
}

// Navigator receives the chapter the reader is currently on
type Navigator interface {
	ReplaceLocation(chapterID int64)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(chapterID int64)

// ReplaceLocation calls f
func (f NavigatorFunc) ReplaceLocation(chapterID int64) { f(chapterID) }

// Options configures a Synchronizer
type Options struct {
	Logger    *slog.Logger
	Navigator Navigator
}

// Synchronizer dedupes progress side effects for one manga session
type Synchronizer struct {
	tracker   Tracker
	navigator Navigator
	logger    *slog.Logger

	viewed    mapset.Set[int64]
	completed mapset.Set[int64]

	mu          sync.Mutex
	location    int64
	hasLocation bool
}

// NewSynchronizer creates a synchronizer
func NewSynchronizer(tracker Tracker, opts Options) *Synchronizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		tracker:   tracker,
		navigator: opts.Navigator,
		logger:    logger,
		viewed:    mapset.NewSet[int64](),
		completed: mapset.NewSet[int64](),
	}
}

// SetLocation records the location the host already shows
func (s *Synchronizer) SetLocation(chapterID int64) {
	s.mu.Lock()
	s.location = chapterID
	s.hasLocation = true
	s.mu.Unlock()
}

// Location returns the chapter id of the current location
func (s *Synchronizer) Location() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location, s.hasLocation
}

// Activated moves the location to chapter
func (s *Synchronizer) Activated(chapter models.Chapter) {
	s.mu.Lock()
	changed := !s.hasLocation || s.location != chapter.ID
	s.location = chapter.ID
	s.hasLocation = true
	s.mu.Unlock()

	if changed && s.navigator != nil {
		s.navigator.ReplaceLocation(chapter.ID)
	}
}

// Viewed reports chapter as viewed unless it already was this session.
// The claim is dropped when the call fails.
func (s *Synchronizer) Viewed(ctx context.Context, chapter models.Chapter, previous *models.Chapter) error {
	err := optimistic.Claim(ctx, s.viewed, chapter.ID, func(ctx context.Context) error {
		return s.tracker.TrackChapterViewed(ctx, chapter.MangaID, chapter.ID, chapter.ChapterNumber, previous)
	})
	switch {
	case errors.Is(err, optimistic.ErrSkipped):
		return nil
	case err != nil:
		s.logger.Warn("progress_viewed_failed", "chapter_id", chapter.ID, "error", err)
		return err
	}
	s.logger.Debug("progress_viewed", "chapter_id", chapter.ID)
	return nil
}

// Completed reports chapter as completed unless it already is
func (s *Synchronizer) Completed(ctx context.Context, chapter models.Chapter) error {
	if s.completed.Contains(chapter.ID) || s.tracker.IsChapterCompleted(chapter.ID) {
		return nil
	}
	err := optimistic.Claim(ctx, s.completed, chapter.ID, func(ctx context.Context) error {
		return s.tracker.MarkChapterCompleted(ctx, chapter.MangaID, chapter.ID, chapter.ChapterNumber)
	})
	switch {
	case errors.Is(err, optimistic.ErrSkipped):
		return nil
	case err != nil:
		s.logger.Warn("progress_completed_failed", "chapter_id", chapter.ID, "error", err)
		return err
	}
	s.logger.Debug("progress_completed", "chapter_id", chapter.ID)
	return nil
}

// IsCompleted reports whether chapterID is completed locally or remotely
func (s *Synchronizer) IsCompleted(chapterID int64) bool {
	return s.completed.Contains(chapterID) || s.tracker.IsChapterCompleted(chapterID)
}

// Reset forgets every chapter seen this session
func (s *Synchronizer) Reset() {
	s.viewed.Clear()
	s.completed.Clear()
	s.mu.Lock()
	s.hasLocation = false
	s.location = 0
	s.mu.Unlock()
}
