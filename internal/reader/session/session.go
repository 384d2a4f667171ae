// Package session ties the reader engine together: one Session owns the
// chapter window, the loaders and every per-manga tracking set, and resets
// them together when the reader moves to another manga.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/justyntemme/webby-manga/internal/api"
	"github.com/justyntemme/webby-manga/internal/reader/chrome"
	"github.com/justyntemme/webby-manga/internal/reader/clock"
	"github.com/justyntemme/webby-manga/internal/reader/gesture"
	"github.com/justyntemme/webby-manga/internal/reader/layout"
	"github.com/justyntemme/webby-manga/internal/reader/likes"
	"github.com/justyntemme/webby-manga/internal/reader/loader"
	"github.com/justyntemme/webby-manga/internal/reader/progress"
	"github.com/justyntemme/webby-manga/internal/reader/title"
	"github.com/justyntemme/webby-manga/internal/reader/visibility"
	"github.com/justyntemme/webby-manga/internal/reader/window"
	"github.com/justyntemme/webby-manga/pkg/models"
)

// ErrChapterNotFound is returned by Open when the chapter does not exist
var ErrChapterNotFound = errors.New("session: chapter not found")

// ChapterSource provides chapter metadata, chapter lists and pages
type ChapterSource interface {
	loader.Fetcher
	GetChaptersByManga(ctx context.Context, mangaID int64) ([]models.Chapter, error)
}

// Dependencies are the remote services a session talks to
type Dependencies struct {
	Chapters ChapterSource
	Progress progress.Tracker
	Likes    likes.Service
}

// Options configures a Session
type Options struct {
	Logger    *slog.Logger
	Clock     clock.Clock
	Navigator progress.Navigator
	Tuning    Tuning
	Measurer  title.Measurer
	// Width and Height are the initial viewport size in pixels
	Width  float64
	Height float64
}

// Session is the reader state for the manga currently open
type Session struct {
	chapters ChapterSource
	logger   *slog.Logger
	clock    clock.Clock
	measure  title.Measurer

	store    *window.Store
	surface  *layout.Surface
	tracker  *visibility.Tracker
	loader   *loader.Loader
	progress *progress.Synchronizer
	likes    *likes.Manager
	gesture  *gesture.Disambiguator
	chrome   *chrome.Controller

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	effects serial
	changes chan struct{}

	// frameMu serializes observation passes and activation
	frameMu sync.Mutex

	mu         sync.Mutex
	tuning     Tuning
	mangaID    int64
	hasManga   bool
	active     int
	hasActive  bool
	lastUpward time.Time
}

// New creates an empty session
func New(deps Dependencies, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	tuning := opts.Tuning
	if tuning == (Tuning{}) {
		tuning = DefaultTuning()
	}
	measure := opts.Measurer
	if measure == nil {
		measure = title.DefaultMeasurer()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		chapters: deps.Chapters,
		logger:   logger,
		clock:    clk,
		measure:  measure,
		ctx:      ctx,
		cancel:   cancel,
		changes:  make(chan struct{}, 1),
		tuning:   tuning,
	}

	metrics := tuning.Layout
	metrics.Width, metrics.Height = opts.Width, opts.Height

	s.store = window.NewStore()
	s.surface = layout.NewSurface(s.store, metrics)
	s.tracker = visibility.NewTracker(tuning.Observers)
	s.loader = loader.New(deps.Chapters, s.store, s.surface, loader.Options{Logger: logger})
	s.progress = progress.NewSynchronizer(deps.Progress, progress.Options{Logger: logger, Navigator: opts.Navigator})
	s.likes = likes.New(deps.Likes, likes.Options{Logger: logger, OnCount: s.updateLikeCount})
	s.chrome = chrome.New(tuning.Chrome, func(bool) { s.notify() })
	s.gesture = gesture.New(actions{s}, tuning.Gesture, gesture.Options{Clock: clk, OnChange: s.notify})
	s.gesture.SetWidth(opts.Width)
	return s
}

// Open shows chapterID. Moving to another manga resets the session first.
// This is the only operation whose failure the reader has to see.
func (s *Session) Open(ctx context.Context, chapterID int64) error {
	chapter, err := s.chapters.GetChapter(ctx, chapterID)
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("%w: %d", ErrChapterNotFound, chapterID)
		}
		return fmt.Errorf("open chapter %d: %w", chapterID, err)
	}
	if chapter == nil {
		return fmt.Errorf("%w: %d", ErrChapterNotFound, chapterID)
	}

	if id, ok := s.MangaID(); ok && id == chapter.MangaID && s.loader.IndexOf(chapterID) >= 0 {
		return s.JumpTo(ctx, chapterID)
	}

	list, err := s.chapters.GetChaptersByManga(ctx, chapter.MangaID)
	if err != nil {
		return fmt.Errorf("list chapters of manga %d: %w", chapter.MangaID, err)
	}

	s.reset(chapter.MangaID)
	s.loader.SetChapters(list)
	index := s.loader.IndexOf(chapterID)
	if index < 0 {
		return fmt.Errorf("%w: %d is not listed for manga %d", ErrChapterNotFound, chapterID, chapter.MangaID)
	}

	s.progress.SetLocation(chapterID)
	if err := s.loader.Ensure(ctx, index, loader.Append); err != nil {
		return fmt.Errorf("load chapter %d: %w", chapterID, err)
	}

	s.frameMu.Lock()
	s.surface.ScrollTo(index)
	s.activate(index)
	s.observe()
	s.frameMu.Unlock()

	s.logger.Info("session_opened",
		"manga_id", chapter.MangaID,
		"chapter_id", chapterID,
		"index", index,
		"chapters", len(list),
	)
	s.notify()
	return nil
}

// MangaID returns the manga of the session
func (s *Session) MangaID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mangaID, s.hasManga
}

// NavigateNext loads the next chapter and scrolls to it
func (s *Session) NavigateNext(ctx context.Context) error {
	return s.navigate(ctx, s.loader.NavigateNext)
}

// NavigatePrev loads the previous chapter and scrolls to it
func (s *Session) NavigatePrev(ctx context.Context) error {
	return s.navigate(ctx, s.loader.NavigatePrev)
}

// JumpTo loads any chapter of the manga and scrolls to it
func (s *Session) JumpTo(ctx context.Context, chapterID int64) error {
	return s.navigate(ctx, func(ctx context.Context) (int, error) {
		return s.loader.JumpTo(ctx, chapterID)
	})
}

func (s *Session) navigate(ctx context.Context, move func(context.Context) (int, error)) error {
	index, err := move(ctx)
	if err != nil {
		return err
	}
	s.frameMu.Lock()
	s.activate(index)
	s.observe()
	s.frameMu.Unlock()
	s.notify()
	return nil
}

// Scroll moves the viewport by delta pixels, positive downwards
func (s *Session) Scroll(delta float64) {
	moved := s.surface.ScrollBy(delta)
	if moved == 0 {
		return
	}
	if moved < 0 {
		s.mu.Lock()
		s.lastUpward = s.clock.Now()
		s.mu.Unlock()
	}
	s.chrome.Scrolled(moved)
	s.refresh()
	s.notify()
}

// Resize changes the viewport size in pixels
func (s *Session) Resize(width, height float64) {
	s.surface.Resize(width, height)
	s.gesture.SetWidth(width)
	s.refresh()
	s.notify()
}

// PointerDown starts a touch at p, in viewport pixels
func (s *Session) PointerDown(p gesture.Point) {
	s.gesture.TouchStart(p)
}

// PointerMove continues a touch
func (s *Session) PointerMove(p gesture.Point) {
	s.gesture.TouchMove(p)
}

// PointerUp ends a touch and emits the click that follows a tap
func (s *Session) PointerUp(p gesture.Point) gesture.Outcome {
	out := s.gesture.TouchEnd(p)
	if out.Clicks() {
		s.gesture.Click(p)
	}
	return out
}

// DoubleClick likes the active chapter with a burst at p
func (s *Session) DoubleClick(p gesture.Point) {
	s.gesture.DoubleClick(p)
}

// ToggleChrome flips the header and footer
func (s *Session) ToggleChrome() {
	s.chrome.Toggle()
}

// Like likes the active chapter
func (s *Session) Like(ctx context.Context) error {
	entry, ok := s.store.ActiveEntry()
	if !ok {
		return nil
	}
	err := s.likes.Like(ctx, entry.Chapter.ID)
	s.notify()
	return err
}

// Retune applies new thresholds to every component
func (s *Session) Retune(t Tuning) {
	s.mu.Lock()
	s.tuning = t
	s.mu.Unlock()

	s.gesture.SetConfig(t.Gesture)
	s.chrome.SetConfig(t.Chrome)
	s.tracker.SetConfig(t.Observers)
	s.surface.SetMetrics(t.Layout)
	s.refresh()
	s.notify()
	s.logger.Info("tuning_applied")
}

// Title fits the active chapter title into available pixels
func (s *Session) Title(available float64) title.Fitted {
	entry, ok := s.store.ActiveEntry()
	if !ok {
		return title.Fitted{Variant: title.Minimal}
	}
	vp := s.surface.Viewport()
	return title.Fit(title.Build(entry.Chapter), available, vp.Width, s.measure)
}

// Changes signals that the session state changed. Signals coalesce.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

// Wait blocks until background work started so far has finished
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close stops background work and waits for it
func (s *Session) Close() {
	s.cancel()
	s.gesture.Reset()
	s.wg.Wait()
}

func (s *Session) reset(mangaID int64) {
	gen := s.store.Reset()
	s.loader.Reset()
	s.tracker.Reset()
	s.progress.Reset()
	s.likes.Reset()
	s.gesture.Reset()
	s.chrome.Reset()
	s.surface.Reset()

	s.mu.Lock()
	s.mangaID, s.hasManga = mangaID, true
	s.hasActive = false
	s.lastUpward = time.Time{}
	s.mu.Unlock()

	s.logger.Debug("session_reset", "manga_id", mangaID, "generation", gen)
}

func (s *Session) refresh() {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	s.observe()
}

// observe runs one observation pass; frameMu must be held
func (s *Session) observe() {
	blocks, vp := s.surface.Frame()
	for _, e := range s.tracker.Observe(geometries(blocks, vp), vp.Height) {
		s.handle(e)
	}
	if index, ok := s.tracker.Dominant(); ok {
		s.activate(index)
	}
}

// handle reacts to one observer transition; frameMu must be held
func (s *Session) handle(e visibility.Event) {
	s.logger.Debug("chapter_event", "event", e.Kind.String(), "index", e.Index)
	index := e.Index

	switch e.Kind {
	case visibility.EventNearBottom:
		s.background(func(ctx context.Context) {
			if err := s.loader.PrefetchNext(ctx, index); err == nil {
				s.afterLoad()
			}
		})
	case visibility.EventNearTop:
		if !s.scrolledUpRecently() {
			return
		}
		s.background(func(ctx context.Context) {
			if err := s.loader.PrefetchPrev(ctx, index); err == nil {
				s.afterLoad()
			}
		})
	case visibility.EventComplete:
		entry, ok := s.store.Entry(index)
		if !ok {
			return
		}
		chapter := entry.Chapter
		s.effects.Go(&s.wg, func() {
			if err := s.progress.Completed(s.ctx, chapter); err == nil {
				s.notify()
			}
		})
	}
}

// activate makes index the active chapter; frameMu must be held
func (s *Session) activate(index int) {
	s.mu.Lock()
	same := s.hasActive && s.active == index
	s.mu.Unlock()
	if same {
		return
	}

	entry, ok := s.store.Entry(index)
	if !ok || !s.store.SetActive(index) {
		return
	}
	s.mu.Lock()
	s.active, s.hasActive = index, true
	s.mu.Unlock()

	chapter := entry.Chapter
	var previous *models.Chapter
	if p, ok := s.loader.Previous(index); ok {
		previous = &p
	}
	if s.progress.IsCompleted(chapter.ID) {
		s.tracker.MarkCompleted(index)
	}
	s.progress.Activated(chapter)
	s.logger.Debug("chapter_activated", "index", index, "chapter_id", chapter.ID)

	s.effects.Go(&s.wg, func() {
		_ = s.progress.Viewed(s.ctx, chapter, previous)
	})
	s.background(func(ctx context.Context) {
		_ = s.loader.EnsureNeighbors(ctx, index)
		s.afterLoad()
	})
	s.background(func(ctx context.Context) {
		if err := s.likes.Load(ctx, chapter.ID); err == nil {
			s.notify()
		}
	})
}

func (s *Session) afterLoad() {
	s.refresh()
	s.notify()
}

func (s *Session) scrolledUpRecently() bool {
	s.mu.Lock()
	last, limit := s.lastUpward, s.tuning.UpwardScrollWindow
	s.mu.Unlock()
	return !last.IsZero() && s.clock.Now().Sub(last) <= limit
}

func (s *Session) background(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

func (s *Session) updateLikeCount(chapterID, count int64) {
	s.store.UpdateChapter(chapterID, func(c *models.Chapter) { c.LikeCount = count })
	s.notify()
}

func (s *Session) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// actions routes gestures back into the session
type actions struct {
	s *Session
}

func (a actions) Next() {
	a.s.background(func(ctx context.Context) { _ = a.s.NavigateNext(ctx) })
}

func (a actions) Previous() {
	a.s.background(func(ctx context.Context) { _ = a.s.NavigatePrev(ctx) })
}

func (a actions) Like() {
	a.s.background(func(ctx context.Context) { _ = a.s.Like(ctx) })
}

func (a actions) Chrome() bool { return a.s.chrome.Visible() }

func (a actions) SetChrome(visible bool) { a.s.chrome.Set(visible) }
