// Package loader resolves chapter indices into materialized window entries.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/justyntemme/webby-manga/internal/reader/optimistic"
	"github.com/justyntemme/webby-manga/internal/reader/window"
	"github.com/justyntemme/webby-manga/pkg/models"
)

var (
	// ErrOutOfRange is returned for indices outside the chapter list
	ErrOutOfRange = errors.New("loader: chapter index out of range")
	// ErrStale is returned when the session changed while a load was running
	ErrStale = errors.New("loader: session changed during load")
	// ErrUnknownChapter is returned by JumpTo for ids not in the chapter list
	ErrUnknownChapter = errors.New("loader: chapter not in this manga")
	// ErrNoActive is returned by relative navigation before anything is active
	ErrNoActive = errors.New("loader: no active chapter")
)

// Direction tells where a chapter lands relative to what is on screen
type Direction int

const (
	Append Direction = iota
	Prepend
)

// String returns the direction name
func (d Direction) String() string {
	if d == Prepend {
		return "prepend"
	}
	return "append"
}

// Fetcher loads chapter metadata and pages
type Fetcher interface {
	GetChapter(ctx context.Context, id int64) (*models.Chapter, error)
	GetChapterImages(ctx context.Context, chapterID int64) ([]models.ChapterImage, error)
}

// Surface is the scroll area chapters are laid out on
type Surface interface {
	// Preserve runs mutate and keeps the block for index visually fixed
	Preserve(index int, mutate func())
	Reflow()
	ScrollTo(index int) bool
}

// Options configures a Loader
type Options struct {
	Logger *slog.Logger
}

type loadKey struct {
	gen   uint64
	index int
}

// Loader materializes chapters into a window store. Loads for the same index
// are shared, so an index is fetched at most once at a time.
type Loader struct {
	fetch   Fetcher
	store   *window.Store
	surface Surface
	logger  *slog.Logger

	mu       sync.RWMutex
	chapters []models.Chapter

	group          singleflight.Group
	loading        mapset.Set[loadKey]
	prefetchedNext mapset.Set[loadKey]
	prefetchedPrev mapset.Set[loadKey]
	forward        atomic.Int32
	backward       atomic.Int32
}

// New creates a loader
func New(fetch Fetcher, store *window.Store, surface Surface, opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		fetch:          fetch,
		store:          store,
		surface:        surface,
		logger:         logger,
		loading:        mapset.NewSet[loadKey](),
		prefetchedNext: mapset.NewSet[loadKey](),
		prefetchedPrev: mapset.NewSet[loadKey](),
	}
}

// SortChapters returns chapters ordered by chapter number, then id
func SortChapters(chapters []models.Chapter) []models.Chapter {
	sorted := slices.Clone(chapters)
	slices.SortStableFunc(sorted, func(a, b models.Chapter) int {
		switch {
		case a.ChapterNumber < b.ChapterNumber:
			return -1
		case a.ChapterNumber > b.ChapterNumber:
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return sorted
}

// SetChapters installs the manga's chapter list. The list is sorted.
func (l *Loader) SetChapters(chapters []models.Chapter) {
	sorted := SortChapters(chapters)
	l.mu.Lock()
	l.chapters = sorted
	l.mu.Unlock()
}

// Reset forgets the chapter list and every tracking set
func (l *Loader) Reset() {
	l.mu.Lock()
	l.chapters = nil
	l.mu.Unlock()
	l.loading.Clear()
	l.prefetchedNext.Clear()
	l.prefetchedPrev.Clear()
}

// Chapters returns the sorted chapter list
func (l *Loader) Chapters() []models.Chapter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.chapters)
}

// Total returns the number of chapters in the manga
func (l *Loader) Total() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.chapters)
}

// ChapterAt returns the chapter metadata at index
func (l *Loader) ChapterAt(index int) (models.Chapter, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.chapters) {
		return models.Chapter{}, false
	}
	return l.chapters[index], true
}

// IndexOf returns the index of chapterID or -1
func (l *Loader) IndexOf(chapterID int64) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.IndexFunc(l.chapters, func(c models.Chapter) bool { return c.ID == chapterID })
}

// Previous returns the chapter sorted right before index
func (l *Loader) Previous(index int) (models.Chapter, bool) {
	return l.ChapterAt(index - 1)
}

// Loading reports whether index is being fetched
func (l *Loader) Loading(index int) bool {
	return l.loading.Contains(loadKey{gen: l.store.Generation(), index: index})
}

// LoadingForward reports whether an append load is running
func (l *Loader) LoadingForward() bool {
	return l.forward.Load() > 0
}

// LoadingBackward reports whether a prepend load is running
func (l *Loader) LoadingBackward() bool {
	return l.backward.Load() > 0
}

// Ensure makes sure the chapter at index is materialized. Concurrent calls
// for the same index share a single fetch. Returns nil when the chapter is
// already present.
func (l *Loader) Ensure(ctx context.Context, index int, dir Direction) error {
	gen := l.store.Generation()
	meta, ok := l.ChapterAt(index)
	if !ok {
		return ErrOutOfRange
	}
	if l.store.Has(index) {
		return nil
	}

	key := strconv.FormatUint(gen, 10) + ":" + strconv.Itoa(index)
	// Loads outlive the caller that started them; others may be waiting.
	loadCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (any, error) {
		return nil, l.load(loadCtx, loadKey{gen: gen, index: index}, meta, dir)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loader) load(ctx context.Context, key loadKey, meta models.Chapter, dir Direction) error {
	if l.store.Has(key.index) {
		return nil
	}
	if !l.loading.Add(key) {
		return nil
	}
	defer l.loading.Remove(key)

	counter := &l.forward
	if dir == Prepend {
		counter = &l.backward
	}
	counter.Add(1)
	defer counter.Add(-1)

	var (
		chapter *models.Chapter
		images  []models.ChapterImage
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		c, err := l.fetch.GetChapter(gctx, meta.ID)
		if err != nil {
			return fmt.Errorf("fetch chapter %d: %w", meta.ID, err)
		}
		chapter = c
		return nil
	})
	eg.Go(func() error {
		imgs, err := l.fetch.GetChapterImages(gctx, meta.ID)
		if err != nil {
			return fmt.Errorf("fetch images for chapter %d: %w", meta.ID, err)
		}
		images = imgs
		return nil
	})
	if err := eg.Wait(); err != nil {
		l.logger.Warn("chapter_load_failed",
			"index", key.index,
			"chapter_id", meta.ID,
			"direction", dir.String(),
			"error", err,
		)
		return err
	}

	if chapter == nil {
		chapter = &meta
	}
	slices.SortStableFunc(images, func(a, b models.ChapterImage) int { return a.PageNumber - b.PageNumber })
	entry := window.Entry{Index: key.index, Chapter: *chapter, Images: images}

	inserted := false
	insert := func() { inserted = l.store.Insert(key.gen, entry) }

	if anchor, ok := l.anchorFor(key.index); ok && dir == Prepend {
		l.surface.Preserve(anchor, insert)
	} else {
		insert()
		l.surface.Reflow()
	}

	if !inserted {
		l.logger.Debug("chapter_load_discarded", "index", key.index, "chapter_id", meta.ID, "generation", key.gen)
		return ErrStale
	}
	l.logger.Debug("chapter_loaded",
		"index", key.index,
		"chapter_id", meta.ID,
		"pages", len(images),
		"direction", dir.String(),
	)
	return nil
}

// anchorFor returns the first materialized index after index; that block
// moves when index is inserted
func (l *Loader) anchorFor(index int) (int, bool) {
	for _, i := range l.store.Indices() {
		if i > index {
			return i, true
		}
	}
	return 0, false
}

// PrefetchNext loads the chapter after from, once per index per session
func (l *Loader) PrefetchNext(ctx context.Context, from int) error {
	return l.prefetch(ctx, l.prefetchedNext, from, from+1, Append)
}

// PrefetchPrev loads the chapter before from, once per index per session
func (l *Loader) PrefetchPrev(ctx context.Context, from int) error {
	return l.prefetch(ctx, l.prefetchedPrev, from, from-1, Prepend)
}

func (l *Loader) prefetch(ctx context.Context, set mapset.Set[loadKey], from, target int, dir Direction) error {
	if _, ok := l.ChapterAt(target); !ok {
		return nil
	}
	key := loadKey{gen: l.store.Generation(), index: from}
	err := optimistic.Claim(ctx, set, key, func(ctx context.Context) error {
		return l.Ensure(ctx, target, dir)
	})
	if errors.Is(err, optimistic.ErrSkipped) {
		return nil
	}
	return err
}

// EnsureNeighbors loads the chapters on both sides of index concurrently
func (l *Loader) EnsureNeighbors(ctx context.Context, index int) error {
	var wg sync.WaitGroup
	var next, prev error
	wg.Add(2)
	go func() {
		defer wg.Done()
		next = l.ensureIfExists(ctx, index+1, Append)
	}()
	go func() {
		defer wg.Done()
		prev = l.ensureIfExists(ctx, index-1, Prepend)
	}()
	wg.Wait()
	return errors.Join(next, prev)
}

func (l *Loader) ensureIfExists(ctx context.Context, index int, dir Direction) error {
	if _, ok := l.ChapterAt(index); !ok {
		return nil
	}
	return l.Ensure(ctx, index, dir)
}

// NavigateTo loads index and scrolls its block to the top of the viewport
func (l *Loader) NavigateTo(ctx context.Context, index int, dir Direction) error {
	if err := l.Ensure(ctx, index, dir); err != nil {
		return err
	}
	if !l.surface.ScrollTo(index) {
		return ErrStale
	}
	return nil
}

// NavigateNext moves to the chapter after the active one
func (l *Loader) NavigateNext(ctx context.Context) (int, error) {
	active, ok := l.store.Active()
	if !ok {
		return 0, ErrNoActive
	}
	return active + 1, l.NavigateTo(ctx, active+1, Append)
}

// NavigatePrev moves to the chapter before the active one
func (l *Loader) NavigatePrev(ctx context.Context) (int, error) {
	active, ok := l.store.Active()
	if !ok {
		return 0, ErrNoActive
	}
	return active - 1, l.NavigateTo(ctx, active-1, Prepend)
}

// JumpTo moves to an arbitrary chapter of the manga. Chapters before the
// active one are prepended, later ones appended.
func (l *Loader) JumpTo(ctx context.Context, chapterID int64) (int, error) {
	index := l.IndexOf(chapterID)
	if index < 0 {
		return 0, ErrUnknownChapter
	}
	dir := Append
	if active, ok := l.store.Active(); ok && index < active {
		dir = Prepend
	}
	return index, l.NavigateTo(ctx, index, dir)
}
