package session_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/webby-manga/internal/api"
	"github.com/justyntemme/webby-manga/internal/reader/clock"
	"github.com/justyntemme/webby-manga/internal/reader/gesture"
	"github.com/justyntemme/webby-manga/internal/reader/progress"
	"github.com/justyntemme/webby-manga/internal/reader/session"
	"github.com/justyntemme/webby-manga/internal/reader/visibility"
	"github.com/justyntemme/webby-manga/pkg/models"
)

type fakeAPI struct {
	mu         sync.Mutex
	chapters   []models.Chapter
	holds      map[int64]chan struct{}
	imageCalls map[int64]int
	failImages map[int64]error
	saves      []models.ProgressRequest
	toggles    []int64
}

func newFakeAPI(chapters ...models.Chapter) *fakeAPI {
	return &fakeAPI{
		chapters:   chapters,
		holds:      make(map[int64]chan struct{}),
		imageCalls: make(map[int64]int),
		failImages: make(map[int64]error),
	}
}

func (f *fakeAPI) hold(id int64) {
	f.mu.Lock()
	f.holds[id] = make(chan struct{})
	f.mu.Unlock()
}

func (f *fakeAPI) release(id int64) {
	f.mu.Lock()
	ch := f.holds[id]
	delete(f.holds, id)
	f.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

func (f *fakeAPI) GetChapter(_ context.Context, id int64) (*models.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.chapters {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, &api.Error{StatusCode: http.StatusNotFound, Message: "chapter not found"}
}

func (f *fakeAPI) GetChaptersByManga(_ context.Context, mangaID int64) ([]models.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Chapter
	for i := len(f.chapters) - 1; i >= 0; i-- {
		if f.chapters[i].MangaID == mangaID {
			out = append(out, f.chapters[i])
		}
	}
	return out, nil
}

func (f *fakeAPI) GetChapterImages(_ context.Context, id int64) ([]models.ChapterImage, error) {
	f.mu.Lock()
	f.imageCalls[id]++
	hold, err := f.holds[id], f.failImages[id]
	f.mu.Unlock()
	if hold != nil {
		<-hold
	}
	if err != nil {
		return nil, err
	}
	return []models.ChapterImage{
		{ID: id*10 + 1, ChapterID: id, PageNumber: 1, Width: 100, Height: 150},
		{ID: id*10 + 2, ChapterID: id, PageNumber: 2, Width: 100, Height: 150},
	}, nil
}

func (f *fakeAPI) failImagesOf(id int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failImages, id)
		return
	}
	f.failImages[id] = err
}

func (f *fakeAPI) imageCallsOf(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imageCalls[id]
}

func (f *fakeAPI) SaveProgress(_ context.Context, req models.ProgressRequest) (*models.ReadingProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, req)
	return &models.ReadingProgress{MangaID: req.MangaID, ChapterID: req.ChapterID, IsCompleted: req.IsCompleted}, nil
}

func (f *fakeAPI) GetUserProgress(context.Context) ([]models.ReadingProgress, error) {
	return nil, nil
}

func (f *fakeAPI) IsChapterLiked(context.Context, int64) (bool, error) {
	return false, nil
}

func (f *fakeAPI) ToggleChapterLike(_ context.Context, id int64) (*models.LikeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles = append(f.toggles, id)
	return &models.LikeResponse{Liked: true, LikeCount: 5}, nil
}

func (f *fakeAPI) countSaves(chapterID int64, completed bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.saves {
		if s.ChapterID == chapterID && s.IsCompleted == completed {
			n++
		}
	}
	return n
}

func chapters(mangaID int64, ids ...int64) []models.Chapter {
	out := make([]models.Chapter, len(ids))
	for i, id := range ids {
		out[i] = models.Chapter{ID: id, MangaID: mangaID, ChapterNumber: float64(i + 1), Title: "Part"}
	}
	return out
}

type harness struct {
	api       *fakeAPI
	clock     *clock.Fake
	session   *session.Session
	locations []int64
}

func newHarness(t *testing.T, fake *fakeAPI) *harness {
	t.Helper()
	h := &harness{api: fake, clock: clock.NewFake(time.Unix(5_000, 0))}

	tuning := session.DefaultTuning()
	tuning.Layout.MaxPageWidth = 0

	h.session = session.New(session.Dependencies{
		Chapters: fake,
		Progress: progress.NewRemote(fake, nil),
		Likes:    fake,
	}, session.Options{
		Clock:     h.clock,
		Tuning:    tuning,
		Width:     400,
		Height:    800,
		Navigator: progress.NavigatorFunc(func(id int64) { h.locations = append(h.locations, id) }),
	})
	t.Cleanup(h.session.Close)
	return h
}

func loaded(snap session.Snapshot) []int {
	var out []int
	for _, c := range snap.Chapters {
		if c.Loaded {
			out = append(out, c.Index)
		}
	}
	return out
}

func TestOpenMiddleChapterAndReadOn(t *testing.T) {
	fake := newFakeAPI(chapters(1, 1, 2, 3)...)
	h := newHarness(t, fake)
	s := h.session
	ctx := context.Background()

	fake.hold(1)
	fake.hold(3)
	require.NoError(t, s.Open(ctx, 2))

	snap := s.Snapshot()
	assert.Equal(t, []int{1}, loaded(snap), "initial load materializes only the opened chapter")
	require.True(t, snap.HasActive)
	assert.Equal(t, int64(2), snap.Active.Chapter.ID)

	fake.release(1)
	fake.release(3)
	s.Wait()

	snap = s.Snapshot()
	assert.Equal(t, []int{0, 1, 2}, loaded(snap))
	assert.Equal(t, 1512.0, snap.Viewport.Top, "prepending chapter 1 keeps chapter 2 in place")
	for _, id := range []int64{1, 2, 3} {
		assert.Equal(t, 1, fake.imageCalls[id], "chapter %d fetched once", id)
	}
	assert.Equal(t, 1, fake.countSaves(2, false), "chapter 2 viewed")

	s.Scroll(800)
	s.Wait()
	assert.Equal(t, 1, fake.countSaves(2, true), "passing the completion sentinel completes chapter 2")
	assert.True(t, s.Snapshot().Chapters[1].Completed)

	s.Scroll(800)
	s.Wait()
	snap = s.Snapshot()
	assert.Equal(t, int64(3), snap.Active.Chapter.ID)
	assert.Equal(t, 1, fake.countSaves(3, false), "chapter 3 viewed")
	assert.Equal(t, 1, fake.countSaves(2, true), "chapter 2 is not completed twice")
	assert.Equal(t, []int64{3}, h.locations)

	s.Scroll(-900)
	s.Wait()
	s.Scroll(900)
	s.Wait()
	assert.Equal(t, 1, fake.countSaves(2, true))
	assert.Equal(t, 1, fake.countSaves(3, false))
}

func TestDoubleTapLikesActiveChapter(t *testing.T) {
	fake := newFakeAPI(chapters(1, 1, 2, 3)...)
	h := newHarness(t, fake)
	s := h.session

	require.NoError(t, s.Open(context.Background(), 2))
	s.Wait()

	p := gesture.Point{X: 200, Y: 400}
	s.PointerDown(p)
	assert.Equal(t, gesture.OutcomeTap, s.PointerUp(p))
	h.clock.Advance(120 * time.Millisecond)
	s.PointerDown(p)
	assert.Equal(t, gesture.OutcomeDoubleTap, s.PointerUp(p))
	s.Wait()

	snap := s.Snapshot()
	assert.Equal(t, []int64{2}, fake.toggles)
	assert.True(t, snap.Like.Liked)
	assert.Equal(t, int64(5), snap.Active.Chapter.LikeCount)
	require.Len(t, snap.Bursts, 1)
	assert.Equal(t, p, snap.Bursts[0].At)

	h.clock.Advance(300 * time.Millisecond)
	assert.True(t, s.Snapshot().Chrome, "double tap never toggles chrome")
}

func TestNearTopLoadsPreviousOnlyAfterRecentUpwardScroll(t *testing.T) {
	tests := []struct {
		name      string
		elapsed   time.Duration
		wantCalls int
		wantIndex []int
	}{
		{name: "recent upward scroll", elapsed: time.Second, wantCalls: 2, wantIndex: []int{0, 1, 2}},
		{name: "stale upward scroll", elapsed: 1400 * time.Millisecond, wantCalls: 1, wantIndex: []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeAPI(chapters(1, 1, 2, 3)...)
			fake.failImagesOf(1, errors.New("images unavailable"))
			h := newHarness(t, fake)
			s := h.session

			require.NoError(t, s.Open(context.Background(), 2))
			s.Wait()
			require.Equal(t, []int{1, 2}, loaded(s.Snapshot()), "eager load of chapter 1 failed")
			require.Equal(t, 1, fake.imageCallsOf(1))
			fake.failImagesOf(1, nil)

			// Leave the top sentinel's range, then come back up short of it
			s.Scroll(600)
			s.Scroll(-100)
			s.Wait()
			require.Equal(t, 1, fake.imageCallsOf(1))

			h.clock.Advance(tt.elapsed)
			tuning := session.DefaultTuning()
			tuning.Layout.MaxPageWidth = 0
			tuning.Observers.NearTop.Margin.Top = visibility.Px(600)
			s.Retune(tuning)
			s.Wait()

			assert.Equal(t, tt.wantCalls, fake.imageCallsOf(1))
			assert.Equal(t, tt.wantIndex, loaded(s.Snapshot()))
		})
	}
}

func TestFailedNearBottomLoadRetriesOnNextApproach(t *testing.T) {
	fake := newFakeAPI(chapters(1, 1, 2, 3)...)
	fake.failImagesOf(3, errors.New("images unavailable"))
	h := newHarness(t, fake)
	s := h.session

	require.NoError(t, s.Open(context.Background(), 2))
	s.Wait()
	require.Equal(t, []int{0, 1}, loaded(s.Snapshot()))
	require.Equal(t, 1512.0, s.Snapshot().Viewport.Top)
	failed := fake.imageCallsOf(3)
	require.Positive(t, failed)

	fake.failImagesOf(3, nil)
	s.Scroll(-200)
	s.Wait()
	assert.Equal(t, failed, fake.imageCallsOf(3), "trailer left the approach range")

	s.Scroll(200)
	s.Wait()
	assert.Equal(t, failed+1, fake.imageCallsOf(3))
	assert.Equal(t, []int{0, 1, 2}, loaded(s.Snapshot()))
}

func TestOpenUnknownChapter(t *testing.T) {
	h := newHarness(t, newFakeAPI(chapters(1, 1)...))

	err := h.session.Open(context.Background(), 99)
	assert.ErrorIs(t, err, session.ErrChapterNotFound)
}

func TestOpenFailsWhenInitialLoadFails(t *testing.T) {
	fake := newFakeAPI(chapters(1, 1, 2)...)
	boom := errors.New("images unavailable")
	fake.failImages[1] = boom
	h := newHarness(t, fake)

	err := h.session.Open(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.False(t, h.session.Snapshot().HasActive)
}

func TestOpeningAnotherMangaResets(t *testing.T) {
	fake := newFakeAPI(append(chapters(1, 1, 2), chapters(2, 10, 11)...)...)
	h := newHarness(t, fake)
	s := h.session
	ctx := context.Background()

	require.NoError(t, s.Open(ctx, 1))
	s.Wait()
	require.Equal(t, []int{0, 1}, loaded(s.Snapshot()))

	require.NoError(t, s.Open(ctx, 11))
	s.Wait()

	snap := s.Snapshot()
	assert.Equal(t, int64(2), snap.MangaID)
	require.Len(t, snap.Chapters, 2)
	assert.Equal(t, int64(10), snap.Chapters[0].Chapter.ID)
	assert.Equal(t, int64(11), snap.Active.Chapter.ID)
	assert.Equal(t, 1, fake.countSaves(11, false))

	require.NoError(t, s.Open(ctx, 10))
	s.Wait()
	assert.Equal(t, int64(10), s.Snapshot().Active.Chapter.ID, "opening within the manga jumps")
	assert.Equal(t, 2, fake.imageCalls[10]+fake.imageCalls[11])
}

func TestChangesSignalled(t *testing.T) {
	h := newHarness(t, newFakeAPI(chapters(1, 1)...))

	require.NoError(t, h.session.Open(context.Background(), 1))
	h.session.Wait()

	select {
	case <-h.session.Changes():
	default:
		t.Fatal("expected a change signal")
	}
}
