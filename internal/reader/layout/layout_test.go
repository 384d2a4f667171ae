package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/webby-manga/internal/reader/layout"
	"github.com/justyntemme/webby-manga/internal/reader/window"
	"github.com/justyntemme/webby-manga/pkg/models"
)

func pages(n, w, h int) []models.ChapterImage {
	out := make([]models.ChapterImage, n)
	for i := range out {
		out[i] = models.ChapterImage{ID: int64(i + 1), PageNumber: i + 1, Width: w, Height: h}
	}
	return out
}

func testMetrics() layout.Metrics {
	m := layout.DefaultMetrics(400, 800)
	m.MaxPageWidth = 0
	return m
}

func TestComputeBlockParts(t *testing.T) {
	entries := []window.Entry{
		{Index: 0, Chapter: models.Chapter{ID: 10}, Images: pages(2, 100, 150)},
		{Index: 1, Chapter: models.Chapter{ID: 11}, Images: pages(1, 0, 0)},
	}
	m := testMetrics()

	blocks := layout.Compute(entries, m)
	require.Len(t, blocks, 2)

	first := blocks[0]
	assert.Equal(t, 0.0, first.TopSentinel.Top)
	assert.Equal(t, m.LeadHeight, first.Header.Height)
	require.Len(t, first.Pages, 2)
	assert.Equal(t, 600.0, first.Pages[0].Height)
	assert.Equal(t, first.Pages[1].Bottom(), first.Completion.Top)
	assert.Equal(t, first.Completion.Bottom(), first.Trailer.Top)
	assert.Equal(t, first.Rect.Bottom(), blocks[1].Rect.Top)

	second := blocks[1]
	assert.Equal(t, m.HeaderHeight, second.Header.Height)
	assert.Equal(t, 560.0, second.Pages[0].Height, "pages without dimensions use the default aspect")
}

func TestComputeEmptyChapter(t *testing.T) {
	m := testMetrics()
	blocks := layout.Compute([]window.Entry{{Index: 3, Chapter: models.Chapter{ID: 1}}}, m)

	require.Len(t, blocks, 1)
	assert.True(t, blocks[0].Empty)
	require.Len(t, blocks[0].Pages, 1)
	assert.Equal(t, 320.0, blocks[0].Pages[0].Height)
}

func TestPreserveKeepsVisibleContentFixed(t *testing.T) {
	store := window.NewStore()
	gen := store.Generation()
	store.Insert(gen, window.Entry{Index: 1, Chapter: models.Chapter{ID: 2}, Images: pages(4, 100, 150)})

	surface := layout.NewSurface(store, testMetrics())
	surface.ScrollBy(700)

	before, ok := surface.OffsetOf(1)
	require.True(t, ok)
	assert.Equal(t, -700.0, before)

	surface.Preserve(1, func() {
		store.Insert(gen, window.Entry{Index: 0, Chapter: models.Chapter{ID: 1}, Images: pages(3, 100, 150)})
	})

	after, ok := surface.OffsetOf(1)
	require.True(t, ok)
	assert.InDelta(t, before, after, 0.5)

	prepended := surface.Blocks()[0].Rect.Height
	assert.InDelta(t, 700+prepended, surface.Viewport().Top, 0.5)
}

func TestAppendDoesNotScroll(t *testing.T) {
	store := window.NewStore()
	gen := store.Generation()
	store.Insert(gen, window.Entry{Index: 0, Images: pages(4, 100, 150)})

	surface := layout.NewSurface(store, testMetrics())
	surface.ScrollBy(300)

	store.Insert(gen, window.Entry{Index: 1, Images: pages(4, 100, 150)})
	surface.Reflow()

	assert.Equal(t, 300.0, surface.Viewport().Top)
}

func TestScrollClamps(t *testing.T) {
	store := window.NewStore()
	store.Insert(store.Generation(), window.Entry{Index: 0, Images: pages(2, 100, 100)})
	surface := layout.NewSurface(store, testMetrics())

	assert.Equal(t, 0.0, surface.ScrollBy(-50))
	total := surface.TotalHeight()
	surface.ScrollBy(1e6)
	assert.Equal(t, total-800, surface.Viewport().Top)
}

func TestScrollToAndResize(t *testing.T) {
	store := window.NewStore()
	gen := store.Generation()
	store.Insert(gen, window.Entry{Index: 0, Images: pages(3, 100, 100)})
	store.Insert(gen, window.Entry{Index: 1, Images: pages(3, 100, 100)})
	store.Insert(gen, window.Entry{Index: 2, Images: pages(3, 100, 100)})
	surface := layout.NewSurface(store, testMetrics())

	require.True(t, surface.ScrollTo(1))
	offset, _ := surface.OffsetOf(1)
	assert.Equal(t, 0.0, offset)
	assert.False(t, surface.ScrollTo(9))

	surface.Resize(200, 800)
	offset, _ = surface.OffsetOf(1)
	assert.InDelta(t, 0, offset, 0.5, "the block at the top stays at the top after a resize")
}
