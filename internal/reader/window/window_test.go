package window_test

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/webby-manga/internal/reader/window"
	"github.com/justyntemme/webby-manga/pkg/models"
)

func entry(index int) window.Entry {
	return window.Entry{
		Index:   index,
		Chapter: models.Chapter{ID: int64(100 + index), ChapterNumber: float64(index + 1)},
		Images:  []models.ChapterImage{{ID: int64(index), PageNumber: 1}},
	}
}

func TestInsertKeepsOrderWithoutDuplicates(t *testing.T) {
	store := window.NewStore()
	gen := store.Generation()

	for _, idx := range []int{5, 1, 3, 1, 9, 0, 5} {
		require.True(t, store.Insert(gen, entry(idx)))
	}

	assert.Equal(t, []int{0, 1, 3, 5, 9}, store.Indices())
	first, ok := store.First()
	require.True(t, ok)
	assert.Equal(t, 0, first.Index)
}

func TestConcurrentInsertsStaySorted(t *testing.T) {
	store := window.NewStore()
	gen := store.Generation()

	order := rand.Perm(50)
	var wg sync.WaitGroup
	for _, idx := range append(order, order...) {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Insert(gen, entry(i))
		}(idx)
	}
	wg.Wait()

	indices := store.Indices()
	require.Len(t, indices, 50)
	for i, idx := range indices {
		assert.Equal(t, i, idx)
	}
}

func TestSetActiveRequiresEntry(t *testing.T) {
	store := window.NewStore()
	gen := store.Generation()

	assert.False(t, store.SetActive(2))
	_, ok := store.Active()
	assert.False(t, ok)

	store.Insert(gen, entry(2))
	store.Insert(gen, entry(4))
	assert.True(t, store.SetActive(4))
	assert.False(t, store.SetActive(3))

	active, ok := store.Active()
	require.True(t, ok)
	assert.Equal(t, 4, active)

	e, ok := store.ActiveEntry()
	require.True(t, ok)
	assert.Equal(t, int64(104), e.Chapter.ID)
}

func TestResetDropsStaleGenerations(t *testing.T) {
	store := window.NewStore()
	old := store.Generation()
	store.Insert(old, entry(1))
	store.SetActive(1)

	next := store.Reset()
	assert.NotEqual(t, old, next)
	assert.Equal(t, 0, store.Len())
	_, ok := store.Active()
	assert.False(t, ok)

	assert.False(t, store.Insert(old, entry(3)), "late result from the previous manga must be dropped")
	assert.Equal(t, 0, store.Len())
	assert.True(t, store.Insert(next, entry(3)))
}

func TestUpdateChapter(t *testing.T) {
	store := window.NewStore()
	store.Insert(store.Generation(), entry(0))

	ok := store.UpdateChapter(100, func(ch *models.Chapter) { ch.LikeCount = 41 })
	require.True(t, ok)
	e, _ := store.Entry(0)
	assert.Equal(t, int64(41), e.Chapter.LikeCount)

	assert.False(t, store.UpdateChapter(999, func(*models.Chapter) {}))
}

func TestEmptyEntry(t *testing.T) {
	assert.True(t, window.Entry{}.Empty())
	assert.False(t, entry(0).Empty())
}
