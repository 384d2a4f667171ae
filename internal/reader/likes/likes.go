// Package likes tracks the like state of chapters for the current reader.
// Likes only ever go one way: once liked, a chapter is not unliked here.
package likes

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/justyntemme/webby-manga/pkg/models"
)

// Service is the remote like API
type Service interface {
	IsChapterLiked(ctx context.Context, chapterID int64) (bool, error)
	ToggleChapterLike(ctx context.Context, chapterID int64) (*models.LikeResponse, error)
}

// State is the like state of a single chapter
type State struct {
	Liked    bool
	Loaded   bool
	InFlight bool
}

// Options configures a Manager
type Options struct {
	Logger *slog.Logger
	// OnCount is called with the new like count after a successful like
	OnCount func(chapterID, count int64)
}

// Manager holds like state per chapter id
type Manager struct {
	svc     Service
	logger  *slog.Logger
	onCount func(chapterID, count int64)

	mu       sync.RWMutex
	liked    map[int64]bool
	loaded   map[int64]bool
	inFlight mapset.Set[int64]
}

// New creates a manager
func New(svc Service, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		svc:      svc,
		logger:   logger,
		onCount:  opts.OnCount,
		liked:    make(map[int64]bool),
		loaded:   make(map[int64]bool),
		inFlight: mapset.NewSet[int64](),
	}
}

// Load fetches the like status of a chapter once. A failed lookup counts as
// not liked and is retried on the next Load.
func (m *Manager) Load(ctx context.Context, chapterID int64) error {
	m.mu.RLock()
	done := m.loaded[chapterID]
	m.mu.RUnlock()
	if done {
		return nil
	}

	liked, err := m.svc.IsChapterLiked(ctx, chapterID)
	if err != nil {
		m.logger.Debug("like_status_failed", "chapter_id", chapterID, "error", err)
		return fmt.Errorf("like status for chapter %d: %w", chapterID, err)
	}

	m.mu.Lock()
	m.loaded[chapterID] = true
	m.liked[chapterID] = m.liked[chapterID] || liked
	m.mu.Unlock()
	return nil
}

// Like likes a chapter unless it is already liked or a like is in flight.
// The liked flag is only set once the server confirms.
func (m *Manager) Like(ctx context.Context, chapterID int64) error {
	if m.Liked(chapterID) || !m.inFlight.Add(chapterID) {
		return nil
	}
	defer m.inFlight.Remove(chapterID)

	resp, err := m.svc.ToggleChapterLike(ctx, chapterID)
	if err != nil {
		m.logger.Warn("like_failed", "chapter_id", chapterID, "error", err)
		return fmt.Errorf("like chapter %d: %w", chapterID, err)
	}

	m.mu.Lock()
	m.liked[chapterID] = resp.Liked
	m.loaded[chapterID] = true
	m.mu.Unlock()

	if m.onCount != nil {
		m.onCount(chapterID, resp.LikeCount)
	}
	m.logger.Debug("chapter_liked", "chapter_id", chapterID, "like_count", resp.LikeCount)
	return nil
}

// Liked reports whether the chapter is liked
func (m *Manager) Liked(chapterID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.liked[chapterID]
}

// State returns the like state of a chapter
func (m *Manager) State(chapterID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		Liked:    m.liked[chapterID],
		Loaded:   m.loaded[chapterID],
		InFlight: m.inFlight.Contains(chapterID),
	}
}

// Reset forgets all like state
func (m *Manager) Reset() {
	m.mu.Lock()
	clear(m.liked)
	clear(m.loaded)
	m.mu.Unlock()
	m.inFlight.Clear()
}
