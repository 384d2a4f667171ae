package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/justyntemme/webby-manga/pkg/models"
)

// Client is the part of the API client Remote needs
type Client interface {
	SaveProgress(ctx context.Context, progress models.ProgressRequest) (*models.ReadingProgress, error)
	GetUserProgress(ctx context.Context) ([]models.ReadingProgress, error)
}

// Remote is a Tracker backed by the progress API. It keeps the user's
// progress records in memory so completion checks never block.
type Remote struct {
	client Client
	logger *slog.Logger

	mu      sync.RWMutex
	records map[int64]models.ReadingProgress
}

// NewRemote creates a Remote with an empty cache
func NewRemote(client Client, logger *slog.Logger) *Remote {
	if logger == nil {
		logger = slog.Default()
	}
	return &Remote{
		client:  client,
		logger:  logger,
		records: make(map[int64]models.ReadingProgress),
	}
}

// Load replaces the cache with the user's progress records
func (r *Remote) Load(ctx context.Context) error {
	records, err := r.client.GetUserProgress(ctx)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.records)
	for _, rec := range records {
		r.records[rec.ChapterID] = rec
	}
	return nil
}

// TrackChapterViewed marks the previous chapter completed unless it already
// is, best effort, and records the chapter as opened
func (r *Remote) TrackChapterViewed(ctx context.Context, mangaID, chapterID int64, chapterNumber float64, previous *models.Chapter) error {
	if previous != nil && !r.IsChapterCompleted(previous.ID) {
		if err := r.MarkChapterCompleted(ctx, mangaID, previous.ID, previous.ChapterNumber); err != nil {
			r.logger.Warn("progress_previous_completion_failed", "chapter_id", previous.ID, "error", err)
		}
	}
	return r.save(ctx, models.ProgressRequest{
		MangaID:       mangaID,
		ChapterID:     chapterID,
		ChapterNumber: chapterNumber,
		PageNumber:    1,
		IsCompleted:   false,
	})
}

// MarkChapterCompleted records the chapter as completed
func (r *Remote) MarkChapterCompleted(ctx context.Context, mangaID, chapterID int64, chapterNumber float64) error {
	return r.save(ctx, models.ProgressRequest{
		MangaID:       mangaID,
		ChapterID:     chapterID,
		ChapterNumber: chapterNumber,
		PageNumber:    1,
		IsCompleted:   true,
	})
}

// IsChapterCompleted reports whether the cached record is completed
func (r *Remote) IsChapterCompleted(chapterID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[chapterID].IsCompleted
}

// Records returns a copy of the cached records keyed by chapter id
func (r *Remote) Records() map[int64]models.ReadingProgress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int64]models.ReadingProgress, len(r.records))
	for k, v := range r.records {
		out[k] = v
	}
	return out
}

func (r *Remote) save(ctx context.Context, req models.ProgressRequest) error {
	rec, err := r.client.SaveProgress(ctx, req)
	if err != nil {
		return fmt.Errorf("save progress for chapter %d: %w", req.ChapterID, err)
	}
	if rec == nil || rec.ChapterID == 0 {
		rec = &models.ReadingProgress{
			MangaID:       req.MangaID,
			ChapterID:     req.ChapterID,
			ChapterNumber: req.ChapterNumber,
			PageNumber:    req.PageNumber,
			IsCompleted:   req.IsCompleted,
		}
	}
	r.mu.Lock()
	r.records[rec.ChapterID] = *rec
	r.mu.Unlock()
	return nil
}
