package models

import "strconv"

// Chapter represents a manga chapter as returned by the chapter endpoints
type Chapter struct {
	ID                    int64    `json:"id"`
	MangaID               int64    `json:"mangaId"`
	ChapterNumber         float64  `json:"chapterNumber"`
	VolumeNumber          *float64 `json:"volumeNumber,omitempty"`
	OriginalChapterNumber *float64 `json:"originalChapterNumber,omitempty"`
	Title                 string   `json:"title"`
	PageCount             int      `json:"pageCount"`
	LikeCount             int64    `json:"likeCount"`
	PublishedDate         string   `json:"publishedDate,omitempty"`
}

// DisplayNumber returns the chapter number shown to readers.
// Imported chapters keep their source numbering in OriginalChapterNumber.
func (c *Chapter) DisplayNumber() string {
	if c.OriginalChapterNumber != nil {
		return FormatNumber(*c.OriginalChapterNumber)
	}
	return FormatNumber(c.ChapterNumber)
}

// DisplayVolume returns the volume number or an empty string
func (c *Chapter) DisplayVolume() string {
	if c.VolumeNumber == nil || *c.VolumeNumber <= 0 {
		return ""
	}
	return FormatNumber(*c.VolumeNumber)
}

// FormatNumber renders chapter and volume numbers without trailing zeros
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ChapterImage represents a single page of a chapter
type ChapterImage struct {
	ID         int64  `json:"id"`
	ChapterID  int64  `json:"chapterId"`
	PageNumber int    `json:"pageNumber"`
	ImageURL   string `json:"imageUrl"`
	ImageKey   string `json:"imageKey"`
	MimeType   string `json:"mimeType,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

// AspectRatio returns height/width, or fallback when the page has no dimensions
func (i *ChapterImage) AspectRatio(fallback float64) float64 {
	if i.Width <= 0 || i.Height <= 0 {
		return fallback
	}
	return float64(i.Height) / float64(i.Width)
}

// ReadingProgress represents a saved progress record for one chapter
type ReadingProgress struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"userId"`
	MangaID       int64   `json:"mangaId"`
	ChapterID     int64   `json:"chapterId"`
	ChapterNumber float64 `json:"chapterNumber,omitempty"`
	PageNumber    int     `json:"pageNumber"`
	IsCompleted   bool    `json:"isCompleted"`
	CreatedAt     string  `json:"createdAt,omitempty"`
	UpdatedAt     string  `json:"updatedAt,omitempty"`
}

// ProgressRequest is the body sent when saving progress
type ProgressRequest struct {
	MangaID       int64   `json:"mangaId"`
	ChapterID     int64   `json:"chapterId"`
	ChapterNumber float64 `json:"chapterNumber"`
	PageNumber    int     `json:"pageNumber"`
	IsCompleted   bool    `json:"isCompleted"`
}

// LikeStatus represents the like check response
type LikeStatus struct {
	Liked bool `json:"liked"`
}

// LikeResponse represents the toggle-like response
type LikeResponse struct {
	Message   string `json:"message,omitempty"`
	Liked     bool   `json:"liked"`
	LikeCount int64  `json:"likeCount"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
