package title_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/justyntemme/webby-manga/internal/reader/title"
	"github.com/justyntemme/webby-manga/pkg/models"
)

func ptr(f float64) *float64 { return &f }

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		chapter models.Chapter
		want    title.Variants
	}{
		{
			name:    "volume and title",
			chapter: models.Chapter{ChapterNumber: 12, VolumeNumber: ptr(2), Title: "The Gate"},
			want:    title.Variants{"Vol. 2 Ch. 12: The Gate", "Ch. 12: The Gate", "Ch. 12", "12"},
		},
		{
			name:    "original numbering",
			chapter: models.Chapter{ChapterNumber: 1012, OriginalChapterNumber: ptr(12.5)},
			want:    title.Variants{"Ch. 12.5", "Ch. 12.5", "Ch. 12.5", "12.5"},
		},
		{
			name:    "blank title",
			chapter: models.Chapter{ChapterNumber: 3, Title: "  "},
			want:    title.Variants{"Ch. 3", "Ch. 3", "Ch. 3", "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, title.Build(tt.chapter))
		})
	}
}

func TestFit(t *testing.T) {
	v := title.Variants{"Vol. 2 Ch. 12: The Gate", "Ch. 12: The Gate", "Ch. 12", "12"}
	measure := title.DefaultMeasurer()

	tests := []struct {
		name      string
		available float64
		viewport  float64
		want      title.Variant
	}{
		{name: "wide enough for everything", available: 400, viewport: 1280, want: title.Full},
		{name: "grows past a small guess", available: 400, viewport: 320, want: title.Full},
		{name: "shrinks past a large guess", available: 100, viewport: 1280, want: title.Short},
		{name: "exact fit", available: 160, viewport: 320, want: title.Medium},
		{name: "nothing fits", available: 5, viewport: 1280, want: title.Minimal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := title.Fit(v, tt.available, tt.viewport, measure)
			assert.Equal(t, tt.want, got.Variant)
			assert.Equal(t, v[tt.want], got.Text)
		})
	}
}

func TestGuess(t *testing.T) {
	assert.Equal(t, title.Full, title.Guess(1024))
	assert.Equal(t, title.Medium, title.Guess(1023))
	assert.Equal(t, title.Short, title.Guess(480))
	assert.Equal(t, title.Minimal, title.Guess(479))
}
