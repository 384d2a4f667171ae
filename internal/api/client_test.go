package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/webby-manga/internal/api"
	"github.com/justyntemme/webby-manga/pkg/models"
)

func newServer(t *testing.T, handler http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL+"/", "secret")
}

func TestGetChapter(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chapters/42", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":42,"mangaId":7,"chapterNumber":3.5,"title":"Rain","likeCount":12}`))
	})

	ch, err := client.GetChapter(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ch.ID)
	assert.Equal(t, int64(7), ch.MangaID)
	assert.Equal(t, "3.5", ch.DisplayNumber())
	assert.Equal(t, int64(12), ch.LikeCount)
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "error field", status: http.StatusNotFound, body: `{"error":"chapter not found"}`, message: "chapter not found"},
		{name: "message field", status: http.StatusBadRequest, body: `{"message":"bad id"}`, message: "bad id"},
		{name: "plain text", status: http.StatusInternalServerError, body: "boom", message: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.GetChapterImages(context.Background(), 1)
			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.status == http.StatusNotFound, api.IsNotFound(err))
		})
	}
}

func TestSaveProgressBody(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/progress", r.URL.Path)

		var body models.ProgressRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, models.ProgressRequest{MangaID: 7, ChapterID: 42, ChapterNumber: 3, PageNumber: 1, IsCompleted: true}, body)

		_, _ = w.Write([]byte(`{"id":1,"chapterId":42,"isCompleted":true}`))
	})

	progress, err := client.SaveProgress(context.Background(), models.ProgressRequest{
		MangaID: 7, ChapterID: 42, ChapterNumber: 3, PageNumber: 1, IsCompleted: true,
	})
	require.NoError(t, err)
	assert.True(t, progress.IsCompleted)
}

func TestLikeEndpoints(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chapters/5/like":
			assert.Equal(t, http.MethodGet, r.Method)
			_, _ = w.Write([]byte(`{"liked":true}`))
		case "/api/chapters/5/toggle-like":
			assert.Equal(t, http.MethodPost, r.Method)
			_, _ = w.Write([]byte(`{"message":"ok","liked":true,"likeCount":9}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	liked, err := client.IsChapterLiked(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, liked)

	resp, err := client.ToggleChapterLike(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, resp.Liked)
	assert.Equal(t, int64(9), resp.LikeCount)
}

func TestImageURL(t *testing.T) {
	client := api.NewClient("http://example.test", "")

	tests := []struct {
		name string
		img  models.ChapterImage
		want string
	}{
		{name: "absolute url", img: models.ChapterImage{ImageURL: "https://cdn.test/p1.webp"}, want: "https://cdn.test/p1.webp"},
		{name: "relative url", img: models.ChapterImage{ImageURL: "/api/images/raw/1"}, want: "http://example.test/api/images/raw/1"},
		{name: "key only", img: models.ChapterImage{ImageKey: "chapters/9/001.png"}, want: "http://example.test/api/images/proxy/chapters%2F9%2F001.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.ImageURL(tt.img))
		})
	}
}
