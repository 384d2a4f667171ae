package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/justyntemme/webby-manga/pkg/models"
)

// Error is returned for HTTP responses with status >= 400
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is the HTTP client for the manga API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken updates the authentication token
func (c *Client) SetToken(token string) {
	c.token = token
}

// BaseURL returns the server URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request makes an HTTP request to the API
func (c *Client) request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

// parseResponse reads and unmarshals the response body
func parseResponse[T any](resp *http.Response) (T, error) {
	var result T
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, err
	}

	if resp.StatusCode >= 400 {
		return result, responseError(resp.StatusCode, body)
	}

	if len(body) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return result, err
	}

	return result, nil
}

// responseError builds an *Error from an error body
func responseError(status int, body []byte) error {
	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return &Error{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}
	msg := errResp.Error
	if msg == "" {
		msg = errResp.Message
	}
	return &Error{StatusCode: status, Message: msg}
}

func chapterPath(id int64, suffix string) string {
	return "/api/chapters/" + strconv.FormatInt(id, 10) + suffix
}

// Chapter methods

// GetChapter returns a single chapter by ID
func (c *Client) GetChapter(ctx context.Context, id int64) (*models.Chapter, error) {
	resp, err := c.request(ctx, http.MethodGet, chapterPath(id, ""), nil)
	if err != nil {
		return nil, err
	}
	return parseResponse[*models.Chapter](resp)
}

// GetChaptersByManga returns every chapter of a manga in server order
func (c *Client) GetChaptersByManga(ctx context.Context, mangaID int64) ([]models.Chapter, error) {
	resp, err := c.request(ctx, http.MethodGet, "/api/chapters/manga/"+strconv.FormatInt(mangaID, 10), nil)
	if err != nil {
		return nil, err
	}
	return parseResponse[[]models.Chapter](resp)
}

// GetChapterImages returns the pages of a chapter
func (c *Client) GetChapterImages(ctx context.Context, chapterID int64) ([]models.ChapterImage, error) {
	resp, err := c.request(ctx, http.MethodGet, "/api/images/chapter/"+strconv.FormatInt(chapterID, 10), nil)
	if err != nil {
		return nil, err
	}
	return parseResponse[[]models.ChapterImage](resp)
}

// Like methods

// IsChapterLiked reports whether the current user liked a chapter
func (c *Client) IsChapterLiked(ctx context.Context, chapterID int64) (bool, error) {
	resp, err := c.request(ctx, http.MethodGet, chapterPath(chapterID, "/like"), nil)
	if err != nil {
		return false, err
	}
	status, err := parseResponse[models.LikeStatus](resp)
	if err != nil {
		return false, err
	}
	return status.Liked, nil
}

// ToggleChapterLike toggles the like on a chapter
func (c *Client) ToggleChapterLike(ctx context.Context, chapterID int64) (*models.LikeResponse, error) {
	resp, err := c.request(ctx, http.MethodPost, chapterPath(chapterID, "/toggle-like"), nil)
	if err != nil {
		return nil, err
	}
	return parseResponse[*models.LikeResponse](resp)
}

// Progress methods

// SaveProgress stores a progress record for one chapter
func (c *Client) SaveProgress(ctx context.Context, progress models.ProgressRequest) (*models.ReadingProgress, error) {
	resp, err := c.request(ctx, http.MethodPost, "/api/auth/progress", progress)
	if err != nil {
		return nil, err
	}
	return parseResponse[*models.ReadingProgress](resp)
}

// GetUserProgress returns all progress records of the current user
func (c *Client) GetUserProgress(ctx context.Context) ([]models.ReadingProgress, error) {
	resp, err := c.request(ctx, http.MethodGet, "/api/auth/progress", nil)
	if err != nil {
		return nil, err
	}
	return parseResponse[[]models.ReadingProgress](resp)
}

// Image methods

// ImageURL resolves the URL a page is downloaded from.
// Pages stored behind the proxy only carry a key.
func (c *Client) ImageURL(img models.ChapterImage) string {
	if img.ImageURL != "" {
		if u, err := url.Parse(img.ImageURL); err == nil && u.IsAbs() {
			return img.ImageURL
		}
		if strings.HasPrefix(img.ImageURL, "/") {
			return c.baseURL + img.ImageURL
		}
	}
	return c.baseURL + "/api/images/proxy/" + url.PathEscape(img.ImageKey)
}

// GetPageImage downloads a page image and returns its bytes and content type
func (c *Client) GetPageImage(ctx context.Context, img models.ChapterImage) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ImageURL(img), nil)
	if err != nil {
		return nil, "", err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode >= 400 {
		return nil, "", responseError(resp.StatusCode, data)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
