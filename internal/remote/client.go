// Package remote is the HTTP client for the progress API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/courseview"
	"github.com/abhisek/coursepath/internal/progress"
	"github.com/abhisek/coursepath/internal/quizgate"
)

// DefaultTimeout bounds requests when the caller's context has no deadline.
const DefaultTimeout = 15 * time.Second

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("remote: HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps 404 onto course.ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return course.ErrNotFound
	}
	return nil
}

var _ courseview.Remote = (*Client)(nil)

// Client talks to a progress API rooted at a base URL.
type Client struct {
	base *url.URL
	http *http.Client
}

// New creates a client for baseURL. A nil httpClient uses one with
// DefaultTimeout.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse remote base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote base URL %q must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{base: u, http: httpClient}, nil
}

// FetchCourse returns the course definition.
func (c *Client) FetchCourse(ctx context.Context, courseID string) (*course.Course, error) {
	var crs course.Course
	if err := c.do(ctx, http.MethodGet, c.path("v1", "courses", courseID), nil, &crs); err != nil {
		return nil, fmt.Errorf("fetch course %s: %w", courseID, err)
	}
	return &crs, nil
}

// FetchProgress returns the learner's stored progress, or nil when the
// learner has none.
func (c *Client) FetchProgress(ctx context.Context, learnerID, courseID string) (*progress.Seed, error) {
	var seed progress.Seed
	err := c.do(ctx, http.MethodGet, c.path("v1", "learners", learnerID, "courses", courseID, "progress"), nil, &seed)
	if errors.Is(err, course.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch progress: %w", err)
	}
	return &seed, nil
}

// PushProgress replaces the stored progress and returns the ack time.
func (c *Client) PushProgress(ctx context.Context, learnerID, courseID string, p progress.Payload) (time.Time, error) {
	var resp struct {
		SyncedAt time.Time `json:"syncedAt"`
	}
	err := c.do(ctx, http.MethodPut, c.path("v1", "learners", learnerID, "courses", courseID, "progress"), p, &resp)
	if err != nil {
		return time.Time{}, fmt.Errorf("push progress: %w", err)
	}
	return resp.SyncedAt, nil
}

// FetchQuiz returns the lecture's persisted quiz or course.ErrNotFound.
func (c *Client) FetchQuiz(ctx context.Context, lectureID string) (*course.Quiz, error) {
	var q course.Quiz
	if err := c.do(ctx, http.MethodGet, c.path("v1", "lectures", lectureID, "quiz"), nil, &q); err != nil {
		return nil, fmt.Errorf("fetch quiz for %s: %w", lectureID, err)
	}
	return &q, nil
}

// GenerateQuiz asks the server to generate and persist the lecture's quiz.
func (c *Client) GenerateQuiz(ctx context.Context, courseID, lectureID string) (*course.Quiz, error) {
	var q course.Quiz
	if err := c.do(ctx, http.MethodPost, c.path("v1", "courses", courseID, "lectures", lectureID, "quiz"), nil, &q); err != nil {
		return nil, fmt.Errorf("generate quiz for %s: %w", lectureID, err)
	}
	return &q, nil
}

// RecordAttempt uploads a quiz attempt for analytics.
func (c *Client) RecordAttempt(ctx context.Context, learnerID string, a quizgate.Attempt) error {
	if err := c.do(ctx, http.MethodPost, c.path("v1", "learners", learnerID, "attempts"), a, nil); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (c *Client) path(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(escaped, "/")
	u.RawPath = ""
	return u.String()
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
