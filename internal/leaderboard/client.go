package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/verte-zerg/keyrush/internal/model"
)

// Client talks to a remote leaderboard server.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a client for baseURL (e.g. "http://127.0.0.1:8080"). token may be empty.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// BaseURL returns the server address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type errorBody struct {
	Error string `json:"error"`
}

type usernameBody struct {
	Username string `json:"username"`
}

// Register creates a new identity on the server.
func (c *Client) Register(ctx context.Context) (Registration, error) {
	var out Registration
	err := c.do(ctx, http.MethodPost, "/api/register", nil, &out)
	return out, err
}

// Me fetches the caller's profile.
func (c *Client) Me(ctx context.Context) (model.Profile, error) {
	var out model.Profile
	err := c.do(ctx, http.MethodGet, "/api/me", nil, &out)
	return out, err
}

// Submit posts a score for the caller.
func (c *Client) Submit(ctx context.Context, sub model.ScoreSubmission) (model.Score, error) {
	var out model.Score
	err := c.do(ctx, http.MethodPost, "/api/scores", sub, &out)
	return out, err
}

// Leaderboard fetches the top scores matching filter.
func (c *Client) Leaderboard(ctx context.Context, filter model.LeaderboardFilter) ([]model.Score, error) {
	q := url.Values{}
	if filter.Mode != "" {
		q.Set("mode", filter.Mode)
	}
	if filter.Difficulty != "" {
		q.Set("difficulty", filter.Difficulty)
	}
	path := "/api/leaderboard"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []model.Score
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// UserScores fetches the caller's recent scores.
func (c *Client) UserScores(ctx context.Context) ([]model.Score, error) {
	var out []model.Score
	err := c.do(ctx, http.MethodGet, "/api/scores/me", nil, &out)
	return out, err
}

// UpdateUsername renames the caller.
func (c *Client) UpdateUsername(ctx context.Context, name string) (model.Profile, error) {
	var out model.Profile
	err := c.do(ctx, http.MethodPost, "/api/profile/username", usernameBody{Username: name}, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()
	if resp.StatusCode >= 300 {
		return statusError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	var body errorBody
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrNotAuthenticated
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrValidation, strings.TrimPrefix(msg, ErrValidation.Error()+": "))
	case http.StatusConflict:
		return ErrNameTaken
	case http.StatusNotFound:
		return ErrProfileNotFound
	default:
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, msg)
	}
}
