// Package serverclient is the agent's HTTP client for the central judge
// server.
package serverclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"shunyata/internal/judge/model"
	"shunyata/internal/scoreboard"
	appErr "shunyata/pkg/errors"
)

// Client wraps HTTP calls to the judge server's JSON API.
type Client struct {
	baseURL string
	timeout time.Duration
}

// New creates a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{baseURL: baseURL, timeout: timeout}
}

// envelope matches the server's response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details any             `json:"details,omitempty"`
}

// FetchProblems downloads the full problem set.
func (c *Client) FetchProblems(ctx context.Context) (model.ProblemSet, error) {
	var set model.ProblemSet
	if err := c.do(ctx, http.MethodGet, "/api/problems", nil, &set); err != nil {
		return nil, err
	}
	return set, nil
}

// Submit sends a submission for judging and returns the verdict.
func (c *Client) Submit(ctx context.Context, sub model.Submission) (model.JudgeResponse, error) {
	var resp model.JudgeResponse
	if err := c.do(ctx, http.MethodPost, "/api/submit", sub, &resp); err != nil {
		return model.JudgeResponse{}, err
	}
	return resp, nil
}

// FetchScoreboard downloads the current standings.
func (c *Client) FetchScoreboard(ctx context.Context) (scoreboard.Snapshot, error) {
	var board scoreboard.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/scoreboard", nil, &board); err != nil {
		return nil, err
	}
	return board, nil
}

// do performs one request and unwraps the response envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	client := &http.Client{Timeout: c.timeout}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if env.Code != int(appErr.Success) {
		e := appErr.New(appErr.ErrorCode(env.Code)).WithMessage(env.Message)
		if env.Details != nil {
			e = e.WithDetail("details", env.Details)
		}
		return e
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}
