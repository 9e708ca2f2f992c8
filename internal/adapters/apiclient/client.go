// Package apiclient talks to the sonnet HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PabloGalante/symbiotic-sonnet/internal/app/sequencer"
	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

const maxBodyBytes = 1 << 20

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type generateRequest struct {
	Theme      string   `json:"theme"`
	LineNumber int      `json:"lineNumber"`
	History    []string `json:"history"`
	APIKey     string   `json:"apiKey,omitempty"`
}

// FetchLine implements sequencer.LineFetcher against POST /api/generate.
func (c *Client) FetchLine(ctx context.Context, req sequencer.FetchRequest) (domain.LineRecord, error) {
	history := req.History
	if history == nil {
		history = []string{}
	}

	var rec domain.LineRecord
	err := c.do(ctx, http.MethodPost, "/api/generate", generateRequest{
		Theme:      string(req.Theme),
		LineNumber: req.LineNumber,
		History:    history,
		APIKey:     req.APIKey,
	}, &rec)
	if err != nil {
		return domain.LineRecord{}, err
	}
	return rec, nil
}

// PoemView is the archive's wire form of a poem.
type PoemView struct {
	ID        string              `json:"id"`
	Theme     string              `json:"theme"`
	Kind      string              `json:"kind"`
	Lines     []domain.LineRecord `json:"lines"`
	CreatedAt time.Time           `json:"createdAt"`
}

type savePoemRequest struct {
	Theme string              `json:"theme"`
	Lines []domain.LineRecord `json:"lines"`
}

func (c *Client) SavePoem(ctx context.Context, theme domain.Theme, lines []domain.LineRecord) (*PoemView, error) {
	var out PoemView
	if err := c.do(ctx, http.MethodPost, "/api/poems", savePoemRequest{Theme: string(theme), Lines: lines}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListPoems(ctx context.Context, limit int) ([]PoemView, error) {
	path := "/api/poems"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out struct {
		Poems []PoemView `json:"poems"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Poems, nil
}

func (c *Client) GetPoem(ctx context.Context, id string) (*PoemView, error) {
	var out PoemView
	if err := c.do(ctx, http.MethodGet, "/api/poems/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		return &StatusError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
