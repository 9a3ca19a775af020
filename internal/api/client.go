// Package api is the REST client for the entry store and the summary
// generator.
package api

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

	"github.com/google/uuid"

	"github.com/julianstephens/perfassist/internal/constants"
	apperrors "github.com/julianstephens/perfassist/internal/errors"
	"github.com/julianstephens/perfassist/internal/logger"
	"github.com/julianstephens/perfassist/internal/models"
)

// StatusError is returned by write calls when the store answers with a
// non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Client talks to the entry store over HTTP
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithToken sets the bearer token sent on summary requests
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for the store rooted at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: constants.DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the store root the client was built with
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(constants.RequestIDHeader, uuid.NewString())
	return req, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	logger.Debug("request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(constants.RequestIDHeader),
		"took", time.Since(start))
	return resp.StatusCode, data, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// ListEntries fetches the user's entries dated within [from, to]. A 5xx
// status or a transport failure is a FetchFailedError. Any other non-2xx
// status, an empty body, or a body that is not a JSON array yields zero
// entries. Entries whose type is neither plan nor fact are dropped.
func (c *Client) ListEntries(ctx context.Context, userID, from, to string) ([]models.Entry, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	q.Set("user_id", userID)

	req, err := c.newRequest(ctx, http.MethodGet, "/entries?"+q.Encode(), nil)
	if err != nil {
		return nil, &apperrors.FetchFailedError{Err: err}
	}
	status, data, err := c.do(req)
	if err != nil {
		return nil, &apperrors.FetchFailedError{Status: 0, Err: err}
	}
	if status >= 500 && status <= 599 {
		return nil, &apperrors.FetchFailedError{Status: status}
	}
	if !isSuccess(status) {
		logger.Debug("non-success list status treated as empty", "status", status)
		return []models.Entry{}, nil
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return []models.Entry{}, nil
	}
	var entries []models.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Debug("undecodable list body treated as empty", "error", err)
		return []models.Entry{}, nil
	}
	known := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if _, err := models.ParseKind(string(e.Kind)); err != nil {
			logger.Warn("skipping entry of unknown type", "id", e.ID, "date", e.Date, "type", e.Kind)
			continue
		}
		known = append(known, e)
	}
	return known, nil
}

type createBody struct {
	UserID string      `json:"user_id"`
	Date   string      `json:"date"`
	Kind   models.Kind `json:"type"`
	Text   string      `json:"raw_text"`
}

// CreateEntry persists a new entry and returns the stored record
func (c *Client) CreateEntry(ctx context.Context, e models.Entry) (models.Entry, error) {
	body := createBody{UserID: e.UserID, Date: e.Date, Kind: e.Kind, Text: e.Text}
	req, err := c.newRequest(ctx, http.MethodPost, "/entries", body)
	if err != nil {
		return models.Entry{}, err
	}
	status, data, err := c.do(req)
	if err != nil {
		return models.Entry{}, err
	}
	if !isSuccess(status) {
		return models.Entry{}, &StatusError{Method: req.Method, Path: "/entries", Status: status, Body: snippet(data)}
	}

	var created models.Entry
	if err := json.Unmarshal(data, &created); err != nil {
		return models.Entry{}, fmt.Errorf("decode created entry: %w", err)
	}
	if created.ID == "" {
		return models.Entry{}, fmt.Errorf("store returned an entry without id")
	}
	return created, nil
}

// UpdateEntry replaces an existing entry. An empty 2xx body is taken as
// confirmation of the entry that was sent.
func (c *Client) UpdateEntry(ctx context.Context, e models.Entry) (models.Entry, error) {
	if e.ID == "" {
		return models.Entry{}, fmt.Errorf("cannot update an entry without id")
	}
	path := "/entries/" + url.PathEscape(e.ID)
	req, err := c.newRequest(ctx, http.MethodPut, path, e)
	if err != nil {
		return models.Entry{}, err
	}
	status, data, err := c.do(req)
	if err != nil {
		return models.Entry{}, err
	}
	if !isSuccess(status) {
		return models.Entry{}, &StatusError{Method: req.Method, Path: path, Status: status, Body: snippet(data)}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return e, nil
	}
	var updated models.Entry
	if err := json.Unmarshal(data, &updated); err != nil {
		return models.Entry{}, fmt.Errorf("decode updated entry: %w", err)
	}
	return updated, nil
}

// DeleteDay removes both records of the user's date
func (c *Client) DeleteDay(ctx context.Context, userID, date string) error {
	path := "/entries/" + url.PathEscape(date)
	req, err := c.newRequest(ctx, http.MethodDelete, path+"?user_id="+url.QueryEscape(userID), nil)
	if err != nil {
		return err
	}
	status, data, err := c.do(req)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return &StatusError{Method: req.Method, Path: path, Status: status, Body: snippet(data)}
	}
	return nil
}

// GenerateSummary asks the backend for a self-review draft. The payload is
// returned as decoded, without validation.
func (c *Client) GenerateSummary(ctx context.Context, sr models.SummaryRequest) (models.Summary, error) {
	req, err := c.newRequest(ctx, http.MethodPost, constants.SummaryPath, sr)
	if err != nil {
		return models.Summary{}, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	status, data, err := c.do(req)
	if err != nil {
		return models.Summary{}, fmt.Errorf("summary request: %w", err)
	}
	if !isSuccess(status) {
		return models.Summary{}, &StatusError{Method: req.Method, Path: constants.SummaryPath, Status: status, Body: snippet(data)}
	}

	var summary models.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return models.Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	return summary, nil
}

// Ping checks that the store answers at all. Any HTTP status counts.
func (c *Client) Ping(ctx context.Context) (int, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/entries?from=1970-01-01&to=1970-01-01", nil)
	if err != nil {
		return 0, err
	}
	status, _, err := c.do(req)
	return status, err
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}
