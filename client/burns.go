package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// BurnEvent is a recorded token burn as served by the API.
type BurnEvent struct {
	Signature       string    `json:"signature"`
	Timestamp       time.Time `json:"timestamp"`
	Action          string    `json:"action"`
	FromAddress     *string   `json:"from_address"`
	ToAddress       *string   `json:"to_address"`
	Amount          string    `json:"amount"`
	AmountFormatted string    `json:"amount_formatted"`
	Token           string    `json:"token"`
	ScrapeTime      time.Time `json:"scrape_time"`
}

// BurnEventPage is one page of the burn event listing.
type BurnEventPage struct {
	Count      int          `json:"count"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalPages int64        `json:"total_pages"`
	Data       []*BurnEvent `json:"data"`
}

// RunLog is one tracking run audit record as served by the API.
type RunLog struct {
	ID              int64     `json:"id"`
	TotalChecked    int       `json:"total_checked"`
	NewBurns        int       `json:"new_burns"`
	Success         bool      `json:"success"`
	ErrorText       *string   `json:"error_text,omitempty"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// Client is the HTTP client for the burnwatch service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new burnwatch service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ListBurns retrieves one page of recorded burn events, newest first.
func (c *Client) ListBurns(ctx context.Context, page, limit int) (*BurnEventPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var result BurnEventPage
	if err := c.get(ctx, "/api/v1/burns", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetLatestBurn retrieves the most recent burn event. Returns an error when
// no burns have been recorded yet.
func (c *Client) GetLatestBurn(ctx context.Context) (*BurnEvent, error) {
	var result BurnEvent
	if err := c.get(ctx, "/api/v1/burns/latest", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBurn retrieves a single burn event by transaction signature.
func (c *Client) GetBurn(ctx context.Context, signature string) (*BurnEvent, error) {
	var result BurnEvent
	if err := c.get(ctx, "/api/v1/burns/"+url.PathEscape(signature), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BurnHistory retrieves burns inside an optional date range, newest first.
// Dates are YYYY-MM-DD; the end date is inclusive.
func (c *Client) BurnHistory(ctx context.Context, limit int, start, end string) ([]*BurnEvent, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if start != "" {
		q.Set("start", start)
	}
	if end != "" {
		q.Set("end", end)
	}

	var result struct {
		Count int          `json:"count"`
		Data  []*BurnEvent `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/burns/history", q, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// ListRuns retrieves recent tracking run audit records, newest first.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]*RunLog, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var result struct {
		Count int       `json:"count"`
		Data  []*RunLog `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/runs", q, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// TriggerRun requests an immediate tracking run outside the schedule interval.
func (c *Client) TriggerRun(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/schedule/trigger", bytes.NewReader(nil))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return c.parseErrorResponse(resp)
	}

	c.logger.Debug("tracking run triggered")
	return nil
}

// Health checks the server health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// get performs a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseErrorResponse extracts an error message from a failed API response.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Errorf("request failed: %s", errResp.Error)
}
