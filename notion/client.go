// ABOUTME: HTTP client for the Notion REST API
// ABOUTME: Paces requests, retries 429 and 5xx with backoff, and decodes API errors
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/harperreed/contactsync/logging"
)

const (
	DefaultBaseURL    = "https://api.notion.com"
	DefaultAPIVersion = "2022-06-28"

	// DefaultRPS is Notion's documented average request rate.
	DefaultRPS = 3
)

// ClientOptions configure a Client. Zero values select defaults.
type ClientOptions struct {
	BaseURL    string
	Token      string
	APIVersion string
	HTTPClient *http.Client
	// RPS caps requests per second. Negative disables pacing.
	RPS        float64
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Client talks to the Notion API.
type Client struct {
	baseURL    string
	token      string
	apiVersion string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewClient creates a Notion client.
func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	switch {
	case opts.RPS > 0:
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	case opts.RPS == 0:
		limiter = rate.NewLimiter(rate.Limit(DefaultRPS), 1)
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(opts.Token),
		apiVersion: apiVersion,
		httpClient: httpClient,
		limiter:    limiter,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

// APIError is a non-2xx response from Notion.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion api error: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("notion api error: status=%d message=%s", e.Status, e.Message)
}

// Retryable reports whether the request may succeed if sent again.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || (e.Status >= 500 && e.Status <= 599)
}

// do sends one JSON request and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	if c.token == "" {
		return fmt.Errorf("notion token is empty")
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	url := c.baseURL + path
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", c.apiVersion)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return err
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to decode notion response: %w", err)
			}
			return nil
		}

		apiErr := parseAPIError(resp.StatusCode, respBody)
		if apiErr.Retryable() && attempt < c.maxRetries {
			delay := c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))
			logging.FromContext(ctx).Debug().
				Int("status", resp.StatusCode).
				Str("path", path).
				Int("attempt", attempt+1).
				Dur("wait", delay).
				Msg("retrying notion request")
			if waitErr := sleepContext(ctx, delay); waitErr != nil {
				return waitErr
			}
			continue
		}
		return apiErr
	}
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: strings.TrimSpace(string(body))}
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		apiErr.Code = parsed.Code
		if strings.TrimSpace(parsed.Message) != "" {
			apiErr.Message = parsed.Message
		}
	}
	return apiErr
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		return min(retryAfter, c.maxDelay)
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	return min(delay, c.maxDelay)
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Page is a database row.
type Page struct {
	ID         string              `json:"id"`
	Archived   bool                `json:"archived"`
	InTrash    bool                `json:"in_trash"`
	Properties map[string]Property `json:"properties"`
}

// Property is one page property value. Only the field matching Type is set.
type Property struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	Email       *string        `json:"email,omitempty"`
	PhoneNumber *string        `json:"phone_number,omitempty"`
	URL         *string        `json:"url,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
	Checkbox    bool           `json:"checkbox,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
}

// RichText is one text segment.
type RichText struct {
	PlainText string `json:"plain_text"`
}

// DateValue is a date property value.
type DateValue struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

// SelectOption is one multi-select choice.
type SelectOption struct {
	Name string `json:"name"`
}

// Database is the metadata of a database.
type Database struct {
	ID         string                    `json:"id"`
	Title      []RichText                `json:"title"`
	Properties map[string]PropertySchema `json:"properties"`
}

// PropertySchema describes one column.
type PropertySchema struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult is one page of a database query.
type QueryResult struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// QueryDatabase fetches one page of rows starting at cursor.
func (c *Client) QueryDatabase(ctx context.Context, databaseID, cursor string, pageSize int) (*QueryResult, error) {
	payload := map[string]any{"page_size": pageSize}
	if cursor != "" {
		payload["start_cursor"] = cursor
	}
	var result QueryResult
	if err := c.do(ctx, http.MethodPost, "/v1/databases/"+databaseID+"/query", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreatePage adds a row to the database and returns its page.
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties map[string]any) (*Page, error) {
	payload := map[string]any{
		"parent":     map[string]any{"database_id": databaseID},
		"properties": properties,
	}
	var page Page
	if err := c.do(ctx, http.MethodPost, "/v1/pages", payload, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePage patches the given properties of a page.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties map[string]any) error {
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, map[string]any{"properties": properties}, nil)
}

// RetrieveDatabase fetches database metadata.
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID string) (*Database, error) {
	var db Database
	if err := c.do(ctx, http.MethodGet, "/v1/databases/"+databaseID, nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// UpdateDatabase changes database properties.
func (c *Client) UpdateDatabase(ctx context.Context, databaseID string, properties map[string]any) error {
	return c.do(ctx, http.MethodPatch, "/v1/databases/"+databaseID, map[string]any{"properties": properties}, nil)
}
