package client

import (
	"bufio"
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

	"github.com/groblegark/cadence/internal/model"
	"github.com/groblegark/cadence/internal/schema"
)

// HTTPClient implements TrackerClient using the cadence HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Config ---

func (c *HTTPClient) GetConfig(ctx context.Context, cat schema.Category) (json.RawMessage, error) {
	var resp configResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/config/"+url.PathEscape(string(cat)), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *HTTPClient) SetConfig(ctx context.Context, cat schema.Category, value json.RawMessage) (json.RawMessage, error) {
	var resp configResponse
	if err := c.doJSON(ctx, http.MethodPut, "/v1/config/"+url.PathEscape(string(cat)), value, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *HTTPClient) ResetConfig(ctx context.Context, cat schema.Category) (json.RawMessage, error) {
	var resp configResponse
	if err := c.doJSON(ctx, http.MethodDelete, "/v1/config/"+url.PathEscape(string(cat)), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *HTTPClient) ConfigHistory(ctx context.Context, cat schema.Category, limit int) ([]*model.ConfigHistoryEntry, error) {
	path := "/v1/config/" + url.PathEscape(string(cat)) + "/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp historyResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

func (c *HTTPClient) ExportConfigs(ctx context.Context) (*model.ConfigSnapshot, error) {
	var snapshot model.ConfigSnapshot
	if err := c.doJSON(ctx, http.MethodGet, "/v1/config", nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *HTTPClient) ImportConfigs(ctx context.Context, snapshot *model.ConfigSnapshot) ([]string, error) {
	var resp struct {
		Imported []string `json:"imported"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/config/import", snapshot, &resp); err != nil {
		return nil, err
	}
	return resp.Imported, nil
}

// --- Daily metrics ---

func (c *HTTPClient) GetDaily(ctx context.Context, date string) (*model.DailyMetrics, error) {
	var row model.DailyMetrics
	if err := c.doJSON(ctx, http.MethodGet, "/v1/daily?date="+url.QueryEscape(date), nil, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (c *HTTPClient) GetDailyRange(ctx context.Context, start, end string) ([]*model.DailyMetrics, error) {
	path := "/v1/daily/range?start=" + url.QueryEscape(start) + "&end=" + url.QueryEscape(end)
	var resp struct {
		Rows []*model.DailyMetrics `json:"rows"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

func (c *HTTPClient) UpsertDaily(ctx context.Context, row *model.DailyMetrics) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/daily", row, nil)
}

func (c *HTTPClient) ExportDaily(ctx context.Context) (*model.DailyExport, error) {
	var export model.DailyExport
	if err := c.doJSON(ctx, http.MethodGet, "/v1/daily/export", nil, &export); err != nil {
		return nil, err
	}
	return &export, nil
}

func (c *HTTPClient) ImportDaily(ctx context.Context, export *model.DailyExport) (int, error) {
	var resp struct {
		Imported int `json:"imported"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/daily/import", export, &resp); err != nil {
		return 0, err
	}
	return resp.Imported, nil
}

// --- Events ---

// Watch opens the SSE feed and delivers events on the returned channel until
// ctx is canceled or the connection drops. The channel is closed on exit.
func (c *HTTPClient) Watch(ctx context.Context, topics []string) (<-chan StreamEvent, error) {
	path := "/v1/config/stream"
	if len(topics) > 0 {
		path += "?topics=" + url.QueryEscape(strings.Join(topics, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connecting to stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	ch := make(chan StreamEvent, 16)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		var evt StreamEvent
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				// Blank line terminates one event.
				if evt.Event != "" || len(evt.Data) > 0 {
					select {
					case ch <- evt:
					case <-ctx.Done():
						return
					}
				}
				evt = StreamEvent{}
			case strings.HasPrefix(line, "id:"):
				evt.ID = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
			case strings.HasPrefix(line, "event:"):
				evt.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				evt.Data = json.RawMessage(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			}
		}
	}()
	return ch, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (*HealthStatus, error) {
	var resp HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsBackendDisabled reports whether err is the server telling us the metrics
// backend is not configured.
func IsBackendDisabled(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotImplemented
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content means success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
