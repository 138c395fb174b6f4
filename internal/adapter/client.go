package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"fxdesk/internal/metrics"
	apperrors "fxdesk/pkg/errors"
)

// maxErrorBody bounds how much of an error response is kept in the message
const maxErrorBody = 512

// FlexibleTime handles multiple timestamp formats from the Python services
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON implements custom JSON unmarshalling for flexible timestamp parsing
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "" || s == "null" {
		ft.Time = time.Time{}
		return nil
	}

	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999", // Python datetime without timezone
		"2006-01-02T15:04:05",
		time.DateTime,
		time.DateOnly,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			ft.Time = t
			return nil
		}
	}

	return fmt.Errorf("unable to parse timestamp: %s", s)
}

// Ptr returns nil for the zero time
func (ft FlexibleTime) Ptr() *time.Time {
	if ft.IsZero() {
		return nil
	}
	t := ft.Time
	return &t
}

// engineClient is the HTTP plumbing shared by the analysis backends
type engineClient struct {
	name       string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newEngineClient(name, baseURL string, timeout time.Duration, requestsPerMin int) *engineClient {
	if timeout <= 0 {
		timeout = 120 * time.Second // analysis can take time
	}

	limit := rate.Inf
	burst := 1
	if requestsPerMin > 0 {
		limit = rate.Limit(float64(requestsPerMin) / 60.0)
		burst = max(requestsPerMin/10, 1)
	}

	return &engineClient{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// do sends a request and decodes a 2xx body into out. endpoint is the
// metrics label, path the concrete request path.
func (c *engineClient) do(ctx context.Context, endpoint, method, path string, body, out any) error {
	op := fmt.Sprintf("%s %s", method, endpoint)

	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.NetworkError(op, fmt.Errorf("rate limiter %s: %w", c.name, err))
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RecordAnalysisCall(c.name, endpoint, time.Since(start))
	if err != nil {
		return apperrors.NetworkError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Only read body if there's an error to report
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return apperrors.NewRemoteError(op, resp.StatusCode, errorMessage(raw, resp.Status))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewRemoteError(op, resp.StatusCode, "invalid response body: "+err.Error())
	}
	return nil
}

// errorMessage extracts the message of a FastAPI or envelope error body
func errorMessage(raw []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		case payload.Detail != nil:
			if s, ok := payload.Detail.(string); ok {
				return s
			}
			b, _ := json.Marshal(payload.Detail)
			return string(b)
		}
	}

	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return fallback
}
