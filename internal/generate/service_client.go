package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultServiceURL = "http://localhost:5000/api/generate-ui"
	DefaultRetries    = 3
)

// ServiceClient calls a generation service that accepts
// {prompt, screenCount, platform} and answers {screens} or {error}.
type ServiceClient struct {
	url        string
	retries    int
	backoff    time.Duration
	httpClient *http.Client
}

func NewServiceClient(url string, timeout time.Duration) *ServiceClient {
	if url == "" {
		url = DefaultServiceURL
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &ServiceClient{
		url:        url,
		retries:    DefaultRetries,
		backoff:    time.Second,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithBackoff sets the base delay between attempts (doubled each retry).
func (c *ServiceClient) WithBackoff(d time.Duration) *ServiceClient {
	c.backoff = d
	return c
}

type serviceResponse struct {
	Screens []string `json:"screens"`
	Error   string   `json:"error"`
}

// retryable marks failures worth another attempt.
type retryable struct{ err error }

func (r retryable) Error() string { return r.err.Error() }
func (r retryable) Unwrap() error { return r.err }

func (c *ServiceClient) Generate(ctx context.Context, req Request) ([]string, error) {
	var lastErr error
	for i := 0; i < c.retries; i++ {
		screens, err := c.do(ctx, req)
		if err == nil {
			return screens, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var r retryable
		if !errors.As(err, &r) || i == c.retries-1 {
			break
		}
		select {
		case <-time.After(c.backoff * time.Duration(1<<uint(i))):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *ServiceClient) do(ctx context.Context, req Request) ([]string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, retryable{fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retryable{fmt.Errorf("read response: %w", err)}
	}

	var out serviceResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		err := fmt.Errorf("API error (%d): %s", resp.StatusCode, msg)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, retryable{err}
		}
		return nil, err
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("parse response: %w", decodeErr)
	}
	if out.Error != "" {
		return nil, errors.New(out.Error)
	}
	if out.Screens == nil {
		return nil, errors.New("invalid response from server")
	}
	return out.Screens, nil
}
