package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient calls a speech-scoring service over JSON/HTTP.
// Implements the Provider interface.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a scoring client for the given endpoint.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (c *HTTPClient) Name() string { return "http" }

// Score posts the request payload and decodes the scorer's verdict.
func (c *HTTPClient) Score(ctx context.Context, req *Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("scoring request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("scorer returned %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode scoring response: %w", err)
	}
	return &result, nil
}
