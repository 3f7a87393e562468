// Package tts defines the boundary to the external text-to-speech
// collaborator.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider synthesizes speech for a practice sentence. Internals are out of
// scope for this service; the audio is relayed to the browser as-is.
type Provider interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// HTTPClient calls a TTS service over JSON/HTTP and returns base64-decoded
// audio bytes.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a TTS client for the given endpoint.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type synthRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type synthResponse struct {
	Audio []byte `json:"audio"` // base64 in the wire JSON
}

// Synthesize posts the sentence and returns the synthesized audio.
func (c *HTTPClient) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	body, err := json.Marshal(synthRequest{Text: text, Language: language})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts returned %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}

	var out synthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode tts response: %w", err)
	}
	return out.Audio, nil
}
