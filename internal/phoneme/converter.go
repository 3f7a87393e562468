package phoneme

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Converter turns orthographic text into a phonetic (IPA) transcription.
// The conversion model itself is an external collaborator.
type Converter interface {
	ToPhonemes(ctx context.Context, text, language string) (string, error)
}

// HTTPConverter calls an external phonemizer service.
type HTTPConverter struct {
	baseURL string
	client  *http.Client
}

// NewHTTPConverter creates a converter client for the given endpoint.
func NewHTTPConverter(baseURL string, timeout time.Duration) *HTTPConverter {
	return &HTTPConverter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type convertRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type convertResponse struct {
	IPA string `json:"ipa"`
}

// ToPhonemes posts the text to the phonemizer and returns its IPA string.
func (c *HTTPConverter) ToPhonemes(ctx context.Context, text, language string) (string, error) {
	body, err := json.Marshal(convertRequest{Text: text, Language: language})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("phonemizer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("phonemizer returned %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}

	var out convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode phonemizer response: %w", err)
	}
	return out.IPA, nil
}

// CheckedConverter wraps a Converter and flags transcriptions containing
// segments missing from the loaded feature table. Misses are logged, not
// rejected; the phonemizer's output is returned unchanged.
type CheckedConverter struct {
	inner Converter
	table *FeatureTable
	log   zerolog.Logger
}

// NewCheckedConverter wraps inner with coverage checks against table.
func NewCheckedConverter(inner Converter, table *FeatureTable, log zerolog.Logger) *CheckedConverter {
	return &CheckedConverter{
		inner: inner,
		table: table,
		log:   log.With().Str("component", "phoneme").Logger(),
	}
}

// ToPhonemes delegates to the wrapped converter and reports segments the
// feature table does not know about.
func (c *CheckedConverter) ToPhonemes(ctx context.Context, text, language string) (string, error) {
	ipa, err := c.inner.ToPhonemes(ctx, text, language)
	if err != nil {
		return "", err
	}
	if unknown := c.table.UnknownSegments(ipa); len(unknown) > 0 {
		c.log.Warn().
			Str("language", language).
			Strs("segments", unknown).
			Msg("transcription has segments missing from feature table")
	}
	return ipa, nil
}
