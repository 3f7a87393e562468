package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kellis/pron-engine/internal/sample"
)

// mockSelector implements SentenceSelector for testing.
type mockSelector struct {
	lastLanguage string
	lastCategory int
	sentence     sample.Sentence
	err          error
}

func (m *mockSelector) Select(language string, category int) (sample.Sentence, error) {
	m.lastLanguage = language
	m.lastCategory = category
	if m.err != nil {
		return sample.Sentence{}, m.err
	}
	return m.sentence, nil
}

// mockConverter implements phoneme.Converter for testing.
type mockConverter struct {
	ipa string
	err error
}

func (m *mockConverter) ToPhonemes(ctx context.Context, text, language string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.ipa, nil
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/getSample", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestGetSample_Success(t *testing.T) {
	sel := &mockSelector{sentence: sample.Sentence{Text: "Hello there.", WordCount: 2}}
	h := NewSamplesHandler(sel, &mockConverter{ipa: "həˈloʊ ðɛə"}, zerolog.Nop())

	w := postJSON(t, h.GetSample, `{"language":"en","category":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		RealTranscript []string `json:"real_transcript"`
		IPATranscript  string   `json:"ipa_transcript"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.RealTranscript) != 1 || resp.RealTranscript[0] != "Hello there." {
		t.Errorf("real_transcript = %v", resp.RealTranscript)
	}
	if resp.IPATranscript == "" {
		t.Error("ipa_transcript empty")
	}
	if sel.lastLanguage != "en" || sel.lastCategory != 1 {
		t.Errorf("selector saw language=%q category=%d", sel.lastLanguage, sel.lastCategory)
	}
}

func TestGetSample_CategoryAsString(t *testing.T) {
	sel := &mockSelector{sentence: sample.Sentence{Text: "Hi.", WordCount: 1}}
	h := NewSamplesHandler(sel, &mockConverter{}, zerolog.Nop())

	w := postJSON(t, h.GetSample, `{"language":"en","category":"2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if sel.lastCategory != 2 {
		t.Errorf("category = %d, want 2", sel.lastCategory)
	}
}

func TestGetSample_InvalidCategory(t *testing.T) {
	h := NewSamplesHandler(&mockSelector{}, &mockConverter{}, zerolog.Nop())

	for _, body := range []string{
		`{"language":"en","category":4}`,
		`{"language":"en","category":-1}`,
	} {
		w := postJSON(t, h.GetSample, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestGetSample_MissingLanguage(t *testing.T) {
	h := NewSamplesHandler(&mockSelector{}, &mockConverter{}, zerolog.Nop())
	w := postJSON(t, h.GetSample, `{"category":0}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetSample_EmptyDataset(t *testing.T) {
	sel := &mockSelector{err: &sample.EmptyDatasetError{Language: "xx"}}
	h := NewSamplesHandler(sel, &mockConverter{}, zerolog.Nop())

	w := postJSON(t, h.GetSample, `{"language":"xx","category":0}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetSample_CategoryUnsatisfiable(t *testing.T) {
	sel := &mockSelector{err: &sample.CategoryUnsatisfiableError{Language: "en", Category: 2, Attempts: 500}}
	h := NewSamplesHandler(sel, &mockConverter{}, zerolog.Nop())

	w := postJSON(t, h.GetSample, `{"language":"en","category":2}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
	// error message must carry language and category for the UI
	if !strings.Contains(w.Body.String(), "category 2") {
		t.Errorf("error lacks context: %s", w.Body.String())
	}
}

func TestGetSample_ConverterFailure(t *testing.T) {
	sel := &mockSelector{sentence: sample.Sentence{Text: "Hi.", WordCount: 1}}
	h := NewSamplesHandler(sel, &mockConverter{err: errors.New("connection refused")}, zerolog.Nop())

	w := postJSON(t, h.GetSample, `{"language":"en","category":0}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}
