package api

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kellis/pron-engine/internal/sample"
)

// mockDatasetStore implements DatasetStore for testing.
type mockDatasetStore struct {
	lastLanguage string
	lastRaw      []byte
	err          error
}

func (m *mockDatasetStore) Persist(language string, raw []byte) error {
	m.lastLanguage = language
	m.lastRaw = raw
	return m.err
}

func buildMultipartForm(t *testing.T, fields map[string]string, fileField string, fileData []byte, fileName string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	if fileData != nil && fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(fileData)
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func postMultipart(t *testing.T, h http.HandlerFunc, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestDatasetUpload_Success(t *testing.T) {
	mock := &mockDatasetStore{}
	h := NewDatasetHandler(mock, 1<<20, zerolog.Nop())

	csv := []byte("sentence\nHello there\n")
	body, ct := buildMultipartForm(t, map[string]string{"language": "de"}, "file", csv, "data.csv")

	w := postMultipart(t, h.Upload, "/upload_csv", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if mock.lastLanguage != "de" {
		t.Errorf("language = %q, want de", mock.lastLanguage)
	}
	if string(mock.lastRaw) != string(csv) {
		t.Errorf("uploaded bytes mangled: %q", mock.lastRaw)
	}
}

func TestDatasetUpload_DefaultsToEnglish(t *testing.T) {
	mock := &mockDatasetStore{}
	h := NewDatasetHandler(mock, 1<<20, zerolog.Nop())

	body, ct := buildMultipartForm(t, nil, "file", []byte("sentence\nHi\n"), "data.csv")
	w := postMultipart(t, h.Upload, "/upload_csv", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if mock.lastLanguage != "en" {
		t.Errorf("language = %q, want en", mock.lastLanguage)
	}
}

func TestDatasetUpload_MissingFileAndPath(t *testing.T) {
	h := NewDatasetHandler(&mockDatasetStore{}, 1<<20, zerolog.Nop())

	body, ct := buildMultipartForm(t, map[string]string{"language": "en"}, "", nil, "")
	w := postMultipart(t, h.Upload, "/upload_csv", body, ct)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func postForm(t *testing.T, h http.HandlerFunc, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestDatasetUpload_CSVPathForm(t *testing.T) {
	csv := []byte("sentence\nHello there\n")
	path := filepath.Join(t.TempDir(), "data_en.csv")
	if err := os.WriteFile(path, csv, 0o644); err != nil {
		t.Fatal(err)
	}

	mock := &mockDatasetStore{}
	h := NewDatasetHandler(mock, 1<<20, zerolog.Nop())

	w := postForm(t, h.Upload, "/upload_csv", url.Values{"csv_path": {path}, "language": {"en"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if mock.lastLanguage != "en" {
		t.Errorf("language = %q, want en", mock.lastLanguage)
	}
	if string(mock.lastRaw) != string(csv) {
		t.Errorf("loaded bytes = %q, want file contents", mock.lastRaw)
	}
}

func TestDatasetUpload_CSVPathMultipartField(t *testing.T) {
	csv := []byte("sentence\nGuten Tag\n")
	path := filepath.Join(t.TempDir(), "data_de.csv")
	if err := os.WriteFile(path, csv, 0o644); err != nil {
		t.Fatal(err)
	}

	mock := &mockDatasetStore{}
	h := NewDatasetHandler(mock, 1<<20, zerolog.Nop())

	body, ct := buildMultipartForm(t, map[string]string{"csv_path": path, "language": "de"}, "", nil, "")
	w := postMultipart(t, h.Upload, "/upload_csv", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if string(mock.lastRaw) != string(csv) {
		t.Errorf("loaded bytes = %q, want file contents", mock.lastRaw)
	}
}

func TestDatasetUpload_CSVPathUnreadable(t *testing.T) {
	h := NewDatasetHandler(&mockDatasetStore{}, 1<<20, zerolog.Nop())

	missing := filepath.Join(t.TempDir(), "nope.csv")
	w := postForm(t, h.Upload, "/upload_csv", url.Values{"csv_path": {missing}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "csv_path") {
		t.Errorf("body = %s, want csv_path mention", w.Body.String())
	}
}

func TestDatasetUpload_ReloadFailure(t *testing.T) {
	mock := &mockDatasetStore{err: &sample.ReloadError{Language: "en", Err: errors.New("missing column")}}
	h := NewDatasetHandler(mock, 1<<20, zerolog.Nop())

	body, ct := buildMultipartForm(t, nil, "file", []byte("bad\nstuff\n"), "data.csv")
	w := postMultipart(t, h.Upload, "/upload_csv", body, ct)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestDatasetUpload_PersistFailure(t *testing.T) {
	mock := &mockDatasetStore{err: &sample.PersistError{Language: "en", Err: errors.New("disk full")}}
	h := NewDatasetHandler(mock, 1<<20, zerolog.Nop())

	body, ct := buildMultipartForm(t, nil, "file", []byte("sentence\nHi\n"), "data.csv")
	w := postMultipart(t, h.Upload, "/upload_csv", body, ct)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestDatasetUpload_TooLarge(t *testing.T) {
	h := NewDatasetHandler(&mockDatasetStore{}, 64, zerolog.Nop())

	big := bytes.Repeat([]byte("sentence data "), 100)
	body, ct := buildMultipartForm(t, nil, "file", big, "data.csv")
	w := postMultipart(t, h.Upload, "/upload_csv", body, ct)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}
