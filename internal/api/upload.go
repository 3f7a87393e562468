package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kellis/pron-engine/internal/sample"
)

// DatasetStore persists an uploaded dataset and makes it the active table.
// Satisfied by *sample.Store.
type DatasetStore interface {
	Persist(language string, raw []byte) error
}

// DatasetHandler handles practice-dataset CSV uploads.
type DatasetHandler struct {
	store    DatasetStore
	maxBytes int64
	log      zerolog.Logger
}

// NewDatasetHandler creates a dataset upload handler.
func NewDatasetHandler(store DatasetStore, maxBytes int64, log zerolog.Logger) *DatasetHandler {
	return &DatasetHandler{
		store:    store,
		maxBytes: maxBytes,
		log:      log.With().Str("handler", "dataset").Logger(),
	}
}

// Routes registers the dataset upload endpoint under its original path.
func (h *DatasetHandler) Routes(r chi.Router) {
	r.Post("/upload_csv", h.Upload)
}

// Upload handles POST /upload_csv. Accepts either a multipart form with a
// "file" part or a plain form with a "csv_path" field naming a server-side
// file, plus an optional "language" field (default "en"); the CSV becomes
// the active dataset for that language immediately.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		switch {
		case isTooLarge(err):
			WriteError(w, http.StatusRequestEntityTooLarge, "dataset exceeds upload limit")
			return
		case errors.Is(err, http.ErrNotMultipart):
			// urlencoded form carrying a csv_path; r.Form is already parsed
		default:
			WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
			return
		}
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	language := r.FormValue("language")
	if language == "" {
		language = "en"
	}

	raw, err := h.readDataset(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Persist(language, raw); err != nil {
		h.writePersistError(w, language, err)
		return
	}

	h.log.Info().Str("language", language).Int("bytes", len(raw)).Msg("dataset uploaded")
	WriteJSON(w, http.StatusOK, map[string]string{"language": language, "status": "loaded"})
}

// readDataset returns the uploaded CSV bytes, preferring a multipart "file"
// part and falling back to a "csv_path" form field.
func (h *DatasetHandler) readDataset(r *http.Request) ([]byte, error) {
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		raw, err := io.ReadAll(file)
		if err != nil {
			return nil, errors.New("failed to read uploaded file")
		}
		return raw, nil
	}

	path := r.FormValue("csv_path")
	if path == "" {
		return nil, errors.New(`missing "file" part and "csv_path" field`)
	}
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("could not read csv_path: %v", err)
	}
	return raw, nil
}

// writePersistError distinguishes a failed write (nothing changed) from a
// failed reload (file saved, previous table still active).
func (h *DatasetHandler) writePersistError(w http.ResponseWriter, language string, err error) {
	var (
		persist *sample.PersistError
		reload  *sample.ReloadError
	)
	switch {
	case errors.As(err, &reload):
		h.log.Warn().Err(err).Str("language", language).Msg("dataset saved but reload failed")
		WriteErrorDetail(w, http.StatusUnprocessableEntity,
			"dataset saved but could not be loaded", reload.Error())
	case errors.As(err, &persist):
		h.log.Error().Err(err).Str("language", language).Msg("dataset persist failed")
		WriteError(w, http.StatusInternalServerError, persist.Error())
	default:
		h.log.Error().Err(err).Str("language", language).Msg("dataset upload failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// isTooLarge reports whether err came from http.MaxBytesReader.
func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
