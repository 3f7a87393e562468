package api

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kellis/pron-engine/internal/ingest"
	"github.com/kellis/pron-engine/internal/media"
	"github.com/kellis/pron-engine/internal/scoring"
)

// Ingestor turns an uploaded video into a scoring request payload.
// Satisfied by *ingest.Pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, videoBytes []byte, filenameHint, targetPhrase, language string) (*scoring.Request, error)
}

// ScoreHandler accepts recorded attempts, runs video uploads through the
// ingestion pipeline, and relays the scorer's verdict.
type ScoreHandler struct {
	pipeline Ingestor
	scorer   scoring.Provider
	maxBytes int64
	log      zerolog.Logger
}

// NewScoreHandler creates a score handler.
func NewScoreHandler(pipeline Ingestor, scorer scoring.Provider, maxBytes int64, log zerolog.Logger) *ScoreHandler {
	return &ScoreHandler{
		pipeline: pipeline,
		scorer:   scorer,
		maxBytes: maxBytes,
		log:      log.With().Str("handler", "score").Logger(),
	}
}

// Routes registers the scoring endpoints under their original paths.
func (h *ScoreHandler) Routes(r chi.Router) {
	r.Post("/GetAccuracyFromRecordedAudio", h.ScoreRecording)
	r.Post("/uploadVideo", h.ScoreVideoUpload)
}

type scoreRequest struct {
	Title       string `json:"title"`
	Base64Audio string `json:"base64Audio"`
	Filename    string `json:"filename"`
	Language    string `json:"language"`
}

// ScoreRecording handles POST /GetAccuracyFromRecordedAudio. The browser
// sends base64-encoded media; a video filename hint routes the payload
// through the ingestion pipeline, otherwise the audio goes to the scorer
// as-is.
func (h *ScoreHandler) ScoreRecording(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	var req scoreRequest
	if err := DecodeJSON(r, &req); err != nil {
		if isTooLarge(err) {
			WriteError(w, http.StatusRequestEntityTooLarge, "recording exceeds upload limit")
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Base64Audio == "" {
		WriteError(w, http.StatusBadRequest, "missing base64Audio")
		return
	}

	payload := &scoring.Request{
		AudioDataBase64: req.Base64Audio,
		TargetPhrase:    req.Title,
		Language:        req.Language,
	}

	if req.Filename != "" && ingest.SupportedFormat(req.Filename) {
		videoBytes, err := decodeDataURI(req.Base64Audio)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid base64 payload")
			return
		}
		payload, err = h.pipeline.Ingest(r.Context(), videoBytes, req.Filename, req.Title, req.Language)
		if err != nil {
			h.writeIngestError(w, err)
			return
		}
	}

	h.score(w, r, payload)
}

// ScoreVideoUpload handles POST /uploadVideo: a multipart form with a
// "video" file part plus "title" and "language" fields.
func (h *ScoreHandler) ScoreVideoUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		if isTooLarge(err) {
			WriteError(w, http.StatusRequestEntityTooLarge, "video exceeds upload limit")
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("video")
	if err != nil {
		WriteError(w, http.StatusBadRequest, `missing "video" part`)
		return
	}
	defer file.Close()

	videoBytes, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read video upload")
		return
	}

	payload, err := h.pipeline.Ingest(r.Context(), videoBytes,
		header.Filename, r.FormValue("title"), r.FormValue("language"))
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	h.score(w, r, payload)
}

func (h *ScoreHandler) score(w http.ResponseWriter, r *http.Request, payload *scoring.Request) {
	result, err := h.scorer.Score(r.Context(), payload)
	if err != nil {
		h.log.Error().Err(err).Str("provider", h.scorer.Name()).Msg("scoring failed")
		WriteError(w, http.StatusBadGateway, "scoring unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// writeIngestError maps pipeline errors to HTTP statuses. Domain errors
// (wrong container, no audio track) are client problems; decode faults get
// logged with their ffmpeg context.
func (h *ScoreHandler) writeIngestError(w http.ResponseWriter, err error) {
	var de *media.DecodeError
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ingest.ErrMissingPhrase):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, media.ErrNoAudioTrack):
		WriteError(w, http.StatusUnprocessableEntity, "video has no audio track")
	case errors.As(err, &de):
		h.log.Error().Err(err).Msg("media decode failed")
		WriteErrorDetail(w, http.StatusBadRequest, "could not decode uploaded video", de.Op)
	default:
		h.log.Error().Err(err).Msg("ingestion failed")
		WriteError(w, http.StatusInternalServerError, "ingestion failed")
	}
}

// decodeDataURI strips an optional data:...;base64, prefix and decodes.
func decodeDataURI(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 {
		s = s[i+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(s)
}
