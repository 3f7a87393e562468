package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kellis/pron-engine/internal/metrics"
	"github.com/kellis/pron-engine/internal/phoneme"
	"github.com/kellis/pron-engine/internal/sample"
)

// SentenceSelector draws a practice sentence for a language and category.
// Satisfied by *sample.Selector.
type SentenceSelector interface {
	Select(language string, category int) (sample.Sentence, error)
}

// SamplesHandler serves practice sentence requests.
type SamplesHandler struct {
	selector  SentenceSelector
	converter phoneme.Converter
	log       zerolog.Logger
}

// NewSamplesHandler creates a samples handler.
func NewSamplesHandler(selector SentenceSelector, converter phoneme.Converter, log zerolog.Logger) *SamplesHandler {
	return &SamplesHandler{
		selector:  selector,
		converter: converter,
		log:       log.With().Str("handler", "samples").Logger(),
	}
}

// Routes registers the sample endpoint under its original path.
func (h *SamplesHandler) Routes(r chi.Router) {
	r.Post("/getSample", h.GetSample)
}

// flexInt tolerates both numeric and quoted-string JSON values; browser
// clients send the category either way.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*f = flexInt(n)
	return nil
}

type sampleRequest struct {
	Language string  `json:"language"`
	Category flexInt `json:"category"`
}

// sampleResponse mirrors the wire format the practice page expects:
// real_transcript is a single-element list.
type sampleResponse struct {
	RealTranscript        []string `json:"real_transcript"`
	IPATranscript         string   `json:"ipa_transcript"`
	TranscriptTranslation string   `json:"transcript_translation"`
}

// GetSample handles POST /getSample: draw a sentence in the requested
// category (0 = any) and attach its phonetic transcription.
func (h *SamplesHandler) GetSample(w http.ResponseWriter, r *http.Request) {
	var req sampleRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Language == "" {
		WriteError(w, http.StatusBadRequest, "missing language")
		return
	}
	category := int(req.Category)
	if !sample.ValidCategory(category) {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("category must be 0..3, got %d", category))
		return
	}

	sentence, err := h.selector.Select(req.Language, category)
	if err != nil {
		h.writeSelectError(w, err)
		return
	}

	ipa, err := h.convert(r.Context(), sentence.Text, req.Language)
	if err != nil {
		h.log.Error().Err(err).Str("language", req.Language).Msg("phonetic conversion failed")
		WriteError(w, http.StatusBadGateway, "phonetic conversion unavailable")
		return
	}

	metrics.SamplesServedTotal.WithLabelValues(req.Language).Inc()
	WriteJSON(w, http.StatusOK, sampleResponse{
		RealTranscript: []string{sentence.Text},
		IPATranscript:  ipa,
	})
}

func (h *SamplesHandler) convert(ctx context.Context, text, language string) (string, error) {
	if h.converter == nil {
		return "", nil
	}
	return h.converter.ToPhonemes(ctx, text, language)
}

// writeSelectError maps selector errors to HTTP statuses with their
// diagnostic context intact.
func (h *SamplesHandler) writeSelectError(w http.ResponseWriter, err error) {
	var (
		empty *sample.EmptyDatasetError
		unsat *sample.CategoryUnsatisfiableError
	)
	switch {
	case errors.As(err, &empty):
		WriteError(w, http.StatusNotFound, empty.Error())
	case errors.As(err, &unsat):
		WriteError(w, http.StatusUnprocessableEntity, unsat.Error())
	default:
		h.log.Error().Err(err).Msg("sample selection failed")
		WriteError(w, http.StatusInternalServerError, "sample selection failed")
	}
}

var _ json.Unmarshaler = (*flexInt)(nil)
