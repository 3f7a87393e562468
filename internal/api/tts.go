package api

import (
	"encoding/base64"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kellis/pron-engine/internal/tts"
)

// TTSHandler relays text-to-speech requests to the synthesis collaborator.
type TTSHandler struct {
	provider tts.Provider
	log      zerolog.Logger
}

// NewTTSHandler creates a TTS handler. provider may be nil when synthesis
// is not configured.
func NewTTSHandler(provider tts.Provider, log zerolog.Logger) *TTSHandler {
	return &TTSHandler{
		provider: provider,
		log:      log.With().Str("handler", "tts").Logger(),
	}
}

// Routes registers the TTS endpoint under its original path.
func (h *TTSHandler) Routes(r chi.Router) {
	r.Post("/getAudioFromText", h.Synthesize)
}

type ttsRequest struct {
	Value    string `json:"value"`
	Language string `json:"language"`
}

type ttsResponse struct {
	WavBase64 string `json:"wavBase64"`
}

// Synthesize handles POST /getAudioFromText.
func (h *TTSHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		WriteError(w, http.StatusServiceUnavailable, "text-to-speech not configured")
		return
	}

	var req ttsRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Value == "" {
		WriteError(w, http.StatusBadRequest, "missing value")
		return
	}

	audio, err := h.provider.Synthesize(r.Context(), req.Value, req.Language)
	if err != nil {
		h.log.Error().Err(err).Str("language", req.Language).Msg("synthesis failed")
		WriteError(w, http.StatusBadGateway, "synthesis unavailable")
		return
	}

	WriteJSON(w, http.StatusOK, ttsResponse{
		WavBase64: base64.StdEncoding.EncodeToString(audio),
	})
}
