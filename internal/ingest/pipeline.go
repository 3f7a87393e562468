// Package ingest turns an uploaded practice video into the request payload
// expected by the speech-scoring collaborator.
package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kellis/pron-engine/internal/media"
	"github.com/kellis/pron-engine/internal/metrics"
	"github.com/kellis/pron-engine/internal/scoring"
	"github.com/kellis/pron-engine/internal/tempfile"
)

// ErrUnsupportedFormat reports an upload whose filename extension is not an
// accepted video container.
var ErrUnsupportedFormat = errors.New("unsupported video format")

// ErrMissingPhrase reports an upload without a target phrase to score
// against.
var ErrMissingPhrase = errors.New("missing target phrase")

// allowedExtensions is the accepted set of upload container formats.
var allowedExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// SupportedFormat reports whether the filename's extension names an
// accepted video container.
func SupportedFormat(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// AudioExtractor pulls a decoded audio asset out of a video asset.
// Satisfied by *media.Extractor.
type AudioExtractor interface {
	Extract(ctx context.Context, video *tempfile.Asset, sampleRateHz int) (*tempfile.Asset, error)
}

// Pipeline orchestrates temp-asset acquisition and audio extraction. Both
// temporary assets it creates are released before Ingest returns, on every
// path.
type Pipeline struct {
	tmp        *tempfile.Manager
	extractor  AudioExtractor
	sampleRate int
	log        zerolog.Logger
}

// NewPipeline creates a Pipeline extracting audio at sampleRateHz.
func NewPipeline(tmp *tempfile.Manager, extractor AudioExtractor, sampleRateHz int, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		tmp:        tmp,
		extractor:  extractor,
		sampleRate: sampleRateHz,
		log:        log.With().Str("component", "ingest").Logger(),
	}
}

// Ingest validates the upload, stages it in transient storage, extracts the
// audio track, and builds the scoring request payload. Temporary assets for
// the video and the derived audio are released via deferred cleanup, so a
// failure at any step — including a fault inside the extractor — leaves no
// files behind.
func (p *Pipeline) Ingest(ctx context.Context, videoBytes []byte, filenameHint, targetPhrase, language string) (*scoring.Request, error) {
	start := time.Now()
	req, err := p.ingest(ctx, videoBytes, filenameHint, targetPhrase, language)
	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	metrics.IngestsTotal.WithLabelValues(outcome(err)).Inc()
	return req, err
}

func (p *Pipeline) ingest(ctx context.Context, videoBytes []byte, filenameHint, targetPhrase, language string) (*scoring.Request, error) {
	ext := strings.ToLower(filepath.Ext(filenameHint))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if strings.TrimSpace(targetPhrase) == "" {
		return nil, ErrMissingPhrase
	}

	video, err := p.tmp.Acquire(ext)
	if err != nil {
		return nil, err
	}
	defer video.Release()

	if err := video.Write(videoBytes); err != nil {
		return nil, err
	}

	audio, err := p.extractor.Extract(ctx, video, p.sampleRate)
	if err != nil {
		return nil, err
	}
	defer audio.Release()

	audioBytes, err := audio.Read()
	if err != nil {
		return nil, err
	}

	p.log.Debug().
		Str("language", language).
		Int("video_bytes", len(videoBytes)).
		Int("audio_bytes", len(audioBytes)).
		Msg("video ingested")

	return &scoring.Request{
		AudioDataBase64: "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(audioBytes),
		TargetPhrase:    targetPhrase,
		Language:        language,
	}, nil
}

// outcome maps an ingestion error to its metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrMissingPhrase):
		return "missing_phrase"
	case errors.Is(err, media.ErrNoAudioTrack):
		return "no_audio_track"
	default:
		return "error"
	}
}
