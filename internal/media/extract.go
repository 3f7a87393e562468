// Package media extracts decoded audio from uploaded video containers by
// shelling out to ffprobe/ffmpeg.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/kellis/pron-engine/internal/tempfile"
)

// ErrNoAudioTrack reports a container with no audio stream. This is a
// domain condition, not a decode fault.
var ErrNoAudioTrack = errors.New("video has no audio track")

// DecodeError wraps an ffprobe/ffmpeg failure. The stderr tail is kept for
// diagnostics.
type DecodeError struct {
	Op     string // "probe" or "transcode"
	Stderr string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("media %s failed: %v: %s", e.Op, e.Err, e.Stderr)
	}
	return fmt.Sprintf("media %s failed: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Extractor produces uncompressed audio from video assets.
type Extractor struct {
	tmp     *tempfile.Manager
	timeout time.Duration
	log     zerolog.Logger

	ffmpegBin  string
	ffprobeBin string
}

// NewExtractor creates an Extractor. timeout bounds each ffprobe/ffmpeg
// invocation; zero means no bound beyond the caller's context.
func NewExtractor(tmp *tempfile.Manager, timeout time.Duration, log zerolog.Logger) *Extractor {
	return &Extractor{
		tmp:        tmp,
		timeout:    timeout,
		log:        log.With().Str("component", "media").Logger(),
		ffmpegBin:  "ffmpeg",
		ffprobeBin: "ffprobe",
	}
}

// probeResult is the subset of ffprobe -show_streams output we care about.
type probeResult struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

// Extract decodes the audio track of video into a new mono WAV asset at
// sampleRateHz. The input asset stays owned by the caller; ownership of the
// returned asset transfers to the caller. Returns ErrNoAudioTrack when the
// container carries no audio stream, or a *DecodeError on probe/transcode
// faults; in both cases no new asset is left allocated.
func (e *Extractor) Extract(ctx context.Context, video *tempfile.Asset, sampleRateHz int) (*tempfile.Asset, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	hasAudio, err := e.hasAudioStream(ctx, video.Path())
	if err != nil {
		return nil, err
	}
	if !hasAudio {
		return nil, ErrNoAudioTrack
	}

	out, err := e.tmp.Acquire(".wav")
	if err != nil {
		return nil, err
	}

	// ffmpeg -y -i input -vn -ac 1 -ar <rate> -f wav output
	cmd := exec.CommandContext(ctx, e.ffmpegBin,
		"-y", "-i", video.Path(),
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRateHz),
		"-f", "wav",
		out.Path(),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		out.Release()
		return nil, &DecodeError{Op: "transcode", Stderr: tail(stderr.Bytes()), Err: err}
	}

	e.log.Debug().
		Str("video", video.Path()).
		Str("audio", out.Path()).
		Int("sample_rate", sampleRateHz).
		Msg("audio extracted")

	return out, nil
}

// hasAudioStream probes the container and reports whether any stream has
// codec_type "audio".
func (e *Extractor) hasAudioStream(ctx context.Context, path string) (bool, error) {
	cmd := exec.CommandContext(ctx, e.ffprobeBin,
		"-v", "error",
		"-show_entries", "stream=codec_type",
		"-of", "json",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return false, &DecodeError{Op: "probe", Stderr: tail(stderr.Bytes()), Err: err}
	}
	return parseProbe(stdout.Bytes())
}

// parseProbe reads ffprobe JSON output and reports audio stream presence.
func parseProbe(data []byte) (bool, error) {
	var res probeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return false, &DecodeError{Op: "probe", Err: fmt.Errorf("parse ffprobe output: %w", err)}
	}
	for _, s := range res.Streams {
		if s.CodecType == "audio" {
			return true, nil
		}
	}
	return false, nil
}

// tail returns the last few lines of ffmpeg stderr, which is where the
// actionable message lives.
func tail(b []byte) string {
	const max = 512
	if len(b) > max {
		b = b[len(b)-max:]
	}
	return string(bytes.TrimSpace(b))
}
