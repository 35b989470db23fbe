// Package stt provides speech-to-text: the whisper-backed transcriber, the
// model lifecycle manager, and the push-to-talk transcription pipeline.
package stt

import (
	"errors"
	"time"
)

// ErrModelNotLoaded is returned when transcription is requested before any
// model is ready.
var ErrModelNotLoaded = errors.New("model not loaded")

// ErrLoadInFlight is returned when a load or swap is requested while
// another load is running. Requests are rejected, not queued.
var ErrLoadInFlight = errors.New("model load already in progress")

// ErrInference wraps failures inside the model call. The utterance is
// lost; the pipeline stays usable.
var ErrInference = errors.New("inference failed")

// ErrClosed is returned after the manager has shut down.
var ErrClosed = errors.New("stt closed")

// Result is one finished transcription. Silence marks the normal
// no-speech outcome: empty trimmed text is not an error. The confidence
// fields are diagnostic only and never drive control flow.
type Result struct {
	Text     string
	Language string
	Silence  bool

	AvgLogProb float64 // mean log-probability over text tokens
	Audio      time.Duration
	Took       time.Duration
}

// Options are the decoding knobs exposed to configuration. Everything else
// is fixed for short push-to-talk utterances.
type Options struct {
	Language    string  // ISO 639-1 code, empty for auto-detect
	Temperature float32 // 0 decodes deterministically
	BeamSize    int
	Threads     uint // 0 uses all cores
	Diagnostics bool // log confidence metrics per utterance
}

// DefaultOptions returns the tuned push-to-talk decode settings.
func DefaultOptions() Options {
	return Options{
		Language:    "en",
		Temperature: 0,
		BeamSize:    5,
		Diagnostics: true,
	}
}

// Transcriber converts one scratch WAV file to text. Implementations are
// safe for use by one caller at a time; the pipeline serializes calls.
type Transcriber interface {
	TranscribeFile(wavPath string, opts Options) (Result, error)
	Close() error
}
