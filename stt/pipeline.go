package stt

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Sggin1/LoudMouth/audiocapture"
)

// Buffers shorter than this hold under 100 ms of audio, too little for a
// word; they are reported as silence without running inference.
const minSamples = 1600

// Below this normalized RMS the buffer is inaudible noise.
const minRMS = 0.005

// Pipeline turns finished recordings into text. Each call writes the
// buffer to a scratch WAV, runs the current model against it, and removes
// the file on every exit path.
type Pipeline struct {
	manager *Manager
	log     *slog.Logger
	tempDir string
	opts    Options
}

// NewPipeline wires the pipeline to a lifecycle manager.
func NewPipeline(manager *Manager, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		manager: manager,
		log:     logger,
		tempDir: os.TempDir(),
		opts:    opts,
	}
}

// SetOptions replaces the decode options used by subsequent calls.
func (p *Pipeline) SetOptions(opts Options) { p.opts = opts }

// Transcribe processes one recording. Empty or inaudible buffers yield a
// Silence result without touching the model. A model swap requested while
// this call runs does not affect it: the handle acquired here stays valid
// until released.
func (p *Pipeline) Transcribe(rec audiocapture.Recording) (Result, error) {
	if len(rec.Samples) == 0 {
		return Result{Silence: true}, nil
	}
	if len(rec.Samples) < minSamples || rmsOf(rec.Samples) < minRMS {
		p.log.Debug("buffer below speech floor, skipping inference",
			"session", rec.ID, "samples", len(rec.Samples))
		return Result{Silence: true, Audio: rec.Duration}, nil
	}

	handle, err := p.manager.Acquire()
	if err != nil {
		return Result{}, err
	}
	defer handle.Release()

	scratch := filepath.Join(p.tempDir, "loudmouth-"+rec.ID+".wav")
	if err := writeWAV(scratch, rec.Samples, rec.SampleRate); err != nil {
		os.Remove(scratch)
		return Result{}, fmt.Errorf("write scratch wav: %w", err)
	}
	defer os.Remove(scratch)

	res, err := handle.Transcriber().TranscribeFile(scratch, p.opts)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInference, err)
	}
	if res.Text == "" {
		res.Silence = true
	}

	if p.opts.Diagnostics {
		p.log.Debug("transcription diagnostics",
			"session", rec.ID,
			"model", handle.ModelID,
			"audio", res.Audio,
			"took", res.Took,
			"avg_logprob", res.AvgLogProb,
			"silence", res.Silence)
	}
	return res, nil
}

// writeWAV stores 16-bit mono PCM at path.
func writeWAV(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// rmsOf computes normalized RMS of an int16 buffer.
func rmsOf(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s) / 32768
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(samples)))
}
