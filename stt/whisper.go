package stt

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/go-audio/wav"
)

// whisperTranscriber runs a loaded whisper.cpp model. A fresh inference
// context is created per call, so no state carries between utterances.
type whisperTranscriber struct {
	model whisper.Model
}

// NewWhisper loads the ggml weight file at path.
func NewWhisper(path string) (Transcriber, error) {
	model, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return &whisperTranscriber{model: model}, nil
}

// TranscribeFile decodes the scratch WAV and runs inference with the fixed
// push-to-talk parameter set: full precision, deterministic by default,
// bounded beam width, no conditioning on prior utterances.
func (w *whisperTranscriber) TranscribeFile(wavPath string, opts Options) (Result, error) {
	samples, err := readWAV(wavPath)
	if err != nil {
		return Result{}, err
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("new context: %w", err)
	}

	lang := opts.Language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return Result{}, fmt.Errorf("set language %q: %w", lang, err)
	}
	wctx.SetTranslate(false)
	if opts.Threads > 0 {
		wctx.SetThreads(opts.Threads)
	}
	beam := opts.BeamSize
	if beam <= 0 {
		beam = 5
	}
	wctx.SetBeamSize(beam)
	wctx.SetTemperature(opts.Temperature)
	wctx.SetTemperatureFallback(0.2)
	wctx.SetSplitOnWord(true)
	wctx.SetEntropyThold(2.4)
	// each press-hold is independent; never condition on prior text
	wctx.SetMaxContext(-1)

	start := time.Now()
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return Result{}, fmt.Errorf("process: %w", err)
	}

	res := Result{
		Language: lang,
		Audio:    time.Duration(len(samples)) * time.Second / whisper.SampleRate,
	}
	var sb strings.Builder
	var logProbSum float64
	var tokenCount int
	for {
		seg, err := wctx.NextSegment()
		if err != nil {
			break
		}
		sb.WriteString(seg.Text)
		sb.WriteString(" ")
		for _, tok := range seg.Tokens {
			if !wctx.IsText(tok) {
				continue
			}
			logProbSum += math.Log(float64(tok.P))
			tokenCount++
		}
	}
	if tokenCount > 0 {
		res.AvgLogProb = logProbSum / float64(tokenCount)
	}
	res.Text = strings.TrimSpace(sb.String())
	res.Took = time.Since(start)
	return res, nil
}

func (w *whisperTranscriber) Close() error {
	return w.model.Close()
}

// readWAV loads a 16 kHz mono scratch file into normalized float samples.
func readWAV(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / 32768
	}
	return samples, nil
}
