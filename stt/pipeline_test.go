package stt

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Sggin1/LoudMouth/audiocapture"
)

// loudRecording builds a buffer loud and long enough to pass the speech
// floor checks.
func loudRecording(samples int) audiocapture.Recording {
	data := make([]int16, samples)
	for i := range data {
		data[i] = 4000
	}
	return audiocapture.Recording{
		ID:         "test-session",
		Samples:    data,
		SampleRate: audiocapture.SampleRate,
		Duration:   time.Duration(samples) * time.Second / audiocapture.SampleRate,
	}
}

func readyManager(t *testing.T, f *fakeTranscriber) *Manager {
	t.Helper()
	m := NewManager(ManagerConfig{
		Registry: testRegistry(t, "tiny"),
		Loader:   func(string) (Transcriber, error) { return f, nil },
	})
	t.Cleanup(m.Close)
	if err := m.LoadAsync("tiny"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "ready state", func() bool { return m.State() == StateReady })
	return m
}

func TestPipelineTranscribe(t *testing.T) {
	f := &fakeTranscriber{text: "hello world"}
	p := NewPipeline(readyManager(t, f), DefaultOptions(), nil)

	res, err := p.Transcribe(loudRecording(audiocapture.SampleRate))
	if err != nil {
		t.Fatal(err)
	}
	if res.Silence {
		t.Error("Silence = true for real speech")
	}
	if res.Text != "hello world" {
		t.Errorf("Text = %q", res.Text)
	}

	// the scratch artifact is gone after the call
	f.mu.Lock()
	scratch := f.calls[0]
	f.mu.Unlock()
	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Errorf("scratch file %s still exists", scratch)
	}
}

func TestPipelineEmptyBufferIsSilence(t *testing.T) {
	f := &fakeTranscriber{text: "should not run"}
	// no model loaded at all: the empty buffer must short-circuit first
	m := NewManager(ManagerConfig{
		Registry: testRegistry(t),
		Loader:   func(string) (Transcriber, error) { return f, nil },
	})
	t.Cleanup(m.Close)
	p := NewPipeline(m, DefaultOptions(), nil)

	res, err := p.Transcribe(audiocapture.Recording{ID: "empty"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Silence {
		t.Error("Silence = false for empty buffer")
	}
	if len(f.calls) != 0 {
		t.Error("inference ran for an empty buffer")
	}
}

func TestPipelineShortBufferIsSilence(t *testing.T) {
	f := &fakeTranscriber{text: "should not run"}
	p := NewPipeline(readyManager(t, f), DefaultOptions(), nil)

	res, err := p.Transcribe(loudRecording(minSamples - 1))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Silence || len(f.calls) != 0 {
		t.Errorf("silence = %v, calls = %d", res.Silence, len(f.calls))
	}
}

func TestPipelineQuietBufferIsSilence(t *testing.T) {
	f := &fakeTranscriber{text: "should not run"}
	p := NewPipeline(readyManager(t, f), DefaultOptions(), nil)

	// two seconds of digital silence
	res, err := p.Transcribe(audiocapture.Recording{
		ID:         "quiet",
		Samples:    make([]int16, 2*audiocapture.SampleRate),
		SampleRate: audiocapture.SampleRate,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Silence || len(f.calls) != 0 {
		t.Errorf("silence = %v, calls = %d", res.Silence, len(f.calls))
	}
}

func TestPipelineEmptyTranscriptIsSilence(t *testing.T) {
	f := &fakeTranscriber{text: ""}
	p := NewPipeline(readyManager(t, f), DefaultOptions(), nil)

	res, err := p.Transcribe(loudRecording(audiocapture.SampleRate))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Silence {
		t.Error("Silence = false for empty transcript")
	}
}

func TestPipelineNoModel(t *testing.T) {
	m := NewManager(ManagerConfig{Registry: testRegistry(t)})
	t.Cleanup(m.Close)
	p := NewPipeline(m, DefaultOptions(), nil)

	_, err := p.Transcribe(loudRecording(audiocapture.SampleRate))
	if !errors.Is(err, ErrModelNotLoaded) {
		t.Errorf("err = %v, want ErrModelNotLoaded", err)
	}
}

func TestPipelineInferenceError(t *testing.T) {
	f := &fakeTranscriber{err: errors.New("decode blew up")}
	p := NewPipeline(readyManager(t, f), DefaultOptions(), nil)

	_, err := p.Transcribe(loudRecording(audiocapture.SampleRate))
	if !errors.Is(err, ErrInference) {
		t.Fatalf("err = %v, want ErrInference", err)
	}

	f.mu.Lock()
	scratch := f.calls[0]
	f.mu.Unlock()
	if _, serr := os.Stat(scratch); !os.IsNotExist(serr) {
		t.Errorf("scratch file %s left behind after failure", scratch)
	}
}

func TestWriteWAVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/roundtrip.wav"
	samples := []int16{0, 1000, -1000, 32767, -32768}

	if err := writeWAV(path, samples, audiocapture.SampleRate); err != nil {
		t.Fatal(err)
	}
	got, err := readWAV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i, s := range samples {
		want := float32(s) / 32768
		if diff := got[i] - want; diff > 1e-4 || diff < -1e-4 {
			t.Errorf("sample %d = %v, want %v", i, got[i], want)
		}
	}
}
