// Package audiocapture owns the microphone. It enumerates input devices
// and runs two independent streams: a bursty recording stream opened for
// each press-hold session, and a persistent low-duty metering stream that
// feeds the live level indicator.
package audiocapture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/google/uuid"
)

const (
	// SampleRate is fixed at what whisper expects.
	SampleRate = 16000
	// chunkFrames is the period size for both streams.
	chunkFrames = 1024
)

// ErrMuted is returned when a recording is requested while muted.
var ErrMuted = errors.New("input muted")

// ErrRecording is returned when a recording is already active.
var ErrRecording = errors.New("already recording")

// Device describes one input device in OS enumeration order.
type Device struct {
	Index    int
	Name     string
	Channels int
	Default  bool

	id malgo.DeviceID
}

// Recording is a finished press-hold session buffer. Ownership transfers
// to the handoff callback; the engine keeps no reference after delivery.
type Recording struct {
	ID         string
	Samples    []int16
	SampleRate int
	Duration   time.Duration
}

// Engine owns the audio context and both streams. The handoff callback
// receives each finished recording on a background goroutine.
type Engine struct {
	actx *malgo.AllocatedContext
	log  *slog.Logger

	onBuffer func(Recording)
	onStatus func(string)

	mu       sync.Mutex
	deviceID *malgo.DeviceID // nil selects the OS default
	muted    bool
	active   *session
	meter    *meterStream
	closed   bool

	wg sync.WaitGroup
}

// Config wires the engine's callbacks. OnBuffer must not be nil; OnStatus
// may be nil.
type Config struct {
	OnBuffer func(Recording)
	OnStatus func(string)
	Logger   *slog.Logger
}

// NewEngine initializes the audio backend. Failure here means no audio
// subsystem at all and is fatal to startup.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.OnBuffer == nil {
		return nil, errors.New("audiocapture: OnBuffer is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	actx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	e := &Engine{
		actx:     actx,
		log:      cfg.Logger,
		onBuffer: cfg.OnBuffer,
		onStatus: cfg.OnStatus,
	}
	return e, nil
}

func (e *Engine) status(msg string) {
	if e.onStatus != nil {
		e.onStatus(msg)
	}
}

// ListDevices enumerates input-capable devices. Enumeration failure is
// non-fatal: it returns an empty slice and reports through the status
// callback.
func (e *Engine) ListDevices() []Device {
	infos, err := e.actx.Devices(malgo.Capture)
	if err != nil {
		e.log.Error("device enumeration failed", "error", err)
		e.status("⚠ audio device enumeration failed")
		return nil
	}
	devices := make([]Device, 0, len(infos))
	for i, info := range infos {
		channels := 1
		if info.FormatCount > 0 {
			channels = int(info.Formats[0].Channels)
		}
		devices = append(devices, Device{
			Index:    i,
			Name:     info.Name(),
			Channels: channels,
			Default:  info.IsDefault != 0,
			id:       info.ID,
		})
	}
	return devices
}

// SelectDevice sets the device used by subsequent streams. index nil means
// the OS default. The metering stream is dropped and lazily recreated on
// the new device.
func (e *Engine) SelectDevice(index *int) error {
	var id *malgo.DeviceID
	if index != nil {
		devices := e.ListDevices()
		if *index < 0 || *index >= len(devices) {
			return fmt.Errorf("device index %d out of range", *index)
		}
		id = &devices[*index].id
	}
	e.mu.Lock()
	e.deviceID = id
	meter := e.meter
	e.meter = nil
	e.mu.Unlock()
	if meter != nil {
		meter.drop()
	}
	return nil
}

// SetMute blocks recording starts while true. The metering stream is
// unaffected; Level simply reports zero.
func (e *Engine) SetMute(muted bool) {
	e.mu.Lock()
	e.muted = muted
	e.mu.Unlock()
}

// Muted reports the mute flag.
func (e *Engine) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

// deviceConfig builds the shared 16 kHz mono S16 stream config.
func (e *Engine) deviceConfig(id *malgo.DeviceID) malgo.DeviceConfig {
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = 1
	cfg.SampleRate = SampleRate
	cfg.PeriodSizeInFrames = chunkFrames
	cfg.Alsa.NoMMap = 1
	if id != nil {
		cfg.Capture.DeviceID = id.Pointer()
	}
	return cfg
}

// Close tears everything down: meter stream, any active recording (its
// partial buffer is discarded), then the backend context. Background work
// is joined with a bounded wait; the context is freed regardless.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	meter := e.meter
	e.meter = nil
	active := e.active
	e.active = nil
	e.mu.Unlock()

	if meter != nil {
		meter.drop()
	}
	if active != nil {
		active.finishing.Store(true)
		e.finish(active, false)
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		e.log.Warn("audio teardown timed out, forcing context release")
	}

	err := e.actx.Uninit()
	e.actx.Free()
	return err
}

func newRecordingID() string { return uuid.NewString() }
