package audiocapture

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
)

// captureDevice is the slice of malgo.Device the teardown path needs,
// narrowed so ownership handoff can be tested without real hardware.
type captureDevice interface {
	Stop() error
	Uninit()
}

// session is one press-hold recording. The buffer is owned by the stream
// callback until handoff, after which the engine keeps no reference.
type session struct {
	id      string
	started time.Time
	device  captureDevice

	mu      sync.Mutex
	samples []int16

	// set before an intentional device stop so the stop callback can
	// tell teardown apart from the device vanishing mid-session
	finishing atomic.Bool
}

func (s *session) append(chunk []int16) {
	s.mu.Lock()
	s.samples = append(s.samples, chunk...)
	s.mu.Unlock()
}

func (s *session) take() []int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.samples
	s.samples = nil
	return out
}

// StartRecording opens the recording stream for a new session. It returns
// false without side effects when muted, already recording, or the device
// cannot be opened.
func (e *Engine) StartRecording() bool {
	e.mu.Lock()
	if e.closed || e.active != nil {
		e.mu.Unlock()
		return false
	}
	if e.muted {
		e.mu.Unlock()
		e.status("⚠ input is muted")
		return false
	}
	s := &session{id: newRecordingID(), started: time.Now()}
	deviceID := e.deviceID
	e.active = s
	e.mu.Unlock()

	cfg := e.deviceConfig(deviceID)
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			if s.finishing.Load() {
				return
			}
			s.append(decodeS16(input))
		},
		Stop: func() {
			if s.finishing.Load() {
				return
			}
			// the device stopped on its own; keep the partial buffer
			e.log.Warn("recording stream ended early", "session", s.id)
			e.endEarly(s)
		},
	}
	device, err := malgo.InitDevice(e.actx.Context, cfg, callbacks)
	if err != nil {
		e.clearActive(s)
		e.log.Error("open recording stream failed", "error", err)
		e.status("⚠ could not open input device")
		return false
	}
	if err := device.Start(); err != nil {
		s.finishing.Store(true)
		device.Uninit()
		e.clearActive(s)
		e.log.Error("start recording stream failed", "error", err)
		e.status("⚠ could not start input device")
		return false
	}

	return e.adoptDevice(s, device)
}

// adoptDevice hands the started device to the session if it still owns the
// engine. A StopRecording or Close may have taken the session while the
// device was opening; they saw no device, so teardown falls to us here.
func (e *Engine) adoptDevice(s *session, device captureDevice) bool {
	e.mu.Lock()
	if e.closed || e.active != s {
		e.mu.Unlock()
		s.finishing.Store(true)
		device.Stop()
		device.Uninit()
		return false
	}
	s.device = device
	e.mu.Unlock()
	return true
}

// StopRecording ends the active session. It returns immediately; stream
// teardown and buffer handoff run on a background goroutine. Returns false
// when no recording is active.
func (e *Engine) StopRecording() bool {
	e.mu.Lock()
	s := e.active
	if s == nil {
		e.mu.Unlock()
		return false
	}
	e.active = nil
	e.mu.Unlock()

	s.finishing.Store(true)
	e.finish(s, true)
	return true
}

// Recording reports whether a session is active.
func (e *Engine) Recording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != nil
}

func (e *Engine) clearActive(s *session) {
	e.mu.Lock()
	if e.active == s {
		e.active = nil
	}
	e.mu.Unlock()
}

// endEarly handles a device-initiated stop mid-session.
func (e *Engine) endEarly(s *session) {
	e.mu.Lock()
	if e.active != s {
		// a StopRecording raced us and owns the handoff
		e.mu.Unlock()
		return
	}
	e.active = nil
	e.mu.Unlock()
	s.finishing.Store(true)
	e.finish(s, true)
}

// finish tears the stream down off-thread and, when handoff is set,
// delivers the buffer. Empty buffers are delivered too so the pipeline can
// report silence.
func (e *Engine) finish(s *session, handoff bool) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if s.device != nil {
			s.device.Stop()
			s.device.Uninit()
		}
		samples := s.take()
		if !handoff {
			return
		}
		e.onBuffer(Recording{
			ID:         s.id,
			Samples:    samples,
			SampleRate: SampleRate,
			Duration:   time.Duration(len(samples)) * time.Second / SampleRate,
		})
	}()
}
