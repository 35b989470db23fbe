// Package app wires the capture engine, model lifecycle, transcription
// pipeline and hotkey gate into the push-to-talk service.
package app

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Sggin1/LoudMouth/audiocapture"
	"github.com/Sggin1/LoudMouth/clipboard"
	"github.com/Sggin1/LoudMouth/config"
	"github.com/Sggin1/LoudMouth/hotkey"
	"github.com/Sggin1/LoudMouth/internal/history"
	"github.com/Sggin1/LoudMouth/models"
	"github.com/Sggin1/LoudMouth/normalize"
	"github.com/Sggin1/LoudMouth/stt"
)

// levelInterval is the metering poll rate.
const levelInterval = 200 * time.Millisecond

// CaptureEngine is the audio surface the service drives. Satisfied by
// *audiocapture.Engine; faked in tests.
type CaptureEngine interface {
	ListDevices() []audiocapture.Device
	SelectDevice(index *int) error
	SetMute(muted bool)
	StartRecording() bool
	StopRecording() bool
	Level() float64
	Close() error
}

// Deps carries everything the service needs. Hook, Registry and Config are
// required; the rest default sensibly.
type Deps struct {
	Config   *config.Config
	Hook     hotkey.HookSource
	Registry *models.Registry

	// NewEngine defaults to the malgo engine; tests substitute a fake.
	NewEngine func(audiocapture.Config) (CaptureEngine, error)
	// Loader defaults to the whisper binding.
	Loader stt.LoaderFunc

	History    *history.Store // nil disables history
	TypeOutput bool           // also paste transcripts into the focused window

	OnStatus     func(string)
	OnTranscript func(string)
	OnLevel      func(float64)

	Logger *slog.Logger
}

// Service is the single-threaded control surface over the background
// tasks: input hook, recording stream, model loads and transcription.
type Service struct {
	cfg  *config.Config
	log  *slog.Logger
	deps Deps

	engine   CaptureEngine
	manager  *stt.Manager
	pipeline *stt.Pipeline
	gate     *hotkey.Gate
	norm     *normalize.Normalizer

	mu        sync.Mutex
	started   bool
	levelStop chan struct{}
	wg        sync.WaitGroup
}

// New builds the service. Nothing starts until Start.
func New(deps Deps) (*Service, error) {
	if deps.Config == nil || deps.Hook == nil || deps.Registry == nil {
		return nil, fmt.Errorf("app: Config, Hook and Registry are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.NewEngine == nil {
		deps.NewEngine = func(cfg audiocapture.Config) (CaptureEngine, error) {
			return audiocapture.NewEngine(cfg)
		}
	}

	s := &Service{
		cfg:  deps.Config,
		log:  deps.Logger,
		deps: deps,
		norm: normalize.Default(),
	}

	engine, err := deps.NewEngine(audiocapture.Config{
		OnBuffer: s.handleRecording,
		OnStatus: s.status,
		Logger:   deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init capture engine: %w", err)
	}
	s.engine = engine

	s.manager = stt.NewManager(stt.ManagerConfig{
		Registry: deps.Registry,
		Loader:   deps.Loader,
		OnStatus: s.status,
		Logger:   deps.Logger,
	})
	s.pipeline = stt.NewPipeline(s.manager, s.decodeOptions(), deps.Logger)
	s.gate = hotkey.NewGate(deps.Config.Hotkey, s.onPress, s.onRelease)
	return s, nil
}

// decodeOptions derives pipeline options from configuration.
func (s *Service) decodeOptions() stt.Options {
	lang := s.cfg.Language
	if s.cfg.EnglishOnly {
		lang = "en"
	}
	return stt.Options{
		Language:    lang,
		Temperature: float32(s.cfg.Temperature),
		BeamSize:    s.cfg.BeamSize,
		Diagnostics: s.cfg.ShowConfidence,
	}
}

// modelID maps the configured size to the weight identifier; English-only
// mode selects the .en variant where one exists.
func (s *Service) modelID() string {
	size := s.cfg.ModelSize
	if s.cfg.EnglishOnly && !strings.HasPrefix(size, "large") && !strings.HasSuffix(size, ".en") {
		if _, ok := models.Known(size + ".en"); ok {
			return size + ".en"
		}
	}
	return size
}

// Start applies the configured device and mute state, kicks off the model
// load, installs the input hook and begins level polling.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("service already started")
	}
	s.started = true
	s.levelStop = make(chan struct{})
	s.mu.Unlock()

	if idx := s.cfg.SelectedDeviceIndex; idx >= 0 {
		if err := s.engine.SelectDevice(&idx); err != nil {
			s.log.Warn("configured device unavailable, using default", "index", idx, "error", err)
			s.status("⚠ configured input device unavailable")
		}
	}
	s.engine.SetMute(s.cfg.MicMuted)

	if err := s.manager.LoadAsync(s.modelID()); err != nil {
		return fmt.Errorf("start model load: %w", err)
	}
	if err := s.deps.Hook.Start(s.gate.Handle); err != nil {
		return fmt.Errorf("install input hook: %w", err)
	}

	if s.deps.OnLevel != nil {
		s.wg.Add(1)
		go s.levelLoop()
	}
	s.status(fmt.Sprintf("ready, hold %s to talk", s.cfg.Hotkey.DisplayText()))
	return nil
}

func (s *Service) levelLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(levelInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.levelStop:
			return
		case <-ticker.C:
			s.deps.OnLevel(s.engine.Level())
		}
	}
}

func (s *Service) onPress() {
	if s.engine.StartRecording() {
		s.status("● recording...")
	}
}

func (s *Service) onRelease() {
	if s.engine.StopRecording() {
		s.status("⏳ transcribing...")
	}
}

// handleRecording receives each finished buffer from the capture engine on
// a background goroutine and runs it through the pipeline.
func (s *Service) handleRecording(rec audiocapture.Recording) {
	res, err := s.pipeline.Transcribe(rec)
	if err != nil {
		s.log.Error("transcription failed", "session", rec.ID, "error", err)
		s.status(fmt.Sprintf("✗ transcription failed: %v", err))
		return
	}
	if res.Silence {
		s.status("no speech detected")
		return
	}

	text := res.Text
	if s.cfg.TechnicalFilter {
		text = s.norm.Apply(text)
	}

	if s.cfg.CopyClipboard {
		if err := clipboard.Copy(text); err != nil {
			s.log.Warn("clipboard copy failed", "error", err)
			s.status("⚠ could not copy to clipboard")
		}
	}
	if s.deps.TypeOutput {
		delay := time.Duration(s.cfg.TypeDelay * float64(time.Second))
		if err := clipboard.Type(text, delay); err != nil {
			s.log.Warn("typing output failed", "error", err)
		}
	}
	if s.deps.History != nil && s.cfg.HistoryEnabled {
		if _, err := s.deps.History.Add(text, s.manager.CurrentModelID(), res.Audio, res.AvgLogProb); err != nil {
			s.log.Warn("history write failed", "error", err)
		}
	}

	s.status(fmt.Sprintf("✓ transcribed %d chars", len(text)))
	if s.deps.OnTranscript != nil {
		s.deps.OnTranscript(text)
	}
}

func (s *Service) status(msg string) {
	if s.deps.OnStatus != nil {
		s.deps.OnStatus(msg)
	}
}

// Devices lists input devices.
func (s *Service) Devices() []audiocapture.Device {
	return s.engine.ListDevices()
}

// SelectDevice switches the input device and persists the choice. index
// nil or negative selects the OS default.
func (s *Service) SelectDevice(index *int) error {
	idx := -1
	if index != nil && *index >= 0 {
		idx = *index
		if err := s.engine.SelectDevice(index); err != nil {
			return err
		}
	} else {
		if err := s.engine.SelectDevice(nil); err != nil {
			return err
		}
	}
	s.cfg.SelectedDeviceIndex = idx
	return s.cfg.Save()
}

// SetMute toggles recording availability and persists it.
func (s *Service) SetMute(muted bool) error {
	s.engine.SetMute(muted)
	s.cfg.MicMuted = muted
	if muted {
		s.status("🔇 microphone muted")
	} else {
		s.status("🎤 microphone live")
	}
	return s.cfg.Save()
}

// SetModel swaps the active model and persists the choice. Rejected while
// another load is running.
func (s *Service) SetModel(size string, englishOnly bool) error {
	prevSize, prevEN := s.cfg.ModelSize, s.cfg.EnglishOnly
	s.cfg.ModelSize = size
	s.cfg.EnglishOnly = englishOnly
	if err := s.manager.Swap(s.modelID()); err != nil {
		s.cfg.ModelSize, s.cfg.EnglishOnly = prevSize, prevEN
		return err
	}
	s.pipeline.SetOptions(s.decodeOptions())
	return s.cfg.Save()
}

// SetBinding atomically replaces the trigger and persists it.
func (s *Service) SetBinding(b hotkey.Binding) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.gate.SetBinding(b)
	s.cfg.Hotkey = b
	s.status(fmt.Sprintf("hotkey set to %s", b.DisplayText()))
	return s.cfg.Save()
}

// CaptureBinding records the next input as the new trigger. The returned
// cancel function restores normal dispatch without changing anything.
func (s *Service) CaptureBinding(mode hotkey.CaptureMode, done func(hotkey.Binding)) func() {
	s.status("press the new hotkey...")
	return s.gate.BeginCapture(mode, func(b hotkey.Binding) {
		if err := s.SetBinding(b); err != nil {
			s.log.Error("captured binding rejected", "error", err)
			s.status(fmt.Sprintf("✗ invalid binding: %v", err))
		}
		if done != nil {
			done(b)
		}
	})
}

// Status returns the model lifecycle status line.
func (s *Service) Status() string { return s.manager.Status() }

// Recent returns the newest stored transcripts.
func (s *Service) Recent(n int) ([]history.Entry, error) {
	if s.deps.History == nil {
		return nil, nil
	}
	return s.deps.History.Recent(n)
}

// Shutdown stops the hook, joins background work with a bounded wait and
// force-releases the device and model resources.
func (s *Service) Shutdown(timeout time.Duration) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.levelStop)
	s.mu.Unlock()

	if err := s.deps.Hook.Stop(); err != nil {
		// best effort; a stuck hook thread must not block shutdown
		s.log.Warn("input hook did not stop cleanly", "error", err)
	}
	s.gate.Close()

	s.engine.StopRecording()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.log.Warn("background tasks did not finish in time")
	}

	if err := s.engine.Close(); err != nil {
		s.log.Warn("capture engine close failed", "error", err)
	}
	s.manager.Close()

	if s.cfg.ClearClipboardOnExit && s.cfg.CopyClipboard {
		if err := clipboard.Clear(); err != nil {
			s.log.Warn("clipboard clear failed", "error", err)
		}
	}
	s.status("shut down")
}
