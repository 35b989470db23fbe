package stt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/Sggin1/LoudMouth/models"
)

// State is the coarse lifecycle state.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Handle is a reference-counted loaded model. Readers take a handle via
// Manager.Acquire and release it when done; the underlying model is closed
// only after it has been retired by a swap or shutdown and the last
// reference is gone, so a swap never invalidates an in-flight
// transcription.
type Handle struct {
	ModelID string
	Source  models.Source

	t Transcriber

	mu      sync.Mutex
	refs    int
	retired bool
}

func newHandle(id string, src models.Source, t Transcriber) *Handle {
	// the manager's own reference
	return &Handle{ModelID: id, Source: src, t: t, refs: 1}
}

// Transcriber returns the loaded model behind the handle.
func (h *Handle) Transcriber() Transcriber { return h.t }

func (h *Handle) acquire() {
	h.mu.Lock()
	h.refs++
	h.mu.Unlock()
}

// Release drops one reference. The final release of a retired handle
// tears down the native context and forces memory reclaim, since model
// weights are by far the largest allocation in the process.
func (h *Handle) Release() {
	h.mu.Lock()
	h.refs--
	closeNow := h.refs == 0 && h.retired
	h.mu.Unlock()
	if closeNow {
		h.t.Close()
		debug.FreeOSMemory()
	}
}

// retire drops the manager's reference and marks the handle for teardown
// once outstanding readers finish.
func (h *Handle) retire() {
	h.mu.Lock()
	h.retired = true
	h.mu.Unlock()
	h.Release()
}

// LoaderFunc opens a model weight file. Swappable in tests.
type LoaderFunc func(path string) (Transcriber, error)

// Manager owns the currently loaded model. At most one load runs at a
// time; loads happen on a background goroutine so callers never block.
type Manager struct {
	registry *models.Registry
	loader   LoaderFunc
	log      *slog.Logger
	onStatus func(string)

	ctx    context.Context
	cancel context.CancelFunc

	state     atomic.Int32
	statusMsg atomic.Value // string

	mu      sync.Mutex
	current *Handle
	loading bool
	closed  bool
}

// ManagerConfig wires the manager. Loader defaults to the whisper binding;
// OnStatus may be nil.
type ManagerConfig struct {
	Registry *models.Registry
	Loader   LoaderFunc
	OnStatus func(string)
	Logger   *slog.Logger
}

// NewManager creates an unloaded manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Loader == nil {
		cfg.Loader = NewWhisper
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		registry: cfg.Registry,
		loader:   cfg.Loader,
		log:      cfg.Logger,
		onStatus: cfg.OnStatus,
		ctx:      ctx,
		cancel:   cancel,
	}
	m.statusMsg.Store("no model loaded")
	return m
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Status returns the human-readable status line. It reads a single
// atomically published value and is race-free against concurrent loads.
func (m *Manager) Status() string {
	return m.statusMsg.Load().(string)
}

func (m *Manager) publish(state State, msg string) {
	m.state.Store(int32(state))
	m.statusMsg.Store(msg)
	if m.onStatus != nil {
		m.onStatus(msg)
	}
}

// Acquire returns a referenced handle to the current model. Callers must
// Release it. Fails with ErrModelNotLoaded while Unloaded or Loading with
// no previous model.
func (m *Manager) Acquire() (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrModelNotLoaded
	}
	m.current.acquire()
	return m.current, nil
}

// CurrentModelID returns the loaded model identifier, empty when none.
func (m *Manager) CurrentModelID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.ModelID
}

// LoadAsync resolves and loads modelID on a background goroutine. When the
// weight file is missing locally it is fetched first, with the estimated
// size surfaced through the status callback. Rejects with ErrLoadInFlight
// while another load runs.
func (m *Manager) LoadAsync(modelID string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.loading {
		m.mu.Unlock()
		return ErrLoadInFlight
	}
	m.loading = true
	m.mu.Unlock()

	m.publish(StateLoading, fmt.Sprintf("loading model %s...", modelID))
	go m.load(modelID)
	return nil
}

// Swap is LoadAsync that skips reloading the model already in place.
func (m *Manager) Swap(modelID string) error {
	if m.CurrentModelID() == modelID && m.State() == StateReady {
		return nil
	}
	return m.LoadAsync(modelID)
}

func (m *Manager) load(modelID string) {
	path, src, err := m.registry.Resolve(modelID)
	if errors.Is(err, models.ErrNotAvailable) {
		m.publish(StateLoading, fmt.Sprintf("⬇ downloading %s", m.registry.Estimate(modelID)))
		path, err = m.registry.Fetch(m.ctx, modelID, func(pct int) {
			if pct%25 == 0 {
				m.publish(StateLoading, fmt.Sprintf("⬇ downloading %s: %d%%", modelID, pct))
			}
		})
		src = models.SourceCached
	}
	if err != nil {
		m.loadFailed(modelID, err)
		return
	}

	t, err := m.loader(path)
	if err != nil {
		m.loadFailed(modelID, err)
		return
	}

	m.mu.Lock()
	if m.closed {
		m.loading = false
		m.mu.Unlock()
		t.Close()
		return
	}
	old := m.current
	m.current = newHandle(modelID, src, t)
	m.loading = false
	m.mu.Unlock()

	m.publish(StateReady, fmt.Sprintf("✓ model %s ready", modelID))
	m.log.Info("model loaded", "model", modelID, "source", string(src), "path", path)

	// the previous model is released only once the new one is installed
	// and any in-flight readers are done with it
	if old != nil {
		old.retire()
	}
}

// loadFailed leaves any previous handle intact and usable: a failed swap
// must not destroy a working model.
func (m *Manager) loadFailed(modelID string, err error) {
	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
	m.log.Error("model load failed", "model", modelID, "error", err)
	m.publish(StateError, fmt.Sprintf("✗ failed to load %s: %v", modelID, err))
}

// Close retires the current model and aborts any in-flight download.
func (m *Manager) Close() {
	m.cancel()
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	current := m.current
	m.current = nil
	m.mu.Unlock()

	m.publish(StateUnloaded, "shut down")
	if current != nil {
		current.retire()
	}
}
