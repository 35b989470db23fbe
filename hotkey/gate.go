package hotkey

import "sync"

// CaptureMode selects what BeginCapture records.
type CaptureMode int

const (
	// CaptureSingle records the next key or mouse button pressed.
	CaptureSingle CaptureMode = iota
	// CaptureCombo records a modifier followed by a main key or button.
	CaptureCombo
)

// keys never accepted as a captured trigger
var captureExcluded = map[string]bool{
	"enter":  true,
	"return": true,
	"escape": true,
}

type captureState struct {
	mode     CaptureMode
	modifier string // set after step one of a combo capture
	done     func(Binding)
}

// Gate is the push-to-talk edge detector. It consumes normalized input
// events, tracks the configured Binding and emits exactly one press and
// one release callback per physical hold. OS auto-repeat and duplicate
// down events are collapsed; releasing either half of a combo releases
// the trigger.
type Gate struct {
	mu      sync.Mutex
	binding Binding

	armed bool // combo modifier currently held
	fired bool // press edge emitted, release pending

	onPress   func()
	onRelease func()

	// dispatch runs edge and capture callbacks off the hook thread.
	// Overridable so tests can run them synchronously.
	dispatch func(func())

	queue     chan func()
	quit      chan struct{}
	closeOnce sync.Once

	capture *captureState
}

// NewGate returns a gate for the given binding. Callbacks may be nil; they
// run in order on a single dispatch goroutine, never on the hook thread.
// Call Close when done with the gate.
func NewGate(b Binding, onPress, onRelease func()) *Gate {
	g := &Gate{
		binding:   b,
		onPress:   onPress,
		onRelease: onRelease,
		queue:     make(chan func(), 64),
		quit:      make(chan struct{}),
	}
	g.dispatch = g.enqueue
	go g.run()
	return g
}

func (g *Gate) run() {
	for {
		select {
		case <-g.quit:
			return
		case fn := <-g.queue:
			fn()
		}
	}
}

func (g *Gate) enqueue(fn func()) {
	select {
	case <-g.quit:
	case g.queue <- fn:
	}
}

// Close stops the dispatch goroutine. Queued callbacks are dropped.
func (g *Gate) Close() {
	g.closeOnce.Do(func() { close(g.quit) })
}

// Binding returns the active trigger.
func (g *Gate) Binding() Binding {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.binding
}

// SetBinding swaps the trigger atomically. Any half-held state from the
// old binding is discarded; no edge callbacks fire for it.
func (g *Gate) SetBinding(b Binding) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.binding = b
	g.armed = false
	g.fired = false
}

// Handle consumes one input event.
func (g *Gate) Handle(ev Event) {
	switch ev.Kind {
	case KeyDown:
		g.handleKey(ev.Key, true)
	case KeyUp:
		g.handleKey(ev.Key, false)
	case ButtonDown:
		g.handleButton(ev.Button, true)
	case ButtonUp:
		g.handleButton(ev.Button, false)
	}
}

func (g *Gate) handleKey(name string, pressed bool) {
	if name == "" {
		return
	}
	g.mu.Lock()
	if g.capture != nil {
		g.captureKeyLocked(name, pressed)
		g.mu.Unlock()
		return
	}
	b := g.binding

	// Modifier tracking applies to key and mouse combos alike.
	if b.Modifier != "" && name == b.Modifier {
		if pressed {
			g.armed = true
		} else {
			g.armed = false
			g.releaseLocked()
			return
		}
	}

	if b.Type != BindingKey || name != b.Key {
		g.mu.Unlock()
		return
	}
	if pressed {
		if b.Modifier != "" && !g.armed {
			g.mu.Unlock()
			return
		}
		g.pressLocked()
		return
	}
	g.releaseLocked()
}

func (g *Gate) handleButton(name string, pressed bool) {
	if name == "" {
		return
	}
	g.mu.Lock()
	if g.capture != nil {
		g.captureButtonLocked(name, pressed)
		g.mu.Unlock()
		return
	}
	b := g.binding
	if b.Type != BindingMouse || name != b.Button {
		g.mu.Unlock()
		return
	}
	if pressed {
		if b.Modifier != "" && !g.armed {
			g.mu.Unlock()
			return
		}
		g.pressLocked()
		return
	}
	g.releaseLocked()
}

// pressLocked emits the press edge once per hold and unlocks.
func (g *Gate) pressLocked() {
	if g.fired {
		g.mu.Unlock()
		return
	}
	g.fired = true
	cb := g.onPress
	g.mu.Unlock()
	if cb != nil {
		g.dispatch(cb)
	}
}

// releaseLocked emits the release edge if a press is pending and unlocks.
func (g *Gate) releaseLocked() {
	if !g.fired {
		g.mu.Unlock()
		return
	}
	g.fired = false
	cb := g.onRelease
	g.mu.Unlock()
	if cb != nil {
		g.dispatch(cb)
	}
}

// BeginCapture diverts input into capture mode. Normal edge detection is
// suspended until a binding is captured or the returned cancel func runs.
// done is called off the hook thread with the captured binding.
func (g *Gate) BeginCapture(mode CaptureMode, done func(Binding)) (cancel func()) {
	g.mu.Lock()
	g.capture = &captureState{mode: mode, done: done}
	g.armed = false
	g.fired = false
	st := g.capture
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		if g.capture == st {
			g.capture = nil
		}
		g.mu.Unlock()
	}
}

// Capturing reports whether capture mode is active.
func (g *Gate) Capturing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.capture != nil
}

func (g *Gate) captureKeyLocked(name string, pressed bool) {
	if !pressed || captureExcluded[name] {
		return
	}
	st := g.capture
	switch st.mode {
	case CaptureSingle:
		g.finishCaptureLocked(Binding{Type: BindingKey, Key: name})
	case CaptureCombo:
		if st.modifier == "" {
			if modifierNames[name] {
				st.modifier = name
			}
			return
		}
		if modifierNames[name] || name == st.modifier {
			return
		}
		g.finishCaptureLocked(Binding{Type: BindingKey, Key: name, Modifier: st.modifier})
	}
}

func (g *Gate) captureButtonLocked(name string, pressed bool) {
	if !pressed {
		return
	}
	st := g.capture
	switch st.mode {
	case CaptureSingle:
		g.finishCaptureLocked(Binding{Type: BindingMouse, Button: name})
	case CaptureCombo:
		if st.modifier == "" {
			return
		}
		g.finishCaptureLocked(Binding{Type: BindingMouse, Button: name, Modifier: st.modifier})
	}
}

func (g *Gate) finishCaptureLocked(b Binding) {
	done := g.capture.done
	g.capture = nil
	g.armed = false
	g.fired = false
	if done != nil {
		g.dispatch(func() { done(b) })
	}
}
