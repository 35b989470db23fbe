package hotkey

import (
	"errors"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// gohook mouse button numbering
var gohookButtons = map[uint16]string{
	1: "left",
	2: "right",
	3: "middle",
	4: "x1",
	5: "x2",
}

// left/right modifier variants collapse to the plain name
var keyAliases = map[string]string{
	"lshift":   "shift",
	"rshift":   "shift",
	"lctrl":    "ctrl",
	"rctrl":    "ctrl",
	"control":  "ctrl",
	"lalt":     "alt",
	"ralt":     "alt",
	"lcmd":     "cmd",
	"rcmd":     "cmd",
	"command":  "cmd",
	"lwin":     "cmd",
	"rwin":     "cmd",
	"spacebar": "space",
}

// GohookSource adapts the robotn/gohook global hook to HookSource.
// Only one instance may run per process; gohook owns process-wide state.
type GohookSource struct {
	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewGohookSource returns an unstarted hook source.
func NewGohookSource() *GohookSource { return &GohookSource{} }

// Start installs the global hook and pumps events to handler until Stop.
func (s *GohookSource) Start(handler func(Event)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("hook already running")
	}
	events := hook.Start()
	s.done = make(chan struct{})
	s.running = true
	go s.pump(events, handler, s.done)
	return nil
}

// Stop tears down the global hook. Safe to call once after Start.
func (s *GohookSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	close(s.done)
	hook.End()
	s.running = false
	return nil
}

func (s *GohookSource) pump(events chan hook.Event, handler func(Event), done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if out, valid := translate(ev); valid {
				handler(out)
			}
		}
	}
}

func translate(ev hook.Event) (Event, bool) {
	switch ev.Kind {
	case hook.KeyDown, hook.KeyHold:
		// auto-repeat holds are delivered as downs; the gate de-duplicates
		return Event{Kind: KeyDown, Key: keyName(ev)}, true
	case hook.KeyUp:
		return Event{Kind: KeyUp, Key: keyName(ev)}, true
	case hook.MouseDown, hook.MouseHold:
		if name, ok := gohookButtons[ev.Button]; ok {
			return Event{Kind: ButtonDown, Button: name}, true
		}
	case hook.MouseUp:
		if name, ok := gohookButtons[ev.Button]; ok {
			return Event{Kind: ButtonUp, Button: name}, true
		}
	}
	return Event{}, false
}

func keyName(ev hook.Event) string {
	name := strings.ToLower(hook.RawcodetoKeychar(ev.Rawcode))
	if name == "" && ev.Keychar != 0 && ev.Keychar != 65535 {
		name = strings.ToLower(string(ev.Keychar))
	}
	name = strings.TrimSpace(name)
	if alias, ok := keyAliases[name]; ok {
		return alias
	}
	return name
}
