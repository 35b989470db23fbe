package hotkey

// EventKind classifies a raw input event.
type EventKind int

const (
	KeyDown EventKind = iota
	KeyUp
	ButtonDown
	ButtonUp
)

// Event is a normalized global input event. Key names are lowercase with
// left/right modifier variants collapsed ("shift", not "shift_l").
// Button names follow the Binding vocabulary (left, right, middle, x1, x2).
type Event struct {
	Kind   EventKind
	Key    string
	Button string
}

// HookSource delivers global input events to a handler. Implementations
// own the OS hook; Start must not block and Stop must release the hook
// and cease calling the handler.
type HookSource interface {
	Start(handler func(Event)) error
	Stop() error
}
