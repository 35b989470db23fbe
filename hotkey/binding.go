// Package hotkey turns raw global input events into press/release edges
// for a single configured push-to-talk trigger.
package hotkey

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BindingType discriminates the persisted binding variants.
type BindingType string

const (
	BindingKey   BindingType = "key"
	BindingMouse BindingType = "mouse"
)

// Modifier names accepted in combo bindings.
var modifierNames = map[string]bool{
	"ctrl":  true,
	"alt":   true,
	"shift": true,
	"cmd":   true,
}

// Mouse button names accepted in mouse bindings.
var buttonNames = map[string]bool{
	"left":   true,
	"right":  true,
	"middle": true,
	"x1":     true,
	"x2":     true,
}

// Binding is the push-to-talk trigger configuration. Exactly one of the
// four shapes is valid: single key, modifier+key combo, single mouse
// button, or modifier+mouse-button combo.
type Binding struct {
	Type     BindingType
	Key      string // main key for key bindings
	Button   string // main button for mouse bindings
	Modifier string // empty for single-input bindings
}

// DefaultBinding returns the out-of-the-box trigger.
func DefaultBinding() Binding {
	return Binding{Type: BindingKey, Key: "shift"}
}

// IsCombo reports whether the binding requires a held modifier.
func (b Binding) IsCombo() bool { return b.Modifier != "" }

// Validate checks the binding is one of the four legal shapes.
func (b Binding) Validate() error {
	switch b.Type {
	case BindingKey:
		if b.Key == "" {
			return fmt.Errorf("key binding requires a key")
		}
		if b.Button != "" {
			return fmt.Errorf("key binding must not carry a button")
		}
		if b.Modifier != "" && b.Modifier == b.Key {
			return fmt.Errorf("combo modifier and key must differ")
		}
	case BindingMouse:
		if b.Button == "" {
			return fmt.Errorf("mouse binding requires a button")
		}
		if !buttonNames[b.Button] {
			return fmt.Errorf("unknown mouse button %q", b.Button)
		}
		if b.Key != "" {
			return fmt.Errorf("mouse binding must not carry a key")
		}
	default:
		return fmt.Errorf("unknown binding type %q", b.Type)
	}
	if b.Modifier != "" && !modifierNames[b.Modifier] {
		return fmt.Errorf("unknown modifier %q", b.Modifier)
	}
	return nil
}

// DisplayText renders the binding for status lines and the settings UI.
func (b Binding) DisplayText() string {
	title := func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	}
	var main string
	switch b.Type {
	case BindingKey:
		main = title(b.Key)
	case BindingMouse:
		switch b.Button {
		case "x1":
			main = "Side Button 1"
		case "x2":
			main = "Side Button 2"
		default:
			main = title(b.Button) + " Click"
		}
	}
	if b.Modifier != "" {
		return title(b.Modifier) + " + " + main
	}
	return main
}

// bindingWire is the persisted JSON shape. Key combos nest the pair under
// "combo"; mouse combos carry the modifier alongside the button.
type bindingWire struct {
	Type   string     `json:"type"`
	Key    string     `json:"key,omitempty"`
	Combo  *comboWire `json:"combo,omitempty"`
	Button string     `json:"button,omitempty"`
	// mouse combos only
	Modifier string `json:"modifier,omitempty"`
}

type comboWire struct {
	Modifier string `json:"modifier"`
	Key      string `json:"key"`
}

// MarshalJSON emits the persisted shape.
func (b Binding) MarshalJSON() ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	w := bindingWire{Type: string(b.Type)}
	switch b.Type {
	case BindingKey:
		if b.Modifier != "" {
			w.Combo = &comboWire{Modifier: b.Modifier, Key: b.Key}
		} else {
			w.Key = b.Key
		}
	case BindingMouse:
		w.Button = b.Button
		w.Modifier = b.Modifier
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the persisted shape.
func (b *Binding) UnmarshalJSON(data []byte) error {
	var w bindingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Binding{Type: BindingType(w.Type)}
	switch out.Type {
	case BindingKey:
		if w.Combo != nil {
			out.Key = w.Combo.Key
			out.Modifier = w.Combo.Modifier
		} else {
			out.Key = w.Key
		}
	case BindingMouse:
		out.Button = w.Button
		out.Modifier = w.Modifier
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*b = out
	return nil
}
