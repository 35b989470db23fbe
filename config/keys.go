package config

import (
	"errors"
	"fmt"

	"github.com/Sggin1/LoudMouth/hotkey"
)

// Key names one configuration field. The set is fixed; Get and Set reject
// anything else.
type Key string

const (
	KeyHotkey               Key = "hotkey"
	KeyDeviceIndex          Key = "selected_device_index"
	KeyMicMuted             Key = "mic_muted"
	KeyModelSize            Key = "whisper_model_size"
	KeyEnglishOnly          Key = "english_only"
	KeyLanguage             Key = "whisper_language"
	KeyTemperature          Key = "whisper_temperature"
	KeyBeamSize             Key = "whisper_beam_size"
	KeyBestOf               Key = "whisper_best_of"
	KeyNoSpeechThreshold    Key = "whisper_no_speech_threshold"
	KeyShowConfidence       Key = "whisper_show_confidence"
	KeyCopyClipboard        Key = "copy_clipboard"
	KeyClearClipboardOnExit Key = "clear_clipboard_on_close"
	KeyTechnicalFilter      Key = "technical_filter"
	KeyTypeDelay            Key = "type_delay"
	KeyHistoryEnabled       Key = "history_enabled"
)

// ErrUnknownKey is returned for keys outside the enumerated set.
var ErrUnknownKey = errors.New("unknown config key")

// Get returns the value for key.
func (c *Config) Get(key Key) (any, error) {
	switch key {
	case KeyHotkey:
		return c.Hotkey, nil
	case KeyDeviceIndex:
		return c.SelectedDeviceIndex, nil
	case KeyMicMuted:
		return c.MicMuted, nil
	case KeyModelSize:
		return c.ModelSize, nil
	case KeyEnglishOnly:
		return c.EnglishOnly, nil
	case KeyLanguage:
		return c.Language, nil
	case KeyTemperature:
		return c.Temperature, nil
	case KeyBeamSize:
		return c.BeamSize, nil
	case KeyBestOf:
		return c.BestOf, nil
	case KeyNoSpeechThreshold:
		return c.NoSpeechThreshold, nil
	case KeyShowConfidence:
		return c.ShowConfidence, nil
	case KeyCopyClipboard:
		return c.CopyClipboard, nil
	case KeyClearClipboardOnExit:
		return c.ClearClipboardOnExit, nil
	case KeyTechnicalFilter:
		return c.TechnicalFilter, nil
	case KeyTypeDelay:
		return c.TypeDelay, nil
	case KeyHistoryEnabled:
		return c.HistoryEnabled, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

// Set stores a value for key, clamping bounded numerics into range. The
// value's type must match the field.
func (c *Config) Set(key Key, value any) error {
	switch key {
	case KeyHotkey:
		b, ok := value.(hotkey.Binding)
		if !ok {
			return typeErr(key, "hotkey.Binding", value)
		}
		if err := b.Validate(); err != nil {
			return err
		}
		c.Hotkey = b
	case KeyDeviceIndex:
		n, ok := toInt(value)
		if !ok {
			return typeErr(key, "int", value)
		}
		if n < -1 {
			n = -1
		}
		c.SelectedDeviceIndex = n
	case KeyMicMuted:
		return setBool(&c.MicMuted, key, value)
	case KeyModelSize:
		s, ok := value.(string)
		if !ok {
			return typeErr(key, "string", value)
		}
		c.ModelSize = s
	case KeyEnglishOnly:
		return setBool(&c.EnglishOnly, key, value)
	case KeyLanguage:
		s, ok := value.(string)
		if !ok {
			return typeErr(key, "string", value)
		}
		if !validLanguage(s) {
			return fmt.Errorf("invalid language code %q", s)
		}
		c.Language = s
	case KeyTemperature:
		f, ok := toFloat(value)
		if !ok {
			return typeErr(key, "float64", value)
		}
		c.Temperature = clampFloat(f, 0, 1)
	case KeyBeamSize:
		n, ok := toInt(value)
		if !ok {
			return typeErr(key, "int", value)
		}
		c.BeamSize = clampInt(n, 1, 10)
	case KeyBestOf:
		n, ok := toInt(value)
		if !ok {
			return typeErr(key, "int", value)
		}
		c.BestOf = clampInt(n, 1, 10)
	case KeyNoSpeechThreshold:
		f, ok := toFloat(value)
		if !ok {
			return typeErr(key, "float64", value)
		}
		c.NoSpeechThreshold = clampFloat(f, 0, 1)
	case KeyShowConfidence:
		return setBool(&c.ShowConfidence, key, value)
	case KeyCopyClipboard:
		return setBool(&c.CopyClipboard, key, value)
	case KeyClearClipboardOnExit:
		return setBool(&c.ClearClipboardOnExit, key, value)
	case KeyTechnicalFilter:
		return setBool(&c.TechnicalFilter, key, value)
	case KeyTypeDelay:
		f, ok := toFloat(value)
		if !ok {
			return typeErr(key, "float64", value)
		}
		c.TypeDelay = clampFloat(f, 0, 5)
	case KeyHistoryEnabled:
		return setBool(&c.HistoryEnabled, key, value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}

func setBool(dst *bool, key Key, value any) error {
	b, ok := value.(bool)
	if !ok {
		return typeErr(key, "bool", value)
	}
	*dst = b
	return nil
}

func typeErr(key Key, want string, got any) error {
	return fmt.Errorf("config key %q wants %s, got %T", key, want, got)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
