// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/language"

	"github.com/Sggin1/LoudMouth/hotkey"
)

const (
	appName        = "loudmouth"
	configFileName = "config.json"
)

// Config is the persisted application configuration. Every key is
// statically known; Get and Set in keys.go expose them over the
// enumerated Key set.
type Config struct {
	Hotkey hotkey.Binding `json:"hotkey"`

	// -1 means the OS default input device
	SelectedDeviceIndex int  `json:"selected_device_index"`
	MicMuted            bool `json:"mic_muted"`

	ModelSize   string `json:"whisper_model_size"`
	EnglishOnly bool   `json:"english_only"`
	Language    string `json:"whisper_language"`

	Temperature        float64 `json:"whisper_temperature"`
	BeamSize           int     `json:"whisper_beam_size"`
	BestOf             int     `json:"whisper_best_of"`
	NoSpeechThreshold  float64 `json:"whisper_no_speech_threshold"`
	ShowConfidence     bool    `json:"whisper_show_confidence"`

	CopyClipboard        bool    `json:"copy_clipboard"`
	ClearClipboardOnExit bool    `json:"clear_clipboard_on_close"`
	TechnicalFilter      bool    `json:"technical_filter"`
	TypeDelay            float64 `json:"type_delay"`

	HistoryEnabled bool `json:"history_enabled"`

	// where this config was loaded from; Save writes back there
	path string
}

// UnmarshalJSON decodes the config file. A stored binding that fails
// validation falls back to the default instead of failing the whole load.
func (c *Config) UnmarshalJSON(data []byte) error {
	type alias Config
	aux := struct {
		*alias
		Hotkey json.RawMessage `json:"hotkey"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Hotkey) > 0 {
		var b hotkey.Binding
		if err := json.Unmarshal(aux.Hotkey, &b); err != nil {
			c.Hotkey = hotkey.DefaultBinding()
		} else {
			c.Hotkey = b
		}
	}
	return nil
}

// Default returns the out-of-the-box configuration. The microphone starts
// muted so a fresh install never records by surprise.
func Default() *Config {
	return &Config{
		Hotkey:               hotkey.DefaultBinding(),
		SelectedDeviceIndex:  -1,
		MicMuted:             true,
		ModelSize:            "small",
		EnglishOnly:          true,
		Language:             "en",
		Temperature:          0.0,
		BeamSize:             5,
		BestOf:               5,
		NoSpeechThreshold:    0.6,
		ShowConfidence:       true,
		CopyClipboard:        true,
		ClearClipboardOnExit: true,
		TechnicalFilter:      true,
		TypeDelay:            1.0,
		HistoryEnabled:       true,
	}
}

// configPath returns the config file location, creating nothing.
func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// Load reads the configuration from the config file. A missing file yields
// the defaults; unknown keys in the file are dropped on the next Save.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.path = path
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.path = path
	cfg.clamp()
	return cfg, nil
}

// Save persists the configuration back to where it was loaded from.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		var err error
		path, err = configPath()
		if err != nil {
			return err
		}
	}
	return c.SaveTo(path)
}

// SaveTo persists the configuration to an explicit path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// clamp pulls every bounded value back into its legal range.
func (c *Config) clamp() {
	c.Temperature = clampFloat(c.Temperature, 0, 1)
	c.NoSpeechThreshold = clampFloat(c.NoSpeechThreshold, 0, 1)
	c.TypeDelay = clampFloat(c.TypeDelay, 0, 5)
	c.BeamSize = clampInt(c.BeamSize, 1, 10)
	c.BestOf = clampInt(c.BestOf, 1, 10)
	if c.Hotkey.Validate() != nil {
		c.Hotkey = hotkey.DefaultBinding()
	}
	if !validLanguage(c.Language) {
		c.Language = "en"
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// validLanguage accepts empty (auto-detect) or a parseable BCP 47 tag.
func validLanguage(code string) bool {
	if code == "" {
		return true
	}
	_, err := language.Parse(code)
	return err == nil
}
