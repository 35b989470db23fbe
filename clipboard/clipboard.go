// Package clipboard copies transcripts to the system clipboard and
// optionally types them into the focused window.
package clipboard

import (
	"fmt"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// Copy places text on the system clipboard.
func Copy(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// Read returns the current clipboard text.
func Read() (string, error) {
	return clipboard.ReadAll()
}

// Clear empties the clipboard. Used on shutdown when the user opted in,
// so a dictated secret does not outlive the session.
func Clear() error {
	return clipboard.WriteAll("")
}

// Type pastes text into the focused window after delay: the text goes to
// the clipboard, a paste chord is injected, and the previous clipboard
// content is restored.
func Type(text string, delay time.Duration) error {
	if delay > 0 {
		time.Sleep(delay)
	}

	orig, _ := clipboard.ReadAll()
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	time.Sleep(80 * time.Millisecond)

	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return fmt.Errorf("init key injection: %w", err)
	}
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	kb.SetKeys(keybd_event.VK_V)
	if err := kb.Launching(); err != nil {
		return fmt.Errorf("send paste chord: %w", err)
	}

	time.Sleep(120 * time.Millisecond)
	if err := clipboard.WriteAll(orig); err != nil {
		return fmt.Errorf("restore clipboard: %w", err)
	}
	return nil
}
