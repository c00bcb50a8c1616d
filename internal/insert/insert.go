// Package insert commits cleaned transcripts into the focused
// application via clipboard paste, preserving whatever the user had
// on the clipboard before.
package insert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"

	"github.com/6m8bzpx42z-ship-it/MuttR/internal/config"
)

// ErrPaste marks paste gesture failures. The transcript is still on
// the clipboard when this comes back, so the user can paste manually.
var ErrPaste = errors.New("paste gesture failed")

// Clipboard abstracts the system clipboard for testing.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// Gesture synthesizes the paste keystroke.
type Gesture interface {
	Paste() error
}

type systemClipboard struct{}

func (systemClipboard) Read() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) Write(text string) error { return clipboard.WriteAll(text) }

// keybdGesture sends Ctrl+V through a virtual keyboard. The uinput
// device registers once, on first use.
type keybdGesture struct {
	once sync.Once
	kb   keybd_event.KeyBonding
	err  error
}

func (g *keybdGesture) Paste() error {
	g.once.Do(func() {
		g.kb, g.err = keybd_event.NewKeyBonding()
		if g.err != nil {
			return
		}
		// The virtual device needs a moment before the first event.
		time.Sleep(2 * time.Second)
		g.kb.SetKeys(keybd_event.VK_V)
		g.kb.HasCTRL(true)
	})
	if g.err != nil {
		return g.err
	}
	return g.kb.Launching()
}

// Inserter pastes transcripts at the cursor: snapshot clipboard, write
// text, synthesize Ctrl+V, restore the snapshot.
type Inserter struct {
	clipboard Clipboard
	gesture   Gesture
	logger    *slog.Logger

	pasteDelay   time.Duration
	restoreDelay time.Duration
	sleep        func(time.Duration)
}

// New builds an inserter from runtime config.
func New(cfg config.InsertConfig, logger *slog.Logger) *Inserter {
	return &Inserter{
		clipboard:    systemClipboard{},
		gesture:      &keybdGesture{},
		logger:       logger,
		pasteDelay:   time.Duration(cfg.PasteDelayMS) * time.Millisecond,
		restoreDelay: time.Duration(cfg.RestoreDelayMS) * time.Millisecond,
		sleep:        time.Sleep,
	}
}

// Insert pastes text into the focused application. The paste gesture
// gets one retry with a longer settle delay; if both attempts fail the
// transcript stays on the clipboard and the error wraps ErrPaste so
// callers can tell the user to paste manually.
func (i *Inserter) Insert(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	snapshot, snapErr := i.clipboard.Read()
	if snapErr != nil {
		i.logger.Warn("clipboard snapshot failed; skipping restore", "error", snapErr.Error())
	}

	if err := i.clipboard.Write(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}

	if err := i.paste(ctx); err != nil {
		return fmt.Errorf("%w: %s", ErrPaste, err)
	}

	i.sleep(i.restoreDelay)
	if snapErr == nil {
		if err := i.clipboard.Write(snapshot); err != nil {
			i.logger.Warn("clipboard restore failed", "error", err.Error())
		}
	}
	return nil
}

func (i *Inserter) paste(ctx context.Context) error {
	i.sleep(i.pasteDelay)
	firstErr := i.gesture.Paste()
	if firstErr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	i.logger.Warn("paste gesture failed; retrying", "error", firstErr.Error())
	i.sleep(2 * i.pasteDelay)
	if err := i.gesture.Paste(); err != nil {
		return err
	}
	return nil
}
