// Package notify shows desktop notices for dictation state changes and
// soft failures. Notices are fire-and-forget: a slow or missing
// notification daemon never blocks the dictation pipeline.
package notify

import (
	"log/slog"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/6m8bzpx42z-ship-it/MuttR/internal/config"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/fsm"
)

// Notifier posts desktop notifications through the freedesktop layer.
type Notifier struct {
	cfg    config.NotifyConfig
	logger *slog.Logger
	send   func(title, message string) error

	wg sync.WaitGroup
}

// New creates a notifier from runtime config. Disabled config yields a
// notifier whose methods are no-ops.
func New(cfg config.NotifyConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		logger: logger,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// StateChanged implements the session state observer. Only edges the
// user acts on get a notice; transcribe/insert churn stays silent.
func (n *Notifier) StateChanged(from, to fsm.State) {
	switch to {
	case fsm.StateRecording:
		n.post("Recording")
	case fsm.StateError:
		n.post("Dictation failed")
	}
}

// Notice shows a one-off informational message, such as a transcript
// left on the clipboard after a failed paste.
func (n *Notifier) Notice(message string) {
	n.post(message)
}

func (n *Notifier) post(message string) {
	if !n.cfg.Enable {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.logger.Warn("notification panicked", "recovered", r)
			}
		}()

		if err := n.send(n.cfg.AppName, message); err != nil {
			n.logger.Warn("notification failed", "message", message, "error", err.Error())
		}
	}()
}

// Wait blocks until in-flight notices finish. Used on shutdown.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
