package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/6m8bzpx42z-ship-it/MuttR/internal/config"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/engine"
)

// EngineHandle wraps a transcription engine whose Load may still be in
// flight. Sessions wait on Ready before transcribing; a hot-swap keeps
// serving the old handle until the new one reports ready.
type EngineHandle struct {
	eng   engine.Engine
	ready chan struct{}

	mu  sync.Mutex
	err error
}

// NewEngineHandle starts loading eng in the background and returns
// immediately.
func NewEngineHandle(ctx context.Context, eng engine.Engine) *EngineHandle {
	h := &EngineHandle{eng: eng, ready: make(chan struct{})}
	go func() {
		err := eng.Load(ctx)
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
		close(h.ready)
	}()
	return h
}

// loadedHandle wraps an already-ready engine, for tests and for
// engines with nothing to load.
func loadedHandle(eng engine.Engine) *EngineHandle {
	h := &EngineHandle{eng: eng, ready: make(chan struct{})}
	close(h.ready)
	return h
}

// Engine returns the wrapped engine once it is ready.
func (h *EngineHandle) Engine(ctx context.Context) (engine.Engine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.ready:
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEngineUnavailable, h.err)
	}
	return h.eng, nil
}

// Ready reports whether Load has finished, successfully or not.
func (h *EngineHandle) Ready() bool {
	select {
	case <-h.ready:
		return true
	default:
		return false
	}
}

// Err returns the load error, if Load has finished and failed.
func (h *EngineHandle) Err() error {
	if !h.Ready() {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// buildHandle constructs and starts loading the configured engine.
// The warning, when non-empty, names a requested engine that fell
// back to another backend.
func buildHandle(ctx context.Context, cfg config.EngineConfig) (*EngineHandle, string) {
	eng, warning := engine.New(cfg)
	return NewEngineHandle(ctx, eng), warning
}
