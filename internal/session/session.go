// Package session coordinates the dictation lifecycle: trigger edges,
// capture, transcription, cleanup, insertion, and the bookkeeping that
// follows a finished dictation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/6m8bzpx42z-ship-it/MuttR/internal/audio"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/cadence"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/cleanup"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/config"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/doctor"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/fsm"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/history"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/insert"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/ipc"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/priming"
)

// Capturer is the session-facing slice of a running audio capture.
type Capturer interface {
	Blocks() <-chan audio.Block
	Samples() []float32
	DurationMS() int64
	Level() float64
	Stop() error
	Close()
}

// CaptureStarter opens a capture for one session.
type CaptureStarter func(ctx context.Context, cfg config.Config) (Capturer, error)

// TextInserter pastes cleaned text at the cursor.
type TextInserter interface {
	Insert(ctx context.Context, text string) error
}

// HistorySink records finished dictations and feeds priming.
type HistorySink interface {
	Record(e history.Entry) error
	Prune(max int) error
	RecentTexts(limit int) ([]string, error)
}

// Observer receives every state transition, in order.
type Observer interface {
	StateChanged(from, to fsm.State)
}

// Notices shows one-off user-facing messages.
type Notices interface {
	Notice(message string)
}

// Result is the outcome of one completed dictation cycle.
type Result struct {
	SessionID   string
	State       fsm.State
	RawText     string
	CleanedText string
	Feedback    string
	DurationMS  int64
	WPM         float64
	Confidence  float64
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Session is one in-flight dictation, from press to insertion.
type Session struct {
	ID        string
	StartedAt time.Time

	cfg           config.Config
	capture       Capturer
	handle        *EngineHandle
	tracker       *cadence.Tracker
	autoStopAfter time.Duration

	finishing atomic.Bool
	done      chan struct{}
}

// Deps wires the controller's collaborators. Nil fields get working
// defaults; tests replace them with fakes.
type Deps struct {
	Logger       *slog.Logger
	Config       config.Config
	Engine       *EngineHandle
	StartCapture CaptureStarter
	Permissions  func(ctx context.Context, cfg config.Config) error
	Inserter     TextInserter
	History      HistorySink
	Cadence      *cadence.Store
	Notices      Notices
}

// Controller owns the dictation state machine. At most one session is
// in flight; trigger edges arriving in the wrong state are no-ops.
type Controller struct {
	logger       *slog.Logger
	startCapture CaptureStarter
	permissions  func(ctx context.Context, cfg config.Config) error
	inserter     TextInserter
	history      HistorySink
	cadence      *cadence.Store
	notices      Notices

	mu        sync.Mutex
	cfg       config.Config
	state     fsm.State
	observers []Observer
	engine    *EngineHandle
	active    *Session
}

// NewController builds a controller from deps, starting the engine
// load in the background when no prebuilt handle is given.
func NewController(deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		logger:       logger,
		cfg:          deps.Config,
		state:        fsm.StateIdle,
		startCapture: deps.StartCapture,
		permissions:  deps.Permissions,
		inserter:     deps.Inserter,
		history:      deps.History,
		cadence:      deps.Cadence,
		notices:      deps.Notices,
		engine:       deps.Engine,
	}

	if c.startCapture == nil {
		c.startCapture = c.openCapture
	}
	if c.permissions == nil {
		c.permissions = doctor.Permissions
	}
	if c.inserter == nil {
		c.inserter = insert.New(deps.Config.Insert, logger)
	}
	if c.engine == nil {
		handle, warning := buildHandle(context.Background(), deps.Config.Engine)
		if warning != "" {
			logger.Warn("engine fallback", "warning", warning)
		}
		c.engine = handle
	}
	return c
}

// AddObserver registers a state-change observer. Observers are called
// synchronously, in registration order.
func (c *Controller) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// State returns the current state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UpdateConfig replaces the live config. In-flight sessions keep the
// snapshot they started with.
func (c *Controller) UpdateConfig(cfg config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// SwapEngine loads a new engine in the background and swaps it in once
// ready. Until then, and if the load fails, sessions keep the current
// engine. An in-flight session finishes with the handle it was pressed
// under; the swap applies from the next press. Returns a fallback
// warning when the requested backend is unavailable.
func (c *Controller) SwapEngine(ctx context.Context, cfg config.EngineConfig) string {
	handle, warning := buildHandle(ctx, cfg)
	go func() {
		<-handle.ready
		if err := handle.Err(); err != nil {
			c.logger.Warn("engine swap failed; keeping current engine", "error", err.Error())
			return
		}
		c.mu.Lock()
		c.engine = handle
		c.mu.Unlock()
		c.logger.Info("engine swapped", "engine", handle.eng.Name())
	}()
	return warning
}

// transition applies one event, emitting observer callbacks for real
// state changes.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	from := c.state
	next, err := fsm.Transition(from, event)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	if next != from {
		c.logger.Info("state changed", "from", string(from), "to", string(next), "event", string(event))
		for _, o := range observers {
			o.StateChanged(from, next)
		}
	}
	return nil
}

// toErrorAndReset transitions to error and back to idle best-effort.
func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}

// Press handles the trigger-down edge. Outside Idle it is a no-op.
func (c *Controller) Press(ctx context.Context) error {
	c.mu.Lock()
	if c.state != fsm.StateIdle || c.active != nil {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("press ignored", "state", string(state))
		return nil
	}
	cfg := c.cfg
	handle := c.engine
	c.mu.Unlock()

	if err := c.permissions(ctx, cfg); err != nil {
		c.toErrorAndReset()
		return fmt.Errorf("%w: %s", ErrPermissionDenied, err)
	}

	capture, err := c.startCapture(ctx, cfg)
	if err != nil {
		c.toErrorAndReset()
		if errors.Is(err, ErrDeviceError) {
			return err
		}
		return fmt.Errorf("%w: %s", ErrDeviceError, err)
	}

	var autoStop time.Duration
	if c.cadence != nil {
		autoStop = c.cadence.LoadProfile().AutoStop(cfg.Cadence.AdaptiveSilence)
	} else {
		autoStop = cadence.Profile{}.AutoStop(cfg.Cadence.AdaptiveSilence)
	}

	s := &Session{
		ID:            uuid.NewString(),
		StartedAt:     time.Now(),
		cfg:           cfg,
		capture:       capture,
		handle:        handle,
		tracker:       cadence.NewTracker(),
		autoStopAfter: autoStop,
		done:          make(chan struct{}),
	}

	c.mu.Lock()
	if c.state != fsm.StateIdle || c.active != nil {
		c.mu.Unlock()
		capture.Close()
		return nil
	}
	c.active = s
	c.mu.Unlock()

	if err := c.transition(fsm.EventPress); err != nil {
		c.clearActive(s)
		capture.Close()
		return err
	}

	c.logger.Info("recording started",
		"session", s.ID,
		"auto_stop_ms", autoStop.Milliseconds(),
	)
	go c.watch(s)
	return nil
}

// Release handles the trigger-up edge. Outside Recording it is a no-op.
func (c *Controller) Release(ctx context.Context) (Result, error) {
	c.mu.Lock()
	s := c.active
	state := c.state
	c.mu.Unlock()

	if state != fsm.StateRecording || s == nil {
		c.logger.Debug("release ignored", "state", string(state))
		return Result{State: state}, nil
	}
	return c.finish(ctx, s, fsm.EventRelease)
}

// Toggle presses when idle and releases when recording.
func (c *Controller) Toggle(ctx context.Context) (Result, error) {
	switch c.State() {
	case fsm.StateIdle:
		return Result{State: c.State()}, c.Press(ctx)
	case fsm.StateRecording:
		return c.Release(ctx)
	default:
		return Result{State: c.State()}, nil
	}
}

// watch consumes capture blocks for cadence learning and fires the
// silence auto-stop and max-duration guardrails.
func (c *Controller) watch(s *Session) {
	defer close(s.done)

	maxDur := time.Duration(s.cfg.Audio.MaxDurationMS) * time.Millisecond
	var elapsed, silence time.Duration
	hadSpeech := false

	for block := range s.capture.Blocks() {
		s.tracker.Update(block.RMS)

		blockDur := time.Duration(len(block.Samples)) * time.Second / audio.SampleRate
		elapsed += blockDur
		if block.RMS < cadence.SilenceFloor {
			silence += blockDur
		} else {
			silence = 0
			hadSpeech = true
		}

		if maxDur > 0 && elapsed >= maxDur {
			c.logger.Info("max duration reached; forcing stop", "session", s.ID, "elapsed_ms", elapsed.Milliseconds())
			go c.forceStop(s, fsm.EventMaxDuration)
			return
		}
		if hadSpeech && s.autoStopAfter > 0 && silence >= s.autoStopAfter {
			c.logger.Info("silence auto-stop", "session", s.ID, "threshold_ms", s.autoStopAfter.Milliseconds())
			go c.forceStop(s, fsm.EventRelease)
			return
		}
	}
}

// forceStop finishes a session on behalf of a guardrail. A stale
// trigger for an already-finished session is ignored.
func (c *Controller) forceStop(s *Session, edge fsm.Event) {
	c.mu.Lock()
	current := c.active
	c.mu.Unlock()
	if current != s {
		return
	}
	if _, err := c.finish(context.Background(), s, edge); err != nil {
		c.logger.Warn("auto-stop session failed", "session", s.ID, "error", err.Error())
	}
}

// finish runs stop-transcribe-clean-insert for one session. Only the
// first caller proceeds; concurrent release edges are no-ops.
func (c *Controller) finish(ctx context.Context, s *Session, edge fsm.Event) (Result, error) {
	if !s.finishing.CompareAndSwap(false, true) {
		return Result{State: c.State()}, nil
	}

	result := Result{SessionID: s.ID, StartedAt: s.StartedAt}
	defer func() { result.FinishedAt = time.Now() }()

	if err := s.capture.Stop(); err != nil {
		c.clearActive(s)
		s.capture.Close()
		c.toErrorAndReset()
		result.State = c.State()
		return result, fmt.Errorf("%w: %s", ErrDeviceError, err)
	}
	<-s.done

	result.DurationMS = s.capture.DurationMS()
	if result.DurationMS < int64(s.cfg.MinUtterance()) {
		c.clearActive(s)
		s.capture.Close()
		_ = c.transition(fsm.EventDiscard)
		result.State = c.State()
		c.logger.Info("capture discarded below min utterance",
			"session", s.ID,
			"duration_ms", result.DurationMS,
			"min_ms", s.cfg.MinUtterance(),
		)
		return result, ErrGuardrailSkip
	}

	if err := c.transition(edge); err != nil {
		c.clearActive(s)
		s.capture.Close()
		c.toErrorAndReset()
		result.State = c.State()
		return result, err
	}

	samples := s.capture.Samples()
	s.capture.Close()

	prompt := c.buildPrompt(s.cfg)

	// The handle bound at press time serves this session even when a
	// swap completed while it was recording.
	eng, err := s.handle.Engine(ctx)
	if err != nil {
		c.clearActive(s)
		c.toErrorAndReset()
		result.State = c.State()
		return result, err
	}

	timeout := time.Duration(s.cfg.Engine.TimeoutMS) * time.Millisecond
	tctx, cancel := context.WithTimeout(ctx, timeout)
	res, terr := eng.Transcribe(tctx, samples, prompt)
	cancel()
	if terr != nil {
		c.clearActive(s)
		c.toErrorAndReset()
		result.State = c.State()
		if errors.Is(terr, context.DeadlineExceeded) {
			return result, fmt.Errorf("%w after %dms", ErrTranscriptionTimeout, s.cfg.Engine.TimeoutMS)
		}
		return result, fmt.Errorf("%w: %s", ErrTranscriptionFailure, terr)
	}

	result.RawText = res.Text
	result.Confidence = res.Confidence()

	if strings.TrimSpace(res.Text) == "" {
		c.clearActive(s)
		c.toErrorAndReset()
		result.State = c.State()
		return result, ErrEmptyTranscript
	}

	pipeline := cleanup.New(cleanup.Options{
		Level:        s.cfg.Cleanup.Level,
		ProperNouns:  s.cfg.Cleanup.ProperNouns,
		ExtraFillers: s.cfg.Cleanup.ExtraFillers,
	})
	result.CleanedText = pipeline.Clean(res.Text)

	if err := c.transition(fsm.EventCleaned); err != nil {
		c.clearActive(s)
		c.toErrorAndReset()
		result.State = c.State()
		return result, err
	}

	insertErr := c.inserter.Insert(ctx, result.CleanedText)
	if insertErr != nil && !errors.Is(insertErr, insert.ErrPaste) {
		c.clearActive(s)
		c.toErrorAndReset()
		result.State = c.State()
		return result, fmt.Errorf("%w: %s", ErrInsertionFailure, insertErr)
	}

	_ = c.transition(fsm.EventInserted)
	c.clearActive(s)

	result.Feedback = c.afterSession(s, eng.Name(), samples, &result)
	result.State = c.State()

	if insertErr != nil {
		c.notice("Paste failed; transcript left on clipboard")
		return result, fmt.Errorf("%w: %s", ErrInsertionFailure, insertErr)
	}

	c.logger.Info("dictation inserted",
		"session", s.ID,
		"duration_ms", result.DurationMS,
		"chars", len(result.CleanedText),
		"confidence", result.Confidence,
	)
	return result, nil
}

// afterSession folds the session into the cadence and speech profiles
// and records it to history. All failures here are soft.
func (c *Controller) afterSession(s *Session, engineName string, samples []float32, result *Result) string {
	duration := time.Duration(result.DurationMS) * time.Millisecond
	metrics := cadence.Analyze(samples, result.CleanedText, duration, result.Confidence)
	result.WPM = metrics.WPM

	var feedback string
	if c.cadence != nil {
		if _, err := s.tracker.Finish(c.cadence); err != nil {
			c.logger.Warn("cadence profile update failed", "error", err.Error())
		}
		if s.cfg.Cadence.Feedback {
			speech := c.cadence.LoadSpeechProfile()
			feedback = speech.Feedback(metrics)
			speech.Update(metrics)
			if err := c.cadence.SaveSpeechProfile(speech); err != nil {
				c.logger.Warn("speech profile update failed", "error", err.Error())
			}
			if feedback != "" {
				c.notice(feedback)
			}
		}
	}

	if c.history != nil && s.cfg.History.Enable {
		entry := history.Entry{
			Timestamp:   s.StartedAt,
			RawText:     result.RawText,
			CleanedText: result.CleanedText,
			Engine:      engineName,
			DurationS:   duration.Seconds(),
			WPM:         metrics.WPM,
			Confidence:  result.Confidence,
		}
		go func(maxEntries int) {
			if err := c.history.Record(entry); err != nil {
				c.logger.Warn("history record failed", "error", err.Error())
				return
			}
			if err := c.history.Prune(maxEntries); err != nil {
				c.logger.Warn("history prune failed", "error", err.Error())
			}
		}(s.cfg.History.MaxEntries)
	}

	return feedback
}

// buildPrompt assembles the priming prompt for the engine.
func (c *Controller) buildPrompt(cfg config.Config) string {
	var source priming.History
	if c.history != nil {
		source = c.history
	}
	return priming.NewBuilder(cfg.Context.Stitching, source, cfg.Cleanup.ProperNouns).Build()
}

// openCapture is the default capture starter: live device selection
// plus the optional boost preprocessor.
func (c *Controller) openCapture(ctx context.Context, cfg config.Config) (Capturer, error) {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceError, err)
	}
	if selection.Warning != "" {
		c.logger.Warn("audio device fallback", "warning", selection.Warning)
	}

	var boost *audio.Processor
	if cfg.Boost.Enable {
		boost = audio.NewProcessor(cfg.Boost.Gain, cfg.Boost.NoiseGateDB)
	}

	capture, err := audio.StartCapture(ctx, selection.Device, boost)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceError, err)
	}
	return capture, nil
}

func (c *Controller) clearActive(s *Session) {
	c.mu.Lock()
	if c.active == s {
		c.active = nil
	}
	c.mu.Unlock()
}

func (c *Controller) notice(message string) {
	if c.notices != nil {
		c.notices.Notice(message)
	}
}

// Handle serves trigger and status commands from the unix socket.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		resp := ipc.Response{OK: true, State: string(c.State()), Message: "status"}
		c.mu.Lock()
		if c.active != nil {
			resp.Level = c.active.capture.Level()
		}
		c.mu.Unlock()
		return resp
	case "press":
		if err := c.Press(ctx); err != nil {
			return ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
		}
		return ipc.Response{OK: true, State: string(c.State()), Message: "recording"}
	case "release":
		return c.finishResponse(c.Release(ctx))
	case "toggle":
		return c.finishResponse(c.Toggle(ctx))
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func (c *Controller) finishResponse(result Result, err error) ipc.Response {
	if err != nil {
		if errors.Is(err, ErrGuardrailSkip) {
			return ipc.Response{OK: true, State: string(c.State()), Message: "discarded: too short"}
		}
		return ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
	}
	message := "ok"
	if result.CleanedText != "" {
		message = fmt.Sprintf("inserted %d chars", len(result.CleanedText))
	}
	return ipc.Response{OK: true, State: string(c.State()), Message: message}
}
