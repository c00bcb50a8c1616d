// Package app wires configuration, logging, and the dictation daemon
// behind the muttr command surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/6m8bzpx42z-ship-it/MuttR/internal/audio"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/cadence"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/cli"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/config"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/doctor"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/history"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/ipc"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/logging"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/notify"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/session"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("muttr"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("muttr"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandPress:
		return r.forwardOrFail(ctx, "press")
	case cli.CommandRelease:
		return r.forwardOrFail(ctx, "release")
	case cli.CommandToggle:
		return r.forwardOrFail(ctx, "toggle")
	case cli.CommandReload:
		return r.forwardOrFail(ctx, "reload")
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, parsed.ConfigPath, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, "status")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		if resp.Level > 0 {
			fmt.Fprintf(r.Stdout, "%s level=%.3f\n", resp.State, resp.Level)
		} else {
			fmt.Fprintln(r.Stdout, resp.State)
		}
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

// forwardOrFail sends a trigger edge to the daemon. Without a daemon
// there is nothing to record into, so this is an error.
func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: no muttr daemon running (start one with 'muttr run')")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandRun owns the trigger socket and serves dictation sessions
// until the context is cancelled.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, configPath string, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: another muttr daemon owns the socket")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	notifier := notify.New(cfg.Notify, logger)

	deps := session.Deps{
		Logger:  logger,
		Config:  cfg,
		Notices: notifier,
	}

	if stateDir, err := config.StateDir(); err != nil {
		logger.Warn("state dir unavailable; cadence and history disabled", "error", err.Error())
	} else {
		deps.Cadence = cadence.NewStore(stateDir)
		if cfg.History.Enable {
			store, err := history.Open(history.DefaultPath(stateDir))
			if err != nil {
				logger.Warn("history store unavailable", "error", err.Error())
			} else {
				defer store.Close()
				deps.History = store
			}
		}
	}

	controller := session.NewController(deps)
	controller.AddObserver(notifier)

	reloader := &configReloader{
		path:       configPath,
		controller: controller,
		logger:     logger,
		engine:     cfg.Engine,
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				reloader.Reload(ctx)
			}
		}
	}()

	handler := ipc.HandlerFunc(func(hctx context.Context, req ipc.Request) ipc.Response {
		if req.Command == "reload" {
			return reloader.Reload(hctx)
		}
		return controller.Handle(hctx, req)
	})

	logger.Info("daemon ready", "socket", socketPath, "engine", cfg.Engine.Name)
	fmt.Fprintf(r.Stdout, "listening on %s\n", socketPath)

	serveErr := ipc.Serve(ctx, listener, handler)
	notifier.Wait()
	if serveErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serveErr)
		return 1
	}
	return 0
}

// configReloader re-reads the config file for the running daemon,
// pushing the result into the controller and starting an engine swap
// when the engine section changed. Triggered by the reload IPC command
// and by SIGHUP.
type configReloader struct {
	path       string
	controller *session.Controller
	logger     *slog.Logger

	mu     sync.Mutex
	engine config.EngineConfig
}

func (cr *configReloader) Reload(ctx context.Context) ipc.Response {
	loaded, err := config.Load(cr.path)
	if err != nil {
		cr.logger.Error("config reload failed", "error", err.Error())
		return ipc.Response{OK: false, State: string(cr.controller.State()), Error: fmt.Sprintf("reload config: %v", err)}
	}
	for _, w := range loaded.Warnings {
		cr.logger.Warn("config warning", "message", w.Message)
	}

	cr.controller.UpdateConfig(loaded.Config)

	cr.mu.Lock()
	engineChanged := loaded.Config.Engine != cr.engine
	cr.engine = loaded.Config.Engine
	cr.mu.Unlock()

	message := "config reloaded"
	if engineChanged {
		if warning := cr.controller.SwapEngine(ctx, loaded.Config.Engine); warning != "" {
			cr.logger.Warn("engine fallback", "warning", warning)
		}
		message = "config reloaded; engine swap started"
	}

	cr.logger.Info("config reloaded", "config", loaded.Path, "engine_changed", engineChanged)
	return ipc.Response{OK: true, State: string(cr.controller.State()), Message: message}
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) || isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
