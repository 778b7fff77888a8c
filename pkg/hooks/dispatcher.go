package hooks

import (
	"context"
	"io"
	"log/slog"

	"github.com/claude-collective/collective/internal/logging"
)

// Handler reacts to one or more hook events.
type Handler interface {
	// Name identifies the handler in logs and metrics.
	Name() string

	// Events returns the events this handler subscribes to.
	Events() []Event

	// Handle inspects the payload and returns a decision.
	// A returned error never blocks the host; it is logged and the
	// dispatcher falls back to allow.
	Handle(ctx context.Context, in *Input) (Output, error)
}

// Recorder receives every dispatched event for metrics/audit purposes.
type Recorder interface {
	RecordHookEvent(event Event, handler string, blocked bool)
}

// Dispatcher routes hook payloads to the registered handlers.
type Dispatcher struct {
	handlers []Handler
	recorder Recorder
	logger   *slog.Logger
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithRecorder registers a metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = rec
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher over the given handlers.
func NewDispatcher(handlers []Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: handlers,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs every handler subscribed to the payload's event.
// The first block wins; handler errors are logged and skipped, so a bug in
// one handler can never break the host session.
func (d *Dispatcher) Dispatch(ctx context.Context, in *Input) Output {
	result := Allow()

	for _, h := range d.handlers {
		if !subscribes(h, in.HookEventName) {
			continue
		}

		out, err := h.Handle(ctx, in)
		if err != nil {
			d.logger.Error("hook handler failed",
				"handler", h.Name(),
				"event", string(in.HookEventName),
				"err", err,
			)
			continue
		}

		if d.recorder != nil {
			d.recorder.RecordHookEvent(in.HookEventName, h.Name(), out.Blocked())
		}

		if out.Blocked() {
			d.logger.Info("hook blocked",
				"handler", h.Name(),
				"event", string(in.HookEventName),
				"reason", out.Reason,
			)
			return out
		}

		// Non-blocking handlers may still contribute a system message.
		if out.SystemMessage != "" && result.SystemMessage == "" {
			result.SystemMessage = out.SystemMessage
		}
	}

	return result
}

// Run reads one payload from r, dispatches it, and writes the decision to w.
// It returns the process exit code for the host: 0 allow, 2 block.
// Malformed input is allowed through (and logged): a broken hook must never
// take down the session.
func (d *Dispatcher) Run(ctx context.Context, r io.Reader, w io.Writer) int {
	in, err := ReadInput(r)
	if err != nil {
		if err == io.EOF {
			return 0 // empty stdin: no-op
		}
		d.logger.Warn("malformed hook input, allowing", "err", err)
		_ = WriteOutput(w, Allow())
		return 0
	}

	out := d.Dispatch(ctx, in)
	if err := WriteOutput(w, out); err != nil {
		d.logger.Error("failed to write hook output", "err", err)
	}
	return out.ExitCode()
}

func subscribes(h Handler, event Event) bool {
	for _, e := range h.Events() {
		if e == event {
			return true
		}
	}
	return false
}
