// Package loop drives the bridge: it polls the OpenLP remote API at a
// fixed cadence, reduces every poll result against the last written
// state, and rewrites the text layer file only when the overlay should
// actually change.
package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/slidebridge/slidebridge/internal/logging"
	"github.com/slidebridge/slidebridge/internal/openlp"
)

// ConnState tracks whether the last poll of the remote API succeeded.
type ConnState int

const (
	// Disconnected is the initial state: no poll has succeeded yet, or
	// the most recent one failed.
	Disconnected ConnState = iota
	// Connected means the most recent poll succeeded.
	Connected
)

// String returns a human-readable description of the connection state.
func (s ConnState) String() string {
	switch s {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ExitReason indicates why the loop stopped.
type ExitReason int

const (
	ExitReasonUnknown    ExitReason = iota
	ExitReasonInterrupted           // Operator requested exit
	ExitReasonWriteError            // Text layer file could not be written
)

// String returns a human-readable description of the exit reason.
func (r ExitReason) String() string {
	switch r {
	case ExitReasonInterrupted:
		return "interrupted"
	case ExitReasonWriteError:
		return "write error"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a loop run.
type Result struct {
	Reason ExitReason
	Polls  int // Successful polls
	Writes int // Text layer rewrites
	Err    error
}

// LayerWriter is the output side of the loop, implemented by
// *layer.Writer.
type LayerWriter interface {
	Write(content openlp.DisplayContent) error
	Clear() error
}

// Default timings. The poll interval keeps slide changes under a second
// end to end; the retry interval stops a dead OpenLP from being hammered
// six times a second.
const (
	DefaultPollInterval  = 250 * time.Millisecond
	DefaultRetryInterval = 5 * time.Second
)

// Options holds configuration for creating a Loop. Fetcher and Writer
// are required; everything else has a sensible default.
type Options struct {
	Fetcher openlp.StateFetcher
	Writer  LayerWriter

	// Suspended reports the operator's suspension toggle. The loop
	// reads it on every cycle. Nil means never suspended.
	Suspended func() bool

	// Notify receives one-line notices for the operator: connection
	// lost, connection restored. Nil discards them.
	Notify func(string)

	// Status receives the continuously updated status line describing
	// what is on screen. Nil discards it.
	Status func(string)

	PollInterval  time.Duration
	RetryInterval time.Duration

	// ClearOnExit empties the text layer when the loop stops cleanly,
	// so the overlay does not freeze on the last slide.
	ClearOnExit bool

	Logger *logging.Logger
}

// Loop is the poll/write scheduler. Create one with New and drive it
// with Run; a Loop is not reusable after Run returns.
type Loop struct {
	fetcher   openlp.StateFetcher
	writer    LayerWriter
	suspended func() bool
	notify    func(string)
	status    func(string)
	log       *logging.Logger

	pollInterval  time.Duration
	retryInterval time.Duration
	clearOnExit   bool

	conn    ConnState
	written openlp.DisplayContent
	last    openlp.ScreenState // Last successfully polled state
	lost    bool               // A "connection lost" notice is outstanding
	polls   int
	writes  int
}

// New creates a Loop, applying defaults for unset options.
func New(opts Options) *Loop {
	l := &Loop{
		fetcher:       opts.Fetcher,
		writer:        opts.Writer,
		suspended:     opts.Suspended,
		notify:        opts.Notify,
		status:        opts.Status,
		log:           opts.Logger,
		pollInterval:  opts.PollInterval,
		retryInterval: opts.RetryInterval,
		clearOnExit:   opts.ClearOnExit,
		conn:          Disconnected,
	}
	if l.suspended == nil {
		l.suspended = func() bool { return false }
	}
	if l.notify == nil {
		l.notify = func(string) {}
	}
	if l.status == nil {
		l.status = func(string) {}
	}
	if l.log == nil {
		l.log = logging.Default()
	}
	if l.pollInterval <= 0 {
		l.pollInterval = DefaultPollInterval
	}
	if l.retryInterval <= 0 {
		l.retryInterval = DefaultRetryInterval
	}
	return l
}

// Conn returns the loop's current view of the remote connection.
func (l *Loop) Conn() ConnState {
	return l.conn
}

// Run polls until the context is canceled or the text layer becomes
// unwritable. The in-flight poll and any pending write complete before a
// cancellation is honored, so the output file is never left half
// updated.
func (l *Loop) Run(ctx context.Context) Result {
	for {
		if ctx.Err() != nil {
			return l.finish(ExitReasonInterrupted, nil)
		}

		state, err := l.fetcher.FetchCurrent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return l.finish(ExitReasonInterrupted, nil)
			}
			l.onFailure(err)
			if !sleep(ctx, l.retryInterval) {
				return l.finish(ExitReasonInterrupted, nil)
			}
			continue
		}

		if err := l.onSuccess(state); err != nil {
			return l.finish(ExitReasonWriteError, err)
		}

		if !sleep(ctx, l.pollInterval) {
			return l.finish(ExitReasonInterrupted, nil)
		}
	}
}

// onFailure records a failed poll and emits the outage notice, once per
// outage. The status line keeps describing the last known screen state
// with a comm-error suffix so the operator can see the bridge is
// retrying, not frozen.
func (l *Loop) onFailure(err error) {
	l.conn = Disconnected
	if !l.lost {
		l.lost = true
		l.notify(fmt.Sprintf("cannot reach OpenLP (%v), retrying", err))
	}
	l.status(statusLine(l.last, l.suspended(), false))
	l.log.Debug("poll failed", "error", err)
}

// onSuccess reduces the poll result and rewrites the layer if needed.
func (l *Loop) onSuccess(state openlp.ScreenState) error {
	l.polls++
	l.conn = Connected
	l.last = state
	if l.lost {
		l.lost = false
		l.notify("connection to OpenLP restored")
	}

	suspended := l.suspended()
	next, changed := Reduce(l.written, state, suspended)
	if changed {
		if err := l.writer.Write(next); err != nil {
			return fmt.Errorf("update text layer: %w", err)
		}
		l.written = next
		l.writes++
		l.log.Debug("text layer updated", "body_len", len(next.Body), "footer", next.Footer)
	}

	l.status(statusLine(state, suspended, true))
	return nil
}

// finish runs the exit path and builds the Result.
func (l *Loop) finish(reason ExitReason, err error) Result {
	if reason == ExitReasonInterrupted && l.clearOnExit {
		// Best effort; the process is exiting either way.
		if clearErr := l.writer.Clear(); clearErr != nil {
			l.log.Warn("clear text layer on exit", "error", clearErr)
		}
	}
	return Result{Reason: reason, Polls: l.polls, Writes: l.writes, Err: err}
}

// statusLine renders the operator-facing description of the current
// screen state, in the shape "<title> slide i/n (suffix!)". During an
// outage it describes the last known state with a comm-error suffix.
func statusLine(state openlp.ScreenState, suspended, connected bool) string {
	title := state.Title
	if title == "" {
		title = "no item"
	}
	switch {
	case state.SlideCount > 1:
		title = fmt.Sprintf("%s slide %d/%d", title, state.Slide+1, state.SlideCount)
	case state.SlideCount == 0 && state.Kind == openlp.ScreenShowing && state.Title != "":
		title += " (no overlay)"
	}
	if state.Kind == openlp.ScreenBlanked {
		title = fmt.Sprintf("%s (%s!)", title, state.Blank)
	}
	if !connected {
		title += " (comm error, retrying!)"
	}
	if suspended {
		title += " (suspended!)"
	}
	return title
}

// sleep waits for d, returning false if the context was canceled first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
