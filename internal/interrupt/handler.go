// Package interrupt implements the Ctrl+C gesture handling for the
// bridge: one interrupt toggles the overlay suspension, two interrupts
// in quick succession exit the process.
//
// The double-tap requirement protects a live broadcast aid from an
// accidental Ctrl+C. A single tap is reversible (it only suspends the
// overlay, and only after the debounce window proves no second tap is
// coming); exiting always takes a deliberate second tap.
package interrupt

import (
	"sync"
	"sync/atomic"
	"time"
)

// State is the debounce machine's state.
type State int

const (
	// Running: overlay active, no interrupt pending.
	Running State = iota
	// PendingSuspend: one interrupt seen while Running; a second one
	// inside the window means exit, silence means suspend.
	PendingSuspend
	// Suspended: overlay suspended.
	Suspended
	// PendingExit: one interrupt seen while Suspended; a second one
	// inside the window means exit, silence means resume.
	PendingExit
	// Exited: terminal, reached by a double interrupt.
	Exited
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case PendingSuspend:
		return "pending suspend"
	case Suspended:
		return "suspended"
	case PendingExit:
		return "pending exit"
	case Exited:
		return "exited"
	default:
		return "invalid"
	}
}

// DefaultWindow is the debounce window separating a toggle from a
// double-tap exit.
const DefaultWindow = 1500 * time.Millisecond

// Options configures a Handler. OnExit is required.
type Options struct {
	// Window is the debounce window; DefaultWindow when zero.
	Window time.Duration

	// OnExit runs when a double interrupt requests exit. It is called
	// without the handler's lock held and must not block on the
	// handler itself.
	OnExit func()

	// Notify receives suspend/resume notices. Nil discards them.
	Notify func(string)

	// Now and Schedule replace the clock in tests. They default to
	// time.Now and time.AfterFunc.
	Now      func() time.Time
	Schedule func(d time.Duration, f func())
}

// Handler is the interrupt gesture state machine. Interrupt may be
// called from any goroutine; the suspension flag is safe to read from
// the poll loop without further locking.
type Handler struct {
	mu       sync.Mutex
	state    State
	deadline time.Time
	gen      uint64 // invalidates timers armed for superseded states

	window   time.Duration
	now      func() time.Time
	schedule func(d time.Duration, f func())
	onExit   func()
	notify   func(string)

	suspended atomic.Bool
}

// New creates a Handler in the Running state.
func New(opts Options) *Handler {
	h := &Handler{
		state:    Running,
		window:   opts.Window,
		now:      opts.Now,
		schedule: opts.Schedule,
		onExit:   opts.OnExit,
		notify:   opts.Notify,
	}
	if h.window <= 0 {
		h.window = DefaultWindow
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.schedule == nil {
		h.schedule = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	if h.onExit == nil {
		h.onExit = func() {}
	}
	if h.notify == nil {
		h.notify = func(string) {}
	}
	return h
}

// Suspended reports whether the overlay is currently suspended.
func (h *Handler) Suspended() bool {
	return h.suspended.Load()
}

// State returns the current machine state.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Interrupt feeds one interrupt gesture into the machine.
func (h *Handler) Interrupt() {
	h.mu.Lock()
	now := h.now()

	var notice string
	switch h.state {
	case Exited:
		h.mu.Unlock()
		return
	case PendingSuspend, PendingExit:
		if now.Before(h.deadline) {
			h.state = Exited
			h.gen++ // cancel the outstanding window timer
			h.mu.Unlock()
			h.onExit()
			return
		}
		// The window already elapsed but its timer has not fired yet.
		// Settle the pending state first, then treat this interrupt as
		// a fresh gesture from the settled state.
		notice = h.settleLocked()
	}

	switch h.state {
	case Running:
		h.state = PendingSuspend
	case Suspended:
		h.state = PendingExit
	}
	h.armLocked(now)
	h.mu.Unlock()

	if notice != "" {
		h.notify(notice)
	}
}

// armLocked starts the debounce window for the current pending state.
func (h *Handler) armLocked(now time.Time) {
	h.deadline = now.Add(h.window)
	h.gen++
	gen := h.gen
	h.schedule(h.window, func() { h.expire(gen) })
}

// expire fires when a debounce window closes without a second interrupt.
// Timers armed for a superseded state carry a stale generation and are
// ignored.
func (h *Handler) expire(gen uint64) {
	h.mu.Lock()
	if gen != h.gen {
		h.mu.Unlock()
		return
	}
	notice := h.settleLocked()
	h.mu.Unlock()

	if notice != "" {
		h.notify(notice)
	}
}

// settleLocked resolves a pending state into its timed-out destination
// and returns the notice to emit, if any.
func (h *Handler) settleLocked() string {
	switch h.state {
	case PendingSuspend:
		h.state = Suspended
		h.suspended.Store(true)
		return "overlay suspended, Ctrl+C once to resume, twice to quit"
	case PendingExit:
		h.state = Running
		h.suspended.Store(false)
		return "overlay resumed"
	default:
		return ""
	}
}
