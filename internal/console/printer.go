// Package console renders the operator-facing output: a single status
// line that is rewritten in place as the live slide changes, and notice
// lines that stay in the scrollback.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Printer writes timestamped status lines to a terminal. The current
// status line is rewritten in place with a carriage return; notices
// terminate the current line so they remain visible.
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	current string
	now     func() time.Time
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, now: time.Now}
}

// Status replaces the current status line. Identical repeats are
// dropped so the timestamp only moves when something changed.
func (p *Printer) Status(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := p.stamp(message)
	if line[11:] == p.currentTail() {
		return
	}
	p.clearLocked()
	fmt.Fprint(p.w, "\r"+line)
	p.current = line
}

// Notice prints a permanent line. The in-place status line is cleared
// first and repainted by the next Status call.
func (p *Printer) Notice(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearLocked()
	fmt.Fprint(p.w, "\r"+p.stamp(message)+"\n")
	p.current = ""
}

// Close terminates the status line so the shell prompt starts fresh.
func (p *Printer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != "" {
		fmt.Fprint(p.w, "\n")
		p.current = ""
	}
}

// stamp prefixes a message with the wall-clock time, matching the
// "[15:04:05] message" shape.
func (p *Printer) stamp(message string) string {
	return "[" + p.now().Format("15:04:05") + "] " + message
}

// currentTail returns the current line without its timestamp prefix.
func (p *Printer) currentTail() string {
	if len(p.current) < 11 {
		return p.current
	}
	return p.current[11:]
}

// clearLocked blanks out the currently painted status line.
func (p *Printer) clearLocked() {
	if p.current != "" {
		fmt.Fprint(p.w, "\r"+strings.Repeat(" ", len(p.current)))
	}
}
