package loop

import "github.com/slidebridge/slidebridge/internal/openlp"

// Reduce decides what the text layer should show next, given the last
// content written, the latest poll result, and whether the operator has
// suspended the overlay.
//
// The overlay is empty whenever it is suspended, the screen is blanked,
// or the remote state is unknown; otherwise it mirrors the polled
// content. changed reports whether next differs from prev, i.e. whether
// the file needs rewriting.
//
// Reduce is pure: no I/O, no hidden state.
func Reduce(prev openlp.DisplayContent, poll openlp.ScreenState, suspended bool) (next openlp.DisplayContent, changed bool) {
	if !suspended && poll.Kind == openlp.ScreenShowing {
		next = poll.Content
	}
	return next, next != prev
}
