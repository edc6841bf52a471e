// Package openlp provides a client for the OpenLP remote-control HTTP API.
//
// The client talks to the stage-view endpoints exposed by OpenLP's remote
// plugin (default port 4316) and reduces the live controller state to a
// ScreenState: the text the operator currently has on screen, or the fact
// that the output is blanked, or "unknown" when OpenLP cannot be reached.
package openlp

// DisplayContent is the text currently meant to be shown on the overlay.
// Empty strings mean "nothing to show".
type DisplayContent struct {
	// Body is the main text, typically a lyric slide or a verse.
	Body string
	// Footer is the secondary line, typically a song title or a
	// scripture reference.
	Footer string
}

// ScreenKind discriminates the variants of ScreenState.
type ScreenKind int

const (
	// ScreenUnknown means no successful poll has happened yet, or the
	// last poll failed.
	ScreenUnknown ScreenKind = iota
	// ScreenShowing means OpenLP is presenting the content carried in
	// ScreenState.Content.
	ScreenShowing
	// ScreenBlanked means the operator has hidden the live output.
	ScreenBlanked
)

// BlankMode describes how the operator hid the output. OpenLP can blank
// to black, to the slide theme, or show the desktop instead.
type BlankMode int

const (
	BlankNone BlankMode = iota
	BlankToBlack
	BlankToTheme
	BlankToDesktop
)

// String returns the operator-facing description of the blank mode,
// matching the wording OpenLP itself uses.
func (m BlankMode) String() string {
	switch m {
	case BlankToBlack:
		return "blacked out"
	case BlankToTheme:
		return "blanked to theme"
	case BlankToDesktop:
		return "showing desktop"
	default:
		return "not blanked"
	}
}

// ScreenState is the result of one poll of the remote API.
type ScreenState struct {
	Kind ScreenKind

	// Content is set when Kind == ScreenShowing.
	Content DisplayContent

	// Blank is set when Kind == ScreenBlanked.
	Blank BlankMode

	// Title is the title of the live service item, when known. It is
	// informational (console status line) and not part of the overlay.
	Title string

	// Slide and SlideCount locate the current slide within the live
	// item, when known. SlideCount == 0 means the item has no text
	// slides (for example a presentation or an image).
	Slide      int
	SlideCount int
}

// Showing builds a ScreenState for visible content.
func Showing(content DisplayContent) ScreenState {
	return ScreenState{Kind: ScreenShowing, Content: content}
}

// Blanked builds a ScreenState for a hidden output.
func Blanked(mode BlankMode) ScreenState {
	return ScreenState{Kind: ScreenBlanked, Blank: mode}
}

// Unknown builds the zero ScreenState.
func Unknown() ScreenState {
	return ScreenState{Kind: ScreenUnknown}
}

// ConnectivityError reports that OpenLP could not be reached or returned
// a response we could not use. It is transient: callers are expected to
// retry rather than abort.
type ConnectivityError struct {
	// Endpoint is the API path that failed, e.g. "/api/poll".
	Endpoint string
	// Err is the underlying transport or decode error.
	Err error
}

func (e *ConnectivityError) Error() string {
	if e.Err == nil {
		return "openlp: request to " + e.Endpoint + " failed"
	}
	return "openlp: request to " + e.Endpoint + " failed: " + e.Err.Error()
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}
