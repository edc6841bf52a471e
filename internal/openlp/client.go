package openlp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// StateFetcher is the read side of the remote API used by the poll loop.
// It is implemented by *Client and by test doubles.
type StateFetcher interface {
	FetchCurrent(ctx context.Context) (ScreenState, error)
}

// Ensure Client implements StateFetcher at compile time.
var _ StateFetcher = (*Client)(nil)

const (
	defaultTimeout   = 1 * time.Second
	defaultUserAgent = "slidebridge/0.1"
)

// Client talks to the OpenLP remote HTTP API.
//
// FetchCurrent issues between one and three GET requests per call: the
// cheap /api/poll endpoint always, the live-text endpoint when content is
// visible, and the service list only when the live item is not cached
// yet (item titles and plugins are immutable for a given item id, so
// caching them never changes the result).
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string

	mu   sync.Mutex
	meta map[string]itemMeta
}

// itemMeta is the per-item metadata from the service list that footer
// derivation needs.
type itemMeta struct {
	title  string
	plugin string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, mostly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithTimeout sets the per-request timeout. It should be shorter than
// the poll interval so a hung request never stacks up behind the next
// tick.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// NewClient builds a Client for the given base URL, e.g.
// "http://192.168.1.20:4316".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL %q must include scheme and host", baseURL)
	}

	c := &Client{
		baseURL:   parsed,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		meta:      make(map[string]itemMeta),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Wire types. OpenLP wraps every response in a {"results": ...} envelope
// and omits fields freely between versions, so everything is optional.

type pollResults struct {
	Item    string `json:"item"`
	Slide   int    `json:"slide"`
	Blank   bool   `json:"blank"`
	Theme   bool   `json:"theme"`
	Display bool   `json:"display"`
}

type liveSlide struct {
	Text     string `json:"text"`
	Tag      string `json:"tag"`
	Selected bool   `json:"selected"`
}

type liveTextResults struct {
	Item   string      `json:"item"`
	Slides []liveSlide `json:"slides"`
}

type serviceItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Plugin string `json:"plugin"`
}

type serviceListResults struct {
	Items []serviceItem `json:"items"`
}

// Ping verifies that the remote API answers at all. It is used to test a
// freshly entered URL before persisting it.
func (c *Client) Ping(ctx context.Context) error {
	var results pollResults
	return c.get(ctx, "/api/poll", &results)
}

// FetchCurrent polls OpenLP and reduces the response to a ScreenState.
//
// Transport failures, non-200 statuses, and undecodable envelopes return
// a *ConnectivityError. Responses that decode but carry unexpected shapes
// (a missing item, a stale slide index, an unknown plugin) degrade to
// empty content instead of failing, so the overlay goes dark rather than
// the bridge going down.
func (c *Client) FetchCurrent(ctx context.Context) (ScreenState, error) {
	var poll pollResults
	if err := c.get(ctx, "/api/poll", &poll); err != nil {
		return Unknown(), err
	}

	if mode := blankMode(poll); mode != BlankNone {
		state := Blanked(mode)
		if poll.Item != "" {
			// The title only feeds the status line, so a failed lookup
			// keeps the blanked state rather than failing the poll.
			if meta, err := c.lookupItem(ctx, poll.Item); err == nil {
				state.Title = meta.title
			}
		}
		return state, nil
	}

	if poll.Item == "" {
		// Nothing live.
		return Showing(DisplayContent{}), nil
	}

	var text liveTextResults
	if err := c.get(ctx, "/api/controller/live/text", &text); err != nil {
		return Unknown(), err
	}
	if text.Item != "" && text.Item != poll.Item {
		// The live item changed between the two requests. Skip this
		// cycle; the next poll will see a consistent pair.
		return Showing(DisplayContent{}), nil
	}

	meta, err := c.lookupItem(ctx, poll.Item)
	if err != nil {
		return Unknown(), err
	}

	state := ScreenState{
		Kind:       ScreenShowing,
		Title:      meta.title,
		Slide:      poll.Slide,
		SlideCount: len(text.Slides),
	}

	footer, overlay := footerFor(meta.plugin, meta.title)
	if !overlay {
		// Items from plugins like presentations or images carry no
		// usable text; leave the overlay empty.
		state.SlideCount = 0
		return state, nil
	}

	state.Content = DisplayContent{
		Body:   slideText(text.Slides, poll.Slide),
		Footer: footer,
	}
	return state, nil
}

// lookupItem returns the title and plugin of the given service item,
// fetching the service list only when the item is not cached yet.
func (c *Client) lookupItem(ctx context.Context, itemID string) (itemMeta, error) {
	c.mu.Lock()
	meta, ok := c.meta[itemID]
	c.mu.Unlock()
	if ok {
		return meta, nil
	}

	var list serviceListResults
	if err := c.get(ctx, "/api/service/list", &list); err != nil {
		return itemMeta{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta = make(map[string]itemMeta, len(list.Items))
	for _, item := range list.Items {
		c.meta[item.ID] = itemMeta{title: item.Title, plugin: item.Plugin}
	}
	return c.meta[itemID], nil
}

// blankMode maps the three blank flags from /api/poll to a BlankMode.
// Desktop wins over black wins over theme, matching the precedence the
// OpenLP stage view applies.
func blankMode(poll pollResults) BlankMode {
	switch {
	case poll.Display:
		return BlankToDesktop
	case poll.Blank:
		return BlankToBlack
	case poll.Theme:
		return BlankToTheme
	default:
		return BlankNone
	}
}

// slideText picks the text of the current slide: the one flagged
// selected, falling back to the poll's slide index. An index past the
// end of the list yields empty text.
func slideText(slides []liveSlide, index int) string {
	for _, s := range slides {
		if s.Selected {
			return s.Text
		}
	}
	if index >= 0 && index < len(slides) {
		return slides[index].Text
	}
	return ""
}

// footerFor derives the overlay footer from the item's plugin and title.
// Songs show their title; Bible and custom items show the leading
// scripture reference parsed from the title, if any. Items from other
// plugins produce no overlay at all.
func footerFor(plugin, title string) (footer string, overlay bool) {
	switch plugin {
	case "songs":
		return title, true
	case "bibles", "custom":
		return BibleReference(title), true
	default:
		return "", false
	}
}

// get issues one GET request and decodes the results envelope into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	u := *c.baseURL
	u.Path = path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &ConnectivityError{Endpoint: path, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &ConnectivityError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ConnectivityError{
			Endpoint: path,
			Err:      fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &ConnectivityError{Endpoint: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(envelope.Results) == 0 {
		return &ConnectivityError{Endpoint: path, Err: fmt.Errorf("response has no results")}
	}
	if err := json.Unmarshal(envelope.Results, out); err != nil {
		return &ConnectivityError{Endpoint: path, Err: fmt.Errorf("decode results: %w", err)}
	}
	return nil
}
