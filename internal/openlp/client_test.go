package openlp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenLP serves the three remote API endpoints with canned JSON.
type fakeOpenLP struct {
	poll        string
	liveText    string
	serviceList string

	listRequests int
}

func (f *fakeOpenLP) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/poll", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"results": %s}`, f.poll)
	})
	mux.HandleFunc("/api/controller/live/text", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"results": %s}`, f.liveText)
	})
	mux.HandleFunc("/api/service/list", func(w http.ResponseWriter, r *http.Request) {
		f.listRequests++
		fmt.Fprintf(w, `{"results": %s}`, f.serviceList)
	})
	return mux
}

func newTestClient(t *testing.T, fake *fakeOpenLP) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient("not a url at all")
	assert.Error(t, err)

	_, err = NewClient("")
	assert.Error(t, err)
}

func TestFetchCurrent_ShowingSong(t *testing.T) {
	t.Parallel()

	fake := &fakeOpenLP{
		poll: `{"item": "song-1", "slide": 1, "blank": false, "theme": false, "display": false}`,
		liveText: `{"item": "song-1", "slides": [
			{"tag": "V1", "text": "Amazing grace, how sweet the sound", "selected": false},
			{"tag": "V2", "text": "'Twas grace that taught my heart to fear", "selected": true}
		]}`,
		serviceList: `{"items": [{"id": "song-1", "title": "Amazing Grace", "plugin": "songs"}]}`,
	}
	client := newTestClient(t, fake)

	state, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ScreenShowing, state.Kind)
	assert.Equal(t, "'Twas grace that taught my heart to fear", state.Content.Body)
	assert.Equal(t, "Amazing Grace", state.Content.Footer)
	assert.Equal(t, "Amazing Grace", state.Title)
	assert.Equal(t, 2, state.SlideCount)
}

func TestFetchCurrent_SlideIndexFallback(t *testing.T) {
	t.Parallel()

	// No slide carries the selected flag; the poll index decides.
	fake := &fakeOpenLP{
		poll: `{"item": "song-1", "slide": 0}`,
		liveText: `{"item": "song-1", "slides": [
			{"tag": "V1", "text": "first slide"},
			{"tag": "V2", "text": "second slide"}
		]}`,
		serviceList: `{"items": [{"id": "song-1", "title": "Amazing Grace", "plugin": "songs"}]}`,
	}
	client := newTestClient(t, fake)

	state, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first slide", state.Content.Body)
}

func TestFetchCurrent_SlideIndexOutOfRange(t *testing.T) {
	t.Parallel()

	fake := &fakeOpenLP{
		poll:        `{"item": "song-1", "slide": 9}`,
		liveText:    `{"item": "song-1", "slides": [{"tag": "V1", "text": "only slide"}]}`,
		serviceList: `{"items": [{"id": "song-1", "title": "Amazing Grace", "plugin": "songs"}]}`,
	}
	client := newTestClient(t, fake)

	state, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScreenShowing, state.Kind)
	assert.Equal(t, "", state.Content.Body)
}

func TestFetchCurrent_BibleFooter(t *testing.T) {
	t.Parallel()

	fake := &fakeOpenLP{
		poll:        `{"item": "bible-1", "slide": 0}`,
		liveText:    `{"item": "bible-1", "slides": [{"text": "For God so loved the world", "selected": true}]}`,
		serviceList: `{"items": [{"id": "bible-1", "title": "John 3:16-17 NIV", "plugin": "bibles"}]}`,
	}
	client := newTestClient(t, fake)

	state, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "For God so loved the world", state.Content.Body)
	assert.Equal(t, "John 3:16-17 NIV", state.Content.Footer)
}

func TestFetchCurrent_CustomWithoutReference(t *testing.T) {
	t.Parallel()

	fake := &fakeOpenLP{
		poll:        `{"item": "custom-1", "slide": 0}`,
		liveText:    `{"item": "custom-1", "slides": [{"text": "Welcome to the service", "selected": true}]}`,
		serviceList: `{"items": [{"id": "custom-1", "title": "Welcome Loop", "plugin": "custom"}]}`,
	}
	client := newTestClient(t, fake)

	state, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Welcome to the service", state.Content.Body)
	assert.Equal(t, "", state.Content.Footer)
}

func TestFetchCurrent_NonTextPluginHasNoOverlay(t *testing.T) {
	t.Parallel()

	fake := &fakeOpenLP{
		poll:        `{"item": "pres-1", "slide": 0}`,
		liveText:    `{"item": "pres-1", "slides": [{"text": "notes", "selected": true}]}`,
		serviceList: `{"items": [{"id": "pres-1", "title": "Sermon.pptx", "plugin": "presentations"}]}`,
	}
	client := newTestClient(t, fake)

	state, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScreenShowing, state.Kind)
	assert.Equal(t, DisplayContent{}, state.Content)
	assert.Equal(t, 0, state.SlideCount)
}

func TestFetchCurrent_Blanked(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		poll string
		want BlankMode
	}{
		{"blacked out", `{"item": "song-1", "blank": true}`, BlankToBlack},
		{"blanked to theme", `{"item": "song-1", "theme": true}`, BlankToTheme},
		{"showing desktop", `{"item": "song-1", "display": true}`, BlankToDesktop},
		{"desktop wins over black", `{"item": "song-1", "display": true, "blank": true}`, BlankToDesktop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, &fakeOpenLP{poll: tt.poll})

			state, err := client.FetchCurrent(context.Background())
			require.NoError(t, err)
			assert.Equal(t, ScreenBlanked, state.Kind)
			assert.Equal(t, tt.want, state.Blank)
		})
	}
}

func TestFetchCurrent_BlankedKeepsItemTitle(t *testing.T) {
	t.Parallel()

	fake := &fakeOpenLP{
		poll:        `{"item": "song-1", "blank": true}`,
		serviceList: `{"items": [{"id": "song-1", "title": "Amazing Grace", "plugin": "songs"}]}`,
	}
	client := newTestClient(t, fake)

	state, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScreenBlanked, state.Kind)
	assert.Equal(t, BlankToBlack, state.Blank)
	assert.Equal(t, "Amazing Grace", state.Title)
}

func TestFetchCurrent_BlankedWithoutServiceList(t *testing.T) {
	t.Parallel()

	// The service list cannot answer; the blanked state still comes
	// through, just without a title.
	fake := &fakeOpenLP{poll: `{"item": "song-1", "blank": true}`}
	client := newTestClient(t, fake)

	state, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScreenBlanked, state.Kind)
	assert.Empty(t, state.Title)
}

func TestFetchCurrent_NoLiveItem(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &fakeOpenLP{poll: `{"item": "", "slide": 0}`})

	state, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScreenShowing, state.Kind)
	assert.Equal(t, DisplayContent{}, state.Content)
}

func TestFetchCurrent_ItemChangedMidPoll(t *testing.T) {
	t.Parallel()

	fake := &fakeOpenLP{
		poll:     `{"item": "song-1", "slide": 0}`,
		liveText: `{"item": "song-2", "slides": [{"text": "different item", "selected": true}]}`,
	}
	client := newTestClient(t, fake)

	state, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScreenShowing, state.Kind)
	assert.Equal(t, DisplayContent{}, state.Content)
}

func TestFetchCurrent_ItemMissingFromServiceList(t *testing.T) {
	t.Parallel()

	fake := &fakeOpenLP{
		poll:        `{"item": "gone", "slide": 0}`,
		liveText:    `{"item": "gone", "slides": [{"text": "orphan", "selected": true}]}`,
		serviceList: `{"items": []}`,
	}
	client := newTestClient(t, fake)

	state, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DisplayContent{}, state.Content)
}

func TestFetchCurrent_ServiceListCached(t *testing.T) {
	t.Parallel()

	fake := &fakeOpenLP{
		poll:        `{"item": "song-1", "slide": 0}`,
		liveText:    `{"item": "song-1", "slides": [{"text": "line", "selected": true}]}`,
		serviceList: `{"items": [{"id": "song-1", "title": "Amazing Grace", "plugin": "songs"}]}`,
	}
	client := newTestClient(t, fake)

	for range 3 {
		_, err := client.FetchCurrent(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fake.listRequests)
}

func TestFetchCurrent_ConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client, err := NewClient(srv.URL, WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))
	require.NoError(t, err)

	state, err := client.FetchCurrent(context.Background())
	assert.Equal(t, ScreenUnknown, state.Kind)

	var connErr *ConnectivityError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "/api/poll", connErr.Endpoint)
}

func TestFetchCurrent_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = client.FetchCurrent(context.Background())
	var connErr *ConnectivityError
	require.ErrorAs(t, err, &connErr)
}

func TestFetchCurrent_MalformedEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"no_results": true}`)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = client.FetchCurrent(context.Background())
	var connErr *ConnectivityError
	require.ErrorAs(t, err, &connErr)
}

func TestFetchCurrent_MissingFieldsAreEmpty(t *testing.T) {
	t.Parallel()

	// A poll with nothing but an item id: no blank flags, no slide.
	fake := &fakeOpenLP{
		poll:        `{"item": "song-1"}`,
		liveText:    `{"item": "song-1", "slides": []}`,
		serviceList: `{"items": [{"id": "song-1", "title": "Amazing Grace", "plugin": "songs"}]}`,
	}
	client := newTestClient(t, fake)

	state, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScreenShowing, state.Kind)
	assert.Equal(t, "", state.Content.Body)
	assert.Equal(t, "Amazing Grace", state.Content.Footer)
}

func TestPing(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &fakeOpenLP{poll: `{"item": ""}`})
	require.NoError(t, client.Ping(context.Background()))

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	down, err := NewClient(srv.URL)
	require.NoError(t, err)
	assert.Error(t, down.Ping(context.Background()))
}

func TestConnectivityError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := &ConnectivityError{Endpoint: "/api/poll", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "/api/poll")
}
