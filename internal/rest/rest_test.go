package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/lvgo/internal/domain"
	"github.com/stretchr/testify/require"
)

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

type recorded struct {
	method string
	path   string
	query  map[string]string
	header http.Header
	body   string
}

func reply(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// recorder answers every request with status/body and keeps the last one.
func recorder(t *testing.T, status int, body string) (*Client, *recorded) {
	t.Helper()
	last := &recorded{}
	client := New(domain.NodeOption{Name: "main", URL: "node:2333", Auth: "pass"}, Options{
		UserAgent: "lvgo-test",
		SessionID: func() string { return "s1" },
		HTTPClient: doerFunc(func(r *http.Request) (*http.Response, error) {
			last.method = r.Method
			last.path = r.URL.Path
			last.header = r.Header.Clone()
			last.query = map[string]string{}
			for k := range r.URL.Query() {
				last.query[k] = r.URL.Query().Get(k)
			}
			if r.Body != nil {
				data, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				last.body = string(data)
			}
			return reply(status, body), nil
		}),
	})
	return client, last
}

func TestFetchSendsHeaders(t *testing.T) {
	client, last := recorder(t, http.StatusOK, `{"type":"EMPTY","tracks":[]}`)

	res, err := client.Resolve(context.Background(), "ytsearch:never gonna")
	require.NoError(t, err)
	require.Equal(t, domain.LoadEmpty, res.Type)

	require.Equal(t, http.MethodGet, last.method)
	require.Equal(t, "/g1/tracks/resolve", last.path)
	require.Equal(t, "ytsearch:never gonna", last.query["identifier"])
	require.Equal(t, "pass", last.header.Get("Authorization"))
	require.Equal(t, "lvgo-test", last.header.Get("User-Agent"))
	require.Empty(t, last.header.Get("Content-Type"))
}

func TestFetchSecureScheme(t *testing.T) {
	var seen string
	client := New(domain.NodeOption{Name: "tls", URL: "node:443", Secure: true}, Options{
		HTTPClient: doerFunc(func(r *http.Request) (*http.Response, error) {
			seen = r.URL.String()
			return reply(http.StatusNoContent, ""), nil
		}),
	})
	require.NoError(t, client.SkipQueue(context.Background(), "g1"))
	require.Equal(t, "https://node:443/g1/sessions//players/g1/queue/skip", seen)
}

func TestFetchNodeError(t *testing.T) {
	client, _ := recorder(t, http.StatusBadRequest,
		`{"timestamp":1,"status":400,"error":"Bad Request","message":"volume out of range","path":"/g1/sessions/s1/players/g1"}`)

	_, err := client.UpdatePlayer(context.Background(), "g1", domain.UpdatePlayerOptions{}, false)
	var restErr *Error
	require.ErrorAs(t, err, &restErr)
	require.Equal(t, http.StatusBadRequest, restErr.Status)
	require.Equal(t, "volume out of range", restErr.Message)
	require.Contains(t, err.Error(), "400")
}

func TestFetchUnknownErrorBody(t *testing.T) {
	client, _ := recorder(t, http.StatusBadGateway, "<html>bad gateway</html>")

	_, err := client.Stats(context.Background())
	var restErr *Error
	require.ErrorAs(t, err, &restErr)
	require.Equal(t, http.StatusBadGateway, restErr.Status)
	require.Equal(t, "Unknown Error", restErr.Reason)
	require.Equal(t, "/stats", restErr.Path)
}

func TestFetchTimeout(t *testing.T) {
	client := New(domain.NodeOption{Name: "slow", URL: "node:2333"}, Options{
		Timeout: 20 * time.Millisecond,
		HTTPClient: doerFunc(func(r *http.Request) (*http.Response, error) {
			<-r.Context().Done()
			return nil, r.Context().Err()
		}),
	})
	_, err := client.Info(context.Background())
	require.ErrorIs(t, err, domain.ErrRequestTimeout)
}

func TestPlayerNotFound(t *testing.T) {
	client, last := recorder(t, http.StatusNotFound,
		`{"timestamp":1,"status":404,"error":"Not Found","message":"Player not found","path":"/g1/sessions/s1/players/g9"}`)

	p, err := client.Player(context.Background(), "g9")
	require.NoError(t, err)
	require.Nil(t, p)
	require.Equal(t, "/g1/sessions/s1/players/g9", last.path)
}

func TestUpdatePlayerNoReplace(t *testing.T) {
	client, last := recorder(t, http.StatusOK, `{"guildId":"g1","volume":50}`)

	vol := 50
	_, err := client.UpdatePlayer(context.Background(), "g1", domain.UpdatePlayerOptions{Volume: &vol}, true)
	require.NoError(t, err)
	require.Equal(t, http.MethodPatch, last.method)
	require.Equal(t, "true", last.query["noReplace"])
	require.Equal(t, "application/json", last.header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.body), &body))
	require.EqualValues(t, 50, body["volume"])
}

func TestUpdateSession(t *testing.T) {
	client, last := recorder(t, http.StatusOK, `{"resuming":true,"timeout":60}`)

	info, err := client.UpdateSession(context.Background(), true, 60)
	require.NoError(t, err)
	require.True(t, info.Resuming)
	require.Equal(t, "/g1/sessions/s1", last.path)
	require.JSONEq(t, `{"resuming":true,"timeout":60}`, last.body)
}

func TestQueueEndpoints(t *testing.T) {
	ctx := context.Background()
	client, last := recorder(t, http.StatusNoContent, "")
	track := domain.Track{Encoded: "QAAA", Info: domain.TrackInfo{Title: "t"}}

	cases := []struct {
		name   string
		call   func() error
		method string
		path   string
		body   string
	}{
		{"add", func() error { return client.AddQueue(ctx, "g1", []domain.Track{track}) },
			http.MethodPost, "/g1/sessions/s1/players/g1/queue", ""},
		{"prepend", func() error { return client.PrependQueue(ctx, "g1", []domain.Track{track}) },
			http.MethodPost, "/g1/sessions/s1/players/g1/queue/prepend", ""},
		{"move", func() error { return client.MoveQueue(ctx, "g1", 3, 0) },
			http.MethodPost, "/g1/sessions/s1/players/g1/queue/move", `{"from":3,"to":0}`},
		{"swap", func() error { return client.SwapQueue(ctx, "g1", 1, 2) },
			http.MethodPost, "/g1/sessions/s1/players/g1/queue/swap", `{"indexA":1,"indexB":2}`},
		{"remove range", func() error { return client.RemoveQueue(ctx, "g1", 0, 4) },
			http.MethodDelete, "/g1/sessions/s1/players/g1/queue", `{"start":0,"end":4}`},
		{"remove item", func() error { return client.RemoveQueueItem(ctx, "g1", 7) },
			http.MethodDelete, "/g1/sessions/s1/players/g1/queue/7", ""},
		{"replay", func() error { return client.ReplayHistory(ctx, "g1", 2, domain.ReplayNext) },
			http.MethodPost, "/g1/sessions/s1/players/g1/history/replay", `{"index":2,"mode":"next"}`},
		{"clear history", func() error { return client.ClearHistory(ctx, "g1") },
			http.MethodDelete, "/g1/sessions/s1/players/g1/history", ""},
		{"repeat", func() error { return client.SetRepeatMode(ctx, "g1", domain.RepeatQueue) },
			http.MethodPost, "/g1/sessions/s1/players/g1/repeat", `{"mode":"queue"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.call())
			require.Equal(t, tc.method, last.method)
			require.Equal(t, tc.path, last.path)
			if tc.body != "" {
				require.JSONEq(t, tc.body, last.body)
			}
		})
	}
}

func TestQueuePaging(t *testing.T) {
	client, last := recorder(t, http.StatusOK, `{"total":1,"page":1,"tracks":[{"encoded":"QAAA","info":{"title":"t"}}]}`)

	q, err := client.Queue(context.Background(), "g1", 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, q.Total)
	require.Len(t, q.Tracks, 1)
	require.Equal(t, "1", last.query["page"])
	require.Equal(t, "50", last.query["limit"])

	_, err = client.History(context.Background(), "g1", 3, 10)
	require.NoError(t, err)
	require.Equal(t, "/g1/sessions/s1/players/g1/history", last.path)
	require.Equal(t, "3", last.query["page"])
	require.Equal(t, "10", last.query["limit"])
}

func TestInvalidateCacheEscapesIdentifier(t *testing.T) {
	client, last := recorder(t, http.StatusNoContent, "")

	require.NoError(t, client.InvalidateCache(context.Background(), "a b", domain.CacheMetadata))
	require.Equal(t, http.MethodDelete, last.method)
	require.Equal(t, "/g1/cache/a b", last.path)
	require.Equal(t, "metadata", last.query["scope"])
}

func TestPartyAbsent(t *testing.T) {
	client, _ := recorder(t, http.StatusOK, `{}`)

	party, err := client.Party(context.Background(), "g1")
	require.NoError(t, err)
	require.Nil(t, party)
}
