package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/lvgo/internal/app/orch"
	"github.com/dkeye/lvgo/internal/config"
	"github.com/dkeye/lvgo/internal/core"
	"github.com/dkeye/lvgo/internal/core/mock"
	"github.com/dkeye/lvgo/internal/domain"
	"github.com/dkeye/lvgo/internal/node"
	"github.com/dkeye/lvgo/internal/nodetest"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setup(t *testing.T) (http.Handler, *orch.Orchestrator) {
	t.Helper()
	srv := nodetest.New()
	t.Cleanup(srv.Close)

	connector := mock.NewMockConnector(gomock.NewController(t))
	opts := orch.DefaultOptions()
	opts.RestTimeout = time.Second
	opts.ReconnectTries = 0
	o := orch.New(connector, opts)
	o.SetUserID("bot")
	t.Cleanup(o.Close)

	connector.EXPECT().
		SendVoiceStateRequest(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(guildID string, _ int, channelID string, deaf, mute bool) error {
			o.HandleVoiceServer(core.VoiceServerEvent{GuildID: guildID, Token: "tok", Endpoint: "us-east1.discord.media:443"})
			o.HandleVoiceState(core.VoiceStateEvent{GuildID: guildID, UserID: "bot", ChannelID: channelID, SessionID: "s-" + guildID})
			return nil
		}).AnyTimes()
	connector.EXPECT().SendVoiceLeaveRequest(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	n, err := o.AddNode(context.Background(), srv.Option("main"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return n.State() == node.Connected }, 2*time.Second, 10*time.Millisecond)

	return SetupRouter(&config.Config{Mode: "test"}, o), o
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestListNodes(t *testing.T) {
	h, _ := setup(t)

	w := do(t, h, http.MethodGet, "/api/nodes", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get(requestIDHeader))

	var nodes []NodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nodes))
	require.Len(t, nodes, 1)
	require.Equal(t, "main", nodes[0].Name)
	require.Equal(t, "connected", nodes[0].State)
	require.NotEmpty(t, nodes[0].SessionID)
}

func TestImportExportLeave(t *testing.T) {
	h, o := setup(t)

	body := `[{"guildId":"g1","channelId":"C1","shardId":0,"nodeName":"gone",
		"player":{"track":"T1","position":5000,"paused":false,"volume":80,"filters":{},"partyId":null},
		"connection":{"deaf":true,"mute":false,"sessionId":null,"region":null}}]`
	w := do(t, h, http.MethodPost, "/api/sessions/import?preferOriginalNode=true", body)
	require.Equal(t, http.StatusOK, w.Code)

	var imported ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &imported))
	require.Equal(t, ImportResponse{Requested: 1, Resumed: []string{"g1"}}, imported)

	w = do(t, h, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sessions []domain.SerializedSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	require.Equal(t, "main", sessions[0].NodeName)
	require.Equal(t, "T1", *sessions[0].Player.Track)
	require.Equal(t, 80, sessions[0].Player.Volume)

	w = do(t, h, http.MethodGet, "/api/players", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"guildId":"g1"`)

	w = do(t, h, http.MethodDelete, "/api/guilds/g1", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	_, ok := o.Player("g1")
	require.False(t, ok)
}

func TestImportRejectsGarbage(t *testing.T) {
	h, _ := setup(t)
	w := do(t, h, http.MethodPost, "/api/sessions/import", "{not json")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetrics(t *testing.T) {
	h, _ := setup(t)
	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "lvgo_node_state")
}

func TestClientRateLimiter(t *testing.T) {
	rl := NewClientRateLimiter(2, time.Hour)
	require.True(t, rl.Allow("10.0.0.1"))
	require.True(t, rl.Allow("10.0.0.1"))
	require.False(t, rl.Allow("10.0.0.1"))
	require.True(t, rl.Allow("10.0.0.2"))
}
