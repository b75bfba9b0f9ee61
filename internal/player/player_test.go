package player

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/lvgo/internal/domain"
	"github.com/dkeye/lvgo/internal/node"
	"github.com/dkeye/lvgo/internal/nodetest"
	"github.com/dkeye/lvgo/internal/rest"
	"github.com/stretchr/testify/require"
)

type creds domain.PlayerVoice

func (c creds) Credentials() domain.PlayerVoice { return domain.PlayerVoice(c) }

var voice = creds{Token: "tok", Endpoint: "us-east1.discord.media:443", SessionID: "s1"}

// downNode is a node that never connected.
type downNode struct{}

func (downNode) Name() string       { return "down" }
func (downNode) State() node.State  { return node.Reconnecting }
func (downNode) Rest() *rest.Client { return rest.New(domain.NodeOption{URL: "127.0.0.1:1"}, rest.Options{}) }

func startNode(t *testing.T, name string) (*node.Node, *nodetest.Server) {
	t.Helper()
	srv := nodetest.New()
	t.Cleanup(srv.Close)
	n := node.New(srv.Option(name), node.Options{
		UserID:            "bot",
		ReconnectInterval: time.Hour,
		RestTimeout:       time.Second,
	})
	t.Cleanup(n.Close)
	require.NoError(t, n.Connect(context.Background()))
	require.Eventually(t, func() bool { return n.State() == node.Connected }, 2*time.Second, 10*time.Millisecond)
	return n, srv
}

func TestUpdateTakesNodeAnswer(t *testing.T) {
	n, srv := startNode(t, "a")
	p := New("g1", n)
	ctx := context.Background()

	require.NoError(t, p.Update(ctx, domain.UpdatePlayerOptions{Volume: domain.Ptr(5000), Paused: domain.Ptr(true)}, false))
	st := p.Snapshot()
	require.Equal(t, 1000, st.Volume)
	require.True(t, st.Paused)

	require.NoError(t, p.PlayTrack(ctx, domain.UpdatePlayerTrack{Encoded: domain.Ptr("T1")}, false))
	require.NoError(t, p.SeekTo(ctx, 5000))
	st = p.Snapshot()
	require.Equal(t, "T1", *st.Track)
	require.Equal(t, int64(5000), st.Position)

	remote, ok := srv.Player("g1")
	require.True(t, ok)
	require.Equal(t, "T1", remote.Track.Encoded)

	require.NoError(t, p.StopTrack(ctx))
	require.Nil(t, p.Snapshot().Track)
}

func TestSetVolumeClamps(t *testing.T) {
	n, srv := startNode(t, "a")
	p := New("g1", n)

	require.NoError(t, p.SetVolume(context.Background(), -20))
	patches := srv.Patches("g1")
	require.Equal(t, 0, *patches[len(patches)-1].Volume)
	require.Equal(t, 0, p.Snapshot().Volume)
}

func TestFilters(t *testing.T) {
	n, _ := startNode(t, "a")
	p := New("g1", n)
	ctx := context.Background()

	require.NoError(t, p.SetFilters(ctx, domain.FilterOptions{Timescale: &domain.TimescaleSettings{Speed: domain.Ptr(1.5)}}))
	require.NoError(t, p.SetFilterVolume(ctx, 9))
	f := p.Snapshot().Filters
	require.Equal(t, 1.5, *f.Timescale.Speed)
	require.Equal(t, 5.0, *f.Volume)

	require.NoError(t, p.ClearFilters(ctx))
	require.Nil(t, p.Snapshot().Filters.Timescale)
}

func TestSendServerUpdateIsRepeatable(t *testing.T) {
	n, srv := startNode(t, "a")
	p := New("g1", n)
	ctx := context.Background()

	require.NoError(t, p.SendServerUpdate(ctx, voice))
	require.NoError(t, p.SendServerUpdate(ctx, voice))

	patches := srv.Patches("g1")
	require.Len(t, patches, 2)
	for _, patch := range patches {
		require.Equal(t, "tok", patch.Voice.Token)
		require.Nil(t, patch.Track)
	}
	remote, _ := srv.Player("g1")
	require.Equal(t, "s1", remote.Voice.SessionID)
	require.True(t, p.Connected())
}

func TestCommandsFailFastWithoutNode(t *testing.T) {
	p := New("g1", downNode{})
	ctx := context.Background()

	require.ErrorIs(t, p.SetPaused(ctx, true), domain.ErrNodeUnavailable)
	require.ErrorIs(t, p.SendServerUpdate(ctx, voice), domain.ErrNodeUnavailable)
	require.ErrorIs(t, p.Destroy(ctx), domain.ErrNodeUnavailable)
	_, err := p.CreateParty(ctx, true)
	require.ErrorIs(t, err, domain.ErrNodeUnavailable)

	cleaned := false
	p.OnClean(func() { cleaned = true })
	p.Clean()
	p.Clean()
	require.True(t, cleaned)
}

func TestDestroyFailureStillCleans(t *testing.T) {
	n, srv := startNode(t, "a")
	p := New("g1", n)
	ctx := context.Background()
	require.NoError(t, p.SendServerUpdate(ctx, voice))

	events, _ := p.Subscribe(8)
	srv.FailDelete(true)

	var restErr *rest.Error
	require.ErrorAs(t, p.Destroy(ctx), &restErr)
	require.Equal(t, 500, restErr.Status)

	p.Clean()
	_, open := <-events
	require.False(t, open)
}

func TestResumeReplaysCachedState(t *testing.T) {
	n, srv := startNode(t, "a")
	p := New("g1", n)
	ctx := context.Background()
	events, cancel := p.Subscribe(8)
	defer cancel()

	require.NoError(t, p.Update(ctx, domain.UpdatePlayerOptions{
		Track:    &domain.UpdatePlayerTrack{Encoded: domain.Ptr("T1")},
		Position: domain.Ptr(int64(5000)),
		Volume:   domain.Ptr(80),
	}, false))

	require.NoError(t, p.Resume(ctx, voice))

	patches := srv.Patches("g1")
	last := patches[len(patches)-1]
	require.Equal(t, "T1", *last.Track.Encoded)
	require.Equal(t, int64(5000), *last.Position)
	require.False(t, *last.Paused)
	require.Equal(t, 80, *last.Volume)
	require.Equal(t, "tok", last.Voice.Token)

	require.IsType(t, Resumed{}, <-events)
}

func TestMoveToAnotherNode(t *testing.T) {
	a, srvA := startNode(t, "a")
	b, srvB := startNode(t, "b")
	p := New("g1", a)
	ctx := context.Background()

	require.NoError(t, p.SendServerUpdate(ctx, voice))
	require.NoError(t, p.PlayTrack(ctx, domain.UpdatePlayerTrack{Encoded: domain.Ptr("T1")}, false))

	require.NoError(t, p.Move(ctx, b, voice))
	require.Equal(t, "b", p.Node().Name())

	remote, ok := srvB.Player("g1")
	require.True(t, ok)
	require.Equal(t, "T1", remote.Track.Encoded)
	_, ok = srvA.Player("g1")
	require.False(t, ok)
}

func TestMoveFailureKeepsOldNode(t *testing.T) {
	a, _ := startNode(t, "a")
	p := New("g1", a)

	require.ErrorIs(t, p.Move(context.Background(), downNode{}, voice), domain.ErrNodeUnavailable)
	require.Equal(t, "a", p.Node().Name())
}

func TestNodeMessages(t *testing.T) {
	p := New("g1", downNode{})
	events, cancel := p.Subscribe(8)
	defer cancel()

	p.OnPlayerUpdate(domain.PlayerStatus{Position: 1234, Connected: true, Ping: 42})
	require.Equal(t, int64(1234), p.Snapshot().Position)
	require.Equal(t, 42, p.Ping())
	require.IsType(t, Update{}, <-events)

	track := &domain.Track{Encoded: "T9"}
	p.OnPlayerEvent(node.PlayerEvent{Type: node.TrackStartEvent, GuildID: "g1", Track: track})
	require.Equal(t, TrackStart{Track: track}, <-events)
	require.Equal(t, "T9", *p.Snapshot().Track)

	p.OnPlayerEvent(node.PlayerEvent{Type: node.TrackEndEvent, GuildID: "g1", Track: track, Reason: "finished"})
	require.Equal(t, TrackEnd{Track: track, Reason: "finished"}, <-events)

	p.OnPlayerEvent(node.PlayerEvent{Type: node.TrackStuckEvent, GuildID: "g1", Track: track, ThresholdMs: 10000})
	require.Equal(t, TrackStuck{Track: track, ThresholdMs: 10000}, <-events)

	p.OnPlayerEvent(node.PlayerEvent{Type: node.WebSocketClosedEvent, GuildID: "g1", Code: 4014, Reason: "gone", ByRemote: true})
	require.Equal(t, WebSocketClosed{Code: 4014, Reason: "gone", ByRemote: true}, <-events)
}
