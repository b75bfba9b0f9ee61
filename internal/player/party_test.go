package player

import (
	"context"
	"testing"

	"github.com/dkeye/lvgo/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestPartyLifecycle(t *testing.T) {
	n, _ := startNode(t, "a")
	ctx := context.Background()
	host := New("g1", n)
	guest := New("g2", n)

	require.Nil(t, host.PartyID())

	pt, err := host.CreateParty(ctx, true)
	require.NoError(t, err)
	require.True(t, pt.IsHost())
	require.Equal(t, 1, pt.Size())
	require.Equal(t, pt.ID, *host.PartyID())

	joined, err := guest.JoinParty(ctx, pt.ID)
	require.NoError(t, err)
	require.False(t, joined.IsHost())
	require.Equal(t, 2, joined.Size())

	ok, err := pt.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, pt.Size())
	require.Equal(t, "g2", pt.Members()[0].GuildID)

	require.NoError(t, pt.SetSync(ctx, false))
	require.False(t, pt.SyncEnabled())

	require.NoError(t, host.LeaveParty(ctx))
	require.Nil(t, host.Party())

	ok, err = joined.Refresh(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPartyFollowsPlayerNode(t *testing.T) {
	a, _ := startNode(t, "a")
	b, _ := startNode(t, "b")
	ctx := context.Background()
	host := New("g1", a)
	require.NoError(t, host.SendServerUpdate(ctx, voice))

	pt, err := host.CreateParty(ctx, false)
	require.NoError(t, err)

	require.NoError(t, host.Move(ctx, b, voice))
	// b never heard of the party
	ok, err := pt.Refresh(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	host.mu.Lock()
	host.node = downNode{}
	host.mu.Unlock()

	_, err = pt.Refresh(ctx)
	require.ErrorIs(t, err, domain.ErrNodeUnavailable)
	require.ErrorIs(t, pt.SetSync(ctx, true), domain.ErrNodeUnavailable)
	require.ErrorIs(t, host.LeaveParty(ctx), domain.ErrNodeUnavailable)
	require.Equal(t, pt, host.Party())
}
