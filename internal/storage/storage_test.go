package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkeye/lvgo/internal/domain"
	"github.com/keshon/datastore"
	"github.com/stretchr/testify/require"
)

var saved = []domain.SerializedSession{{
	GuildID:   "g1",
	ChannelID: "C1",
	NodeName:  "main",
	Player: domain.SerializedPlayer{
		Track:    domain.Ptr("T1"),
		Position: 5000,
		Volume:   80,
	},
	Connection: domain.SerializedConnection{Deaf: true, SessionID: domain.Ptr("s1")},
}}

func TestSessionsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "sessions.json")

	s, err := New(context.Background(), path, time.Minute)
	require.NoError(t, err)
	got, err := s.Sessions()
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, s.SaveSessions(saved))
	got, err = s.Sessions()
	require.NoError(t, err)
	require.Equal(t, saved, got)
	require.NoError(t, s.Close())

	s, err = New(context.Background(), path, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	got, err = s.Sessions()
	require.NoError(t, err)
	require.Equal(t, saved, got)

	require.NoError(t, s.ClearSessions())
	got, err = s.Sessions()
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSaveFlushesOnInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, err := New(context.Background(), path, 20*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.SaveSessions(saved))
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && len(data) > 2
	}, time.Second, 10*time.Millisecond)
}

func TestWritesAfterClose(t *testing.T) {
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "sessions.json"), time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.SaveSessions(nil), datastore.ErrClosed)
	require.NoError(t, s.Close())
}
