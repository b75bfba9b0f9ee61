package app

import (
	"sync"
	"testing"
	"time"

	"github.com/dkeye/lvgo/internal/core/mock"
	"github.com/dkeye/lvgo/internal/domain"
	"github.com/dkeye/lvgo/internal/node"
	"github.com/dkeye/lvgo/internal/player"
	"github.com/dkeye/lvgo/internal/voice"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestConnectionUniquePerGuild(t *testing.T) {
	r := NewRegistry()
	connector := mock.NewMockConnector(gomock.NewController(t))

	var wg sync.WaitGroup
	var mu sync.Mutex
	added := 0
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := voice.New(domain.VoiceChannelOptions{GuildID: "g1", ChannelID: "c1"}, connector, time.Second)
			if r.AddConnection(c) {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, added)
	require.Len(t, r.Connections(), 1)

	stale := voice.New(domain.VoiceChannelOptions{GuildID: "g1"}, connector, time.Second)
	_, ok := r.RemoveConnection("g1", stale)
	require.False(t, ok)
	_, ok = r.Connection("g1")
	require.True(t, ok)

	_, ok = r.RemoveConnection("g1", nil)
	require.True(t, ok)
	_, ok = r.Connection("g1")
	require.False(t, ok)
}

func TestPlayerUniquePerGuild(t *testing.T) {
	r := NewRegistry()
	n := node.New(domain.NodeOption{Name: "a"}, node.Options{})

	require.True(t, r.AddPlayer(player.New("g1", n)))
	require.False(t, r.AddPlayer(player.New("g1", n)))
	require.True(t, r.AddPlayer(player.New("g2", n)))

	other := node.New(domain.NodeOption{Name: "b"}, node.Options{})
	require.True(t, r.AddPlayer(player.New("g3", other)))

	on := r.PlayersOn(n)
	require.Len(t, on, 2)
	require.Equal(t, "g1", on[0].GuildID())
	require.Equal(t, "g2", on[1].GuildID())
}

func TestNodesByName(t *testing.T) {
	r := NewRegistry()
	b := node.New(domain.NodeOption{Name: "b"}, node.Options{})
	a := node.New(domain.NodeOption{Name: "a"}, node.Options{})

	require.True(t, r.AddNode(b))
	require.True(t, r.AddNode(a))
	require.False(t, r.AddNode(node.New(domain.NodeOption{Name: "a"}, node.Options{})))
	require.Equal(t, []*node.Node{a, b}, r.Nodes())

	stale := node.New(domain.NodeOption{Name: "a"}, node.Options{})
	_, ok := r.RemoveNode("a", stale)
	require.False(t, ok)
	_, ok = r.RemoveNode("a", a)
	require.True(t, ok)
	require.Equal(t, []*node.Node{b}, r.Nodes())
}

func TestLeastPenaltyNeedsConnectedNode(t *testing.T) {
	nodes := []*node.Node{
		node.New(domain.NodeOption{Name: "a"}, node.Options{}),
		node.New(domain.NodeOption{Name: "b"}, node.Options{}),
	}
	require.Nil(t, LeastPenalty{}.Select(nodes, nil))
	require.Nil(t, LeastPenalty{}.Select(nil, nil))
}

func TestNodeSelectorFunc(t *testing.T) {
	b := node.New(domain.NodeOption{Name: "b"}, node.Options{})
	var sel NodeSelector = NodeSelectorFunc(func(nodes []*node.Node, _ *voice.Connection) *node.Node {
		return nodes[len(nodes)-1]
	})
	require.Same(t, b, sel.Select([]*node.Node{node.New(domain.NodeOption{Name: "a"}, node.Options{}), b}, nil))
}
