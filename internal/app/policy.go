package app

import (
	"github.com/dkeye/lvgo/internal/domain"
	"github.com/dkeye/lvgo/internal/node"
	"github.com/dkeye/lvgo/internal/player"
	"github.com/dkeye/lvgo/internal/rest"
	"github.com/dkeye/lvgo/internal/voice"
)

// NodeSelector picks the node a guild should play on. nodes is the whole
// registry ordered by name; conn is nil when no connection is involved.
// Returning nil means no node can take the guild.
type NodeSelector interface {
	Select(nodes []*node.Node, conn *voice.Connection) *node.Node
}

type NodeSelectorFunc func(nodes []*node.Node, conn *voice.Connection) *node.Node

func (f NodeSelectorFunc) Select(nodes []*node.Node, conn *voice.Connection) *node.Node {
	return f(nodes, conn)
}

// LeastPenalty picks the connected node with the lowest load score.
type LeastPenalty struct{}

func (LeastPenalty) Select(nodes []*node.Node, _ *voice.Connection) *node.Node {
	var best *node.Node
	bestScore := 0
	for _, n := range nodes {
		if n.State() != node.Connected {
			continue
		}
		score := n.Penalties()
		if best == nil || score < bestScore {
			best, bestScore = n, score
		}
	}
	return best
}

// PlayerFactory builds the player of a guild.
type PlayerFactory func(guildID string, n player.Node) *player.Player

// RestFactory builds the REST client of a node.
type RestFactory func(opt domain.NodeOption, opts rest.Options) *rest.Client

var (
	DefaultPlayerFactory PlayerFactory = player.New
	DefaultRestFactory   RestFactory   = rest.New
)
