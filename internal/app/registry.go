package app

import (
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/lvgo/internal/metrics"
	"github.com/dkeye/lvgo/internal/node"
	"github.com/dkeye/lvgo/internal/player"
	"github.com/dkeye/lvgo/internal/voice"
	"github.com/rs/zerolog/log"
)

// Registry owns nodes by name and connections and players by guild id.
// At most one connection and one player exist per guild.
type Registry struct {
	mu          sync.RWMutex
	nodes       map[string]*node.Node
	connections map[string]*voice.Connection
	players     map[string]*player.Player
}

func NewRegistry() *Registry {
	return &Registry{
		nodes:       make(map[string]*node.Node),
		connections: make(map[string]*voice.Connection),
		players:     make(map[string]*player.Player),
	}
}

// AddNode registers n unless the name is taken.
func (r *Registry) AddNode(n *node.Node) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[n.Name()]; ok {
		return false
	}
	r.nodes[n.Name()] = n
	log.Info().Str("module", "app.registry").Str("node", n.Name()).Msg("added node")
	return true
}

func (r *Registry) Node(name string) (*node.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[name]
	return n, ok
}

// RemoveNode drops the node if name still refers to n. A nil n matches any.
func (r *Registry) RemoveNode(name string, n *node.Node) (*node.Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.nodes[name]
	if !ok || (n != nil && cur != n) {
		return nil, false
	}
	delete(r.nodes, name)
	log.Info().Str("module", "app.registry").Str("node", name).Msg("removed node")
	return cur, true
}

// Nodes returns every node ordered by name.
func (r *Registry) Nodes() []*node.Node {
	r.mu.RLock()
	out := make([]*node.Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *node.Node) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}

// AddConnection registers c unless its guild already has one.
func (r *Registry) AddConnection(c *voice.Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.connections[c.GuildID()]; ok {
		return false
	}
	r.connections[c.GuildID()] = c
	metrics.VoiceConnections.Set(float64(len(r.connections)))
	return true
}

func (r *Registry) Connection(guildID string) (*voice.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connections[guildID]
	return c, ok
}

// RemoveConnection drops the guild's connection if it is still c. A nil c
// matches any.
func (r *Registry) RemoveConnection(guildID string, c *voice.Connection) (*voice.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.connections[guildID]
	if !ok || (c != nil && cur != c) {
		return nil, false
	}
	delete(r.connections, guildID)
	metrics.VoiceConnections.Set(float64(len(r.connections)))
	return cur, true
}

func (r *Registry) Connections() []*voice.Connection {
	r.mu.RLock()
	out := make([]*voice.Connection, 0, len(r.connections))
	for _, c := range r.connections {
		out = append(out, c)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *voice.Connection) int { return strings.Compare(a.GuildID(), b.GuildID()) })
	return out
}

// AddPlayer registers p unless its guild already has one.
func (r *Registry) AddPlayer(p *player.Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[p.GuildID()]; ok {
		return false
	}
	r.players[p.GuildID()] = p
	metrics.Players.Set(float64(len(r.players)))
	return true
}

func (r *Registry) Player(guildID string) (*player.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[guildID]
	return p, ok
}

func (r *Registry) RemovePlayer(guildID string) (*player.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[guildID]
	if ok {
		delete(r.players, guildID)
		metrics.Players.Set(float64(len(r.players)))
	}
	return p, ok
}

func (r *Registry) Players() []*player.Player {
	r.mu.RLock()
	out := make([]*player.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *player.Player) int { return strings.Compare(a.GuildID(), b.GuildID()) })
	return out
}

// PlayersOn returns the players bound to n.
func (r *Registry) PlayersOn(n player.Node) []*player.Player {
	all := r.Players()
	out := all[:0]
	for _, p := range all {
		if p.Node() == n {
			out = append(out, p)
		}
	}
	return out
}
