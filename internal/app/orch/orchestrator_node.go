package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/lvgo/internal/domain"
	"github.com/dkeye/lvgo/internal/metrics"
	"github.com/dkeye/lvgo/internal/node"
	"github.com/dkeye/lvgo/internal/player"
	"github.com/dkeye/lvgo/internal/voice"
	"github.com/rs/zerolog/log"
)

const nodeEventBuffer = 256

// AddNode registers a node and starts connecting it.
func (o *Orchestrator) AddNode(ctx context.Context, opt domain.NodeOption) (*node.Node, error) {
	userID := o.UserID()
	if userID == "" {
		return nil, domain.ErrNotReady
	}
	if _, ok := o.Registry.Node(opt.Name); ok {
		return nil, fmt.Errorf("node %s: %w", opt.Name, domain.ErrNodeExists)
	}

	n := node.New(opt, node.Options{
		UserID:            userID,
		ClientName:        o.opts.ClientName,
		UserAgent:         o.opts.UserAgent,
		Resume:            o.opts.Resume,
		ResumeTimeout:     o.opts.ResumeTimeout,
		ResumeByLibrary:   o.opts.ResumeByLibrary,
		ReconnectTries:    o.opts.ReconnectTries,
		ReconnectInterval: o.opts.ReconnectInterval,
		RestTimeout:       o.opts.RestTimeout,
		Dialer:            o.opts.Dialer,
		HTTPClient:        o.opts.HTTPClient,
		NewRest:           o.opts.NewRest,
	})
	if !o.Registry.AddNode(n) {
		return nil, fmt.Errorf("node %s: %w", opt.Name, domain.ErrNodeExists)
	}

	events, _ := n.Subscribe(nodeEventBuffer)
	o.workers.Go(func() { o.pump(n, events) })

	if err := n.Connect(ctx); err != nil {
		o.Registry.RemoveNode(opt.Name, n)
		n.Close()
		return nil, err
	}
	return n, nil
}

// RemoveNode disconnects a node and forgets it. Its players stay bound to it.
func (o *Orchestrator) RemoveNode(name string) error {
	n, ok := o.Registry.RemoveNode(name, nil)
	if !ok {
		return fmt.Errorf("node %s: %w", name, domain.ErrNodeNotFound)
	}
	n.Close()
	metrics.ForgetNode(name)
	return nil
}

func (o *Orchestrator) Node(name string) (*node.Node, bool) {
	return o.Registry.Node(name)
}

func (o *Orchestrator) Nodes() []*node.Node {
	return o.Registry.Nodes()
}

// IdealNode asks the selector for a node. conn may be nil.
func (o *Orchestrator) IdealNode(conn *voice.Connection) *node.Node {
	return o.opts.Selector.Select(o.Registry.Nodes(), conn)
}

// pump forwards the events of one node until its stream closes.
func (o *Orchestrator) pump(n *node.Node, events <-chan node.Event) {
	for ev := range events {
		if d, ok := ev.(node.Disconnect); ok {
			d.Players = len(o.Registry.PlayersOn(n))
			ev = d
		}
		o.bus.Publish(NodeEvent{Node: n.Name(), Event: ev})
		switch e := ev.(type) {
		case node.PlayerUpdate:
			if p := o.boundPlayer(n, e.GuildID); p != nil {
				p.OnPlayerUpdate(e.State)
			}
		case node.PlayerEvent:
			if p := o.boundPlayer(n, e.GuildID); p != nil {
				p.OnPlayerEvent(e)
			}
		case node.Ready:
			if e.LibraryResume {
				o.workers.Go(func() { o.replay(n) })
			}
		case node.Disconnect:
			o.nodeLost(n)
		}
	}
}

func (o *Orchestrator) boundPlayer(n *node.Node, guildID string) *player.Player {
	p, ok := o.Registry.Player(guildID)
	if !ok || p.Node() != player.Node(n) {
		return nil
	}
	return p
}

// replay pushes cached state of every player on n back to it.
func (o *Orchestrator) replay(n *node.Node) {
	players := o.Registry.PlayersOn(n)
	if len(players) == 0 {
		return
	}
	log.Info().Str("module", "app.orch").Str("node", n.Name()).Int("players", len(players)).Msg("replaying players")

	limiter := o.replayLimiter()
	for _, p := range players {
		if err := limiter.Wait(o.ctx); err != nil {
			return
		}
		conn, ok := o.Registry.Connection(p.GuildID())
		if !ok || conn.State() != voice.Ready {
			o.debug(fmt.Sprintf("skipping replay of %s: no ready connection", p.GuildID()))
			continue
		}
		ctx, cancel := context.WithTimeout(o.ctx, o.opts.RestTimeout)
		err := p.Resume(ctx, conn)
		cancel()
		if err != nil {
			p.Fail(err)
			o.bus.Publish(Error{GuildID: p.GuildID(), Err: err})
		}
	}
}

// nodeLost handles a node whose retry budget ran out.
func (o *Orchestrator) nodeLost(n *node.Node) {
	o.Registry.RemoveNode(n.Name(), n)
	metrics.ForgetNode(n.Name())

	players := o.Registry.PlayersOn(n)
	if len(players) == 0 {
		return
	}

	if !o.opts.MoveOnDisconnect {
		for _, p := range players {
			p.Fail(fmt.Errorf("node %s lost: %w", n.Name(), domain.ErrNodeUnavailable))
		}
		return
	}

	moved, failed := 0, 0
	for _, p := range players {
		if err := o.movePlayer(p); err != nil {
			failed++
			metrics.PlayersMoved.WithLabelValues(n.Name(), "failed").Inc()
			p.Fail(err)
			o.bus.Publish(Error{GuildID: p.GuildID(), Err: err})
			continue
		}
		moved++
		metrics.PlayersMoved.WithLabelValues(n.Name(), "ok").Inc()
	}
	log.Warn().Str("module", "app.orch").Str("node", n.Name()).Int("moved", moved).Int("failed", failed).Msg("node lost")
	o.bus.Publish(PlayersMoved{Node: n.Name(), Moved: moved, Failed: failed})
}

func (o *Orchestrator) movePlayer(p *player.Player) error {
	conn, ok := o.Registry.Connection(p.GuildID())
	if !ok {
		return fmt.Errorf("move %s: no voice connection", p.GuildID())
	}
	target := o.IdealNode(conn)
	if target == nil {
		return fmt.Errorf("move %s: %w", p.GuildID(), domain.ErrNoNodes)
	}
	ctx, cancel := context.WithTimeout(o.ctx, o.opts.RestTimeout)
	defer cancel()
	return p.Move(ctx, target, conn)
}
