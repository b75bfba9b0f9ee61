package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/lvgo/internal/domain"
	"github.com/dkeye/lvgo/internal/node"
	"github.com/dkeye/lvgo/internal/player"
	"github.com/dkeye/lvgo/internal/voice"
	"github.com/rs/zerolog/log"
)

// JoinVoiceChannel runs the voice handshake for a guild and binds a player
// to the selected node. Whatever fails, nothing of the guild is left behind.
func (o *Orchestrator) JoinVoiceChannel(ctx context.Context, opts domain.VoiceChannelOptions) (*player.Player, error) {
	return o.join(ctx, opts, "")
}

// join is JoinVoiceChannel trying the node named prefer first.
func (o *Orchestrator) join(ctx context.Context, opts domain.VoiceChannelOptions, prefer string) (*player.Player, error) {
	if _, ok := o.Registry.Player(opts.GuildID); ok {
		return nil, fmt.Errorf("guild %s: %w", opts.GuildID, domain.ErrConnectionExists)
	}
	conn := voice.New(opts, o.connector, o.opts.VoiceConnectionTimeout)
	if !o.Registry.AddConnection(conn) {
		return nil, fmt.Errorf("guild %s: %w", opts.GuildID, domain.ErrConnectionExists)
	}

	rollback := func() {
		if err := conn.Disconnect(); err != nil {
			log.Warn().Err(err).Str("module", "app.orch").Str("guild", opts.GuildID).Msg("leave during rollback failed")
		}
		o.Registry.RemoveConnection(opts.GuildID, conn)
	}

	if err := conn.Connect(ctx); err != nil {
		rollback()
		return nil, err
	}
	if !o.owns(conn) {
		rollback()
		return nil, fmt.Errorf("guild %s: %w", opts.GuildID, domain.ErrConnectionClosed)
	}

	n := o.pickNode(conn, prefer)
	if n == nil {
		rollback()
		return nil, fmt.Errorf("guild %s: %w", opts.GuildID, domain.ErrNoNodes)
	}

	p := o.opts.NewPlayer(opts.GuildID, n)
	if err := p.SendServerUpdate(ctx, conn); err != nil {
		p.Clean()
		rollback()
		return nil, err
	}
	if !o.Registry.AddPlayer(p) {
		p.Clean()
		rollback()
		return nil, fmt.Errorf("guild %s: %w", opts.GuildID, domain.ErrConnectionExists)
	}
	// A leave may have run while the player was being set up.
	if !o.owns(conn) {
		if cur, ok := o.Registry.Player(opts.GuildID); ok && cur == p {
			o.Registry.RemovePlayer(opts.GuildID)
		}
		p.Clean()
		rollback()
		return nil, fmt.Errorf("guild %s: %w", opts.GuildID, domain.ErrConnectionClosed)
	}
	o.watch(p, conn)

	log.Info().Str("module", "app.orch").Str("guild", opts.GuildID).Str("node", n.Name()).Msg("joined voice channel")
	return p, nil
}

// owns reports whether conn is still the registered connection of its guild.
func (o *Orchestrator) owns(conn *voice.Connection) bool {
	cur, ok := o.Registry.Connection(conn.GuildID())
	return ok && cur == conn
}

func (o *Orchestrator) pickNode(conn *voice.Connection, prefer string) *node.Node {
	if prefer != "" {
		if n, ok := o.Registry.Node(prefer); ok && n.State() == node.Connected {
			return n
		}
	}
	return o.IdealNode(conn)
}

// watch keeps pushing fresh credentials of conn to p until p is cleaned.
func (o *Orchestrator) watch(p *player.Player, conn *voice.Connection) {
	remove := conn.OnUpdate(func(u voice.Update) {
		switch u {
		case voice.SessionReady:
			ctx, cancel := context.WithTimeout(o.ctx, o.opts.RestTimeout)
			defer cancel()
			if err := p.SendServerUpdate(ctx, conn); err != nil {
				p.Fail(err)
				o.bus.Publish(Error{GuildID: p.GuildID(), Err: err})
			}
		case voice.SessionEndpointMissing:
			o.debug(fmt.Sprintf("voice server update for %s has no endpoint", p.GuildID()))
		case voice.SessionDisconnected:
			o.debug(fmt.Sprintf("left voice channel in %s", p.GuildID()))
		}
	})
	p.OnClean(remove)
}

// LeaveVoiceChannel disconnects and destroys everything of a guild. A failed
// remote destroy is logged and ignored; the registries are always cleared.
func (o *Orchestrator) LeaveVoiceChannel(ctx context.Context, guildID string) error {
	var leaveErr error
	if conn, ok := o.Registry.RemoveConnection(guildID, nil); ok {
		leaveErr = conn.Disconnect()
	}
	if p, ok := o.Registry.RemovePlayer(guildID); ok {
		if err := p.Destroy(ctx); err != nil {
			log.Debug().Err(err).Str("module", "app.orch").Str("guild", guildID).Msg("destroy failed, cleaning anyway")
		}
		p.Clean()
	}
	log.Info().Str("module", "app.orch").Str("guild", guildID).Msg("left voice channel")
	return leaveErr
}

func (o *Orchestrator) Connection(guildID string) (*voice.Connection, bool) {
	return o.Registry.Connection(guildID)
}

func (o *Orchestrator) Player(guildID string) (*player.Player, bool) {
	return o.Registry.Player(guildID)
}

func (o *Orchestrator) Players() []*player.Player {
	return o.Registry.Players()
}
