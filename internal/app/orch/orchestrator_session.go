package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/lvgo/internal/domain"
	"github.com/dkeye/lvgo/internal/metrics"
	"github.com/dkeye/lvgo/internal/player"
	"github.com/rs/zerolog/log"
)

type ImportOptions struct {
	// PreferOriginalNode tries the exported node first when it is connected.
	PreferOriginalNode bool
}

// ResumeSessions rejoins every session of the batch one after another and
// returns the players that came back, each announced with SessionResumed. A
// failing session is reported with SessionResumeFailed and Error and leaves
// nothing behind; the rest of the batch goes on.
func (o *Orchestrator) ResumeSessions(ctx context.Context, sessions []domain.ResumeSession) []*player.Player {
	var resumed []*player.Player
	for _, s := range sessions {
		if ctx.Err() != nil {
			break
		}
		if _, ok := o.Registry.Connection(s.GuildID); ok {
			o.debug(fmt.Sprintf("guild %s already connected, skipping resume", s.GuildID))
			metrics.SessionResumes.WithLabelValues("skipped").Inc()
			continue
		}
		p, err := o.resumeOne(ctx, s)
		if err != nil {
			log.Warn().Err(err).Str("module", "app.orch").Str("guild", s.GuildID).Msg("session resume failed")
			metrics.SessionResumes.WithLabelValues("failed").Inc()
			o.bus.Publish(SessionResumeFailed{GuildID: s.GuildID, Err: err})
			o.bus.Publish(Error{GuildID: s.GuildID, Err: err})
			continue
		}
		metrics.SessionResumes.WithLabelValues("ok").Inc()
		o.bus.Publish(SessionResumed{GuildID: s.GuildID, Player: p})
		resumed = append(resumed, p)
	}
	log.Info().Str("module", "app.orch").Int("requested", len(sessions)).Int("resumed", len(resumed)).Msg("sessions resumed")
	return resumed
}

func (o *Orchestrator) resumeOne(ctx context.Context, s domain.ResumeSession) (*player.Player, error) {
	p, err := o.join(ctx, domain.VoiceChannelOptions{
		GuildID:   s.GuildID,
		ShardID:   s.ShardID,
		ChannelID: s.ChannelID,
		Deaf:      s.Deaf,
		Mute:      s.Mute,
	}, s.NodeName)
	if err != nil {
		return nil, err
	}
	if s.PlayerState == nil {
		return p, nil
	}
	if err := p.Update(ctx, s.PlayerState.Options(), false); err != nil {
		if leaveErr := o.LeaveVoiceChannel(ctx, s.GuildID); leaveErr != nil {
			log.Debug().Err(leaveErr).Str("module", "app.orch").Str("guild", s.GuildID).Msg("leave after failed state apply")
		}
		return nil, fmt.Errorf("apply player state: %w", err)
	}
	return p, nil
}

// ExportSessions snapshots every guild that has both a channel and a player
// on a node, ordered by guild id.
func (o *Orchestrator) ExportSessions() []domain.SerializedSession {
	out := []domain.SerializedSession{}
	for _, conn := range o.Registry.Connections() {
		channelID := conn.ChannelID()
		if channelID == "" {
			continue
		}
		p, ok := o.Registry.Player(conn.GuildID())
		if !ok || p.Node() == nil {
			continue
		}
		st := p.Snapshot()
		out = append(out, domain.SerializedSession{
			GuildID:   conn.GuildID(),
			ChannelID: channelID,
			ShardID:   conn.ShardID(),
			NodeName:  p.Node().Name(),
			Player: domain.SerializedPlayer{
				Track:    st.Track,
				Position: st.Position,
				Paused:   st.Paused,
				Volume:   st.Volume,
				Filters:  st.Filters,
				PartyID:  p.PartyID(),
			},
			Connection: domain.SerializedConnection{
				Deaf:      conn.Deaf(),
				Mute:      conn.Mute(),
				SessionID: optional(conn.SessionID()),
				Region:    optional(conn.Region()),
			},
		})
	}
	return out
}

// ImportSessions resumes previously exported sessions.
func (o *Orchestrator) ImportSessions(ctx context.Context, sessions []domain.SerializedSession, opts ImportOptions) []*player.Player {
	batch := make([]domain.ResumeSession, 0, len(sessions))
	for _, s := range sessions {
		batch = append(batch, s.ToResume(opts.PreferOriginalNode))
	}
	return o.ResumeSessions(ctx, batch)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
