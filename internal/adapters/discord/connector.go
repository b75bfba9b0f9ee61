// Package discord connects the orchestrator to the Discord gateway.
package discord

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/dkeye/lvgo/internal/core"
	"github.com/rs/zerolog/log"
)

// Intents the gateway sessions need for voice signaling.
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

// Connector sends voice state requests over the shard a guild lives on and
// feeds gateway voice events to a sink.
type Connector struct {
	shards []*discordgo.Session

	mu      sync.Mutex
	readyFn func(userID string)
	seen    map[int]bool
}

// New takes one session per shard, indexed by shard id.
func New(shards []*discordgo.Session) *Connector {
	return &Connector{shards: shards, seen: make(map[int]bool)}
}

func (c *Connector) shard(shardID int) (*discordgo.Session, error) {
	if shardID < 0 || shardID >= len(c.shards) {
		return nil, fmt.Errorf("unknown shard %d", shardID)
	}
	return c.shards[shardID], nil
}

func (c *Connector) SendVoiceStateRequest(guildID string, shardID int, channelID string, deaf, mute bool) error {
	s, err := c.shard(shardID)
	if err != nil {
		return err
	}
	return s.ChannelVoiceJoinManual(guildID, channelID, mute, deaf)
}

// SendVoiceLeaveRequest sends a voice state with no channel.
func (c *Connector) SendVoiceLeaveRequest(guildID string, shardID int) error {
	s, err := c.shard(shardID)
	if err != nil {
		return err
	}
	return s.ChannelVoiceJoinManual(guildID, "", false, false)
}

// Listen registers gateway handlers on every shard. ready runs once, when
// the first shard learns the bot user id.
func (c *Connector) Listen(sink core.VoiceSink, ready func(userID string)) {
	c.mu.Lock()
	c.readyFn = ready
	c.mu.Unlock()

	for _, s := range c.shards {
		s.AddHandler(c.onReady)
		s.AddHandler(func(_ *discordgo.Session, ev *discordgo.VoiceStateUpdate) { c.onVoiceState(sink, ev) })
		s.AddHandler(func(_ *discordgo.Session, ev *discordgo.VoiceServerUpdate) { c.onVoiceServer(sink, ev) })
	}
}

func (c *Connector) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if r.User == nil {
		return
	}
	c.mu.Lock()
	first := len(c.seen) == 0
	c.seen[s.ShardID] = true
	fn := c.readyFn
	c.mu.Unlock()

	log.Info().Str("module", "adapters.discord").Int("shard", s.ShardID).Str("user", r.User.ID).Msg("gateway ready")
	if first && fn != nil {
		fn(r.User.ID)
	}
}

func (c *Connector) onVoiceState(sink core.VoiceSink, ev *discordgo.VoiceStateUpdate) {
	if ev.VoiceState == nil || ev.GuildID == "" {
		return
	}
	sink.HandleVoiceState(core.VoiceStateEvent{
		GuildID:   ev.GuildID,
		UserID:    ev.UserID,
		ChannelID: ev.ChannelID,
		SessionID: ev.SessionID,
		SelfDeaf:  ev.SelfDeaf,
		SelfMute:  ev.SelfMute,
	})
}

func (c *Connector) onVoiceServer(sink core.VoiceSink, ev *discordgo.VoiceServerUpdate) {
	sink.HandleVoiceServer(core.VoiceServerEvent{
		GuildID:  ev.GuildID,
		Token:    ev.Token,
		Endpoint: ev.Endpoint,
	})
}

var _ core.Connector = (*Connector)(nil)
