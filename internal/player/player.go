// Package player mirrors the remote playback state of one guild.
package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/lvgo/internal/domain"
	"github.com/dkeye/lvgo/internal/eventbus"
	"github.com/dkeye/lvgo/internal/node"
	"github.com/dkeye/lvgo/internal/rest"
	"github.com/rs/zerolog/log"
)

// Node is the part of a node session a player talks to.
type Node interface {
	Name() string
	State() node.State
	Rest() *rest.Client
}

// VoiceSource hands out the current voice credentials of a guild.
type VoiceSource interface {
	Credentials() domain.PlayerVoice
}

type Player struct {
	guildID string
	bus     *eventbus.Bus[Event]

	mu        sync.RWMutex
	node      Node
	track     *string
	position  int64
	paused    bool
	volume    int
	filters   domain.FilterOptions
	ping      int
	connected bool
	party     *Party
	cleanups  []func()
	cleaned   bool
}

func New(guildID string, n Node) *Player {
	return &Player{
		guildID: guildID,
		node:    n,
		volume:  100,
		bus:     eventbus.New[Event]("player." + guildID),
	}
}

func (p *Player) GuildID() string { return p.guildID }

func (p *Player) Node() Node {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.node
}

// Snapshot is the cached playback state.
func (p *Player) Snapshot() domain.PlayerState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var track *string
	if p.track != nil {
		t := *p.track
		track = &t
	}
	return domain.PlayerState{
		Track:    track,
		Position: p.position,
		Paused:   p.paused,
		Volume:   p.volume,
		Filters:  p.filters.Clone(),
	}
}

func (p *Player) Ping() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ping
}

func (p *Player) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

// Subscribe returns the player's event stream; it closes on Clean.
func (p *Player) Subscribe(buffer int) (<-chan Event, func()) {
	return p.bus.Subscribe(buffer)
}

// OnClean registers fn to run once when the player is cleaned.
func (p *Player) OnClean(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cleaned {
		go fn()
		return
	}
	p.cleanups = append(p.cleanups, fn)
}

func (p *Player) connectedNode() (Node, error) {
	p.mu.RLock()
	n := p.node
	p.mu.RUnlock()
	if n == nil || n.State() != node.Connected {
		return nil, fmt.Errorf("guild %s: %w", p.guildID, domain.ErrNodeUnavailable)
	}
	return n, nil
}

// Update sends a partial update. The node's answer replaces the cached state.
func (p *Player) Update(ctx context.Context, opts domain.UpdatePlayerOptions, noReplace bool) error {
	n, err := p.connectedNode()
	if err != nil {
		return err
	}
	remote, err := n.Rest().UpdatePlayer(ctx, p.guildID, opts, noReplace)
	if err != nil {
		return fmt.Errorf("update player %s: %w", p.guildID, err)
	}
	p.apply(remote)
	return nil
}

func (p *Player) apply(remote domain.RemotePlayer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.track = nil
	if remote.Track != nil {
		enc := remote.Track.Encoded
		p.track = &enc
	}
	p.position = remote.State.Position
	p.paused = remote.Paused
	p.volume = remote.Volume
	p.filters = remote.Filters.Clone()
	p.ping = remote.State.Ping
	p.connected = remote.State.Connected
}

// SendServerUpdate pushes the voice credentials of src to the node.
func (p *Player) SendServerUpdate(ctx context.Context, src VoiceSource) error {
	voice := src.Credentials()
	return p.Update(ctx, domain.UpdatePlayerOptions{Voice: &voice}, false)
}

func (p *Player) PlayTrack(ctx context.Context, track domain.UpdatePlayerTrack, noReplace bool) error {
	return p.Update(ctx, domain.UpdatePlayerOptions{Track: &track}, noReplace)
}

func (p *Player) StopTrack(ctx context.Context) error {
	return p.Update(ctx, domain.UpdatePlayerOptions{Track: &domain.UpdatePlayerTrack{}}, false)
}

func (p *Player) SeekTo(ctx context.Context, position int64) error {
	return p.Update(ctx, domain.UpdatePlayerOptions{Position: &position}, false)
}

func (p *Player) SetPaused(ctx context.Context, paused bool) error {
	return p.Update(ctx, domain.UpdatePlayerOptions{Paused: &paused}, false)
}

// SetVolume sets the player volume, 0 to 1000.
func (p *Player) SetVolume(ctx context.Context, volume int) error {
	volume = max(0, min(volume, 1000))
	return p.Update(ctx, domain.UpdatePlayerOptions{Volume: &volume}, false)
}

func (p *Player) SetFilters(ctx context.Context, filters domain.FilterOptions) error {
	return p.Update(ctx, domain.UpdatePlayerOptions{Filters: &filters}, false)
}

// SetFilterVolume changes only the volume filter, 0 to 5.
func (p *Player) SetFilterVolume(ctx context.Context, volume float64) error {
	p.mu.RLock()
	filters := p.filters.Clone()
	p.mu.RUnlock()
	filters.Volume = domain.Ptr(max(0, min(volume, 5)))
	return p.SetFilters(ctx, filters)
}

func (p *Player) ClearFilters(ctx context.Context) error {
	return p.SetFilters(ctx, domain.FilterOptions{})
}

// Resume replays voice and the whole cached state to the node.
func (p *Player) Resume(ctx context.Context, src VoiceSource) error {
	opts := p.Snapshot().Options()
	voice := src.Credentials()
	opts.Voice = &voice
	if err := p.Update(ctx, opts, false); err != nil {
		return err
	}
	log.Debug().Str("module", "player").Str("guild", p.guildID).Msg("player resumed")
	p.bus.Publish(Resumed{})
	return nil
}

// Move rebinds the player to another node and replays its state there.
// The old node is asked to drop the player when it is still reachable.
func (p *Player) Move(ctx context.Context, to Node, src VoiceSource) error {
	p.mu.Lock()
	from := p.node
	if from == to {
		p.mu.Unlock()
		return nil
	}
	p.node = to
	p.mu.Unlock()

	if err := p.Resume(ctx, src); err != nil {
		p.mu.Lock()
		p.node = from
		p.mu.Unlock()
		return fmt.Errorf("move %s to %s: %w", p.guildID, to.Name(), err)
	}

	if from != nil && from.State() == node.Connected {
		if err := from.Rest().DestroyPlayer(ctx, p.guildID); err != nil {
			log.Warn().Err(err).Str("module", "player").Str("guild", p.guildID).Str("node", from.Name()).Msg("old node kept the player")
		}
	}
	log.Info().Str("module", "player").Str("guild", p.guildID).Str("node", to.Name()).Msg("player moved")
	return nil
}

// Destroy removes the player on the node.
func (p *Player) Destroy(ctx context.Context) error {
	n, err := p.connectedNode()
	if err != nil {
		return err
	}
	if err := n.Rest().DestroyPlayer(ctx, p.guildID); err != nil {
		return fmt.Errorf("destroy player %s: %w", p.guildID, err)
	}
	return nil
}

// Clean releases local resources. It never talks to the node and is safe to
// call more than once.
func (p *Player) Clean() {
	p.mu.Lock()
	if p.cleaned {
		p.mu.Unlock()
		return
	}
	p.cleaned = true
	fns := p.cleanups
	p.cleanups = nil
	p.party = nil
	p.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	p.bus.Close()
}

// Fail publishes err to subscribers.
func (p *Player) Fail(err error) {
	log.Error().Err(err).Str("module", "player").Str("guild", p.guildID).Msg("player error")
	p.bus.Publish(Error{Err: err})
}

// OnPlayerUpdate ingests a position report from the node.
func (p *Player) OnPlayerUpdate(st domain.PlayerStatus) {
	p.mu.Lock()
	p.position = st.Position
	p.ping = st.Ping
	p.connected = st.Connected
	p.mu.Unlock()
	p.bus.Publish(Update{State: st})
}

// OnPlayerEvent ingests a playback event from the node.
func (p *Player) OnPlayerEvent(ev node.PlayerEvent) {
	switch ev.Type {
	case node.TrackStartEvent:
		if ev.Track != nil {
			p.mu.Lock()
			enc := ev.Track.Encoded
			p.track = &enc
			p.mu.Unlock()
		}
		p.bus.Publish(TrackStart{Track: ev.Track})
	case node.TrackEndEvent:
		p.bus.Publish(TrackEnd{Track: ev.Track, Reason: ev.Reason})
	case node.TrackExceptionEvent:
		var exc domain.Exception
		if ev.Exception != nil {
			exc = *ev.Exception
		}
		p.bus.Publish(TrackException{Track: ev.Track, Exception: exc})
	case node.TrackStuckEvent:
		p.bus.Publish(TrackStuck{Track: ev.Track, ThresholdMs: ev.ThresholdMs})
	case node.WebSocketClosedEvent:
		p.bus.Publish(WebSocketClosed{Code: ev.Code, Reason: ev.Reason, ByRemote: ev.ByRemote})
	default:
		log.Debug().Str("module", "player").Str("guild", p.guildID).Str("type", string(ev.Type)).Msg("unknown player event")
	}
}
