// Package voice runs the per guild voice handshake with the gateway.
package voice

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/dkeye/lvgo/internal/core"
	"github.com/dkeye/lvgo/internal/domain"
	"github.com/rs/zerolog/log"
)

type State int

const (
	Idle State = iota
	AwaitingCredentials
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingCredentials:
		return "awaiting_credentials"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Update is what listeners are told about.
type Update int

const (
	// SessionReady fires when the handshake completes and again whenever
	// fresh credentials arrive afterwards.
	SessionReady Update = iota
	SessionEndpointMissing
	SessionDisconnected
)

func (u Update) String() string {
	switch u {
	case SessionReady:
		return "session_ready"
	case SessionEndpointMissing:
		return "session_endpoint_missing"
	case SessionDisconnected:
		return "session_disconnected"
	}
	return fmt.Sprintf("update(%d)", int(u))
}

const DefaultTimeout = 15 * time.Second

type Connection struct {
	guildID   string
	shardID   int
	connector core.Connector
	timeout   time.Duration

	mu        sync.Mutex
	channelID string
	deaf      bool
	mute      bool
	sessionID string
	token     string
	endpoint  string
	region    string
	hasState  bool
	hasServer bool
	joined    bool
	state     State
	ready     chan struct{}
	// stop ends the pending Connect without success.
	stop      chan struct{}
	listeners map[int]func(Update)
	nextID    int
}

func New(opts domain.VoiceChannelOptions, connector core.Connector, timeout time.Duration) *Connection {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Connection{
		guildID:   opts.GuildID,
		shardID:   opts.ShardID,
		channelID: opts.ChannelID,
		deaf:      opts.Deaf,
		mute:      opts.Mute,
		connector: connector,
		timeout:   timeout,
		listeners: make(map[int]func(Update)),
	}
}

func (c *Connection) GuildID() string { return c.guildID }

func (c *Connection) ShardID() int { return c.shardID }

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) ChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelID
}

func (c *Connection) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Connection) Region() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.region
}

func (c *Connection) Deaf() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deaf
}

func (c *Connection) Mute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mute
}

// Credentials is the voice payload a node needs to join the call.
func (c *Connection) Credentials() domain.PlayerVoice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.PlayerVoice{Token: c.token, Endpoint: c.endpoint, SessionID: c.sessionID}
}

// OnUpdate registers fn and returns a func removing it. Listeners run on the
// goroutine delivering the gateway event.
func (c *Connection) OnUpdate(fn func(Update)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Connection) notify(u Update) {
	c.mu.Lock()
	fns := make([]func(Update), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	log.Debug().Str("module", "voice").Str("guild", c.guildID).Str("update", u.String()).Msg("connection update")
	for _, fn := range fns {
		fn(u)
	}
}

// Connect asks the gateway to join and waits until both credential halves
// have arrived. On timeout the connection goes back to Idle and may be
// connected again. Disconnect or a newer Connect ends the wait with
// ErrConnectionClosed.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.stopLocked()
	c.hasState, c.hasServer = false, false
	c.state = AwaitingCredentials
	c.joined = true
	ready, stop := make(chan struct{}), make(chan struct{})
	c.ready, c.stop = ready, stop
	channelID, deaf, mute := c.channelID, c.deaf, c.mute
	c.mu.Unlock()

	log.Debug().Str("module", "voice").Str("guild", c.guildID).Str("channel", channelID).Msg("requesting voice channel")
	if err := c.connector.SendVoiceStateRequest(c.guildID, c.shardID, channelID, deaf, mute); err != nil {
		c.abort(ready, Failed)
		return fmt.Errorf("send voice state: %w", err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-ready:
		log.Info().Str("module", "voice").Str("guild", c.guildID).Str("channel", channelID).Msg("voice connection ready")
		return nil
	case <-stop:
		return fmt.Errorf("guild %s: %w", c.guildID, domain.ErrConnectionClosed)
	case <-ctx.Done():
		c.abort(ready, Idle)
		return ctx.Err()
	case <-timer.C:
		c.abort(ready, Idle)
		log.Warn().Str("module", "voice").Str("guild", c.guildID).Dur("timeout", c.timeout).Msg("voice handshake timed out")
		return fmt.Errorf("guild %s: %w", c.guildID, domain.ErrHandshakeTimeout)
	}
}

// abort ends the attempt owning ready unless it already succeeded.
func (c *Connection) abort(ready chan struct{}, to State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready != ready || c.state == Ready {
		return
	}
	c.state = to
	c.ready, c.stop = nil, nil
}

// stopLocked releases a Connect still waiting for credentials.
func (c *Connection) stopLocked() {
	if c.stop != nil {
		close(c.stop)
	}
	c.ready, c.stop = nil, nil
}

// completeLocked moves an open attempt to Ready once both halves are in.
func (c *Connection) completeLocked() bool {
	if c.state != AwaitingCredentials || !c.hasState || !c.hasServer {
		return false
	}
	c.state = Ready
	if c.ready != nil {
		close(c.ready)
	}
	c.ready, c.stop = nil, nil
	return true
}

// SetStateUpdate stores the session half of the handshake.
func (c *Connection) SetStateUpdate(ev core.VoiceStateEvent) {
	c.mu.Lock()
	if ev.ChannelID == "" {
		wasReady := c.state == Ready
		c.hasState = false
		if wasReady {
			c.state = Idle
			c.joined = false
		}
		c.mu.Unlock()
		if wasReady {
			c.notify(SessionDisconnected)
		}
		return
	}

	if c.channelID != ev.ChannelID {
		log.Debug().Str("module", "voice").Str("guild", c.guildID).Str("from", c.channelID).Str("to", ev.ChannelID).Msg("channel moved")
	}
	changed := c.sessionID != ev.SessionID
	c.channelID = ev.ChannelID
	c.deaf = ev.SelfDeaf
	c.mute = ev.SelfMute
	c.sessionID = ev.SessionID
	c.hasState = ev.SessionID != ""

	refresh := c.state == Ready && changed
	done := c.completeLocked()
	c.mu.Unlock()

	if done || refresh {
		c.notify(SessionReady)
	}
}

// SetServerUpdate stores the token and endpoint half. Every delivery while
// Ready is passed on so players can push the new credentials.
func (c *Connection) SetServerUpdate(ev core.VoiceServerEvent) {
	if ev.Endpoint == "" {
		c.notify(SessionEndpointMissing)
		return
	}

	c.mu.Lock()
	if c.region != "" && c.endpoint != ev.Endpoint {
		log.Info().Str("module", "voice").Str("guild", c.guildID).Str("endpoint", ev.Endpoint).Msg("voice server changed")
	}
	c.token = ev.Token
	c.endpoint = ev.Endpoint
	c.region = regionOf(ev.Endpoint)
	c.hasServer = true

	refresh := c.state == Ready
	done := c.completeLocked()
	c.mu.Unlock()

	if done || refresh {
		c.notify(SessionReady)
	}
}

// Disconnect leaves the channel. Calling it again is a no-op.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	joined := c.joined
	c.joined = false
	c.state = Idle
	c.hasState, c.hasServer = false, false
	c.stopLocked()
	c.mu.Unlock()

	if !joined {
		return nil
	}
	log.Debug().Str("module", "voice").Str("guild", c.guildID).Msg("leaving voice channel")
	if err := c.connector.SendVoiceLeaveRequest(c.guildID, c.shardID); err != nil {
		return fmt.Errorf("send voice leave: %w", err)
	}
	return nil
}

func (c *Connection) SetDeaf(deaf bool) error {
	c.mu.Lock()
	c.deaf = deaf
	c.mu.Unlock()
	return c.resend()
}

func (c *Connection) SetMute(mute bool) error {
	c.mu.Lock()
	c.mute = mute
	c.mu.Unlock()
	return c.resend()
}

// Move switches the bot to another channel of the same guild.
func (c *Connection) Move(channelID string) error {
	c.mu.Lock()
	c.channelID = channelID
	c.mu.Unlock()
	return c.resend()
}

func (c *Connection) resend() error {
	c.mu.Lock()
	channelID, deaf, mute := c.channelID, c.deaf, c.mute
	c.mu.Unlock()
	if err := c.connector.SendVoiceStateRequest(c.guildID, c.shardID, channelID, deaf, mute); err != nil {
		return fmt.Errorf("send voice state: %w", err)
	}
	return nil
}

// regionOf turns "us-east123.discord.media:443" into "us-east".
func regionOf(endpoint string) string {
	host, _, _ := strings.Cut(endpoint, ".")
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, host)
}
