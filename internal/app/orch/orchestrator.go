// Package orch ties nodes, voice connections and players together.
package orch

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/lvgo/internal/app"
	"github.com/dkeye/lvgo/internal/core"
	"github.com/dkeye/lvgo/internal/eventbus"
	"github.com/dkeye/lvgo/internal/node"
	"github.com/dkeye/lvgo/internal/player"
	"github.com/dkeye/lvgo/internal/rest"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"
)

type Options struct {
	Resume                 bool
	ResumeTimeout          time.Duration
	ResumeByLibrary        bool
	ReconnectTries         int
	ReconnectInterval      time.Duration
	RestTimeout            time.Duration
	MoveOnDisconnect       bool
	UserAgent              string
	ClientName             string
	VoiceConnectionTimeout time.Duration
	// ReplayRate bounds library side replays per second; zero means unbounded.
	ReplayRate float64

	Selector   app.NodeSelector
	NewPlayer  app.PlayerFactory
	NewRest    app.RestFactory
	HTTPClient rest.Doer
	Dialer     *websocket.Dialer
}

func DefaultOptions() Options {
	return Options{
		ResumeTimeout:          30 * time.Second,
		ReconnectTries:         3,
		ReconnectInterval:      5 * time.Second,
		RestTimeout:            60 * time.Second,
		UserAgent:              "lvgo (https://github.com/dkeye/lvgo)",
		ClientName:             "lvgo",
		VoiceConnectionTimeout: 15 * time.Second,
		ReplayRate:             10,
	}
}

type Orchestrator struct {
	Registry *app.Registry

	opts      Options
	connector core.Connector
	bus       *eventbus.Bus[Event]
	ctx       context.Context
	cancel    context.CancelFunc
	workers   conc.WaitGroup

	mu     sync.RWMutex
	userID string
}

func New(connector core.Connector, opts Options) *Orchestrator {
	if opts.Selector == nil {
		opts.Selector = app.LeastPenalty{}
	}
	if opts.NewPlayer == nil {
		opts.NewPlayer = app.DefaultPlayerFactory
	}
	if opts.NewRest == nil {
		opts.NewRest = app.DefaultRestFactory
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		Registry:  app.NewRegistry(),
		opts:      opts,
		connector: connector,
		bus:       eventbus.New[Event]("app.orch"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetUserID sets the bot user id. Nodes can only be added afterwards.
func (o *Orchestrator) SetUserID(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.userID = id
}

func (o *Orchestrator) UserID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.userID
}

// Subscribe returns the orchestrator event stream.
func (o *Orchestrator) Subscribe(buffer int) (<-chan Event, func()) {
	return o.bus.Subscribe(buffer)
}

func (o *Orchestrator) debug(msg string) {
	log.Debug().Str("module", "app.orch").Msg(msg)
	o.bus.Publish(Debug{Message: msg})
}

func (o *Orchestrator) replayLimiter() *rate.Limiter {
	if o.opts.ReplayRate <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(o.opts.ReplayRate), 1)
}

// HandleVoiceState routes the session half of a handshake to its connection.
// Events about other users are ignored.
func (o *Orchestrator) HandleVoiceState(ev core.VoiceStateEvent) {
	if ev.UserID != o.UserID() {
		return
	}
	if conn, ok := o.Registry.Connection(ev.GuildID); ok {
		conn.SetStateUpdate(ev)
	}
}

func (o *Orchestrator) HandleVoiceServer(ev core.VoiceServerEvent) {
	if conn, ok := o.Registry.Connection(ev.GuildID); ok {
		conn.SetServerUpdate(ev)
	}
}

// Close disconnects every node and stops background work. Players and
// connections are left alone so they can be exported first.
func (o *Orchestrator) Close() {
	o.cancel()
	var wg conc.WaitGroup
	for _, n := range o.Registry.Nodes() {
		wg.Go(n.Close)
	}
	wg.Wait()
	o.workers.Wait()
	o.bus.Close()
	log.Info().Str("module", "app.orch").Msg("orchestrator closed")
}

var _ core.VoiceSink = (*Orchestrator)(nil)

// Event is published on the orchestrator bus.
type Event interface {
	orchEvent()
}

// NodeEvent is a node event tagged with the node's name.
type NodeEvent struct {
	Node  string
	Event node.Event
}

// PlayersMoved follows the loss of a node when players are moved away.
type PlayersMoved struct {
	Node   string
	Moved  int
	Failed int
}

// SessionResumed is published for every guild a resume batch brought back.
type SessionResumed struct {
	GuildID string
	Player  *player.Player
}

type SessionResumeFailed struct {
	GuildID string
	Err     error
}

type Debug struct {
	Message string
}

type Error struct {
	GuildID string
	Err     error
}

func (NodeEvent) orchEvent()           {}
func (PlayersMoved) orchEvent()        {}
func (SessionResumed) orchEvent()      {}
func (SessionResumeFailed) orchEvent() {}
func (Debug) orchEvent()               {}
func (Error) orchEvent()               {}
