// Package node keeps the persistent session with one audio node.
package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/lvgo/internal/domain"
	"github.com/dkeye/lvgo/internal/eventbus"
	"github.com/dkeye/lvgo/internal/metrics"
	"github.com/dkeye/lvgo/internal/rest"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
)

var states = []string{"disconnected", "connecting", "connected", "reconnecting"}

func (s State) String() string {
	if int(s) < len(states) {
		return states[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Options struct {
	UserID     string
	ClientName string
	UserAgent  string

	// Resume asks the node to keep players alive for ResumeTimeout after a drop.
	Resume        bool
	ResumeTimeout time.Duration
	// ResumeByLibrary makes every Ready after the first session ask for a
	// client side replay, whether or not the node resumed.
	ResumeByLibrary bool

	ReconnectTries    int
	ReconnectInterval time.Duration
	RestTimeout       time.Duration

	Dialer     *websocket.Dialer
	HTTPClient rest.Doer
	// NewRest overrides how the REST client is built.
	NewRest func(domain.NodeOption, rest.Options) *rest.Client
}

type Node struct {
	opt  domain.NodeOption
	opts Options
	rest *rest.Client
	bus  *eventbus.Bus[Event]

	mu         sync.Mutex
	state      State
	sessionID  string
	reconnects int
	stats      *domain.Stats
	conn       *websocket.Conn
	// gen changes whenever the current socket stops being the one that counts.
	gen    int
	life   context.Context
	cancel context.CancelFunc
}

func New(opt domain.NodeOption, opts Options) *Node {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.ClientName == "" {
		opts.ClientName = "lvgo"
	}
	n := &Node{
		opt:  opt,
		opts: opts,
		bus:  eventbus.New[Event]("node." + opt.Name),
	}
	restOpts := rest.Options{
		UserAgent:  opts.UserAgent,
		Timeout:    opts.RestTimeout,
		SessionID:  n.SessionID,
		HTTPClient: opts.HTTPClient,
	}
	if opts.NewRest != nil {
		n.rest = opts.NewRest(opt, restOpts)
	} else {
		n.rest = rest.New(opt, restOpts)
	}
	metrics.SetNodeState(opt.Name, Disconnected.String(), states)
	return n
}

func (n *Node) Name() string { return n.opt.Name }

func (n *Node) Option() domain.NodeOption { return n.opt }

func (n *Node) Rest() *rest.Client { return n.rest }

// Subscribe returns a channel of node events. It is closed after Disconnect
// or Close.
func (n *Node) Subscribe(buffer int) (<-chan Event, func()) { return n.bus.Subscribe(buffer) }

func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *Node) SessionID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sessionID
}

// Stats returns the last stats message, if any arrived.
func (n *Node) Stats() (domain.Stats, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stats == nil {
		return domain.Stats{}, false
	}
	return *n.stats, true
}

func (n *Node) setState(s State) {
	n.state = s
	metrics.SetNodeState(n.opt.Name, s.String(), states)
}

func (n *Node) wsURL() string {
	scheme := "ws"
	if n.opt.Secure {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s/g1/websocket", scheme, n.opt.URL)
}

func (n *Node) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", n.opt.Auth)
	h.Set("User-Agent", n.opts.UserAgent)
	h.Set("User-Id", n.opts.UserID)
	h.Set("Client-Name", n.opts.ClientName)
	if n.opts.Resume && n.sessionID != "" {
		h.Set("Session-Id", n.sessionID)
	}
	return h
}

// Connect opens the socket. Transport failures are not returned: they feed the
// reconnect loop and show up as events.
func (n *Node) Connect(ctx context.Context) error {
	n.mu.Lock()
	if n.opts.UserID == "" {
		n.mu.Unlock()
		return domain.ErrNotReady
	}
	if n.state == Connecting || n.state == Connected {
		n.mu.Unlock()
		return nil
	}
	if n.life == nil {
		n.life, n.cancel = context.WithCancel(context.Background())
	}
	n.gen++
	gen := n.gen
	life := n.life
	n.setState(Connecting)
	header := n.headers()
	n.mu.Unlock()

	n.debug(fmt.Sprintf("connecting to %s", n.wsURL()))

	dialCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(life, cancel)
	conn, _, err := n.opts.Dialer.DialContext(dialCtx, n.wsURL(), header)
	stop()
	cancel()
	if err != nil {
		n.bus.Publish(Error{Err: fmt.Errorf("%w: dial %s: %v", domain.ErrTransport, n.opt.Name, err)})
		go n.closed(gen, websocket.CloseAbnormalClosure, err.Error())
		return nil
	}

	n.mu.Lock()
	if gen != n.gen {
		n.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	n.conn = conn
	n.mu.Unlock()

	log.Info().Str("module", "node").Str("node", n.opt.Name).Msg("socket open")
	go n.readLoop(gen, conn)
	return nil
}

// Disconnect closes the session for good. A pending retry is cancelled and no
// Disconnect event is published.
func (n *Node) Disconnect(code int, reason string) {
	n.mu.Lock()
	n.gen++
	conn := n.conn
	n.conn = nil
	cancel := n.cancel
	n.life, n.cancel = nil, nil
	n.reconnects = 0
	n.setState(Disconnected)
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		msg := websocket.FormatCloseMessage(code, reason)
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}
	log.Info().Str("module", "node").Str("node", n.opt.Name).Int("code", code).Str("reason", reason).Msg("disconnected")
}

// Close disconnects and releases every subscriber.
func (n *Node) Close() {
	n.Disconnect(websocket.CloseNormalClosure, "client closed")
	n.bus.Close()
}

func (n *Node) readLoop(gen int, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			code, reason := websocket.CloseAbnormalClosure, err.Error()
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				code, reason = ce.Code, ce.Text
			}
			_ = conn.Close()
			n.closed(gen, code, reason)
			return
		}
		n.handle(gen, data)
	}
}

// closed runs the reconnect state machine for the socket of generation gen.
func (n *Node) closed(gen int, code int, reason string) {
	n.mu.Lock()
	if gen != n.gen {
		n.mu.Unlock()
		return
	}
	n.conn = nil
	n.bus.Publish(Close{Code: code, Reason: reason})

	if n.reconnects >= n.opts.ReconnectTries {
		n.gen++
		if n.cancel != nil {
			n.cancel()
		}
		n.life, n.cancel = nil, nil
		n.setState(Disconnected)
		n.mu.Unlock()

		log.Warn().Str("module", "node").Str("node", n.opt.Name).Int("code", code).Str("reason", reason).Msg("reconnect budget spent")
		n.bus.Publish(Disconnect{})
		n.bus.Close()
		return
	}

	n.reconnects++
	left := n.opts.ReconnectTries - n.reconnects
	life := n.life
	n.setState(Reconnecting)
	n.mu.Unlock()

	metrics.NodeReconnectsTotal.WithLabelValues(n.opt.Name).Inc()
	log.Warn().Str("module", "node").Str("node", n.opt.Name).Int("code", code).Int("left", left).Msg("socket closed, reconnecting")
	n.bus.Publish(ReconnectingEvent{Left: left, Interval: n.opts.ReconnectInterval})

	t := time.NewTimer(n.opts.ReconnectInterval)
	defer t.Stop()
	select {
	case <-t.C:
	case <-life.Done():
		return
	}

	n.mu.Lock()
	stale := gen != n.gen
	n.mu.Unlock()
	if stale {
		return
	}
	_ = n.Connect(life)
}

func (n *Node) handle(gen int, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		n.bus.Publish(Error{Err: fmt.Errorf("decode message: %w", err)})
		return
	}
	n.bus.Publish(Raw{Data: json.RawMessage(data)})

	switch env.Op {
	case opReady:
		var m readyMessage
		if err := json.Unmarshal(data, &m); err != nil {
			n.bus.Publish(Error{Err: fmt.Errorf("decode ready: %w", err)})
			return
		}
		n.ready(gen, m)
	case opStats:
		var s domain.Stats
		if err := json.Unmarshal(data, &s); err != nil {
			n.bus.Publish(Error{Err: fmt.Errorf("decode stats: %w", err)})
			return
		}
		n.mu.Lock()
		n.stats = &s
		n.mu.Unlock()
		metrics.NodePlayers.WithLabelValues(n.opt.Name).Set(float64(s.Players))
		n.bus.Publish(StatsUpdate{Stats: s})
	case opPlayerUpdate:
		var m PlayerUpdate
		if err := json.Unmarshal(data, &m); err != nil {
			n.bus.Publish(Error{Err: fmt.Errorf("decode playerUpdate: %w", err)})
			return
		}
		n.bus.Publish(m)
	case opEvent:
		var m PlayerEvent
		if err := json.Unmarshal(data, &m); err != nil {
			n.bus.Publish(Error{Err: fmt.Errorf("decode event: %w", err)})
			return
		}
		n.bus.Publish(m)
	default:
		n.debug(fmt.Sprintf("unknown op %q", env.Op))
	}
}

func (n *Node) ready(gen int, m readyMessage) {
	n.mu.Lock()
	if gen != n.gen {
		n.mu.Unlock()
		return
	}
	again := n.sessionID != ""
	n.sessionID = m.SessionID
	n.reconnects = 0
	n.setState(Connected)
	life := n.life
	n.mu.Unlock()

	log.Info().Str("module", "node").Str("node", n.opt.Name).Str("session", m.SessionID).Bool("resumed", m.Resumed).Msg("ready")

	if n.opts.Resume {
		if _, err := n.rest.UpdateSession(life, true, int(n.opts.ResumeTimeout.Seconds())); err != nil {
			n.bus.Publish(Error{Err: fmt.Errorf("update session: %w", err)})
		}
	}

	n.bus.Publish(Ready{
		Resumed:       m.Resumed,
		LibraryResume: n.opts.ResumeByLibrary && again,
	})
}

func (n *Node) debug(msg string) {
	log.Debug().Str("module", "node").Str("node", n.opt.Name).Msg(msg)
	n.bus.Publish(Debug{Message: msg})
}
