package node

import (
	"encoding/json"
	"time"

	"github.com/dkeye/lvgo/internal/domain"
)

// Event is anything a node publishes to its subscribers.
type Event interface {
	nodeEvent()
}

// Ready is published once the node accepted the session.
type Ready struct {
	// Resumed reports that the node kept the previous session alive.
	Resumed bool
	// LibraryResume reports that cached players should be replayed by the client.
	LibraryResume bool
}

// ReconnectingEvent is published before every retry.
type ReconnectingEvent struct {
	Left     int
	Interval time.Duration
}

// Close is published when the socket went away, whatever happens next.
type Close struct {
	Code   int
	Reason string
}

// Disconnect is terminal: the retry budget is spent and the node is gone.
type Disconnect struct {
	// Players counts the players still bound to the node. The node does not
	// track them; the orchestrator sets it before forwarding the event.
	Players int
}

type Error struct {
	Err error
}

type Debug struct {
	Message string
}

// Raw carries every inbound message untouched.
type Raw struct {
	Data json.RawMessage
}

type StatsUpdate struct {
	Stats domain.Stats
}

// PlayerUpdate is the periodic position report of one guild.
type PlayerUpdate struct {
	GuildID string              `json:"guildId"`
	State   domain.PlayerStatus `json:"state"`
}

type EventType string

const (
	TrackStartEvent      EventType = "TrackStartEvent"
	TrackEndEvent        EventType = "TrackEndEvent"
	TrackExceptionEvent  EventType = "TrackExceptionEvent"
	TrackStuckEvent      EventType = "TrackStuckEvent"
	WebSocketClosedEvent EventType = "WebSocketClosedEvent"
)

// PlayerEvent is a playback event of one guild. Which fields are set depends on Type.
type PlayerEvent struct {
	Type        EventType         `json:"type"`
	GuildID     string            `json:"guildId"`
	Track       *domain.Track     `json:"track,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Exception   *domain.Exception `json:"exception,omitempty"`
	ThresholdMs int64             `json:"thresholdMs,omitempty"`
	Code        int               `json:"code,omitempty"`
	ByRemote    bool              `json:"byRemote,omitempty"`
}

func (Ready) nodeEvent()             {}
func (ReconnectingEvent) nodeEvent() {}
func (Close) nodeEvent()             {}
func (Disconnect) nodeEvent()        {}
func (Error) nodeEvent()             {}
func (Debug) nodeEvent()             {}
func (Raw) nodeEvent()               {}
func (StatsUpdate) nodeEvent()       {}
func (PlayerUpdate) nodeEvent()      {}
func (PlayerEvent) nodeEvent()       {}

// Inbound op codes.
const (
	opReady        = "ready"
	opStats        = "stats"
	opPlayerUpdate = "playerUpdate"
	opEvent        = "event"
)

type envelope struct {
	Op string `json:"op"`
}

type readyMessage struct {
	Resumed   bool   `json:"resumed"`
	SessionID string `json:"sessionId"`
}
