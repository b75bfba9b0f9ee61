package player

import "github.com/dkeye/lvgo/internal/domain"

// Event is published on a player's own bus.
type Event interface {
	playerEvent()
}

type TrackStart struct {
	Track *domain.Track
}

type TrackEnd struct {
	Track  *domain.Track
	Reason string
}

type TrackException struct {
	Track     *domain.Track
	Exception domain.Exception
}

type TrackStuck struct {
	Track       *domain.Track
	ThresholdMs int64
}

// WebSocketClosed means the node lost its voice socket to the gateway.
type WebSocketClosed struct {
	Code     int
	Reason   string
	ByRemote bool
}

// Update is the periodic position report.
type Update struct {
	State domain.PlayerStatus
}

// Resumed follows a successful replay of the cached state.
type Resumed struct{}

// Error reports a failure the player could not recover from by itself.
type Error struct {
	Err error
}

func (TrackStart) playerEvent()      {}
func (TrackEnd) playerEvent()        {}
func (TrackException) playerEvent()  {}
func (TrackStuck) playerEvent()      {}
func (WebSocketClosed) playerEvent() {}
func (Update) playerEvent()          {}
func (Resumed) playerEvent()         {}
func (Error) playerEvent()           {}
