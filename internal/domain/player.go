package domain

import "encoding/json"

// PlayerVoice carries the voice credentials a node needs to join a channel.
type PlayerVoice struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
	Connected bool   `json:"connected,omitempty"`
	Ping      int    `json:"ping,omitempty"`
}

// PlayerStatus is the periodic position report of a remote player.
type PlayerStatus struct {
	Time      int64 `json:"time"`
	Position  int64 `json:"position"`
	Connected bool  `json:"connected"`
	Ping      int   `json:"ping"`
}

// RemotePlayer is the authoritative player state as the node reports it.
type RemotePlayer struct {
	GuildID string        `json:"guildId"`
	Track   *Track        `json:"track,omitempty"`
	Volume  int           `json:"volume"`
	Paused  bool          `json:"paused"`
	Voice   PlayerVoice   `json:"voice"`
	Filters FilterOptions `json:"filters"`
	State   PlayerStatus  `json:"state"`
}

// UpdatePlayerTrack selects what to play. A nil Encoded with an empty
// Identifier stops playback.
type UpdatePlayerTrack struct {
	Encoded    *string         `json:"encoded"`
	Identifier string          `json:"identifier,omitempty"`
	UserData   json.RawMessage `json:"userData,omitempty"`
}

func (t UpdatePlayerTrack) MarshalJSON() ([]byte, error) {
	if t.Identifier != "" {
		return json.Marshal(struct {
			Identifier string          `json:"identifier"`
			UserData   json.RawMessage `json:"userData,omitempty"`
		}{t.Identifier, t.UserData})
	}
	type plain UpdatePlayerTrack
	return json.Marshal(plain(t))
}

// UpdatePlayerOptions is a partial player update. Nil fields are not sent.
type UpdatePlayerOptions struct {
	Track    *UpdatePlayerTrack `json:"track,omitempty"`
	Position *int64             `json:"position,omitempty"`
	EndTime  *int64             `json:"endTime,omitempty"`
	Volume   *int               `json:"volume,omitempty"`
	Paused   *bool              `json:"paused,omitempty"`
	Filters  *FilterOptions     `json:"filters,omitempty"`
	Voice    *PlayerVoice       `json:"voice,omitempty"`
}

// PlayerState is a snapshot of what a player should be doing. It is used to
// restore a player after a restart.
type PlayerState struct {
	Track    *string       `json:"track"`
	Position int64         `json:"position"`
	Paused   bool          `json:"paused"`
	Volume   int           `json:"volume"`
	Filters  FilterOptions `json:"filters"`
}

// Options turns the snapshot into a full player update.
func (s PlayerState) Options() UpdatePlayerOptions {
	filters := s.Filters.Clone()
	position := s.Position
	paused := s.Paused
	volume := s.Volume
	return UpdatePlayerOptions{
		Track:    &UpdatePlayerTrack{Encoded: s.Track},
		Position: &position,
		Paused:   &paused,
		Volume:   &volume,
		Filters:  &filters,
	}
}

// Ptr is a tiny helper for the optional fields above.
func Ptr[T any](v T) *T { return &v }
