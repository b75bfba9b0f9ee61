package domain

// VoiceChannelOptions tells the orchestrator where to join.
type VoiceChannelOptions struct {
	GuildID   string
	ShardID   int
	ChannelID string
	Deaf      bool
	Mute      bool
}

// ResumeSession describes a session to restore after a restart.
type ResumeSession struct {
	GuildID   string
	ChannelID string
	ShardID   int
	Deaf      bool
	Mute      bool
	// NodeName is a hint; the node is used when it is connected.
	NodeName    string
	PlayerState *PlayerState
}

// SerializedSession is the stable at-rest shape of a guild session.
type SerializedSession struct {
	GuildID    string               `json:"guildId"`
	ChannelID  string               `json:"channelId"`
	ShardID    int                  `json:"shardId"`
	NodeName   string               `json:"nodeName"`
	Player     SerializedPlayer     `json:"player"`
	Connection SerializedConnection `json:"connection"`
}

type SerializedPlayer struct {
	Track    *string       `json:"track"`
	Position int64         `json:"position"`
	Paused   bool          `json:"paused"`
	Volume   int           `json:"volume"`
	Filters  FilterOptions `json:"filters"`
	PartyID  *string       `json:"partyId"`
}

type SerializedConnection struct {
	Deaf      bool    `json:"deaf"`
	Mute      bool    `json:"mute"`
	SessionID *string `json:"sessionId"`
	Region    *string `json:"region"`
}

// ToResume maps an exported session to the resume input shape.
func (s SerializedSession) ToResume(preferNode bool) ResumeSession {
	r := ResumeSession{
		GuildID:   s.GuildID,
		ChannelID: s.ChannelID,
		ShardID:   s.ShardID,
		Deaf:      s.Connection.Deaf,
		Mute:      s.Connection.Mute,
		PlayerState: &PlayerState{
			Track:    s.Player.Track,
			Position: s.Player.Position,
			Paused:   s.Player.Paused,
			Volume:   s.Player.Volume,
			Filters:  s.Player.Filters.Clone(),
		},
	}
	if preferNode {
		r.NodeName = s.NodeName
	}
	return r
}
