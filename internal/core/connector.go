package core

//go:generate mockgen -source=connector.go -destination=mock/connector.go -package=mock

// Connector abstracts the host gateway used for voice signaling.
// Owned by the adapter; it must deliver voice events back through a VoiceSink.
type Connector interface {
	// SendVoiceStateRequest asks the gateway to join (or move to) a voice channel.
	SendVoiceStateRequest(guildID string, shardID int, channelID string, deaf, mute bool) error
	// SendVoiceLeaveRequest asks the gateway to leave the guild's voice channel.
	SendVoiceLeaveRequest(guildID string, shardID int) error
}

// VoiceSink receives the two halves of a voice handshake.
type VoiceSink interface {
	HandleVoiceState(VoiceStateEvent)
	HandleVoiceServer(VoiceServerEvent)
}

// VoiceStateEvent is the session half of the handshake.
type VoiceStateEvent struct {
	GuildID   string
	UserID    string
	ChannelID string
	SessionID string
	SelfDeaf  bool
	SelfMute  bool
}

// VoiceServerEvent is the token/endpoint half of the handshake.
type VoiceServerEvent struct {
	GuildID  string
	Token    string
	Endpoint string
}
