package domain

// PartyMember is a guild listening along with the party host.
type PartyMember struct {
	GuildID   string `json:"guildId"`
	SessionID string `json:"sessionId"`
	JoinedAt  int64  `json:"joinedAt"`
}

// PartyInfo is the node's view of a Listen Together party.
type PartyInfo struct {
	ID            string        `json:"id"`
	HostGuildID   string        `json:"hostGuildId"`
	HostSessionID string        `json:"hostSessionId"`
	SyncEnabled   bool          `json:"syncEnabled"`
	Members       []PartyMember `json:"members"`
}
