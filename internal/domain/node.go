package domain

// NodeOption describes how to reach one audio node. It is supplied by the
// host application and never mutated afterwards.
type NodeOption struct {
	Name   string `json:"name" mapstructure:"name"`
	URL    string `json:"url" mapstructure:"url"`
	Auth   string `json:"auth" mapstructure:"auth"`
	Secure bool   `json:"secure" mapstructure:"secure"`
	Group  string `json:"group,omitempty" mapstructure:"group"`
}

// Stats is the periodic load report a node pushes over its websocket.
type Stats struct {
	Players        int         `json:"players"`
	PlayingPlayers int         `json:"playingPlayers"`
	Uptime         int64       `json:"uptime"`
	Memory         MemoryStats `json:"memory"`
	CPU            CPUStats    `json:"cpu"`
	FrameStats     *FrameStats `json:"frameStats,omitempty"`
}

type MemoryStats struct {
	Reservable int64 `json:"reservable"`
	Used       int64 `json:"used"`
	Free       int64 `json:"free"`
	Allocated  int64 `json:"allocated"`
}

type CPUStats struct {
	Cores        int     `json:"cores"`
	SystemLoad   float64 `json:"systemLoad"`
	LavalinkLoad float64 `json:"lavalinkLoad"`
}

type FrameStats struct {
	Sent    int `json:"sent"`
	Deficit int `json:"deficit"`
	Nulled  int `json:"nulled"`
}

// NodeInfo is returned by GET /info.
type NodeInfo struct {
	Version        NodeVersion `json:"version"`
	BuildTime      int64       `json:"buildTime"`
	JVM            string      `json:"jvm"`
	Lavaplayer     string      `json:"lavaplayer"`
	SourceManagers []string    `json:"sourceManagers"`
	Filters        []string    `json:"filters"`
	Plugins        []Plugin    `json:"plugins"`
}

type NodeVersion struct {
	Semver     string `json:"semver"`
	Major      int    `json:"major"`
	Minor      int    `json:"minor"`
	Patch      int    `json:"patch"`
	PreRelease string `json:"preRelease,omitempty"`
}

type Plugin struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// SessionInfo is the answer to a session update.
type SessionInfo struct {
	Resuming bool `json:"resuming"`
	Timeout  int  `json:"timeout"`
}

type RoutePlanner struct {
	Class   *string              `json:"class"`
	Details *RoutePlannerDetails `json:"details"`
}

type RoutePlannerDetails struct {
	IPBlock struct {
		Type string `json:"type"`
		Size string `json:"size"`
	} `json:"ipBlock"`
	FailingAddresses []FailingAddress `json:"failingAddresses"`
	RotateIndex      string           `json:"rotateIndex,omitempty"`
	IPIndex          string           `json:"ipIndex,omitempty"`
	CurrentAddress   string           `json:"currentAddress,omitempty"`
	BlockIndex       string           `json:"blockIndex,omitempty"`
	CurrentAddrIndex string           `json:"currentAddressIndex,omitempty"`
}

type FailingAddress struct {
	Address          string `json:"address"`
	FailingTimestamp int64  `json:"failingTimestamp"`
	FailingTime      string `json:"failingTime"`
}
