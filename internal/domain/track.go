package domain

import "encoding/json"

type LoadType string

const (
	LoadTrack    LoadType = "TRACK"
	LoadPlaylist LoadType = "PLAYLIST"
	LoadSearch   LoadType = "SEARCH"
	LoadEmpty    LoadType = "EMPTY"
	LoadError    LoadType = "ERROR"
)

type Severity string

const (
	SeverityCommon     Severity = "common"
	SeveritySuspicious Severity = "suspicious"
	SeverityFault      Severity = "fault"
)

type Track struct {
	Encoded    string          `json:"encoded"`
	Info       TrackInfo       `json:"info"`
	PluginInfo json.RawMessage `json:"pluginInfo,omitempty"`
	UserData   json.RawMessage `json:"userData,omitempty"`
}

type TrackInfo struct {
	Identifier string `json:"identifier"`
	IsSeekable bool   `json:"isSeekable"`
	Author     string `json:"author"`
	Length     int64  `json:"length"`
	IsStream   bool   `json:"isStream"`
	Position   int64  `json:"position"`
	Title      string `json:"title"`
	URI        string `json:"uri,omitempty"`
	ArtworkURL string `json:"artworkUrl,omitempty"`
	ISRC       string `json:"isrc,omitempty"`
	SourceName string `json:"sourceName"`
}

type Exception struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Cause    string   `json:"cause"`
}

// LoadResult is the answer of /tracks/resolve.
type LoadResult struct {
	Type         LoadType   `json:"type"`
	PlaylistName string     `json:"playlistName,omitempty"`
	Exception    *Exception `json:"exception,omitempty"`
	Tracks       []Track    `json:"tracks"`
}

type Queue struct {
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Tracks []Track `json:"tracks"`
}

type HistoryTrack struct {
	Track
	EndTime int64 `json:"endTime"`
}

type History struct {
	Total  int            `json:"total"`
	Tracks []HistoryTrack `json:"tracks"`
}

type RepeatMode string

const (
	RepeatOff   RepeatMode = "off"
	RepeatTrack RepeatMode = "track"
	RepeatQueue RepeatMode = "queue"
)

type ReplayMode string

const (
	ReplayPlay  ReplayMode = "play"
	ReplayQueue ReplayMode = "queue"
	ReplayNext  ReplayMode = "next"
)

type CacheScope string

const (
	CacheMetadata CacheScope = "metadata"
	CacheContent  CacheScope = "content"
	CacheAll      CacheScope = "all"
)
