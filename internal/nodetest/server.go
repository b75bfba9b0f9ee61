// Package nodetest runs an in-process audio node speaking just enough of the
// protocol for tests.
package nodetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/lvgo/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const Password = "youshallnotpass"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is a fake node. Its zero value is not usable; call New.
type Server struct {
	http *httptest.Server

	mu         sync.Mutex
	conns      []*websocket.Conn
	sessionID  string
	resuming   bool
	refuse     bool
	failDelete bool
	delay      time.Duration
	players    map[string]*domain.RemotePlayer
	patches    map[string][]domain.UpdatePlayerOptions
	headers    []http.Header
	dials      int
	parties    map[string]*domain.PartyInfo
	partyOf    map[string]string
}

func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		players: make(map[string]*domain.RemotePlayer),
		patches: make(map[string][]domain.UpdatePlayerOptions),
		parties: make(map[string]*domain.PartyInfo),
		partyOf: make(map[string]string),
	}
	s.http = httptest.NewServer(s.router())
	return s
}

// Addr is host:port, the form a NodeOption URL takes.
func (s *Server) Addr() string {
	return strings.TrimPrefix(s.http.URL, "http://")
}

func (s *Server) Option(name string) domain.NodeOption {
	return domain.NodeOption{Name: name, URL: s.Addr(), Auth: Password}
}

func (s *Server) Close() {
	s.DropConnections()
	s.http.Close()
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	g1 := r.Group("/g1")
	g1.Use(func(c *gin.Context) {
		if c.GetHeader("Authorization") != Password {
			c.AbortWithStatusJSON(http.StatusUnauthorized, restError(http.StatusUnauthorized, "Unauthorized", c.Request.URL.Path))
			return
		}
		c.Next()
	})

	g1.GET("/websocket", s.handleSocket)
	g1.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.stats())
	})
	g1.GET("/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, domain.NodeInfo{Version: domain.NodeVersion{Semver: "4.0.0", Major: 4}})
	})
	g1.PATCH("/sessions/:sid", s.handleUpdateSession)
	g1.GET("/sessions/:sid/players", s.handleListPlayers)
	g1.GET("/sessions/:sid/players/:guild", s.handleGetPlayer)
	g1.PATCH("/sessions/:sid/players/:guild", s.handleUpdatePlayer)
	g1.DELETE("/sessions/:sid/players/:guild", s.handleDeletePlayer)

	party := g1.Group("/sessions/:sid/players/:guild/party")
	party.GET("", s.handleGetParty)
	party.POST("", s.handleCreateParty)
	party.POST("/join", s.handleJoinParty)
	party.PATCH("", s.handleSyncParty)
	party.DELETE("", s.handleLeaveParty)
	return r
}

func restError(status int, msg, path string) gin.H {
	return gin.H{
		"timestamp": time.Now().UnixMilli(),
		"status":    status,
		"error":     http.StatusText(status),
		"message":   msg,
		"path":      path,
	}
}

func (s *Server) handleSocket(c *gin.Context) {
	s.mu.Lock()
	s.dials++
	s.headers = append(s.headers, c.Request.Header.Clone())
	if s.refuse {
		s.mu.Unlock()
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	resumed := s.resuming && s.sessionID != "" && c.GetHeader("Session-Id") == s.sessionID
	if !resumed {
		s.sessionID = uuid.NewString()
	}
	sid := s.sessionID
	s.mu.Unlock()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	_ = ws.WriteJSON(gin.H{"op": "ready", "resumed": resumed, "sessionId": sid})
	s.conns = append(s.conns, ws)
	s.mu.Unlock()

	go func() {
		defer func() { _ = ws.Close() }()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) sessionOK(c *gin.Context) bool {
	s.mu.Lock()
	ok := c.Param("sid") == s.sessionID
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, restError(http.StatusNotFound, "Session not found", c.Request.URL.Path))
	}
	return ok
}

func (s *Server) handleUpdateSession(c *gin.Context) {
	if !s.sessionOK(c) {
		return
	}
	var req domain.SessionInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, restError(http.StatusBadRequest, err.Error(), c.Request.URL.Path))
		return
	}
	s.mu.Lock()
	s.resuming = req.Resuming
	s.mu.Unlock()
	c.JSON(http.StatusOK, req)
}

func (s *Server) handleListPlayers(c *gin.Context) {
	if !s.sessionOK(c) {
		return
	}
	s.mu.Lock()
	out := make([]domain.RemotePlayer, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetPlayer(c *gin.Context) {
	if !s.sessionOK(c) {
		return
	}
	s.mu.Lock()
	p, ok := s.players[c.Param("guild")]
	var cp domain.RemotePlayer
	if ok {
		cp = *p
	}
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, restError(http.StatusNotFound, "Player not found", c.Request.URL.Path))
		return
	}
	c.JSON(http.StatusOK, cp)
}

func (s *Server) handleUpdatePlayer(c *gin.Context) {
	if !s.sessionOK(c) {
		return
	}
	var req domain.UpdatePlayerOptions
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, restError(http.StatusBadRequest, err.Error(), c.Request.URL.Path))
		return
	}

	s.mu.Lock()
	delay := s.delay
	guild := c.Param("guild")
	p, ok := s.players[guild]
	if !ok {
		p = &domain.RemotePlayer{GuildID: guild, Volume: 100}
		s.players[guild] = p
	}
	noReplace := c.Query("noReplace") == "true"
	if req.Track != nil && !(noReplace && p.Track != nil) {
		switch {
		case req.Track.Identifier != "":
			p.Track = &domain.Track{Encoded: "enc:" + req.Track.Identifier, Info: domain.TrackInfo{Identifier: req.Track.Identifier}}
		case req.Track.Encoded == nil || *req.Track.Encoded == "":
			p.Track = nil
		default:
			p.Track = &domain.Track{Encoded: *req.Track.Encoded, Info: domain.TrackInfo{Identifier: *req.Track.Encoded}}
		}
	}
	if req.Position != nil {
		p.State.Position = *req.Position
	}
	if req.Volume != nil {
		p.Volume = max(0, min(*req.Volume, 1000))
	}
	if req.Paused != nil {
		p.Paused = *req.Paused
	}
	if req.Filters != nil {
		p.Filters = req.Filters.Clone()
	}
	if req.Voice != nil {
		p.Voice = domain.PlayerVoice{Token: req.Voice.Token, Endpoint: req.Voice.Endpoint, SessionID: req.Voice.SessionID, Connected: true}
		p.State.Connected = true
	}
	p.State.Time = time.Now().UnixMilli()
	s.patches[guild] = append(s.patches[guild], req)
	out := *p
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleDeletePlayer(c *gin.Context) {
	if !s.sessionOK(c) {
		return
	}
	s.mu.Lock()
	fail := s.failDelete
	if !fail {
		delete(s.players, c.Param("guild"))
	}
	s.mu.Unlock()
	if fail {
		c.JSON(http.StatusInternalServerError, restError(http.StatusInternalServerError, "destroy failed", c.Request.URL.Path))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) stats() domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Stats{Players: len(s.players), Uptime: 1000, CPU: domain.CPUStats{Cores: 4}}
}

// SendStats pushes a stats message to every socket.
func (s *Server) SendStats(st domain.Stats) {
	data, _ := json.Marshal(st)
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	m["op"] = "stats"
	s.broadcast(m)
}

// SendPlayerUpdate pushes a position report for guild.
func (s *Server) SendPlayerUpdate(guild string, st domain.PlayerStatus) {
	s.broadcast(gin.H{"op": "playerUpdate", "guildId": guild, "state": st})
}

// SendEvent pushes a playback event; extra is merged into the message.
func (s *Server) SendEvent(guild, typ string, extra map[string]any) {
	m := gin.H{"op": "event", "type": typ, "guildId": guild}
	for k, v := range extra {
		m[k] = v
	}
	s.broadcast(m)
}

// SendRaw pushes an arbitrary message.
func (s *Server) SendRaw(m map[string]any) {
	s.broadcast(m)
}

func (s *Server) broadcast(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ws := range s.conns {
		_ = ws.WriteJSON(v)
	}
}

// DropConnections kills every open socket without a close frame.
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, ws := range conns {
		_ = ws.UnderlyingConn().Close()
	}
}

// Refuse makes the websocket endpoint reject upgrades.
func (s *Server) Refuse(v bool) {
	s.mu.Lock()
	s.refuse = v
	s.mu.Unlock()
}

// FailDelete makes player deletion answer 500.
func (s *Server) FailDelete(v bool) {
	s.mu.Lock()
	s.failDelete = v
	s.mu.Unlock()
}

// Delay holds player updates before answering.
func (s *Server) Delay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// Player returns the node side view of a guild's player.
func (s *Server) Player(guild string) (domain.RemotePlayer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[guild]
	if !ok {
		return domain.RemotePlayer{}, false
	}
	return *p, true
}

// Patches returns every update received for guild, oldest first.
func (s *Server) Patches(guild string) []domain.UpdatePlayerOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.UpdatePlayerOptions(nil), s.patches[guild]...)
}

func (s *Server) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Server) Resuming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resuming
}

func (s *Server) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

// Headers returns the handshake headers of every dial.
func (s *Server) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header(nil), s.headers...)
}
