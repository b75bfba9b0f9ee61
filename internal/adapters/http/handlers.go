package http

import (
	"net/http"
	"strconv"

	"github.com/dkeye/lvgo/internal/app/orch"
	"github.com/dkeye/lvgo/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type handlers struct {
	orch *orch.Orchestrator
}

type NodeResponse struct {
	Name      string        `json:"name"`
	State     string        `json:"state"`
	SessionID string        `json:"sessionId,omitempty"`
	Penalties int           `json:"penalties"`
	Players   int           `json:"players"`
	Stats     *domain.Stats `json:"stats,omitempty"`
}

type PlayerResponse struct {
	GuildID   string             `json:"guildId"`
	Node      string             `json:"node"`
	Connected bool               `json:"connected"`
	Ping      int                `json:"ping"`
	State     domain.PlayerState `json:"state"`
	PartyID   *string            `json:"partyId"`
}

type ImportResponse struct {
	Requested int      `json:"requested"`
	Resumed   []string `json:"resumed"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "userId": h.orch.UserID()})
}

func (h *handlers) listNodes(c *gin.Context) {
	nodes := h.orch.Nodes()
	out := make([]NodeResponse, 0, len(nodes))
	for _, n := range nodes {
		resp := NodeResponse{
			Name:      n.Name(),
			State:     n.State().String(),
			SessionID: n.SessionID(),
			Penalties: n.Penalties(),
			Players:   len(h.orch.Registry.PlayersOn(n)),
		}
		if st, ok := n.Stats(); ok {
			resp.Stats = &st
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) listPlayers(c *gin.Context) {
	players := h.orch.Players()
	out := make([]PlayerResponse, 0, len(players))
	for _, p := range players {
		resp := PlayerResponse{
			GuildID:   p.GuildID(),
			Connected: p.Connected(),
			Ping:      p.Ping(),
			State:     p.Snapshot(),
			PartyID:   p.PartyID(),
		}
		if n := p.Node(); n != nil {
			resp.Node = n.Name()
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) exportSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.ExportSessions())
}

func (h *handlers) importSessions(c *gin.Context) {
	var sessions []domain.SerializedSession
	if err := c.ShouldBindJSON(&sessions); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session list"})
		return
	}
	prefer, _ := strconv.ParseBool(c.Query("preferOriginalNode"))

	resumed := h.orch.ImportSessions(c.Request.Context(), sessions, orch.ImportOptions{PreferOriginalNode: prefer})
	resp := ImportResponse{Requested: len(sessions), Resumed: make([]string, 0, len(resumed))}
	for _, p := range resumed {
		resp.Resumed = append(resp.Resumed, p.GuildID())
	}
	log.Info().Str("module", "adapters.http").Str("request_id", c.GetString("request_id")).Int("requested", resp.Requested).Int("resumed", len(resp.Resumed)).Msg("sessions imported")
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) leaveGuild(c *gin.Context) {
	guild := c.Param("guild")
	if err := h.orch.LeaveVoiceChannel(c.Request.Context(), guild); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Str("guild", guild).Msg("leave failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
