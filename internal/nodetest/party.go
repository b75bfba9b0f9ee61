package nodetest

import (
	"net/http"
	"time"

	"github.com/dkeye/lvgo/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type partyRequest struct {
	PartyID     string `json:"partyId"`
	SyncEnabled bool   `json:"syncEnabled"`
}

// partyLocked returns the party of guild; s.mu must be held.
func (s *Server) partyLocked(guild string) *domain.PartyInfo {
	id, ok := s.partyOf[guild]
	if !ok {
		return nil
	}
	return s.parties[id]
}

func clonePartyLocked(pt *domain.PartyInfo) domain.PartyInfo {
	out := *pt
	out.Members = append([]domain.PartyMember{}, pt.Members...)
	return out
}

func (s *Server) handleGetParty(c *gin.Context) {
	if !s.sessionOK(c) {
		return
	}
	s.mu.Lock()
	pt := s.partyLocked(c.Param("guild"))
	var out domain.PartyInfo
	if pt != nil {
		out = clonePartyLocked(pt)
	}
	s.mu.Unlock()
	if pt == nil {
		c.JSON(http.StatusNotFound, restError(http.StatusNotFound, "Not in a party", c.Request.URL.Path))
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateParty(c *gin.Context) {
	if !s.sessionOK(c) {
		return
	}
	var req partyRequest
	_ = c.ShouldBindJSON(&req)

	s.mu.Lock()
	guild := c.Param("guild")
	pt := &domain.PartyInfo{
		ID:            uuid.NewString(),
		HostGuildID:   guild,
		HostSessionID: s.sessionID,
		SyncEnabled:   req.SyncEnabled,
		Members:       []domain.PartyMember{},
	}
	s.parties[pt.ID] = pt
	s.partyOf[guild] = pt.ID
	out := clonePartyLocked(pt)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleJoinParty(c *gin.Context) {
	if !s.sessionOK(c) {
		return
	}
	var req partyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, restError(http.StatusBadRequest, err.Error(), c.Request.URL.Path))
		return
	}

	s.mu.Lock()
	guild := c.Param("guild")
	pt, ok := s.parties[req.PartyID]
	if ok {
		pt.Members = append(pt.Members, domain.PartyMember{GuildID: guild, SessionID: s.sessionID, JoinedAt: time.Now().UnixMilli()})
		s.partyOf[guild] = pt.ID
	}
	var out domain.PartyInfo
	if ok {
		out = clonePartyLocked(pt)
	}
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, restError(http.StatusNotFound, "Party not found", c.Request.URL.Path))
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleSyncParty(c *gin.Context) {
	if !s.sessionOK(c) {
		return
	}
	var req partyRequest
	_ = c.ShouldBindJSON(&req)

	s.mu.Lock()
	pt := s.partyLocked(c.Param("guild"))
	var out domain.PartyInfo
	if pt != nil {
		pt.SyncEnabled = req.SyncEnabled
		out = clonePartyLocked(pt)
	}
	s.mu.Unlock()
	if pt == nil {
		c.JSON(http.StatusNotFound, restError(http.StatusNotFound, "Not in a party", c.Request.URL.Path))
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleLeaveParty(c *gin.Context) {
	if !s.sessionOK(c) {
		return
	}
	s.mu.Lock()
	guild := c.Param("guild")
	pt := s.partyLocked(guild)
	if pt != nil {
		delete(s.partyOf, guild)
		if pt.HostGuildID == guild {
			for _, m := range pt.Members {
				delete(s.partyOf, m.GuildID)
			}
			delete(s.parties, pt.ID)
		} else {
			kept := pt.Members[:0]
			for _, m := range pt.Members {
				if m.GuildID != guild {
					kept = append(kept, m)
				}
			}
			pt.Members = kept
		}
	}
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}
