package http

import (
	"time"

	"github.com/dkeye/lvgo/internal/app/orch"
	"github.com/dkeye/lvgo/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	requestIDHeader  = "X-Request-Id"
	mutationBurst    = 10
	mutationInterval = time.Second
)

// RequestIDMiddleware tags each request with an id, reusing the caller's.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	h := &handlers{orch: o}

	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/nodes", h.listNodes)
	api.GET("/players", h.listPlayers)
	api.GET("/sessions", h.exportSessions)

	// Mutating routes hit the gateway and the nodes.
	limiter := NewClientRateLimiter(mutationBurst, mutationInterval)
	api.POST("/sessions/import", limiter.Middleware(), h.importSessions)
	api.DELETE("/guilds/:guild", limiter.Middleware(), h.leaveGuild)

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
