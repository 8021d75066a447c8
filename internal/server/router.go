// Package server exposes the connection catalogue to editor plugins over a
// loopback HTTP API.
package server

import (
	"github.com/aspect-build/dccm/internal/config"
	"github.com/aspect-build/dccm/internal/launch"
	"github.com/aspect-build/dccm/internal/registry"
	"github.com/aspect-build/dccm/internal/server/handler"
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the Gin router with all routes.
func NewRouter(reg *registry.Registry, f *launch.Formulator, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLog())

	if len(cfg.CORSOrigins) > 0 {
		r.Use(CORS(cfg.CORSOrigins))
	}

	r.GET("/", func(c *gin.Context) {
		c.String(200, "ok")
	})

	auth := APIAuth(cfg.APIToken)

	v1 := r.Group("/v1", auth)
	{
		v1.GET("/connections", handler.HandleListConnections(reg))
		v1.GET("/connections/:id", handler.HandleGetConnection(reg))
		v1.POST("/connections/:id/launch", handler.HandleLaunch(f, cfg.ScratchDir))
		v1.POST("/connections/:id/tunnel", handler.HandleTunnel(f))

		v1.POST("/resolve", handler.HandleResolve(reg.Resolver()))
		v1.POST("/validate", handler.HandleValidate(reg.Resolver()))
	}

	return r
}
