package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/aspect-build/dccm/internal/launch"
	"github.com/aspect-build/dccm/internal/logx"
	"github.com/gin-gonic/gin"
)

type launchRequest struct {
	Mode       string `json:"mode"`
	ScriptName string `json:"script_name"`
	// Script is inline script text; it takes precedence over ScriptName.
	Script string `json:"script"`
}

type tunnelRequest struct {
	Mode string `json:"mode"`
}

func respondFormulation(c *gin.Context, f launch.Formulation) {
	if !f.OK() {
		c.JSON(http.StatusUnprocessableEntity, f)
		return
	}
	c.JSON(http.StatusOK, f)
}

// HandleLaunch handles POST /v1/connections/:id/launch.
func HandleLaunch(f *launch.Formulator, scratchDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var req launchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		mode, err := launch.ParseMode(req.Mode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		script := req.ScriptName
		if req.Script != "" {
			if err := os.MkdirAll(scratchDir, 0o700); err != nil {
				logx.Errorf("create scratch dir: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare scratch directory"})
				return
			}
			script = filepath.Join(scratchDir, launch.PluginBuffer)
			if err := os.WriteFile(script, []byte(req.Script), 0o600); err != nil {
				logx.Errorf("write plugin buffer: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write script buffer"})
				return
			}
		}

		out, err := f.ClientCommand(c.Request.Context(), id, mode, script)
		if err != nil {
			logx.Errorf("ClientCommand(%q) error: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to formulate command"})
			return
		}
		respondFormulation(c, out)
	}
}

// HandleTunnel handles POST /v1/connections/:id/tunnel.
func HandleTunnel(f *launch.Formulator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var req tunnelRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		mode, err := launch.ParseMode(req.Mode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		out, err := f.TunnelCommand(c.Request.Context(), id, mode)
		if err != nil {
			logx.Errorf("TunnelCommand(%q) error: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to formulate tunnel"})
			return
		}
		respondFormulation(c, out)
	}
}
