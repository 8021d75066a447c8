package handler

import (
	"errors"
	"net/http"

	"github.com/aspect-build/dccm/internal/logx"
	"github.com/aspect-build/dccm/internal/registry"
	"github.com/gin-gonic/gin"
)

// HandleListConnections handles GET /v1/connections. Secrets never leave
// the process: Profile omits them from its JSON form.
func HandleListConnections(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		profiles, err := reg.List()
		if err != nil {
			logx.Errorf("ListConnections error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list connections"})
			return
		}
		def, err := reg.DefaultConnection()
		if err != nil {
			logx.Warnf("default connection lookup failed: %v", err)
		}
		c.JSON(http.StatusOK, gin.H{"connections": profiles, "default_connection": def})
	}
}

// HandleGetConnection handles GET /v1/connections/:id.
func HandleGetConnection(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		p, err := reg.Get(id)
		if err != nil {
			var ie *registry.IntegrityError
			if errors.As(err, &ie) {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "stored password cannot be decrypted on this machine",
					"hint":  "re-enter the password or re-import the connection",
				})
				return
			}
			logx.Errorf("GetConnection(%q) error: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve connection"})
			return
		}
		if p == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "connection not found"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
