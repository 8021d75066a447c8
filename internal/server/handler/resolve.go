package handler

import (
	"net/http"

	"github.com/aspect-build/dccm/internal/resolver"
	"github.com/gin-gonic/gin"
)

type connectStringRequest struct {
	ConnectString string `json:"connect_string" binding:"required"`
	WalletPath    string `json:"wallet_path"`
}

// HandleResolve handles POST /v1/resolve.
func HandleResolve(res *resolver.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req connectStringRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ep, err := res.Resolve(req.ConnectString, req.WalletPath)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, ep)
	}
}

// HandleValidate handles POST /v1/validate. An unusable connect string is a
// normal answer, not a request error.
func HandleValidate(res *resolver.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req connectStringRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := res.Validate(req.ConnectString, req.WalletPath); err != nil {
			c.JSON(http.StatusOK, gin.H{"valid": false, "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true})
	}
}
