package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// handleMagicLink issues a magic-link sign-in email. The request body is the
// raw email address.
func handleMagicLink(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Magic == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sign-in not configured"})
			return
		}

		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1024))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read body"})
			return
		}
		email := strings.TrimSpace(string(raw))
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email missing"})
			return
		}

		if err := opts.Magic.SendMagicLink(c.Request.Context(), email); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
