package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Me returns a player's record
func (h *Handler) Me(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		userID = c.GetHeader("X-User-Id")
	}
	if userID == "" {
		badRequest(c, "missing userId")
		return
	}

	rec, err := h.Ledger.Get(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": rec})
}
