package handlers

import (
	"net/http"
	"strings"

	"flip_royale/internal/domain"
	"flip_royale/internal/logger"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Address  string `json:"address"`
	Username string `json:"username"`
}

// Register creates the record for a new wallet
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Address == "" {
		badRequest(c, "address required")
		return
	}

	res, err := h.Ledger.Register(c.Request.Context(), req.Address, strings.TrimSpace(req.Username))
	if err != nil {
		fail(c, err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("user registered", "address", res.Record.ID)
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": res.Record})
}

// Check reports whether an address is registered
func (h *Handler) Check(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		badRequest(c, "missing address")
		return
	}

	rec, err := h.Ledger.Get(c.Request.Context(), address)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true, "exists": true, "user": rec})
	case domain.Code(err) == "not_found":
		c.JSON(http.StatusOK, gin.H{"ok": true, "exists": false})
	default:
		fail(c, err)
	}
}
