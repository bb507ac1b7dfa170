package handlers

import (
	"net/http"

	"flip_royale/internal/coordinator"
	"flip_royale/internal/domain"
	"flip_royale/internal/rounds"

	"github.com/gin-gonic/gin"
)

// SaveRoundRequest leaves omitted fields untouched
type SaveRoundRequest struct {
	UserID       string               `json:"userId"`
	Signature    string               `json:"signature"`
	Message      string               `json:"message"`
	NextRound    *[]*domain.RoundPick `json:"nextRound"`
	ActiveRound  *[]domain.RoundPick  `json:"activeRound"`
	CurrentRound *int                 `json:"currentRound"`
}

func (h *Handler) SaveRound(c *gin.Context) {
	var req SaveRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		badRequest(c, "bad request")
		return
	}

	res, err := h.Ledger.SavePicks(c.Request.Context(), req.UserID,
		coordinator.AuthProof{Message: req.Message, Signature: req.Signature},
		rounds.Change{NextRound: req.NextRound, ActiveRound: req.ActiveRound, CurrentRound: req.CurrentRound},
	)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "updated": res.Updated})
}
