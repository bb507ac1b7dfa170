package handlers

import (
	"net/http"

	"flip_royale/internal/coordinator"

	"github.com/gin-gonic/gin"
)

type PackRequest struct {
	UserID       string `json:"userId"`
	Signature    string `json:"signature"`
	Message      string `json:"message"`
	PackType     string `json:"packType"`
	Count        int    `json:"count"`
	UseInventory bool   `json:"useInventory"`
}

func bindPack(c *gin.Context) (PackRequest, bool) {
	var req PackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return req, false
	}
	if req.UserID == "" {
		req.UserID = c.GetHeader("X-User-Id")
	}
	if req.UserID == "" {
		badRequest(c, "missing userId")
		return req, false
	}
	return req, true
}

// PurchasePack buys packs with points, or opens owned packs when useInventory is set
func (h *Handler) PurchasePack(c *gin.Context) {
	req, ok := bindPack(c)
	if !ok {
		return
	}
	auth := coordinator.AuthProof{Message: req.Message, Signature: req.Signature}

	var (
		res *coordinator.Result
		err error
	)
	if req.UseInventory {
		res, err = h.Ledger.OpenPack(c.Request.Context(), req.UserID, auth, req.PackType, req.Count)
	} else {
		res, err = h.Ledger.PurchaseWithPoints(c.Request.Context(), req.UserID, auth, req.PackType, req.Count)
	}
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"newCards":   res.Cards,
		"cost":       res.Cost,
		"inventory":  res.Record.Inventory,
		"bankPoints": res.Record.BankPoints,
		"giftPoints": res.Record.GiftPoints,
	})
}

// OpenPack opens packs already in the inventory
func (h *Handler) OpenPack(c *gin.Context) {
	req, ok := bindPack(c)
	if !ok {
		return
	}

	res, err := h.Ledger.OpenPack(c.Request.Context(), req.UserID,
		coordinator.AuthProof{Message: req.Message, Signature: req.Signature}, req.PackType, req.Count)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "newCards": res.Cards, "inventory": res.Record.Inventory})
}

// PackInfo lists pack types and their point costs
func (h *Handler) PackInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "packs": h.Ledger.Packs()})
}
