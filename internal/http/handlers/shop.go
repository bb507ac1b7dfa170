package handlers

import (
	"math/big"
	"net/http"

	"flip_royale/internal/coordinator"
	"flip_royale/internal/http/middleware"
	"flip_royale/internal/logger"
	"flip_royale/internal/payment"

	"github.com/gin-gonic/gin"
)

type VerifyPurchaseRequest struct {
	UserID   string `json:"userId"`
	TxHash   string `json:"txHash"`
	PackType string `json:"packType"`
	Count    int    `json:"count"`
	Amount   string `json:"amount,omitempty"` // token base units, decimal or 0x hex
}

func (req VerifyPurchaseRequest) proof() (payment.Proof, bool) {
	p := payment.Proof{
		ExternalRef: req.TxHash,
		From:        req.UserID,
		PackType:    req.PackType,
		Count:       req.Count,
	}
	if req.Amount != "" {
		amount, ok := new(big.Int).SetString(req.Amount, 0)
		if !ok || amount.Sign() < 0 {
			return p, false
		}
		p.ClaimedAmount = amount
	}
	return p, true
}

func bindPurchase(c *gin.Context) (VerifyPurchaseRequest, payment.Proof, bool) {
	var req VerifyPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.TxHash == "" {
		badRequest(c, "missing parameters")
		return req, payment.Proof{}, false
	}
	proof, ok := req.proof()
	if !ok {
		badRequest(c, "invalid amount")
		return req, proof, false
	}
	return req, proof, true
}

func purchaseResponse(c *gin.Context, res *coordinator.Result) {
	c.JSON(http.StatusOK, gin.H{
		"ok":               true,
		"user":             res.Record,
		"newCards":         res.Cards,
		"alreadyProcessed": res.AlreadyProcessed,
	})
}

// VerifyPurchase credits packs paid for on-chain
func (h *Handler) VerifyPurchase(c *gin.Context) {
	req, proof, ok := bindPurchase(c)
	if !ok {
		return
	}

	res, err := h.Ledger.ReconcilePayment(c.Request.Context(), req.UserID, proof)
	if err != nil {
		fail(c, err)
		return
	}
	purchaseResponse(c, res)
}

// Reconcile lets an operator credit a payment confirmed out of band
func (h *Handler) Reconcile(c *gin.Context) {
	req, proof, ok := bindPurchase(c)
	if !ok {
		return
	}

	res, err := h.Ledger.ReconcileTrusted(c.Request.Context(), req.UserID, proof)
	if err != nil {
		fail(c, err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("manual payment reconciliation",
		"operator", c.GetString(middleware.SubjectKey),
		"user", res.Record.ID,
		"tx", req.TxHash,
		"already_processed", res.AlreadyProcessed,
	)
	purchaseResponse(c, res)
}
