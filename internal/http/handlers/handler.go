package handlers

import (
	"errors"
	"net/http"

	"flip_royale/internal/coordinator"
	"flip_royale/internal/domain"
	"flip_royale/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Ledger *coordinator.Coordinator
}

func NewHandler(ledger *coordinator.Coordinator) *Handler {
	return &Handler{Ledger: ledger}
}

// statusFor maps ledger errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrPickLocked),
		errors.Is(err, domain.ErrRoundRegression):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the structured error body. Internal errors are not echoed.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
		msg = "internal error"
	}
	c.JSON(status, gin.H{
		"ok":        false,
		"error":     msg,
		"code":      domain.Code(err),
		"retryable": domain.Retryable(err),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"ok":        false,
		"error":     msg,
		"code":      domain.Code(domain.ErrInvalidRequest),
		"retryable": false,
	})
}
