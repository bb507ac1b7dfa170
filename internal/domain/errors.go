package domain

import "errors"

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("user not found")
	ErrAlreadyProcessed     = errors.New("payment already processed")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrPickLocked           = errors.New("pick is locked")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvariantViolation   = errors.New("invariant violation")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")

	ErrAlreadyExists   = errors.New("user already exists")
	ErrOutOfStock      = errors.New("not enough packs in inventory")
	ErrRoundRegression = errors.New("round number cannot go backwards")
	ErrInvalidRequest  = errors.New("invalid request")
)

// Retryable reports whether the caller may safely retry the failed request
func Retryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

// Code returns a stable machine-readable code for an error
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthenticationFailed):
		return "authentication_failed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyProcessed):
		return "already_processed"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrPickLocked):
		return "pick_locked"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant_violation"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, ErrRoundRegression):
		return "round_regression"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return "internal"
	}
}
