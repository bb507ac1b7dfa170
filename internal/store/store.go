package store

import (
	"context"
	"fmt"

	"flip_royale/internal/domain"
)

var (
	ErrNotFound = domain.ErrNotFound
	// ErrUnavailable marks transport failures; callers may retry
	ErrUnavailable = fmt.Errorf("record store: %w", domain.ErrUpstreamUnavailable)
)

// Store is the user record store. It offers no transactions and no
// concurrency token; callers serialize writes per address themselves.
type Store interface {
	// Get returns the record for a canonical address or ErrNotFound
	Get(ctx context.Context, address string) (*domain.UserRecord, error)
	// Update merges patch into the record at address, creating it if absent,
	// and returns the stored result
	Update(ctx context.Context, address string, patch *domain.RecordPatch) (*domain.UserRecord, error)
	// Ping reports whether the store is reachable
	Ping(ctx context.Context) error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
