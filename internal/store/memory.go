package store

import (
	"context"
	"sync"
	"time"

	"flip_royale/internal/domain"
)

// MemoryStore keeps records in process. It stores and returns deep copies, and
// can inject latency and failures for tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*domain.UserRecord
	latency time.Duration
	failErr error
	updates int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*domain.UserRecord)}
}

// SetLatency delays every call by d
func (s *MemoryStore) SetLatency(d time.Duration) {
	s.mu.Lock()
	s.latency = d
	s.mu.Unlock()
}

// SetFailure makes every call fail with err until cleared with nil
func (s *MemoryStore) SetFailure(err error) {
	s.mu.Lock()
	s.failErr = err
	s.mu.Unlock()
}

// Updates returns the number of successful Update calls
func (s *MemoryStore) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

// Put replaces a record wholesale (fixtures)
func (s *MemoryStore) Put(rec *domain.UserRecord) {
	s.mu.Lock()
	s.records[rec.ID] = rec.Clone()
	s.mu.Unlock()
}

func (s *MemoryStore) Get(ctx context.Context, address string) (*domain.UserRecord, error) {
	if err := s.wait(ctx, "get"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[domain.NormalizeAddress(address)]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, address string, patch *domain.RecordPatch) (*domain.UserRecord, error) {
	if err := s.wait(ctx, "update"); err != nil {
		return nil, err
	}

	id := domain.NormalizeAddress(address)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		rec = &domain.UserRecord{ID: id}
	} else {
		rec = rec.Clone()
	}
	// patch fields alias caller memory until cloned
	patch.Apply(rec)
	rec = rec.Clone()
	rec.ID = id
	s.records[id] = rec
	s.updates++
	return rec.Clone(), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return s.wait(ctx, "ping")
}

func (s *MemoryStore) wait(ctx context.Context, op string) error {
	s.mu.Lock()
	latency, failErr := s.latency, s.failErr
	s.mu.Unlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return unavailable(op, ctx.Err())
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return unavailable(op, err)
	}
	if failErr != nil {
		return unavailable(op, failErr)
	}
	return nil
}
