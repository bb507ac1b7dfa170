package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"flip_royale/internal/domain"
)

// fakeOracle mimics the Oracle's get/update endpoints over an in-memory map
type fakeOracle struct {
	mu      sync.Mutex
	secret  string
	records map[string]map[string]json.RawMessage
	status  int
}

func (o *fakeOracle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+o.secret {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if o.status != 0 {
		w.WriteHeader(o.status)
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	switch r.URL.Path {
	case "/api/users/get":
		doc, ok := o.records[r.URL.Query().Get("address")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"user": doc})
	case "/api/users/update":
		var req struct {
			Address  string                     `json:"address"`
			UserData map[string]json.RawMessage `json:"userData"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		doc, ok := o.records[req.Address]
		if !ok {
			doc = map[string]json.RawMessage{"id": json.RawMessage(`"` + req.Address + `"`)}
			o.records[req.Address] = doc
		}
		for k, v := range req.UserData {
			doc[k] = v
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newOracle(t *testing.T) (*fakeOracle, *OracleStore) {
	t.Helper()
	fake := &fakeOracle{secret: "s3cret", records: make(map[string]map[string]json.RawMessage)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, NewOracleStore(srv.URL, "s3cret")
}

func TestOracleStoreGetUpdate(t *testing.T) {
	_, s := newOracle(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "0xABC"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec := domain.NewRecord("0xabc", "frank", domain.Inventory{"common": 1}, time.Now())
	got, err := s.Update(ctx, "0xABC", domain.FullPatch(rec))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ID != "0xabc" || got.Inventory["common"] != 1 {
		t.Fatalf("unexpected record %+v", got)
	}

	bank := int64(42)
	got, err = s.Update(ctx, "0xabc", &domain.RecordPatch{BankPoints: &bank})
	if err != nil {
		t.Fatalf("partial update: %v", err)
	}
	if got.BankPoints != 42 || got.Username != "frank" {
		t.Fatalf("partial update lost fields: %+v", got)
	}
}

func TestOracleStoreFailures(t *testing.T) {
	fake, s := newOracle(t)
	fake.status = http.StatusBadGateway

	if _, err := s.Get(context.Background(), "0xabc"); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ping failure, got %v", err)
	}

	bad := NewOracleStore("http://127.0.0.1:1", "x")
	if _, err := bad.Get(context.Background(), "0xabc"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for unreachable oracle, got %v", err)
	}
}
