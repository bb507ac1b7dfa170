package payment

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"flip_royale/internal/domain"
	"flip_royale/internal/reward"
)

func newReconciler(t *testing.T) *Reconciler {
	t.Helper()
	cat, err := reward.DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return NewReconciler(reward.NewDistributor(cat, reward.DefaultPacks(), reward.NewSeededSource(5)), nil)
}

func inventoryTotal(inv domain.Inventory) int64 {
	var n int64
	for _, v := range inv {
		n += v
	}
	return n
}

func TestApplyCreditsOnce(t *testing.T) {
	r := newReconciler(t)
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	rec := domain.NewRecord("0xabc", "bob", nil, now)

	proof := Proof{ExternalRef: "0xAA", PackType: "Rare", Count: 2}
	cards, err := r.Apply(rec, proof, now)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(cards) != 10 {
		t.Fatalf("expected 10 cards, got %d", len(cards))
	}
	if got := inventoryTotal(rec.Inventory); got != 10 {
		t.Fatalf("expected 10 inventory items, got %d", got)
	}

	last := rec.Logs[len(rec.Logs)-1]
	if last.Type != domain.LogTypePayment || last.ExternalRef != "0xaa" || last.PackType != reward.PackRare || last.Count != 2 {
		t.Fatalf("unexpected payment log: %+v", last)
	}

	snapshot := rec.Clone()
	_, err = r.Apply(rec, Proof{ExternalRef: "0xaa", PackType: "rare", Count: 2}, now)
	if !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}
	if !domain.Diff(snapshot, rec).Empty() {
		t.Fatalf("replay modified the record")
	}
}

func TestApplyChecksClaimedAmount(t *testing.T) {
	r := newReconciler(t)
	rec := domain.NewRecord("0xabc", "", nil, time.Now())
	snapshot := rec.Clone()

	short := new(big.Int).Sub(r.Price(3), big.NewInt(1))
	_, err := r.Apply(rec, Proof{ExternalRef: "0x01", Count: 3, ClaimedAmount: short}, time.Now())
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !domain.Diff(snapshot, rec).Empty() {
		t.Fatalf("underpayment modified the record")
	}

	if _, err := r.Apply(rec, Proof{ExternalRef: "0x01", Count: 3, ClaimedAmount: r.Price(3)}, time.Now()); err != nil {
		t.Fatalf("exact payment: %v", err)
	}
}

func TestApplyRejectsBadProofs(t *testing.T) {
	r := newReconciler(t)

	cases := []struct {
		name  string
		proof Proof
		want  error
	}{
		{"missing ref", Proof{Count: 1}, domain.ErrInvalidRequest},
		{"negative count", Proof{ExternalRef: "0x1", Count: -1}, domain.ErrInvalidQuantity},
		{"unknown pack", Proof{ExternalRef: "0x1", PackType: "mythic", Count: 1}, domain.ErrInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := domain.NewRecord("0xabc", "", nil, time.Now())
			if _, err := r.Apply(rec, tc.proof, time.Now()); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if len(rec.Logs) != 1 {
				t.Fatalf("rejected proof appended a log")
			}
		})
	}
}

func TestPriceDefaults(t *testing.T) {
	r := newReconciler(t)
	want, _ := new(big.Int).SetString("300000000000000000", 10)
	if r.Price(3).Cmp(want) != 0 {
		t.Fatalf("expected %s, got %s", want, r.Price(3))
	}
}
