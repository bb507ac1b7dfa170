package payment

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"flip_royale/internal/domain"
	"flip_royale/internal/ledger"
	"flip_royale/internal/reward"
)

// DefaultPackPriceWei is 0.1 of an 18-decimal token
var DefaultPackPriceWei = big.NewInt(100_000_000_000_000_000)

// Proof is an externally observed payment claimed by a user
type Proof struct {
	ExternalRef   string
	From          string
	ClaimedAmount *big.Int // nil when the caller did not state an amount
	PackType      string
	Count         int
}

// Normalize canonicalises the reference, sender and pack type
func (p Proof) Normalize() Proof {
	p.ExternalRef = ledger.NormalizeRef(p.ExternalRef)
	p.From = domain.NormalizeAddress(p.From)
	p.PackType = reward.NormalizePackType(p.PackType)
	if p.Count == 0 {
		p.Count = 1
	}
	return p
}

// Reconciler credits verified payments exactly once
type Reconciler struct {
	dist  *reward.Distributor
	price *big.Int
}

// NewReconciler creates a reconciler charging pricePerPack token units per pack.
// A nil price uses DefaultPackPriceWei.
func NewReconciler(dist *reward.Distributor, pricePerPack *big.Int) *Reconciler {
	if pricePerPack == nil || pricePerPack.Sign() <= 0 {
		pricePerPack = DefaultPackPriceWei
	}
	return &Reconciler{dist: dist, price: new(big.Int).Set(pricePerPack)}
}

// Price returns the token amount owed for count packs
func (r *Reconciler) Price(count int) *big.Int {
	return new(big.Int).Mul(r.price, big.NewInt(int64(count)))
}

// Apply credits the packs paid for by proof onto rec. It must run inside the
// record's critical section; the proof itself is verified before that.
// A replayed reference returns ErrAlreadyProcessed and leaves rec untouched.
func (r *Reconciler) Apply(rec *domain.UserRecord, proof Proof, now time.Time) ([]string, error) {
	proof = proof.Normalize()
	if proof.ExternalRef == "" {
		return nil, fmt.Errorf("%w: missing transaction reference", domain.ErrInvalidRequest)
	}
	if proof.Count < 1 {
		return nil, fmt.Errorf("%w: %d packs", domain.ErrInvalidQuantity, proof.Count)
	}

	if ledger.HasProcessed(rec, proof.ExternalRef) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyProcessed, proof.ExternalRef)
	}

	if proof.ClaimedAmount != nil {
		owed := r.Price(proof.Count)
		if proof.ClaimedAmount.Cmp(owed) < 0 {
			return nil, fmt.Errorf("%w: paid %s, owed %s", domain.ErrInsufficientFunds, proof.ClaimedAmount, owed)
		}
	}

	cards, err := r.dist.DrawCards(proof.PackType, proof.Count)
	if err != nil {
		return nil, err
	}
	for _, id := range cards {
		rec.AddItem(id, 1)
	}

	entry := domain.NewLogEntry(domain.LogTypePayment, fmt.Sprintf("Purchased %d %s pack(s) on-chain", proof.Count, strings.ToUpper(proof.PackType[:1])+proof.PackType[1:]), now)
	entry.ExternalRef = proof.ExternalRef
	entry.PackType = proof.PackType
	entry.Count = proof.Count
	entry.Cards = len(cards)
	if err := ledger.MarkProcessed(rec, entry); err != nil {
		return nil, err
	}
	return cards, nil
}
