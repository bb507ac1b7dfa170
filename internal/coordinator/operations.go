package coordinator

import (
	"fmt"
	"time"

	"flip_royale/internal/domain"
	"flip_royale/internal/payment"
	"flip_royale/internal/reward"
	"flip_royale/internal/rounds"
)

// Operation is one ledger mutation. The set is closed: SavePicks,
// ReconcilePayment, OpenPack, PurchaseWithPoints and Register.
type Operation interface {
	Name() string
	Validate() error
	apply(c *Coordinator, rec *domain.UserRecord, now time.Time, res *Result) (bool, error)
}

// SavePicks writes client round picks
type SavePicks struct {
	Change rounds.Change
}

func (SavePicks) Name() string { return "save_picks" }

func (op SavePicks) Validate() error {
	return op.Change.Validate()
}

func (op SavePicks) apply(_ *Coordinator, rec *domain.UserRecord, _ time.Time, _ *Result) (bool, error) {
	return rounds.Apply(rec, op.Change)
}

// ReconcilePayment credits packs bought on-chain. Trusted skips proof
// verification and is reserved for operator reconciliation.
type ReconcilePayment struct {
	Proof   payment.Proof
	Trusted bool
}

func (ReconcilePayment) Name() string { return "reconcile_payment" }

func (op ReconcilePayment) Validate() error {
	p := op.Proof.Normalize()
	if p.ExternalRef == "" {
		return fmt.Errorf("%w: missing transaction reference", domain.ErrInvalidRequest)
	}
	if p.Count < 1 {
		return fmt.Errorf("%w: %d packs", domain.ErrInvalidQuantity, p.Count)
	}
	return nil
}

func (op ReconcilePayment) apply(c *Coordinator, rec *domain.UserRecord, now time.Time, res *Result) (bool, error) {
	cards, err := c.reconciler.Apply(rec, op.Proof, now)
	if err != nil {
		return false, err
	}
	res.Cards = cards
	res.packType = op.Proof.Normalize().PackType
	return true, nil
}

// OpenPack consumes pack tokens from the inventory and grants their cards
type OpenPack struct {
	PackType string
	Count    int
}

func (OpenPack) Name() string { return "open_pack" }

func (op OpenPack) Validate() error {
	if op.Count < 0 {
		return fmt.Errorf("%w: %d packs", domain.ErrInvalidQuantity, op.Count)
	}
	return nil
}

func (op OpenPack) apply(c *Coordinator, rec *domain.UserRecord, now time.Time, res *Result) (bool, error) {
	packType := reward.NormalizePackType(op.PackType)
	count := max(op.Count, 1)
	if err := reward.ValidatePackType(c.dist.Packs(), packType); err != nil {
		return false, err
	}

	if !rec.RemoveItem(packType, int64(count)) {
		return false, fmt.Errorf("%w: have %d %s, need %d", domain.ErrOutOfStock, rec.Inventory[packType], packType, count)
	}
	cards, err := c.dist.DrawCards(packType, count)
	if err != nil {
		return false, err
	}
	for _, id := range cards {
		rec.AddItem(id, 1)
	}

	entry := domain.NewLogEntry(domain.LogTypePackOpen, fmt.Sprintf("Opened %d %s pack(s)", count, packType), now)
	entry.PackType = packType
	entry.Count = count
	entry.Cards = len(cards)
	rec.AppendLog(entry)

	res.Cards = cards
	res.packType = packType
	return true, nil
}

// PurchaseWithPoints buys packs with bank and gift points
type PurchaseWithPoints struct {
	PackType string
	Count    int
}

func (PurchaseWithPoints) Name() string { return "purchase_with_points" }

func (op PurchaseWithPoints) Validate() error {
	if op.Count < 0 {
		return fmt.Errorf("%w: %d packs", domain.ErrInvalidQuantity, op.Count)
	}
	return nil
}

func (op PurchaseWithPoints) apply(c *Coordinator, rec *domain.UserRecord, now time.Time, res *Result) (bool, error) {
	packType := reward.NormalizePackType(op.PackType)
	count := max(op.Count, 1)
	pack, err := c.dist.Pack(packType)
	if err != nil {
		return false, err
	}

	cost := pack.CostPoints * int64(count)
	if rec.SpendableBalance() < cost {
		return false, fmt.Errorf("%w: need %d points, have %d", domain.ErrInsufficientFunds, cost, rec.SpendableBalance())
	}

	cards, err := c.dist.DrawCards(packType, count)
	if err != nil {
		return false, err
	}

	// bank is drawn down first
	fromBank := min(rec.BankPoints, cost)
	rec.BankPoints -= fromBank
	rec.GiftPoints -= cost - fromBank

	for _, id := range cards {
		rec.AddItem(id, 1)
	}

	entry := domain.NewLogEntry(domain.LogTypePurchase, fmt.Sprintf("Bought %d %s pack(s) for %d points", count, packType, cost), now)
	entry.PackType = packType
	entry.Count = count
	entry.Cards = len(cards)
	entry.PointsDelta = -cost
	rec.AppendLog(entry)

	res.Cards = cards
	res.Cost = cost
	res.packType = packType
	return true, nil
}

// Register creates the record for a new address
type Register struct {
	Username string
}

func (Register) Name() string { return "register" }

func (op Register) Validate() error {
	if len(op.Username) > 64 {
		return fmt.Errorf("%w: username too long", domain.ErrInvalidRequest)
	}
	return nil
}

// apply receives the fresh record built by the coordinator; nothing else to do
func (op Register) apply(_ *Coordinator, _ *domain.UserRecord, _ time.Time, _ *Result) (bool, error) {
	return true, nil
}

// quantity returns the number of packs an operation moves, if any
func quantity(op Operation) int {
	switch o := op.(type) {
	case ReconcilePayment:
		return o.Proof.Count
	case OpenPack:
		return o.Count
	case PurchaseWithPoints:
		return o.Count
	}
	return 0
}
