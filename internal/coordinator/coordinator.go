package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flip_royale/internal/domain"
	"flip_royale/internal/logger"
	"flip_royale/internal/payment"
	"flip_royale/internal/reward"
	"flip_royale/internal/rounds"
	"flip_royale/internal/sigauth"
	"flip_royale/internal/store"
)

// StarterInventory is granted at registration
var StarterInventory = domain.Inventory{reward.PackCommon: 1}

// AuthProof is a wallet signature over a tagged message
type AuthProof struct {
	Message   string
	Signature string
}

// Result is the outcome of a successful mutation
type Result struct {
	Record           *domain.UserRecord
	Cards            []string
	Cost             int64
	Updated          bool
	AlreadyProcessed bool

	packType string
}

// Publisher receives every persisted record
type Publisher interface {
	Publish(rec *domain.UserRecord)
}

// Options tune the coordinator
type Options struct {
	StoreTimeout time.Duration
	LockTimeout  time.Duration
	MaxPacks     int
	Locker       Locker
	Publisher    Publisher
	Now          func() time.Time
}

// Coordinator is the single entry point for ledger mutations. Mutations of
// one address are serialized; different addresses proceed in parallel.
type Coordinator struct {
	store      store.Store
	gateway    *sigauth.Gateway
	dist       *reward.Distributor
	reconciler *payment.Reconciler
	verifier   payment.ProofVerifier
	locker     Locker
	publisher  Publisher

	storeTimeout time.Duration
	lockTimeout  time.Duration
	maxPacks     int
	now          func() time.Time
}

func New(
	st store.Store,
	gateway *sigauth.Gateway,
	dist *reward.Distributor,
	reconciler *payment.Reconciler,
	verifier payment.ProofVerifier,
	opts Options,
) *Coordinator {
	c := &Coordinator{
		store:        st,
		gateway:      gateway,
		dist:         dist,
		reconciler:   reconciler,
		verifier:     verifier,
		locker:       opts.Locker,
		publisher:    opts.Publisher,
		storeTimeout: opts.StoreTimeout,
		lockTimeout:  opts.LockTimeout,
		maxPacks:     opts.MaxPacks,
		now:          opts.Now,
	}
	if c.locker == nil {
		c.locker = NewKeyedMutex()
	}
	if c.verifier == nil {
		c.verifier = payment.TrustingVerifier{}
	}
	if c.storeTimeout <= 0 {
		c.storeTimeout = 5 * time.Second
	}
	if c.lockTimeout <= 0 {
		c.lockTimeout = 15 * time.Second
	}
	if c.maxPacks <= 0 {
		c.maxPacks = 10
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Mutate authenticates op for userID, then loads, changes, validates and
// persists the record under the user's lock.
func (c *Coordinator) Mutate(ctx context.Context, userID string, auth AuthProof, op Operation) (*Result, error) {
	start := time.Now()
	res, err := c.mutate(ctx, userID, auth, op)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = domain.Code(err)
	case res.AlreadyProcessed:
		outcome = "already_processed"
	case !res.Updated:
		outcome = "noop"
	}
	Mutations.WithLabelValues(op.Name(), outcome).Inc()
	MutationDuration.WithLabelValues(op.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		log := logger.WithContext(ctx).With("op", op.Name(), "user", domain.NormalizeAddress(userID), "error", err)
		if domain.Retryable(err) {
			log.Warn("ledger mutation failed")
		} else {
			log.Debug("ledger mutation rejected")
		}
		return nil, err
	}
	return res, nil
}

func (c *Coordinator) mutate(ctx context.Context, userID string, auth AuthProof, op Operation) (*Result, error) {
	id := domain.NormalizeAddress(userID)
	if !sigauth.ValidAddress(id) {
		return nil, fmt.Errorf("%w: invalid address %q", domain.ErrInvalidRequest, userID)
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if n := quantity(op); n > c.maxPacks {
		return nil, fmt.Errorf("%w: at most %d packs per request", domain.ErrInvalidQuantity, c.maxPacks)
	}

	// authentication never holds the lock
	op, err := c.authenticate(ctx, id, auth, op)
	if err != nil {
		return nil, err
	}

	unlock, err := c.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	before, err := c.load(ctx, id)
	_, isRegister := op.(Register)
	switch {
	case isRegister && err == nil:
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, id)
	case isRegister && errors.Is(err, domain.ErrNotFound):
		before = nil
	case err != nil:
		return nil, err
	}

	now := c.now().UTC()
	var after *domain.UserRecord
	if before == nil {
		after = domain.NewRecord(id, op.(Register).Username, StarterInventory, now)
	} else {
		after = before.Clone()
	}

	res := &Result{}
	changed, err := op.apply(c, after, now, res)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return &Result{Record: before, AlreadyProcessed: true}, nil
	}
	if err != nil {
		return nil, err
	}
	if !changed {
		res.Record = before
		return res, nil
	}

	after.UpdatedAt = now
	if err := domain.CheckInvariants(before, after); err != nil {
		InvariantViolations.Inc()
		logger.WithContext(ctx).Error("ledger invariant violated; mutation aborted",
			"alert", true, "op", op.Name(), "user", id, "error", err)
		return nil, err
	}

	var patch *domain.RecordPatch
	if before == nil {
		patch = domain.FullPatch(after)
	} else {
		patch = domain.Diff(before, after)
	}
	stored, err := c.persist(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	// only cards that reached the store count as granted
	if len(res.Cards) > 0 {
		CardsDrawn.WithLabelValues(res.packType).Add(float64(len(res.Cards)))
	}
	if c.publisher != nil {
		c.publisher.Publish(stored)
	}
	res.Record = stored
	res.Updated = true
	return res, nil
}

// authenticate checks the caller's right to run op. Payment proofs come back
// with the verified amount filled in.
func (c *Coordinator) authenticate(ctx context.Context, id string, auth AuthProof, op Operation) (Operation, error) {
	switch o := op.(type) {
	case Register:
		return op, nil
	case ReconcilePayment:
		var verifier payment.ProofVerifier = c.verifier
		if o.Trusted {
			verifier = payment.TrustingVerifier{}
		}
		if o.Proof.From == "" {
			o.Proof.From = id
		}
		tr, err := verifier.Verify(ctx, o.Proof)
		if err != nil {
			return nil, err
		}
		if tr != nil && tr.Value != nil {
			o.Proof.ClaimedAmount = tr.Value
		}
		return o, nil
	default:
		if err := c.gateway.Authenticate(id, auth.Message, auth.Signature); err != nil {
			return nil, err
		}
		return op, nil
	}
}

func (c *Coordinator) lock(ctx context.Context, id string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, c.lockTimeout)
	defer cancel()

	start := time.Now()
	unlock, err := c.locker.Lock(lockCtx, id)
	LockWait.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: acquire lock for %s: %v", domain.ErrUpstreamUnavailable, id, err)
	}
	return unlock, nil
}

func (c *Coordinator) load(ctx context.Context, id string) (*domain.UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()

	rec, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, storeError("load", err)
	}
	return rec, nil
}

func (c *Coordinator) persist(ctx context.Context, id string, patch *domain.RecordPatch) (*domain.UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()

	rec, err := c.store.Update(ctx, id, patch)
	if err != nil {
		// the write may or may not have landed; retries are safe through the ledger
		return nil, storeError("persist", err)
	}
	return rec, nil
}

func storeError(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUpstreamUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstreamUnavailable, op, err)
	}
}

// Get reads a record without taking the lock
func (c *Coordinator) Get(ctx context.Context, userID string) (*domain.UserRecord, error) {
	return c.load(ctx, domain.NormalizeAddress(userID))
}

// Exists reports whether an address is registered
func (c *Coordinator) Exists(ctx context.Context, userID string) (bool, error) {
	_, err := c.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (c *Coordinator) SavePicks(ctx context.Context, userID string, auth AuthProof, change rounds.Change) (*Result, error) {
	return c.Mutate(ctx, userID, auth, SavePicks{Change: change})
}

func (c *Coordinator) ReconcilePayment(ctx context.Context, userID string, proof payment.Proof) (*Result, error) {
	return c.Mutate(ctx, userID, AuthProof{}, ReconcilePayment{Proof: proof})
}

// ReconcileTrusted credits a payment an operator has confirmed out of band
func (c *Coordinator) ReconcileTrusted(ctx context.Context, userID string, proof payment.Proof) (*Result, error) {
	return c.Mutate(ctx, userID, AuthProof{}, ReconcilePayment{Proof: proof, Trusted: true})
}

func (c *Coordinator) OpenPack(ctx context.Context, userID string, auth AuthProof, packType string, count int) (*Result, error) {
	return c.Mutate(ctx, userID, auth, OpenPack{PackType: packType, Count: count})
}

func (c *Coordinator) PurchaseWithPoints(ctx context.Context, userID string, auth AuthProof, packType string, count int) (*Result, error) {
	return c.Mutate(ctx, userID, auth, PurchaseWithPoints{PackType: packType, Count: count})
}

func (c *Coordinator) Register(ctx context.Context, address, username string) (*Result, error) {
	return c.Mutate(ctx, address, AuthProof{}, Register{Username: username})
}

// Packs returns the configured pack table
func (c *Coordinator) Packs() map[string]reward.PackConfig {
	return c.dist.Packs()
}

// Ping checks the record store
func (c *Coordinator) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	return c.store.Ping(ctx)
}
