package reward

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"sync"

	"flip_royale/internal/domain"
)

// Source yields uniform integers in [0, n)
type Source interface {
	Intn(n int) int
}

// CryptoSource draws from crypto/rand
type CryptoSource struct{}

func (CryptoSource) Intn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return int(v.Int64())
}

// SeededSource is a deterministic source for tests and simulations
type SeededSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeededSource returns a PCG-backed source
func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *SeededSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Distributor turns packs into card draws using per-pack rarity tables
type Distributor struct {
	catalog *Catalog
	packs   map[string]PackConfig
	src     Source
}

// NewDistributor builds a distributor. A nil source means crypto/rand.
func NewDistributor(catalog *Catalog, packs map[string]PackConfig, src Source) *Distributor {
	if src == nil {
		src = CryptoSource{}
	}
	return &Distributor{catalog: catalog, packs: packs, src: src}
}

// Packs returns the configured pack table
func (d *Distributor) Packs() map[string]PackConfig {
	return d.packs
}

// Pack returns the config of a pack type
func (d *Distributor) Pack(packType string) (PackConfig, error) {
	p, ok := d.packs[packType]
	if !ok {
		return PackConfig{}, fmt.Errorf("%w: unknown pack type %q", domain.ErrInvalidRequest, packType)
	}
	return p, nil
}

// DrawCards draws quantity packs of packType and returns every card id drawn
func (d *Distributor) DrawCards(packType string, quantity int) ([]string, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: %d packs", domain.ErrInvalidQuantity, quantity)
	}
	pack, err := d.Pack(packType)
	if err != nil {
		return nil, err
	}

	perPack := pack.CardsPerPack
	if perPack <= 0 {
		perPack = CardsPerPack
	}

	cards := make([]string, 0, perPack*quantity)
	for i := 0; i < perPack*quantity; i++ {
		cards = append(cards, d.drawOne(pack))
	}
	return cards, nil
}

// PickTier selects a tier with probability proportional to its weight.
// ok is false when the table has no positive weight.
func (d *Distributor) PickTier(pack PackConfig) (Tier, bool) {
	total := pack.TotalWeight()
	if total <= 0 {
		return "", false
	}

	r := d.src.Intn(total)
	for _, w := range pack.Weights {
		if w.Weight <= 0 {
			continue
		}
		if r < w.Weight {
			return w.Tier, true
		}
		r -= w.Weight
	}
	// unreachable while r < total
	return pack.Weights[len(pack.Weights)-1].Tier, true
}

func (d *Distributor) drawOne(pack PackConfig) string {
	pool := d.catalog.All()
	if tier, ok := d.PickTier(pack); ok {
		if p := d.catalog.Pool(tier); len(p) > 0 {
			pool = p
		}
	}
	return pool[d.src.Intn(len(pool))]
}
