package reward

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Tier is a rarity category of cards
type Tier string

const (
	TierSentient Tier = "sentient"
	TierGenesis  Tier = "genesis"
	TierUnicorn  Tier = "unicorn"
)

// CardsPerPack is how many cards a single pack yields
const CardsPerPack = 5

var ErrEmptyCatalog = errors.New("card catalog is empty")

//go:embed cards.json
var defaultCatalogJSON []byte

// Card is a collectible card definition
type Card struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Tier   Tier   `json:"tier"`
}

// Catalog holds all cards grouped by tier
type Catalog struct {
	cards []Card
	pools map[Tier][]string
	all   []string
}

// NewCatalog indexes a card list. Duplicate ids are rejected.
func NewCatalog(cards []Card) (*Catalog, error) {
	if len(cards) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		cards: make([]Card, 0, len(cards)),
		pools: make(map[Tier][]string),
	}
	seen := make(map[string]bool, len(cards))
	for _, card := range cards {
		if card.ID == "" {
			return nil, errors.New("card with empty id")
		}
		if seen[card.ID] {
			return nil, fmt.Errorf("duplicate card id %q", card.ID)
		}
		seen[card.ID] = true
		c.cards = append(c.cards, card)
		c.pools[card.Tier] = append(c.pools[card.Tier], card.ID)
		c.all = append(c.all, card.ID)
	}
	return c, nil
}

// DefaultCatalog returns the catalog bundled with the binary
func DefaultCatalog() (*Catalog, error) {
	return parseCatalog(defaultCatalogJSON)
}

// LoadCatalog reads a catalog from a JSON file of the same shape as cards.json
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parseCatalog(b)
}

func parseCatalog(b []byte) (*Catalog, error) {
	var doc struct {
		Cards []Card `json:"cards"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewCatalog(doc.Cards)
}

// Pool returns the card ids of a tier
func (c *Catalog) Pool(t Tier) []string {
	return c.pools[t]
}

// All returns every card id
func (c *Catalog) All() []string {
	return c.all
}

// Has reports whether id is a card in the catalog
func (c *Catalog) Has(id string) bool {
	for _, card := range c.cards {
		if card.ID == id {
			return true
		}
	}
	return false
}
