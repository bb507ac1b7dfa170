package reward

import (
	"fmt"
	"strings"

	"flip_royale/internal/domain"
)

const (
	PackCommon = "common"
	PackRare   = "rare"
)

// TierWeight is one row of a pack's rarity table
type TierWeight struct {
	Tier   Tier `json:"tier"`
	Weight int  `json:"weight"`
}

// PackConfig describes a purchasable pack type
type PackConfig struct {
	Name         string       `json:"name"`
	CostPoints   int64        `json:"cost_points"`
	CardsPerPack int          `json:"cards_per_pack"`
	Weights      []TierWeight `json:"weights"` // draw order matters
}

// TotalWeight sums the non-negative tier weights
func (p PackConfig) TotalWeight() int {
	total := 0
	for _, w := range p.Weights {
		if w.Weight > 0 {
			total += w.Weight
		}
	}
	return total
}

// DefaultPacks returns the stock pack table: common 95/4/1, rare 60/30/10
func DefaultPacks() map[string]PackConfig {
	return map[string]PackConfig{
		PackCommon: {
			Name:         PackCommon,
			CostPoints:   5000,
			CardsPerPack: CardsPerPack,
			Weights: []TierWeight{
				{Tier: TierSentient, Weight: 95},
				{Tier: TierGenesis, Weight: 4},
				{Tier: TierUnicorn, Weight: 1},
			},
		},
		PackRare: {
			Name:         PackRare,
			CostPoints:   10000,
			CardsPerPack: CardsPerPack,
			Weights: []TierWeight{
				{Tier: TierSentient, Weight: 60},
				{Tier: TierGenesis, Weight: 30},
				{Tier: TierUnicorn, Weight: 10},
			},
		},
	}
}

// NormalizePackType lowercases a pack type, defaulting an empty one to common
func NormalizePackType(packType string) string {
	packType = strings.ToLower(strings.TrimSpace(packType))
	if packType == "" {
		return PackCommon
	}
	return packType
}

// ValidatePackType rejects pack types that are not configured
func ValidatePackType(packs map[string]PackConfig, packType string) error {
	if _, ok := packs[packType]; !ok {
		return fmt.Errorf("%w: unknown pack type %q", domain.ErrInvalidRequest, packType)
	}
	return nil
}
