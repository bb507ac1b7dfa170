package rounds

import (
	"fmt"
	"reflect"
	"strings"

	"flip_royale/internal/domain"
)

// SlotState is the lifecycle position of one pick slot
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotStaged
	SlotLocked
)

func (s SlotState) String() string {
	switch s {
	case SlotStaged:
		return "staged"
	case SlotLocked:
		return "locked"
	default:
		return "empty"
	}
}

// StateOf returns the state of a pick slot
func StateOf(p *domain.RoundPick) SlotState {
	switch {
	case p == nil || p.TokenID == "":
		return SlotEmpty
	case p.Locked:
		return SlotLocked
	default:
		return SlotStaged
	}
}

// Change is a client round-pick write. Nil fields leave the record untouched.
type Change struct {
	NextRound    *[]*domain.RoundPick
	ActiveRound  *[]domain.RoundPick
	CurrentRound *int
}

// Empty reports whether the change writes nothing
func (c Change) Empty() bool {
	return c.NextRound == nil && c.ActiveRound == nil && c.CurrentRound == nil
}

// Validate checks the shape of the change without looking at any record
func (c Change) Validate() error {
	if c.NextRound != nil {
		if len(*c.NextRound) > domain.MaxNextRoundSlots {
			return fmt.Errorf("%w: nextRound has %d slots, max %d", domain.ErrInvalidRequest, len(*c.NextRound), domain.MaxNextRoundSlots)
		}
		for i, p := range *c.NextRound {
			if StateOf(p) == SlotEmpty {
				continue
			}
			if err := validPick(*p); err != nil {
				return fmt.Errorf("nextRound[%d]: %w", i, err)
			}
		}
	}
	if c.ActiveRound != nil {
		for i, p := range *c.ActiveRound {
			if err := validPick(p); err != nil {
				return fmt.Errorf("activeRound[%d]: %w", i, err)
			}
		}
	}
	if c.CurrentRound != nil && *c.CurrentRound < 1 {
		return fmt.Errorf("%w: currentRound %d", domain.ErrInvalidRequest, *c.CurrentRound)
	}
	return nil
}

// Apply writes the change onto rec. It reports whether anything changed; on
// error rec is left untouched.
func Apply(rec *domain.UserRecord, c Change) (bool, error) {
	if err := c.Validate(); err != nil {
		return false, err
	}

	var next []*domain.RoundPick
	if c.NextRound != nil {
		next = padSlots(*c.NextRound)
		for i, old := range rec.NextRound {
			if StateOf(old) != SlotLocked {
				continue
			}
			if i >= len(next) || next[i] == nil || *next[i] != *old {
				return false, fmt.Errorf("%w: nextRound slot %d", domain.ErrPickLocked, i)
			}
		}
	}

	var active []domain.RoundPick
	if c.ActiveRound != nil {
		active = make([]domain.RoundPick, len(*c.ActiveRound))
		for i, p := range *c.ActiveRound {
			p.Dir = domain.Direction(strings.ToUpper(string(p.Dir)))
			active[i] = p
		}
		for i, old := range rec.ActiveRound {
			if !old.Locked {
				continue
			}
			if i >= len(active) || active[i] != old {
				return false, fmt.Errorf("%w: activeRound[%d] (%s)", domain.ErrPickLocked, i, old.TokenID)
			}
		}
	}

	if c.CurrentRound != nil && *c.CurrentRound < rec.CurrentRound {
		return false, fmt.Errorf("%w: %d < %d", domain.ErrRoundRegression, *c.CurrentRound, rec.CurrentRound)
	}

	changed := false
	if c.NextRound != nil && !reflect.DeepEqual(next, rec.NextRound) {
		rec.NextRound = next
		changed = true
	}
	if c.ActiveRound != nil && !reflect.DeepEqual(active, rec.ActiveRound) {
		rec.ActiveRound = active
		changed = true
	}
	if c.CurrentRound != nil && *c.CurrentRound != rec.CurrentRound {
		rec.CurrentRound = *c.CurrentRound
		changed = true
	}
	return changed, nil
}

// padSlots copies picks into exactly MaxNextRoundSlots slots
func padSlots(picks []*domain.RoundPick) []*domain.RoundPick {
	out := make([]*domain.RoundPick, domain.MaxNextRoundSlots)
	for i, p := range picks {
		if p == nil || p.TokenID == "" {
			continue
		}
		pick := *p
		pick.Dir = domain.Direction(strings.ToUpper(string(pick.Dir)))
		out[i] = &pick
	}
	return out
}

func validPick(p domain.RoundPick) error {
	if p.TokenID == "" {
		return fmt.Errorf("%w: pick without tokenId", domain.ErrInvalidRequest)
	}
	switch domain.Direction(strings.ToUpper(string(p.Dir))) {
	case domain.DirectionUp, domain.DirectionDown:
	default:
		return fmt.Errorf("%w: direction %q", domain.ErrInvalidRequest, p.Dir)
	}
	if p.DuplicateIndex < 0 {
		return fmt.Errorf("%w: duplicateIndex %d", domain.ErrInvalidRequest, p.DuplicateIndex)
	}
	return nil
}
