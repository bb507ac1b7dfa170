package domain

import (
	"fmt"
	"reflect"
	"strings"
)

// CheckInvariants validates a mutated record against the record it was
// derived from. A nil before means the record is being created.
func CheckInvariants(before, after *UserRecord) error {
	if after == nil {
		return fmt.Errorf("%w: nil record", ErrInvariantViolation)
	}
	if after.ID == "" || after.ID != NormalizeAddress(after.ID) {
		return fmt.Errorf("%w: id %q is not canonical", ErrInvariantViolation, after.ID)
	}
	if after.TotalPoints < 0 || after.BankPoints < 0 || after.GiftPoints < 0 {
		return fmt.Errorf("%w: negative balance (total=%d bank=%d gift=%d)",
			ErrInvariantViolation, after.TotalPoints, after.BankPoints, after.GiftPoints)
	}
	for id, n := range after.Inventory {
		if n <= 0 {
			return fmt.Errorf("%w: inventory %q has count %d", ErrInvariantViolation, id, n)
		}
	}
	if len(after.NextRound) > MaxNextRoundSlots {
		return fmt.Errorf("%w: %d next round slots", ErrInvariantViolation, len(after.NextRound))
	}

	seen := make(map[string]struct{})
	for _, e := range after.Logs {
		if e.ExternalRef == "" {
			continue
		}
		ref := strings.ToLower(e.ExternalRef)
		if _, dup := seen[ref]; dup {
			return fmt.Errorf("%w: external ref %s credited twice", ErrInvariantViolation, ref)
		}
		seen[ref] = struct{}{}
	}

	if before == nil {
		return nil
	}

	if after.ID != before.ID {
		return fmt.Errorf("%w: id changed from %s to %s", ErrInvariantViolation, before.ID, after.ID)
	}
	if after.TotalPoints < before.TotalPoints {
		return fmt.Errorf("%w: totalPoints decreased", ErrInvariantViolation)
	}
	if after.CurrentRound < before.CurrentRound {
		return fmt.Errorf("%w: currentRound decreased", ErrInvariantViolation)
	}

	if len(after.Logs) < len(before.Logs) {
		return fmt.Errorf("%w: logs truncated", ErrInvariantViolation)
	}
	for i := range before.Logs {
		if !before.Logs[i].Equal(after.Logs[i]) {
			return fmt.Errorf("%w: log entry %d rewritten", ErrInvariantViolation, i)
		}
	}

	if len(after.RoundHistory) < len(before.RoundHistory) {
		return fmt.Errorf("%w: round history truncated", ErrInvariantViolation)
	}
	for i := range before.RoundHistory {
		if !reflect.DeepEqual(before.RoundHistory[i], after.RoundHistory[i]) {
			return fmt.Errorf("%w: round history entry %d rewritten", ErrInvariantViolation, i)
		}
	}

	for i, p := range before.ActiveRound {
		if !p.Locked {
			continue
		}
		if i >= len(after.ActiveRound) || after.ActiveRound[i] != p {
			return fmt.Errorf("%w: locked pick %d altered", ErrInvariantViolation, i)
		}
	}
	return nil
}
