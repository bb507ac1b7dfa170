package rounds

import (
	"errors"
	"testing"
	"time"

	"flip_royale/internal/domain"
)

func pick(token string, dir domain.Direction, locked bool) domain.RoundPick {
	return domain.RoundPick{TokenID: token, Dir: dir, Locked: locked}
}

func ptr[T any](v T) *T { return &v }

func newRecord() *domain.UserRecord {
	return domain.NewRecord("0xabc", "carol", nil, time.Now())
}

func TestApplyStagesNextRound(t *testing.T) {
	rec := newRecord()
	a := pick("aixbt", "up", false)

	changed, err := Apply(rec, Change{NextRound: &[]*domain.RoundPick{&a, nil}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !changed {
		t.Fatalf("expected a change")
	}
	if len(rec.NextRound) != domain.MaxNextRoundSlots {
		t.Fatalf("expected %d slots, got %d", domain.MaxNextRoundSlots, len(rec.NextRound))
	}
	if StateOf(rec.NextRound[0]) != SlotStaged || rec.NextRound[0].Dir != domain.DirectionUp {
		t.Fatalf("unexpected slot 0: %+v", rec.NextRound[0])
	}
	for i := 1; i < len(rec.NextRound); i++ {
		if StateOf(rec.NextRound[i]) != SlotEmpty {
			t.Fatalf("slot %d should be empty", i)
		}
	}

	// the same write again is a no-op
	changed, err = Apply(rec, Change{NextRound: &[]*domain.RoundPick{&a}})
	if err != nil || changed {
		t.Fatalf("expected no-op, got changed=%v err=%v", changed, err)
	}
}

func TestApplyRejectsLockedActiveOverwrite(t *testing.T) {
	rec := newRecord()
	rec.ActiveRound = []domain.RoundPick{
		pick("luna", domain.DirectionUp, true),
		pick("vader", domain.DirectionDown, false),
	}
	snapshot := rec.Clone()

	cases := []struct {
		name   string
		active []domain.RoundPick
	}{
		{"flip locked direction", []domain.RoundPick{pick("luna", domain.DirectionDown, true), pick("vader", domain.DirectionDown, false)}},
		{"unlock", []domain.RoundPick{pick("luna", domain.DirectionUp, false), pick("vader", domain.DirectionDown, false)}},
		{"drop locked", []domain.RoundPick{pick("vader", domain.DirectionDown, false)}},
		{"empty", []domain.RoundPick{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Apply(rec, Change{ActiveRound: &tc.active, CurrentRound: ptr(2)})
			if !errors.Is(err, domain.ErrPickLocked) {
				t.Fatalf("expected ErrPickLocked, got %v", err)
			}
			if !domain.Diff(snapshot, rec).Empty() {
				t.Fatalf("rejected write modified the record")
			}
		})
	}
}

func TestApplyAllowsUnlockedTransitions(t *testing.T) {
	rec := newRecord()
	rec.ActiveRound = []domain.RoundPick{
		pick("luna", domain.DirectionUp, true),
		pick("vader", domain.DirectionDown, false),
	}

	active := []domain.RoundPick{
		pick("luna", domain.DirectionUp, true),
		pick("vader", domain.DirectionUp, true),
		pick("game", domain.DirectionDown, false),
	}
	changed, err := Apply(rec, Change{ActiveRound: &active})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !changed || len(rec.ActiveRound) != 3 || !rec.ActiveRound[1].Locked {
		t.Fatalf("unexpected active round %+v", rec.ActiveRound)
	}
}

func TestApplyRejectsLockedNextRoundSlot(t *testing.T) {
	rec := newRecord()
	locked := pick("sam", domain.DirectionUp, true)
	rec.NextRound[2] = &locked

	other := pick("nyko", domain.DirectionDown, false)
	_, err := Apply(rec, Change{NextRound: &[]*domain.RoundPick{&other}})
	if !errors.Is(err, domain.ErrPickLocked) {
		t.Fatalf("expected ErrPickLocked, got %v", err)
	}

	keep := locked
	if _, err := Apply(rec, Change{NextRound: &[]*domain.RoundPick{&other, nil, &keep}}); err != nil {
		t.Fatalf("write preserving the locked slot: %v", err)
	}
}

func TestApplyCurrentRound(t *testing.T) {
	rec := newRecord()
	rec.CurrentRound = 4

	if _, err := Apply(rec, Change{CurrentRound: ptr(3)}); !errors.Is(err, domain.ErrRoundRegression) {
		t.Fatalf("expected ErrRoundRegression, got %v", err)
	}
	changed, err := Apply(rec, Change{CurrentRound: ptr(4)})
	if err != nil || changed {
		t.Fatalf("same round should be a no-op, got changed=%v err=%v", changed, err)
	}
	if changed, err := Apply(rec, Change{CurrentRound: ptr(5)}); err != nil || !changed || rec.CurrentRound != 5 {
		t.Fatalf("advance failed: changed=%v err=%v round=%d", changed, err, rec.CurrentRound)
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	six := make([]*domain.RoundPick, 6)
	bad := pick("luna", "SIDEWAYS", false)
	noToken := []domain.RoundPick{{Dir: domain.DirectionUp}}

	cases := []struct {
		name   string
		change Change
	}{
		{"too many slots", Change{NextRound: &six}},
		{"bad direction", Change{NextRound: &[]*domain.RoundPick{&bad}}},
		{"active without token", Change{ActiveRound: &noToken}},
		{"round zero", Change{CurrentRound: ptr(0)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.change.Validate(); !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}
