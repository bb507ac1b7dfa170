package domain

import (
	"reflect"
	"time"
)

// RecordPatch is a partial record update. Nil fields are left untouched by the store.
type RecordPatch struct {
	ID             *string              `json:"id,omitempty"`
	Name           *string              `json:"name,omitempty"`
	Username       *string              `json:"username,omitempty"`
	Avatar         *string              `json:"avatar,omitempty"`
	WalletAddress  *string              `json:"walletAddress,omitempty"`
	TotalPoints    *int64               `json:"totalPoints,omitempty"`
	BankPoints     *int64               `json:"bankPoints,omitempty"`
	GiftPoints     *int64               `json:"giftPoints,omitempty"`
	Inventory      *Inventory           `json:"inventory,omitempty"`
	ActiveRound    *[]RoundPick         `json:"activeRound,omitempty"`
	NextRound      *[]*RoundPick        `json:"nextRound,omitempty"`
	CurrentRound   *int                 `json:"currentRound,omitempty"`
	LastSettledDay *string              `json:"lastSettledDay,omitempty"`
	LastDailyPack  *string              `json:"lastDailyPack,omitempty"`
	RoundHistory   *[]RoundHistoryEntry `json:"roundHistory,omitempty"`
	Logs           *[]LogEntry          `json:"logs,omitempty"`
	CreatedAt      *time.Time           `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time           `json:"updatedAt,omitempty"`
}

// FullPatch returns a patch that writes every field of the record
func FullPatch(u *UserRecord) *RecordPatch {
	c := u.Clone()
	return &RecordPatch{
		ID:             &c.ID,
		Name:           &c.Name,
		Username:       &c.Username,
		Avatar:         &c.Avatar,
		WalletAddress:  &c.WalletAddress,
		TotalPoints:    &c.TotalPoints,
		BankPoints:     &c.BankPoints,
		GiftPoints:     &c.GiftPoints,
		Inventory:      &c.Inventory,
		ActiveRound:    &c.ActiveRound,
		NextRound:      &c.NextRound,
		CurrentRound:   &c.CurrentRound,
		LastSettledDay: &c.LastSettledDay,
		LastDailyPack:  &c.LastDailyPack,
		RoundHistory:   &c.RoundHistory,
		Logs:           &c.Logs,
		CreatedAt:      &c.CreatedAt,
		UpdatedAt:      &c.UpdatedAt,
	}
}

// Diff returns the fields of after that differ from before. The id is never
// part of a diff; the store is addressed by it.
func Diff(before, after *UserRecord) *RecordPatch {
	a := after.Clone()
	p := &RecordPatch{}

	if before.Name != a.Name {
		p.Name = &a.Name
	}
	if before.Username != a.Username {
		p.Username = &a.Username
	}
	if before.Avatar != a.Avatar {
		p.Avatar = &a.Avatar
	}
	if before.WalletAddress != a.WalletAddress {
		p.WalletAddress = &a.WalletAddress
	}
	if before.TotalPoints != a.TotalPoints {
		p.TotalPoints = &a.TotalPoints
	}
	if before.BankPoints != a.BankPoints {
		p.BankPoints = &a.BankPoints
	}
	if before.GiftPoints != a.GiftPoints {
		p.GiftPoints = &a.GiftPoints
	}
	if !inventoryEqual(before.Inventory, a.Inventory) {
		if a.Inventory == nil {
			a.Inventory = Inventory{}
		}
		p.Inventory = &a.Inventory
	}
	if !reflect.DeepEqual(before.ActiveRound, a.ActiveRound) {
		p.ActiveRound = &a.ActiveRound
	}
	if !reflect.DeepEqual(before.NextRound, a.NextRound) {
		p.NextRound = &a.NextRound
	}
	if before.CurrentRound != a.CurrentRound {
		p.CurrentRound = &a.CurrentRound
	}
	if before.LastSettledDay != a.LastSettledDay {
		p.LastSettledDay = &a.LastSettledDay
	}
	if before.LastDailyPack != a.LastDailyPack {
		p.LastDailyPack = &a.LastDailyPack
	}
	if !reflect.DeepEqual(before.RoundHistory, a.RoundHistory) {
		p.RoundHistory = &a.RoundHistory
	}
	if !logsEqual(before.Logs, a.Logs) {
		p.Logs = &a.Logs
	}
	if !before.CreatedAt.Equal(a.CreatedAt) {
		p.CreatedAt = &a.CreatedAt
	}
	if !before.UpdatedAt.Equal(a.UpdatedAt) {
		p.UpdatedAt = &a.UpdatedAt
	}
	return p
}

// Empty reports whether the patch changes nothing
func (p *RecordPatch) Empty() bool {
	return p == nil || reflect.ValueOf(*p).IsZero()
}

// Apply writes the non-nil fields of the patch onto rec
func (p *RecordPatch) Apply(rec *UserRecord) {
	if p == nil {
		return
	}
	if p.ID != nil {
		rec.ID = *p.ID
	}
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Username != nil {
		rec.Username = *p.Username
	}
	if p.Avatar != nil {
		rec.Avatar = *p.Avatar
	}
	if p.WalletAddress != nil {
		rec.WalletAddress = *p.WalletAddress
	}
	if p.TotalPoints != nil {
		rec.TotalPoints = *p.TotalPoints
	}
	if p.BankPoints != nil {
		rec.BankPoints = *p.BankPoints
	}
	if p.GiftPoints != nil {
		rec.GiftPoints = *p.GiftPoints
	}
	if p.Inventory != nil {
		rec.Inventory = *p.Inventory
	}
	if p.ActiveRound != nil {
		rec.ActiveRound = *p.ActiveRound
	}
	if p.NextRound != nil {
		rec.NextRound = *p.NextRound
	}
	if p.CurrentRound != nil {
		rec.CurrentRound = *p.CurrentRound
	}
	if p.LastSettledDay != nil {
		rec.LastSettledDay = *p.LastSettledDay
	}
	if p.LastDailyPack != nil {
		rec.LastDailyPack = *p.LastDailyPack
	}
	if p.RoundHistory != nil {
		rec.RoundHistory = *p.RoundHistory
	}
	if p.Logs != nil {
		rec.Logs = *p.Logs
	}
	if p.CreatedAt != nil {
		rec.CreatedAt = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		rec.UpdatedAt = *p.UpdatedAt
	}
}

func inventoryEqual(a, b Inventory) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func logsEqual(a, b []LogEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Equal compares two log entries field by field
func (e LogEntry) Equal(o LogEntry) bool {
	if !e.At.Equal(o.At) {
		return false
	}
	e.At, o.At = time.Time{}, time.Time{}
	return e == o
}
