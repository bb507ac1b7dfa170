package domain

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MaxNextRoundSlots is the number of pick slots staged for the following round
const MaxNextRoundSlots = 5

// Direction is the predicted price move of a picked card
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// RoundPick is a single card selection for a round
type RoundPick struct {
	TokenID        string    `json:"tokenId"`
	Dir            Direction `json:"dir"`
	DuplicateIndex int       `json:"duplicateIndex"`
	Locked         bool      `json:"locked"`
	PLock          float64   `json:"pLock,omitempty"`
	PointsLocked   float64   `json:"pointsLocked,omitempty"`
	StartPrice     float64   `json:"startPrice,omitempty"`
}

// RoundHistoryItem is one settled pick inside a round summary
type RoundHistoryItem struct {
	TokenID        string    `json:"tokenId"`
	Symbol         string    `json:"symbol"`
	Dir            Direction `json:"dir"`
	DuplicateIndex int       `json:"duplicateIndex"`
	Points         float64   `json:"points"`
	StartPrice     float64   `json:"startPrice,omitempty"`
	ClosePrice     float64   `json:"closePrice,omitempty"`
}

// RoundHistoryEntry is a settled-round summary, written by round settlement
type RoundHistoryEntry struct {
	RoundNumber int                `json:"roundNumber"`
	Date        string             `json:"date"`
	TotalPoints float64            `json:"totalPoints"`
	Items       []RoundHistoryItem `json:"items"`
}

// Inventory maps a card id or pack type to a strictly positive count
type Inventory map[string]int64

// UserRecord is the economic state of one player, keyed by wallet address
type UserRecord struct {
	ID             string              `json:"id"`
	Name           string              `json:"name,omitempty"`
	Username       string              `json:"username,omitempty"`
	Avatar         string              `json:"avatar,omitempty"`
	WalletAddress  string              `json:"walletAddress,omitempty"`
	TotalPoints    int64               `json:"totalPoints"`
	BankPoints     int64               `json:"bankPoints"`
	GiftPoints     int64               `json:"giftPoints"`
	Inventory      Inventory           `json:"inventory"`
	ActiveRound    []RoundPick         `json:"activeRound"`
	NextRound      []*RoundPick        `json:"nextRound"`
	CurrentRound   int                 `json:"currentRound"`
	LastSettledDay string              `json:"lastSettledDay,omitempty"`
	LastDailyPack  string              `json:"lastDailyPack,omitempty"`
	RoundHistory   []RoundHistoryEntry `json:"roundHistory"`
	Logs           []LogEntry          `json:"logs"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// NormalizeAddress returns the canonical form of a wallet address: 0x-prefixed
// lowercase hex. Strings that are not hex addresses are only trimmed and lowercased.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if common.IsHexAddress(address) {
		return strings.ToLower(common.HexToAddress(address).Hex())
	}
	return strings.ToLower(address)
}

// NewRecord builds the record created at registration
func NewRecord(address, username string, starter Inventory, now time.Time) *UserRecord {
	inv := make(Inventory, len(starter))
	for k, v := range starter {
		if v > 0 {
			inv[k] = v
		}
	}

	return &UserRecord{
		ID:           NormalizeAddress(address),
		Name:         username,
		Username:     username,
		Inventory:    inv,
		ActiveRound:  []RoundPick{},
		NextRound:    make([]*RoundPick, MaxNextRoundSlots),
		CurrentRound: 1,
		RoundHistory: []RoundHistoryEntry{},
		Logs: []LogEntry{
			NewLogEntry(LogTypeSystem, "user-registered", now),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SpendableBalance is bank plus gift points
func (u *UserRecord) SpendableBalance() int64 {
	return u.BankPoints + u.GiftPoints
}

// AddItem increments an inventory entry
func (u *UserRecord) AddItem(id string, n int64) {
	if n <= 0 {
		return
	}
	if u.Inventory == nil {
		u.Inventory = make(Inventory)
	}
	u.Inventory[id] += n
}

// RemoveItem decrements an inventory entry, dropping it when it reaches zero.
// It returns false and leaves the inventory untouched if there are fewer than n.
func (u *UserRecord) RemoveItem(id string, n int64) bool {
	if n <= 0 {
		return true
	}
	have := u.Inventory[id]
	if have < n {
		return false
	}
	if have == n {
		delete(u.Inventory, id)
		return true
	}
	u.Inventory[id] = have - n
	return true
}

// Clone returns a deep copy of the record
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	c := *u

	if u.Inventory != nil {
		c.Inventory = make(Inventory, len(u.Inventory))
		for k, v := range u.Inventory {
			c.Inventory[k] = v
		}
	}
	if u.ActiveRound != nil {
		c.ActiveRound = append([]RoundPick(nil), u.ActiveRound...)
	}
	if u.NextRound != nil {
		c.NextRound = make([]*RoundPick, len(u.NextRound))
		for i, p := range u.NextRound {
			if p != nil {
				pick := *p
				c.NextRound[i] = &pick
			}
		}
	}
	if u.RoundHistory != nil {
		c.RoundHistory = make([]RoundHistoryEntry, len(u.RoundHistory))
		for i, h := range u.RoundHistory {
			h.Items = append([]RoundHistoryItem(nil), h.Items...)
			c.RoundHistory[i] = h
		}
	}
	if u.Logs != nil {
		c.Logs = append([]LogEntry(nil), u.Logs...)
	}
	return &c
}
