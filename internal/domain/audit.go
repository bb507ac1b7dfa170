package domain

import (
	"time"

	"github.com/google/uuid"
)

// LogType categorises an economic event in a record's audit log
type LogType string

const (
	LogTypeDaily    LogType = "daily"
	LogTypeDuel     LogType = "duel"
	LogTypeSystem   LogType = "system"
	LogTypePurchase LogType = "purchase"
	LogTypePackOpen LogType = "pack_open"
	LogTypePayment  LogType = "payment"
)

// LogEntry is one append-only audit event. Payment entries carry the
// external transaction reference used for replay detection.
type LogEntry struct {
	ID           string    `json:"id,omitempty"`
	Date         string    `json:"date"`
	At           time.Time `json:"at,omitempty"`
	Type         LogType   `json:"type"`
	Note         string    `json:"note,omitempty"`
	ExternalRef  string    `json:"externalRef,omitempty"`
	PackType     string    `json:"packType,omitempty"`
	Count        int       `json:"count,omitempty"`
	Cards        int       `json:"cards,omitempty"`
	PointsDelta  int64     `json:"pointsDelta,omitempty"`
	DailyDelta   int64     `json:"dailyDelta,omitempty"`
	BonusGranted int64     `json:"bonusGranted,omitempty"`
}

// NewLogEntry stamps a log entry with an id and the event time
func NewLogEntry(t LogType, note string, now time.Time) LogEntry {
	now = now.UTC()
	return LogEntry{
		ID:   uuid.NewString(),
		Date: now.Format(time.DateOnly),
		At:   now,
		Type: t,
		Note: note,
	}
}

// AppendLog appends an entry to the record's audit log
func (u *UserRecord) AppendLog(e LogEntry) {
	u.Logs = append(u.Logs, e)
}
