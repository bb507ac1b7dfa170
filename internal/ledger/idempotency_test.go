package ledger

import (
	"errors"
	"testing"
	"time"

	"flip_royale/internal/domain"
)

func TestMarkProcessedOnce(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := domain.NewRecord("0xAbC", "alice", nil, now)

	ref := "0xDEADBEEF"
	if HasProcessed(rec, ref) {
		t.Fatalf("fresh record should not have processed %s", ref)
	}

	entry := domain.NewLogEntry(domain.LogTypePayment, "pack payment", now)
	entry.ExternalRef = ref
	if err := MarkProcessed(rec, entry); err != nil {
		t.Fatalf("mark: %v", err)
	}

	if !HasProcessed(rec, "0xdeadbeef") {
		t.Fatalf("lookup should be case-insensitive")
	}
	if got := rec.Logs[len(rec.Logs)-1].ExternalRef; got != "0xdeadbeef" {
		t.Fatalf("expected stored ref to be normalised, got %s", got)
	}

	before := len(rec.Logs)
	err := MarkProcessed(rec, entry)
	if !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}
	if len(rec.Logs) != before {
		t.Fatalf("replay must not append: %d -> %d", before, len(rec.Logs))
	}
}

func TestMarkProcessedRejectsEmptyRef(t *testing.T) {
	rec := domain.NewRecord("0xabc", "", nil, time.Now())
	entry := domain.NewLogEntry(domain.LogTypePayment, "", time.Now())
	entry.ExternalRef = "   "

	if err := MarkProcessed(rec, entry); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestHasProcessedIgnoresOtherEntries(t *testing.T) {
	rec := domain.NewRecord("0xabc", "", nil, time.Now())
	rec.AppendLog(domain.NewLogEntry(domain.LogTypePurchase, "0xfeed", time.Now()))

	if HasProcessed(rec, "0xfeed") {
		t.Fatalf("a note is not an external reference")
	}
	if HasProcessed(nil, "0xfeed") {
		t.Fatalf("nil record has processed nothing")
	}
}
