package ledger

import (
	"fmt"
	"strings"

	"flip_royale/internal/domain"
)

// NormalizeRef canonicalises an external reference. Transaction hashes are hex,
// so case carries no meaning.
func NormalizeRef(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}

// HasProcessed reports whether a payment with externalRef was already credited to rec
func HasProcessed(rec *domain.UserRecord, externalRef string) bool {
	ref := NormalizeRef(externalRef)
	if rec == nil || ref == "" {
		return false
	}
	for _, e := range rec.Logs {
		if e.ExternalRef != "" && NormalizeRef(e.ExternalRef) == ref {
			return true
		}
	}
	return false
}

// MarkProcessed appends entry to the record's log as the processing marker for
// entry.ExternalRef. The caller must hold the record's lock and persist the record
// in the same write as the credit it marks.
func MarkProcessed(rec *domain.UserRecord, entry domain.LogEntry) error {
	ref := NormalizeRef(entry.ExternalRef)
	if ref == "" {
		return fmt.Errorf("%w: empty external reference", domain.ErrInvalidRequest)
	}
	if HasProcessed(rec, ref) {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyProcessed, ref)
	}
	entry.ExternalRef = ref
	rec.AppendLog(entry)
	return nil
}
