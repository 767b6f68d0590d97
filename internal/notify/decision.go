// Package notify is the cross-request notification ledger: a bounded,
// time-ordered, deduplicated collection of user-facing status records that
// persists across reloads.
package notify

import "github.com/heartmarshall/wordgen/internal/domain"

// Action is the outcome of the override decision table.
type Action int

const (
	// Reject leaves the existing entry untouched.
	Reject Action = iota
	// Insert creates a new entry at the most-recent position.
	Insert
	// Merge copies the candidate's present fields into the existing
	// entry, preserving its seen flag.
	Merge
	// Replace overwrites every field of the existing entry except seen.
	Replace
)

// Decide resolves what an upsert may do, keyed by (existing status,
// incoming status, force flag). An empty existing status means no entry
// exists yet.
//
// The core ordering guarantee lives here: an existing redirect entry is
// sticky, so a later stale non-redirect frame never regresses it unless
// the caller forces the override. Completed and redirect candidates always
// force through, since they are themselves terminal.
func Decide(existing, incoming domain.NotificationStatus, force bool) Action {
	switch {
	case existing == "":
		return Insert
	case incoming == domain.StatusRedirect || incoming == domain.StatusCompleted:
		return Replace
	case existing == domain.StatusRedirect && !force:
		return Reject
	case force:
		return Replace
	default:
		return Merge
	}
}
