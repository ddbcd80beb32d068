// Package ledger tracks which upstream articles have already been
// processed, keyed by their Guardian ID, so repeated ingestion runs
// skip work they have already done.
package ledger

import (
	"context"
	"time"
)

// Entry records one processed article
type Entry struct {
	GuardianID  string    `json:"guardian_id"`
	Slug        string    `json:"slug"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Ledger is the dedup contract shared by all backends
type Ledger interface {
	// IsProcessed reports whether the Guardian ID has been seen before.
	IsProcessed(ctx context.Context, guardianID string) (bool, error)

	// MarkProcessed records the ID. Marking an already marked ID is a no-op.
	MarkProcessed(ctx context.Context, guardianID, slug string) error

	// Unmark releases the ID so the article can be re-ingested,
	// reporting whether an entry was actually removed.
	Unmark(ctx context.Context, guardianID string) (bool, error)

	// Entries returns every recorded entry, most recent first.
	Entries(ctx context.Context) ([]Entry, error)

	Close() error
}
