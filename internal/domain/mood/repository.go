package mood

import (
	"context"
)

// Repository defines operations for mood entries. Entries are
// append-only history; they are read by the scheduler but never mutated.
type Repository interface {
	Add(ctx context.Context, e *Entry) error
	// ListRecent returns entries from the last lookbackDays days, most
	// recent first.
	ListRecent(ctx context.Context, userID int64, lookbackDays int) ([]*Entry, error)
	Count(ctx context.Context) (int, error) // For admin stats
	DeleteByUser(ctx context.Context, userID int64) error
}
