package engagement

import (
	"context"
	"time"
)

// Repository defines operations for the send history.
type Repository interface {
	Add(ctx context.Context, r *Record) error
	// CountSentOn counts delivered motivational sends on the given day.
	CountSentOn(ctx context.Context, userID int64, day time.Time) (int, error)
	// LastSentAt returns the time of the most recent delivered
	// motivational send. Returns ErrNoEngagement when the user has none.
	LastSentAt(ctx context.Context, userID int64) (time.Time, error)
	// RecentContentIDs returns content IDs of the latest delivered sends,
	// most recent first, for repeat avoidance.
	RecentContentIDs(ctx context.Context, userID int64, limit int) ([]int64, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	Count(ctx context.Context) (int, error)
	DeleteByUser(ctx context.Context, userID int64) error
}
