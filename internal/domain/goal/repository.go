package goal

import "context"

// Repository defines operations for persisting goals.
type Repository interface {
	Create(ctx context.Context, g *Goal) error
	GetByID(ctx context.Context, id int64) (*Goal, error)
	// ListByUser returns the user's goals, open first, newest first.
	ListByUser(ctx context.Context, userID int64, includeDone bool) ([]*Goal, error)
	MarkDone(ctx context.Context, id, userID int64) error
	Delete(ctx context.Context, id, userID int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}
