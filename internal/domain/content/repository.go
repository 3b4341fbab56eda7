package content

import "context"

// Repository defines operations for motivational content.
type Repository interface {
	Add(ctx context.Context, item *Item) error
	// PickForMood returns a random item matching the language whose mood
	// band contains score, skipping the excluded IDs (recently sent).
	// Returns ErrNoContent when nothing matches.
	PickForMood(ctx context.Context, language string, score int, exclude []int64) (*Item, error)
	Count(ctx context.Context) (int, error)
}
