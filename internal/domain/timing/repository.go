package timing

import "context"

// Repository defines operations for persisting timing preferences.
type Repository interface {
	Get(ctx context.Context, userID int64) (*Preference, error)
	Create(ctx context.Context, p *Preference) error
	Update(ctx context.Context, p *Preference) error
	Delete(ctx context.Context, userID int64) error // Full user reset only
}
