package user

import (
	"context"
)

// Repository defines the operations for persisting and retrieving users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	Update(ctx context.Context, u *User) error // FirstName, Language, MessageFrequency, IsActive
	SetActive(ctx context.Context, id int64, active bool) error
	TouchLastActive(ctx context.Context, id int64) error
	ListActive(ctx context.Context) ([]*User, error)
	ListAll(ctx context.Context) ([]*User, error) // For admin purposes
	Delete(ctx context.Context, id int64) error   // Full user reset only
}
