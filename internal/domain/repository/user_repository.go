package repository

import (
	"context"
	"errors"

	"booking-api/internal/domain/entity"
)

// Sentinel errors shared by all repository implementations. Callers match
// with errors.Is and translate to HTTP statuses at the handler boundary.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// UserRepository defines account storage operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// ProfileRepository defines profile storage operations. The role lookup is
// the only read the admin gate needs.
type ProfileRepository interface {
	Create(ctx context.Context, p *entity.Profile) error
	GetByUserID(ctx context.Context, userID string) (*entity.Profile, error)
}
