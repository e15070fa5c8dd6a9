package repository

import (
	"context"
	"time"

	"booking-api/internal/domain/entity"
)

// AppointmentRepository defines appointment storage operations.
//
// Insert must fail with ErrDuplicate when another booked appointment already
// holds the same starts_at; the store backs this with a partial unique index
// so two concurrent creates cannot both commit.
type AppointmentRepository interface {
	Insert(ctx context.Context, a *entity.Appointment) error
	GetByID(ctx context.Context, id string) (*entity.Appointment, error)
	// ListUpcomingByOwner returns the owner's appointments with
	// starts_at >= from, ascending by starts_at.
	ListUpcomingByOwner(ctx context.Context, ownerID string, from time.Time) ([]entity.Appointment, error)
	// FindBookedAt returns the booked appointment at exactly startsAt,
	// or ErrNotFound when the slot is free.
	FindBookedAt(ctx context.Context, startsAt time.Time) (*entity.Appointment, error)
	// ListInRange returns appointments with starts_at in the closed
	// interval [start, end], ascending by starts_at.
	ListInRange(ctx context.Context, start, end time.Time) ([]entity.Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) (*entity.Appointment, error)
	Delete(ctx context.Context, id string) error
}
