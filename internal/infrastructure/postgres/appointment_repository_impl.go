package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"booking-api/internal/domain/entity"
	"booking-api/internal/domain/repository"
)

type AppointmentRepository struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// Insert creates a booked appointment. The partial unique index on
// (starts_at) WHERE status = 'booked' turns a double-booking race into
// ErrDuplicate instead of a second committed row.
func (r *AppointmentRepository) Insert(ctx context.Context, a *entity.Appointment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (user_id, type, starts_at, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, a.UserID, a.Type, a.StartsAt, a.Status)

	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*entity.Appointment, error) {
	a := &entity.Appointment{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, type, starts_at, status, created_at
		FROM appointments
		WHERE id = $1
	`, id)

	if err := scanAppointment(row, a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *AppointmentRepository) ListUpcomingByOwner(ctx context.Context, ownerID string, from time.Time) ([]entity.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, starts_at, status, created_at
		FROM appointments
		WHERE user_id = $1 AND starts_at >= $2
		ORDER BY starts_at ASC
	`, ownerID, from)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *AppointmentRepository) FindBookedAt(ctx context.Context, startsAt time.Time) (*entity.Appointment, error) {
	a := &entity.Appointment{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, type, starts_at, status, created_at
		FROM appointments
		WHERE starts_at = $1 AND status = $2
	`, startsAt, entity.StatusBooked)

	if err := scanAppointment(row, a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *AppointmentRepository) ListInRange(ctx context.Context, start, end time.Time) ([]entity.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, starts_at, status, created_at
		FROM appointments
		WHERE starts_at >= $1 AND starts_at <= $2
		ORDER BY starts_at ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id, status string) (*entity.Appointment, error) {
	a := &entity.Appointment{}
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
		RETURNING id, user_id, type, starts_at, status, created_at
	`, id, status)

	if err := scanAppointment(row, a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanAppointment(row pgx.Row, a *entity.Appointment) error {
	return row.Scan(&a.ID, &a.UserID, &a.Type, &a.StartsAt, &a.Status, &a.CreatedAt)
}

func collectAppointments(rows pgx.Rows) ([]entity.Appointment, error) {
	defer rows.Close()
	var out []entity.Appointment
	for rows.Next() {
		var a entity.Appointment
		if err := scanAppointment(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
