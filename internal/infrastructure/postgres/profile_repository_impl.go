package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"booking-api/internal/domain/entity"
	"booking-api/internal/domain/repository"
)

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Create(ctx context.Context, p *entity.Profile) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, p.UserID, p.FirstName, p.LastName, p.Role)

	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*entity.Profile, error) {
	p := &entity.Profile{}
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, first_name, last_name, role, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`, userID)

	if err := row.Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)
