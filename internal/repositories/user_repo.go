package repositories

import (
	"context"
	"time"

	"github.com/adreach/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) UpsertByEmail(ctx context.Context, email string, businessName *string, industry string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, business_name, industry)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			business_name = COALESCE(EXCLUDED.business_name, users.business_name),
			industry = CASE WHEN EXCLUDED.industry <> '' THEN EXCLUDED.industry ELSE users.industry END,
			last_active_at = now()
		RETURNING id, email, business_name, industry, balance, created_at, last_active_at
	`, email, businessName, industry).Scan(
		&u.ID, &u.Email, &u.BusinessName, &u.Industry, &u.Balance, &u.CreatedAt, &u.LastActiveAt,
	)
	return &u, err
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, business_name, industry, balance, created_at, last_active_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.BusinessName, &u.Industry, &u.Balance, &u.CreatedAt, &u.LastActiveAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, business_name, industry, balance, created_at, last_active_at
		FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.BusinessName, &u.Industry, &u.Balance, &u.CreatedAt, &u.LastActiveAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) SetIndustry(ctx context.Context, id uuid.UUID, industry string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET industry = $1 WHERE id = $2`, industry, id)
	return err
}

func (r *UserRepo) UpdateLastActive(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_active_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}
