package repositories

import (
	"context"

	"github.com/adreach/backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IndustryRepo struct {
	pool *pgxpool.Pool
}

func NewIndustryRepo(pool *pgxpool.Pool) *IndustryRepo {
	return &IndustryRepo{pool: pool}
}

// ListTopLevel returns the first level of the category tree.
func (r *IndustryRepo) ListTopLevel(ctx context.Context) ([]models.Industry, error) {
	return r.list(ctx, `
		SELECT code, name, COALESCE(parent_code, ''), sort_order
		FROM industries WHERE parent_code IS NULL
		ORDER BY sort_order
	`)
}

// ListChildren returns the sub-categories of one top-level entry.
func (r *IndustryRepo) ListChildren(ctx context.Context, parentCode string) ([]models.Industry, error) {
	return r.list(ctx, `
		SELECT code, name, COALESCE(parent_code, ''), sort_order
		FROM industries WHERE parent_code = $1
		ORDER BY sort_order
	`, parentCode)
}

func (r *IndustryRepo) GetByCode(ctx context.Context, code string) (*models.Industry, error) {
	var ind models.Industry
	err := r.pool.QueryRow(ctx, `
		SELECT code, name, COALESCE(parent_code, ''), sort_order
		FROM industries WHERE code = $1
	`, code).Scan(&ind.Code, &ind.Name, &ind.ParentCode, &ind.SortOrder)
	if err != nil {
		return nil, err
	}
	return &ind, nil
}

func (r *IndustryRepo) list(ctx context.Context, query string, args ...any) ([]models.Industry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Industry
	for rows.Next() {
		var ind models.Industry
		if err := rows.Scan(&ind.Code, &ind.Name, &ind.ParentCode, &ind.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, ind)
	}
	return out, nil
}
