package repositories

import (
	"context"
	"encoding/json"

	"github.com/adreach/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TemplateRepo struct {
	pool *pgxpool.Pool
}

func NewTemplateRepo(pool *pgxpool.Pool) *TemplateRepo {
	return &TemplateRepo{pool: pool}
}

func (r *TemplateRepo) Create(ctx context.Context, t *models.Template) error {
	payload, err := json.Marshal(t.Payload)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO templates (user_id, name, payload)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, t.UserID, t.Name, payload).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TemplateRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Template, error) {
	var t models.Template
	var payload []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, payload, created_at, updated_at
		FROM templates WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&t.ID, &t.UserID, &t.Name, &payload, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &t.Payload); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepo) List(ctx context.Context, userID uuid.UUID) ([]models.Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, payload, created_at, updated_at
		FROM templates WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		var t models.Template
		var payload []byte
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &payload, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &t.Payload); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func (r *TemplateRepo) Update(ctx context.Context, t *models.Template) error {
	payload, err := json.Marshal(t.Payload)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE templates SET name = $1, payload = $2, updated_at = now()
		WHERE id = $3 AND user_id = $4
	`, t.Name, payload, t.ID, t.UserID)
	return err
}

func (r *TemplateRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM templates WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}
