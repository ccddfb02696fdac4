package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/adreach/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	payload, err := json.Marshal(c.Payload)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (user_id, name, medium, payload, unit_cost, recipients, total_cost, status, batch_send_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, c.UserID, c.Name, c.Medium, payload, c.UnitCost, c.Recipients,
		c.TotalCost, c.Status, c.BatchSendAt,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	var c models.Campaign
	var payload []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, medium, payload, unit_cost, recipients,
		       total_cost, status, reject_note, batch_send_at, created_at, updated_at
		FROM campaigns WHERE id = $1
	`, id).Scan(&c.ID, &c.UserID, &c.Name, &c.Medium, &payload,
		&c.UnitCost, &c.Recipients, &c.TotalCost, &c.Status,
		&c.RejectNote, &c.BatchSendAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &c.Payload); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateStatus moves a campaign between statuses. The WHERE clause carries
// the expected current status so a concurrent writer cannot race the
// transition; zero affected rows means the campaign was not in `from`.
func (r *CampaignRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("campaign %s is not in status %q", id, from)
	}
	return nil
}

func (r *CampaignRepo) SetRejectNote(ctx context.Context, id uuid.UUID, note string) error {
	_, err := r.pool.Exec(ctx, `UPDATE campaigns SET reject_note = $1, updated_at = now() WHERE id = $2`, note, id)
	return err
}

type CampaignFilter struct {
	UserID *uuid.UUID
	Status *string
	Limit  int
	Offset int
}

func (r *CampaignRepo) List(ctx context.Context, f CampaignFilter) ([]models.Campaign, error) {
	query := `
		SELECT id, user_id, name, medium, payload, unit_cost, recipients,
		       total_cost, status, reject_note, batch_send_at, created_at, updated_at
		FROM campaigns
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.UserID != nil {
		where = append(where, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, *f.UserID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		var c models.Campaign
		var payload []byte
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Medium, &payload,
			&c.UnitCost, &c.Recipients, &c.TotalCost, &c.Status,
			&c.RejectNote, &c.BatchSendAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &c.Payload); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, nil
}

// ListDueBatch returns approved or scheduled batch campaigns whose send
// instant has passed.
func (r *CampaignRepo) ListDueBatch(ctx context.Context) ([]models.Campaign, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, medium, payload, unit_cost, recipients,
		       total_cost, status, reject_note, batch_send_at, created_at, updated_at
		FROM campaigns
		WHERE status IN ($1, $2)
		  AND batch_send_at IS NOT NULL AND batch_send_at <= now()
		ORDER BY batch_send_at
	`, models.CampaignStatusApproved, models.CampaignStatusScheduled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		var c models.Campaign
		var payload []byte
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Medium, &payload,
			&c.UnitCost, &c.Recipients, &c.TotalCost, &c.Status,
			&c.RejectNote, &c.BatchSendAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &c.Payload); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, nil
}
