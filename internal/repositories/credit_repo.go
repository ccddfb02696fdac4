package repositories

import (
	"context"
	"errors"

	"github.com/adreach/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInsufficientBalance is returned when a debit would take the account
// below zero.
var ErrInsufficientBalance = errors.New("잔액이 부족합니다")

type CreditRepo struct {
	pool *pgxpool.Pool
}

func NewCreditRepo(pool *pgxpool.Pool) *CreditRepo {
	return &CreditRepo{pool: pool}
}

// Debit takes amount KRW off the balance and writes the ledger entry in one
// transaction. The balance row is locked first so concurrent debits cannot
// both pass the check.
func (r *CreditRepo) Debit(ctx context.Context, userID uuid.UUID, amount int, campaignID *uuid.UUID, memo string) (*models.CreditTransaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var balance int
	if err := tx.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance); err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, ErrInsufficientBalance
	}

	after := balance - amount
	if _, err := tx.Exec(ctx, `UPDATE users SET balance = $1 WHERE id = $2`, after, userID); err != nil {
		return nil, err
	}

	entry := &models.CreditTransaction{
		UserID:       userID,
		Type:         models.CreditTxDebit,
		Amount:       -amount,
		BalanceAfter: after,
		CampaignID:   campaignID,
	}
	if memo != "" {
		entry.Memo = &memo
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO credit_transactions (user_id, type, amount, balance_after, campaign_id, memo)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, entry.UserID, entry.Type, entry.Amount, entry.BalanceAfter, entry.CampaignID, entry.Memo).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

// Credit adds amount KRW to the balance (top-up or refund) with its ledger
// entry in one transaction.
func (r *CreditRepo) Credit(ctx context.Context, userID uuid.UUID, amount int, txType string, campaignID *uuid.UUID, memo string) (*models.CreditTransaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var after int
	if err := tx.QueryRow(ctx, `
		UPDATE users SET balance = balance + $1 WHERE id = $2 RETURNING balance
	`, amount, userID).Scan(&after); err != nil {
		return nil, err
	}

	entry := &models.CreditTransaction{
		UserID:       userID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: after,
		CampaignID:   campaignID,
	}
	if memo != "" {
		entry.Memo = &memo
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO credit_transactions (user_id, type, amount, balance_after, campaign_id, memo)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, entry.UserID, entry.Type, entry.Amount, entry.BalanceAfter, entry.CampaignID, entry.Memo).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *CreditRepo) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	var balance int
	err := r.pool.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	return balance, err
}

func (r *CreditRepo) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.CreditTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, amount, balance_after, campaign_id, memo, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CreditTransaction
	for rows.Next() {
		var t models.CreditTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.BalanceAfter,
			&t.CampaignID, &t.Memo, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
