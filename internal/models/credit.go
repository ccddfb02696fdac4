package models

import (
	"time"

	"github.com/google/uuid"
)

// Credit transaction types
const (
	CreditTxTopUp  = "top_up"
	CreditTxDebit  = "debit"
	CreditTxRefund = "refund"
)

// CreditTransaction is one ledger entry. Amount is positive for top-ups and
// refunds, negative for debits; BalanceAfter is the balance the entry left
// the account at.
type CreditTransaction struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Type         string     `json:"type"`
	Amount       int        `json:"amount"` // whole KRW
	BalanceAfter int        `json:"balance_after"`
	CampaignID   *uuid.UUID `json:"campaign_id,omitempty"`
	Memo         *string    `json:"memo,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
