package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DebtType string

const (
	DebtOwedToMe DebtType = "owed_to_me"
	DebtIOwe     DebtType = "i_owe"
)

type Debt struct {
	ID          uuid.UUID       `db:"id"`
	UserID      uuid.UUID       `db:"user_id"`
	DebtorName  string          `db:"debtor_name"`
	Amount      decimal.Decimal `db:"amount"`
	Type        DebtType        `db:"type"`
	Description *string         `db:"description"`
	DueDate     *time.Time      `db:"due_date"`
	IsPaid      bool            `db:"is_paid"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// TotalPaid sums the given payments. The remaining balance is always derived
// from the payments, never stored on the debt row.
func (d *Debt) TotalPaid(payments []*Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

func (d *Debt) RemainingBalance(payments []*Payment) decimal.Decimal {
	return d.Amount.Sub(d.TotalPaid(payments))
}
