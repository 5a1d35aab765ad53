package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type DebtInput struct {
	DebtorName  string
	Amount      decimal.Decimal
	Type        string
	Description *string
	DueDate     *time.Time
	IsPaid      bool
}

type DebtResponse struct {
	ID               string          `json:"id"`
	DebtorName       string          `json:"debtor_name"`
	Amount           decimal.Decimal `json:"amount"`
	Type             string          `json:"type"`
	Description      *string         `json:"description"`
	DueDate          *string         `json:"due_date"`
	IsPaid           bool            `json:"is_paid"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	PaymentCount     int             `json:"payment_count"`
	CreatedAt        string          `json:"created_at"`
}

type DebtSummary struct {
	TotalOwedToMe decimal.Decimal `json:"total_owed_to_me"`
	TotalIOwe     decimal.Decimal `json:"total_i_owe"`
}

type DebtListResponse struct {
	Debts   []DebtResponse `json:"debts"`
	Summary DebtSummary    `json:"summary"`
}

type DebtDetailResponse struct {
	Debt     DebtResponse      `json:"debt"`
	Payments []PaymentResponse `json:"payments"`
}

type PaymentInput struct {
	Amount      decimal.Decimal
	PaymentDate time.Time
	Notes       *string
}

type PaymentResponse struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
	Notes       *string         `json:"notes"`
	CreatedAt   string          `json:"created_at"`
}

type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
	Summary  PaymentSummary    `json:"summary"`
}

type PaymentSummary struct {
	TotalPaid        decimal.Decimal `json:"total_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	PaymentCount     int             `json:"payment_count"`
}
