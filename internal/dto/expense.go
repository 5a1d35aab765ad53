package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseInput is the validated shape of a create/update request. A nil
// Amount means the caller expects the receipt pipeline to fill it in.
type ExpenseInput struct {
	Amount      *decimal.Decimal
	Description *string
	Category    *string
	Date        time.Time
}

type ExpenseResponse struct {
	ID               string           `json:"id"`
	Amount           decimal.Decimal  `json:"amount"`
	OriginalAmount   *decimal.Decimal `json:"original_amount,omitempty"`
	OriginalCurrency *string          `json:"original_currency,omitempty"`
	ExchangeRate     *decimal.Decimal `json:"exchange_rate,omitempty"`
	Description      *string          `json:"description"`
	Category         *string          `json:"category"`
	Date             string           `json:"date"`
	ReceiptPath      *string          `json:"receipt_path"`
	CreatedAt        string           `json:"created_at"`
}

type ExpenseSummary struct {
	Total     decimal.Decimal `json:"total"`
	Count     int             `json:"count"`
	ThisMonth decimal.Decimal `json:"this_month"`
}

type ExpenseListResponse struct {
	Expenses []ExpenseResponse `json:"expenses"`
	Summary  ExpenseSummary    `json:"summary"`
}
