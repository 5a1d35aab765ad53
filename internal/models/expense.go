package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExpenseCategory string

const (
	CategoryFood           ExpenseCategory = "Food"
	CategoryTransportation ExpenseCategory = "Transportation"
	CategoryShopping       ExpenseCategory = "Shopping"
	CategoryUtilities      ExpenseCategory = "Utilities"
	CategoryEntertainment  ExpenseCategory = "Entertainment"
	CategoryHealthcare     ExpenseCategory = "Healthcare"
	CategoryOther          ExpenseCategory = "Other"
)

// ValidCategory reports whether c is one of the fixed expense categories.
func ValidCategory(c string) bool {
	switch ExpenseCategory(c) {
	case CategoryFood, CategoryTransportation, CategoryShopping,
		CategoryUtilities, CategoryEntertainment, CategoryHealthcare, CategoryOther:
		return true
	}
	return false
}

// Expense is a persisted expense. Amount is always in the base currency;
// the original_* fields keep the pre-conversion values for auditability.
type Expense struct {
	ID               uuid.UUID        `db:"id"`
	UserID           uuid.UUID        `db:"user_id"`
	Amount           decimal.Decimal  `db:"amount"`
	OriginalAmount   *decimal.Decimal `db:"original_amount"`
	OriginalCurrency *string          `db:"original_currency"`
	ExchangeRate     *decimal.Decimal `db:"exchange_rate"`
	Description      *string          `db:"description"`
	Category         *string          `db:"category"`
	Date             time.Time        `db:"date"`
	ReceiptPath      *string          `db:"receipt_path"`
	CreatedAt        time.Time        `db:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at"`
}
