package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TrackingType string

const (
	TrackByUses  TrackingType = "uses"
	TrackByHours TrackingType = "hours"
)

type Asset struct {
	ID               uuid.UUID        `db:"id"`
	UserID           uuid.UUID        `db:"user_id"`
	Name             string           `db:"name"`
	Description      *string          `db:"description"`
	Cost             decimal.Decimal  `db:"cost"`
	OriginalCost     *decimal.Decimal `db:"original_cost"`
	OriginalCurrency *string          `db:"original_currency"`
	ExchangeRate     *decimal.Decimal `db:"exchange_rate"`
	Uses             int              `db:"uses"`
	Hours            decimal.Decimal  `db:"hours"`
	TrackingType     TrackingType     `db:"tracking_type"`
	PurchasedAt      time.Time        `db:"purchased_at"`
	CreatedAt        time.Time        `db:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at"`
}

// CostPerUse returns nil when the asset has never been used.
func (a *Asset) CostPerUse() *decimal.Decimal {
	if a.Uses == 0 {
		return nil
	}
	v := a.Cost.Div(decimal.NewFromInt(int64(a.Uses))).Round(2)
	return &v
}

// CostPerHour returns nil when no hours have been logged.
func (a *Asset) CostPerHour() *decimal.Decimal {
	if a.Hours.IsZero() {
		return nil
	}
	v := a.Cost.Div(a.Hours).Round(2)
	return &v
}
