package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetInput carries either a cost already in the base currency, or an
// original cost plus currency to be converted on the way in.
type AssetInput struct {
	Name             string
	Description      *string
	Cost             *decimal.Decimal
	OriginalCost     *decimal.Decimal
	OriginalCurrency *string
	TrackingType     string
	PurchasedAt      time.Time
}

type AssetResponse struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Description      *string          `json:"description"`
	Cost             decimal.Decimal  `json:"cost"`
	OriginalCost     *decimal.Decimal `json:"original_cost,omitempty"`
	OriginalCurrency *string          `json:"original_currency,omitempty"`
	ExchangeRate     *decimal.Decimal `json:"exchange_rate,omitempty"`
	Uses             int              `json:"uses"`
	Hours            decimal.Decimal  `json:"hours"`
	TrackingType     string           `json:"tracking_type"`
	CostPerUse       *decimal.Decimal `json:"cost_per_use"`
	CostPerHour      *decimal.Decimal `json:"cost_per_hour"`
	PurchasedAt      string           `json:"purchased_at"`
	CreatedAt        string           `json:"created_at"`
}

type AssetSummary struct {
	TotalCost  decimal.Decimal `json:"total_cost"`
	Count      int             `json:"count"`
	TotalUses  int             `json:"total_uses"`
	TotalHours decimal.Decimal `json:"total_hours"`
}

type AssetListResponse struct {
	Assets  []AssetResponse `json:"assets"`
	Summary AssetSummary    `json:"summary"`
}
