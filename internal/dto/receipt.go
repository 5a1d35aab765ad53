package dto

import "github.com/shopspring/decimal"

// ReceiptAnalysis is the normalized result of analyzing a receipt: the
// amount is in the base currency, the original values are kept for audit.
type ReceiptAnalysis struct {
	Amount           decimal.Decimal `json:"amount"`
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	OriginalCurrency string          `json:"original_currency"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	Date             string          `json:"date"`
}

type AnalyzeReceiptResponse struct {
	Success bool            `json:"success"`
	Data    ReceiptAnalysis `json:"data"`
}

type AnalyzeReceiptError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
