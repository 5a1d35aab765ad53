package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"fintrack/internal/currency"
	"fintrack/internal/models"

	"github.com/shopspring/decimal"
)

const (
	defaultDescription = "Unknown purchase"
	defaultCategory    = string(models.CategoryOther)
	maxDescriptionLen  = 100
)

// parseExtraction turns raw model output into an ExtractionResult. The model
// is asked for bare JSON but regularly wraps it in code fences anyway, so any
// fencing is stripped before parsing. Partial output degrades gracefully:
// only a missing amount is fatal.
func parseExtraction(content string) (*ExtractionResult, error) {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in model output", ErrExtractionFailed)
	}
	text = text[start : end+1]

	var raw struct {
		Amount      *float64 `json:"amount"`
		Currency    string   `json:"currency"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	if raw.Amount == nil || *raw.Amount <= 0 {
		return nil, fmt.Errorf("%w: model output has no usable amount", ErrExtractionFailed)
	}

	code := strings.ToUpper(strings.TrimSpace(raw.Currency))
	if !currency.Supported(code) {
		// Degraded-capability fallback: when the model cannot read the
		// currency confidently, assume the base currency.
		code = currency.BaseCurrency
	}

	description := strings.TrimSpace(raw.Description)
	if description == "" {
		description = defaultDescription
	}
	if runes := []rune(description); len(runes) > maxDescriptionLen {
		description = string(runes[:maxDescriptionLen])
	}

	category := strings.TrimSpace(raw.Category)
	if !models.ValidCategory(category) {
		category = defaultCategory
	}

	return &ExtractionResult{
		Amount:      decimal.NewFromFloat(*raw.Amount),
		Currency:    code,
		Description: description,
		Category:    category,
	}, nil
}
