package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fintrack/pkg/config"

	cache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BaseCurrency is the single currency all persisted amounts are normalized to.
const BaseCurrency = "EUR"

// ErrRateUnavailable means the rate provider response was unsuccessful,
// malformed, or missing the base-currency rate. Never retried automatically.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

var supportedCurrencies = []string{"GBP", "EUR", "CZK", "USD"}

// ConversionResult holds a normalized amount alongside the original values.
// The rate is kept at 6 decimal places for auditability; the converted amount
// is rounded to 2.
type ConversionResult struct {
	AmountBase       decimal.Decimal
	OriginalAmount   decimal.Decimal
	OriginalCurrency string
	ExchangeRate     decimal.Decimal
}

// Converter normalizes amounts to the base currency using a process-wide
// TTL cache over an external rate provider.
type Converter struct {
	apiURL string
	client *http.Client
	rates  *cache.Cache
	logger *zap.Logger
}

func NewConverter(cfg *config.CurrencyConfig, logger *zap.Logger) *Converter {
	return &Converter{
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		client: &http.Client{Timeout: cfg.Timeout},
		rates:  cache.New(cfg.CacheTTL, 10*cfg.CacheTTL),
		logger: logger,
	}
}

// Supported reports whether code is one of the fixed supported currencies.
func Supported(code string) bool {
	code = strings.ToUpper(code)
	for _, c := range supportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

func SupportedCurrencies() []string {
	return supportedCurrencies
}

// Convert converts amount from fromCurrency to the base currency. Amounts
// already in the base currency are returned unchanged with rate 1.0 and no
// network call.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, fromCurrency string) (*ConversionResult, error) {
	from := strings.ToUpper(strings.TrimSpace(fromCurrency))

	if from == BaseCurrency {
		return &ConversionResult{
			AmountBase:       amount,
			OriginalAmount:   amount,
			OriginalCurrency: BaseCurrency,
			ExchangeRate:     decimal.NewFromInt(1),
		}, nil
	}

	rate, err := c.exchangeRate(ctx, from)
	if err != nil {
		return nil, err
	}

	return &ConversionResult{
		AmountBase:       amount.Mul(rate).Round(2),
		OriginalAmount:   amount,
		OriginalCurrency: from,
		ExchangeRate:     rate.Round(6),
	}, nil
}

func (c *Converter) exchangeRate(ctx context.Context, from string) (decimal.Decimal, error) {
	cacheKey := fmt.Sprintf("rate_%s_%s", from, BaseCurrency)
	if cached, ok := c.rates.Get(cacheKey); ok {
		return cached.(decimal.Decimal), nil
	}

	rates, err := c.fetchRates(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}

	rate, ok := rates[BaseCurrency]
	if !ok {
		c.logger.Error("Rate table missing base currency",
			zap.String("from", from),
			zap.String("base", BaseCurrency),
		)
		return decimal.Zero, fmt.Errorf("%w: no %s rate for %s", ErrRateUnavailable, BaseCurrency, from)
	}

	d := decimal.NewFromFloat(rate)
	c.rates.Set(cacheKey, d, cache.DefaultExpiration)
	return d, nil
}

func (c *Converter) fetchRates(ctx context.Context, base string) (map[string]float64, error) {
	url := fmt.Sprintf("%s/%s", c.apiURL, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned status %d", ErrRateUnavailable, resp.StatusCode)
	}

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	if body.Rates == nil {
		return nil, fmt.Errorf("%w: response has no rates", ErrRateUnavailable)
	}

	return body.Rates, nil
}
