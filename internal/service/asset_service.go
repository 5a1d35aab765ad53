package service

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrCostRequired = errors.New("either cost or original_cost with original_currency is required")

// hoursStep is the fixed increment for hour-tracked assets.
var hoursStep = decimal.NewFromFloat(0.5)

type AssetService struct {
	repo      *repository.AssetRepository
	converter Converter
	logger    *zap.Logger
}

func NewAssetService(repo *repository.AssetRepository, converter Converter, logger *zap.Logger) *AssetService {
	return &AssetService{
		repo:      repo,
		converter: converter,
		logger:    logger,
	}
}

func (s *AssetService) List(ctx context.Context, userID uuid.UUID) (*dto.AssetListResponse, error) {
	assets, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.AssetListResponse{
		Assets: make([]dto.AssetResponse, 0, len(assets)),
		Summary: dto.AssetSummary{
			Count: len(assets),
		},
	}
	for _, a := range assets {
		resp.Assets = append(resp.Assets, toAssetResponse(a))
		resp.Summary.TotalCost = resp.Summary.TotalCost.Add(a.Cost)
		resp.Summary.TotalUses += a.Uses
		resp.Summary.TotalHours = resp.Summary.TotalHours.Add(a.Hours)
	}
	return resp, nil
}

func (s *AssetService) Get(ctx context.Context, id, userID uuid.UUID) (*dto.AssetResponse, error) {
	asset, err := s.getAsset(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	resp := toAssetResponse(asset)
	return &resp, nil
}

func (s *AssetService) Create(ctx context.Context, userID uuid.UUID, input dto.AssetInput) (*dto.AssetResponse, error) {
	now := time.Now().UTC()
	asset := &models.Asset{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         input.Name,
		Description:  input.Description,
		TrackingType: models.TrackingType(input.TrackingType),
		PurchasedAt:  input.PurchasedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if asset.PurchasedAt.IsZero() {
		asset.PurchasedAt = now
	}
	if asset.TrackingType == "" {
		asset.TrackingType = models.TrackByUses
	}

	if err := s.applyCost(ctx, asset, input); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, asset); err != nil {
		return nil, err
	}

	resp := toAssetResponse(asset)
	return &resp, nil
}

func (s *AssetService) Update(ctx context.Context, id, userID uuid.UUID, input dto.AssetInput) (*dto.AssetResponse, error) {
	asset, err := s.getAsset(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	asset.Name = input.Name
	asset.Description = input.Description
	if input.TrackingType != "" {
		asset.TrackingType = models.TrackingType(input.TrackingType)
	}
	if !input.PurchasedAt.IsZero() {
		asset.PurchasedAt = input.PurchasedAt
	}

	if input.Cost != nil || input.OriginalCost != nil {
		if err := s.applyCost(ctx, asset, input); err != nil {
			return nil, err
		}
	}
	asset.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, asset); err != nil {
		return nil, err
	}

	resp := toAssetResponse(asset)
	return &resp, nil
}

func (s *AssetService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.getAsset(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, userID)
}

// AdjustUses moves the use counter by whole steps, never below zero.
func (s *AssetService) AdjustUses(ctx context.Context, id, userID uuid.UUID, delta int) (*dto.AssetResponse, error) {
	asset, err := s.getAsset(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	asset.Uses += delta
	if asset.Uses < 0 {
		asset.Uses = 0
	}
	asset.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, asset); err != nil {
		return nil, err
	}

	resp := toAssetResponse(asset)
	return &resp, nil
}

// AdjustHours moves the hour counter by half-hour steps, never below zero.
func (s *AssetService) AdjustHours(ctx context.Context, id, userID uuid.UUID, increment bool) (*dto.AssetResponse, error) {
	asset, err := s.getAsset(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if increment {
		asset.Hours = asset.Hours.Add(hoursStep)
	} else {
		asset.Hours = asset.Hours.Sub(hoursStep)
		if asset.Hours.IsNegative() {
			asset.Hours = decimal.Zero
		}
	}
	asset.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, asset); err != nil {
		return nil, err
	}

	resp := toAssetResponse(asset)
	return &resp, nil
}

// applyCost resolves the asset's cost in the base currency, converting from
// the original currency when one is given.
func (s *AssetService) applyCost(ctx context.Context, asset *models.Asset, input dto.AssetInput) error {
	switch {
	case input.OriginalCost != nil && input.OriginalCurrency != nil:
		conversion, err := s.converter.Convert(ctx, *input.OriginalCost, *input.OriginalCurrency)
		if err != nil {
			return err
		}
		asset.Cost = conversion.AmountBase
		asset.OriginalCost = &conversion.OriginalAmount
		asset.OriginalCurrency = &conversion.OriginalCurrency
		asset.ExchangeRate = &conversion.ExchangeRate

	case input.Cost != nil:
		asset.Cost = input.Cost.Round(2)
		asset.OriginalCost = nil
		asset.OriginalCurrency = nil
		asset.ExchangeRate = nil

	default:
		return ErrCostRequired
	}
	return nil
}

func (s *AssetService) getAsset(ctx context.Context, id, userID uuid.UUID) (*models.Asset, error) {
	asset, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return asset, nil
}

func toAssetResponse(a *models.Asset) dto.AssetResponse {
	return dto.AssetResponse{
		ID:               a.ID.String(),
		Name:             a.Name,
		Description:      a.Description,
		Cost:             a.Cost,
		OriginalCost:     a.OriginalCost,
		OriginalCurrency: a.OriginalCurrency,
		ExchangeRate:     a.ExchangeRate,
		Uses:             a.Uses,
		Hours:            a.Hours,
		TrackingType:     string(a.TrackingType),
		CostPerUse:       a.CostPerUse(),
		CostPerHour:      a.CostPerHour(),
		PurchasedAt:      a.PurchasedAt.Format("2006-01-02"),
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
	}
}
