package repository

import (
	"context"

	"fintrack/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var assetColumns = []string{
	"id", "user_id", "name", "description", "cost", "original_cost", "original_currency",
	"exchange_rate", "tracking_type", "uses", "hours", "purchased_at",
	"created_at", "updated_at",
}

type AssetRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAssetRepository(db *pgxpool.Pool, logger *zap.Logger) *AssetRepository {
	return &AssetRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	query := squirrel.Insert("assets").
		Columns(assetColumns...).
		Values(
			asset.ID, asset.UserID, asset.Name, asset.Description, asset.Cost,
			asset.OriginalCost, asset.OriginalCurrency, asset.ExchangeRate,
			asset.TrackingType, asset.Uses, asset.Hours, asset.PurchasedAt,
			asset.CreatedAt, asset.UpdatedAt,
		).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *AssetRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Asset, error) {
	query := squirrel.Select(assetColumns...).
		From("assets").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var asset models.Asset
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&asset.ID, &asset.UserID, &asset.Name, &asset.Description, &asset.Cost,
		&asset.OriginalCost, &asset.OriginalCurrency, &asset.ExchangeRate,
		&asset.TrackingType, &asset.Uses, &asset.Hours, &asset.PurchasedAt,
		&asset.CreatedAt, &asset.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &asset, nil
}

func (r *AssetRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Asset, error) {
	query := squirrel.Select(assetColumns...).
		From("assets").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("purchased_at DESC", "created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		var asset models.Asset
		err = rows.Scan(
			&asset.ID, &asset.UserID, &asset.Name, &asset.Description, &asset.Cost,
			&asset.OriginalCost, &asset.OriginalCurrency, &asset.ExchangeRate,
			&asset.TrackingType, &asset.Uses, &asset.Hours, &asset.PurchasedAt,
			&asset.CreatedAt, &asset.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		assets = append(assets, &asset)
	}

	return assets, rows.Err()
}

func (r *AssetRepository) Update(ctx context.Context, asset *models.Asset) error {
	query := squirrel.Update("assets").
		Set("name", asset.Name).
		Set("description", asset.Description).
		Set("cost", asset.Cost).
		Set("original_cost", asset.OriginalCost).
		Set("original_currency", asset.OriginalCurrency).
		Set("exchange_rate", asset.ExchangeRate).
		Set("tracking_type", asset.TrackingType).
		Set("uses", asset.Uses).
		Set("hours", asset.Hours).
		Set("purchased_at", asset.PurchasedAt).
		Set("updated_at", asset.UpdatedAt).
		Where(squirrel.Eq{"id": asset.ID, "user_id": asset.UserID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *AssetRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := squirrel.Delete("assets").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
