package repository

import (
	"context"

	"fintrack/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var debtColumns = []string{
	"id", "user_id", "debtor_name", "amount", "type", "description", "due_date",
	"is_paid", "created_at", "updated_at",
}

type DebtRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDebtRepository(db *pgxpool.Pool, logger *zap.Logger) *DebtRepository {
	return &DebtRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DebtRepository) Create(ctx context.Context, debt *models.Debt) error {
	query := squirrel.Insert("debts").
		Columns(debtColumns...).
		Values(
			debt.ID, debt.UserID, debt.DebtorName, debt.Amount, debt.Type,
			debt.Description, debt.DueDate, debt.IsPaid, debt.CreatedAt, debt.UpdatedAt,
		).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DebtRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Debt, error) {
	query := squirrel.Select(debtColumns...).
		From("debts").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var debt models.Debt
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&debt.ID, &debt.UserID, &debt.DebtorName, &debt.Amount, &debt.Type,
		&debt.Description, &debt.DueDate, &debt.IsPaid, &debt.CreatedAt, &debt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &debt, nil
}

func (r *DebtRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Debt, error) {
	query := squirrel.Select(debtColumns...).
		From("debts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
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

	var debts []*models.Debt
	for rows.Next() {
		var debt models.Debt
		err = rows.Scan(
			&debt.ID, &debt.UserID, &debt.DebtorName, &debt.Amount, &debt.Type,
			&debt.Description, &debt.DueDate, &debt.IsPaid, &debt.CreatedAt, &debt.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		debts = append(debts, &debt)
	}

	return debts, rows.Err()
}

func (r *DebtRepository) Update(ctx context.Context, debt *models.Debt) error {
	query := squirrel.Update("debts").
		Set("debtor_name", debt.DebtorName).
		Set("amount", debt.Amount).
		Set("type", debt.Type).
		Set("description", debt.Description).
		Set("due_date", debt.DueDate).
		Set("is_paid", debt.IsPaid).
		Set("updated_at", debt.UpdatedAt).
		Where(squirrel.Eq{"id": debt.ID, "user_id": debt.UserID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DebtRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := squirrel.Delete("debts").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
