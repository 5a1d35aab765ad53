package repository

import (
	"context"

	"fintrack/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var paymentColumns = []string{
	"id", "debt_id", "amount", "payment_date", "notes", "created_at", "updated_at",
}

type PaymentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPaymentRepository(db *pgxpool.Pool, logger *zap.Logger) *PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := squirrel.Insert("payments").
		Columns(paymentColumns...).
		Values(
			payment.ID, payment.DebtID, payment.Amount, payment.PaymentDate,
			payment.Notes, payment.CreatedAt, payment.UpdatedAt,
		).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	query := squirrel.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var payment models.Payment
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&payment.ID, &payment.DebtID, &payment.Amount, &payment.PaymentDate,
		&payment.Notes, &payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *PaymentRepository) ListByDebtID(ctx context.Context, debtID uuid.UUID) ([]*models.Payment, error) {
	query := squirrel.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"debt_id": debtID}).
		OrderBy("payment_date DESC", "created_at DESC").
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

	var payments []*models.Payment
	for rows.Next() {
		var payment models.Payment
		err = rows.Scan(
			&payment.ID, &payment.DebtID, &payment.Amount, &payment.PaymentDate,
			&payment.Notes, &payment.CreatedAt, &payment.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		payments = append(payments, &payment)
	}

	return payments, rows.Err()
}

func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	query := squirrel.Update("payments").
		Set("amount", payment.Amount).
		Set("payment_date", payment.PaymentDate).
		Set("notes", payment.Notes).
		Set("updated_at", payment.UpdatedAt).
		Where(squirrel.Eq{"id": payment.ID, "debt_id": payment.DebtID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *PaymentRepository) Delete(ctx context.Context, id, debtID uuid.UUID) error {
	query := squirrel.Delete("payments").
		Where(squirrel.Eq{"id": id, "debt_id": debtID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
