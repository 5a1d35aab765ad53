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
	"go.uber.org/zap"
)

type DebtService struct {
	debts    *repository.DebtRepository
	payments *repository.PaymentRepository
	logger   *zap.Logger
}

func NewDebtService(debts *repository.DebtRepository, payments *repository.PaymentRepository, logger *zap.Logger) *DebtService {
	return &DebtService{
		debts:    debts,
		payments: payments,
		logger:   logger,
	}
}

func (s *DebtService) List(ctx context.Context, userID uuid.UUID) (*dto.DebtListResponse, error) {
	debts, err := s.debts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.DebtListResponse{
		Debts: make([]dto.DebtResponse, 0, len(debts)),
	}
	for _, debt := range debts {
		payments, err := s.payments.ListByDebtID(ctx, debt.ID)
		if err != nil {
			return nil, err
		}
		resp.Debts = append(resp.Debts, toDebtResponse(debt, payments))

		// Settled debts stay listed but stop counting toward the totals.
		if debt.IsPaid {
			continue
		}
		remaining := debt.RemainingBalance(payments)
		switch debt.Type {
		case models.DebtOwedToMe:
			resp.Summary.TotalOwedToMe = resp.Summary.TotalOwedToMe.Add(remaining)
		case models.DebtIOwe:
			resp.Summary.TotalIOwe = resp.Summary.TotalIOwe.Add(remaining)
		}
	}
	return resp, nil
}

func (s *DebtService) Get(ctx context.Context, id, userID uuid.UUID) (*dto.DebtDetailResponse, error) {
	debt, err := s.getDebt(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.ListByDebtID(ctx, debt.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.DebtDetailResponse{
		Debt:     toDebtResponse(debt, payments),
		Payments: make([]dto.PaymentResponse, 0, len(payments)),
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	return resp, nil
}

func (s *DebtService) Create(ctx context.Context, userID uuid.UUID, input dto.DebtInput) (*dto.DebtResponse, error) {
	now := time.Now().UTC()
	debt := &models.Debt{
		ID:          uuid.New(),
		UserID:      userID,
		DebtorName:  input.DebtorName,
		Amount:      input.Amount.Round(2),
		Type:        models.DebtType(input.Type),
		Description: input.Description,
		DueDate:     input.DueDate,
		IsPaid:      input.IsPaid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.debts.Create(ctx, debt); err != nil {
		return nil, err
	}

	resp := toDebtResponse(debt, nil)
	return &resp, nil
}

func (s *DebtService) Update(ctx context.Context, id, userID uuid.UUID, input dto.DebtInput) (*dto.DebtResponse, error) {
	debt, err := s.getDebt(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	debt.DebtorName = input.DebtorName
	debt.Amount = input.Amount.Round(2)
	debt.Type = models.DebtType(input.Type)
	debt.Description = input.Description
	debt.DueDate = input.DueDate
	debt.IsPaid = input.IsPaid
	debt.UpdatedAt = time.Now().UTC()

	if err := s.debts.Update(ctx, debt); err != nil {
		return nil, err
	}

	payments, err := s.payments.ListByDebtID(ctx, debt.ID)
	if err != nil {
		return nil, err
	}

	resp := toDebtResponse(debt, payments)
	return &resp, nil
}

// Delete removes the debt; its payments go with it through the foreign key
// cascade.
func (s *DebtService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.getDebt(ctx, id, userID); err != nil {
		return err
	}
	return s.debts.Delete(ctx, id, userID)
}

func (s *DebtService) ListPayments(ctx context.Context, debtID, userID uuid.UUID) (*dto.PaymentListResponse, error) {
	debt, err := s.getDebt(ctx, debtID, userID)
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.ListByDebtID(ctx, debt.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.PaymentListResponse{
		Payments: make([]dto.PaymentResponse, 0, len(payments)),
		Summary: dto.PaymentSummary{
			TotalPaid:        debt.TotalPaid(payments),
			RemainingBalance: debt.RemainingBalance(payments),
			PaymentCount:     len(payments),
		},
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	return resp, nil
}

func (s *DebtService) GetPayment(ctx context.Context, debtID, paymentID, userID uuid.UUID) (*dto.PaymentResponse, error) {
	payment, err := s.getPayment(ctx, debtID, paymentID, userID)
	if err != nil {
		return nil, err
	}
	resp := toPaymentResponse(payment)
	return &resp, nil
}

func (s *DebtService) CreatePayment(ctx context.Context, debtID, userID uuid.UUID, input dto.PaymentInput) (*dto.PaymentResponse, error) {
	if _, err := s.getDebt(ctx, debtID, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payment := &models.Payment{
		ID:          uuid.New(),
		DebtID:      debtID,
		Amount:      input.Amount.Round(2),
		PaymentDate: input.PaymentDate,
		Notes:       input.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = now
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	resp := toPaymentResponse(payment)
	return &resp, nil
}

func (s *DebtService) UpdatePayment(ctx context.Context, debtID, paymentID, userID uuid.UUID, input dto.PaymentInput) (*dto.PaymentResponse, error) {
	payment, err := s.getPayment(ctx, debtID, paymentID, userID)
	if err != nil {
		return nil, err
	}

	payment.Amount = input.Amount.Round(2)
	if !input.PaymentDate.IsZero() {
		payment.PaymentDate = input.PaymentDate
	}
	payment.Notes = input.Notes
	payment.UpdatedAt = time.Now().UTC()

	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, err
	}

	resp := toPaymentResponse(payment)
	return &resp, nil
}

func (s *DebtService) DeletePayment(ctx context.Context, debtID, paymentID, userID uuid.UUID) error {
	if _, err := s.getPayment(ctx, debtID, paymentID, userID); err != nil {
		return err
	}
	return s.payments.Delete(ctx, paymentID, debtID)
}

func (s *DebtService) getDebt(ctx context.Context, id, userID uuid.UUID) (*models.Debt, error) {
	debt, err := s.debts.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return debt, nil
}

// getPayment resolves a payment through its debt so that a payment ID from
// another user's debt, or from a different debt, reads as not found.
func (s *DebtService) getPayment(ctx context.Context, debtID, paymentID, userID uuid.UUID) (*models.Payment, error) {
	if _, err := s.getDebt(ctx, debtID, userID); err != nil {
		return nil, err
	}

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if payment.DebtID != debtID {
		return nil, ErrNotFound
	}
	return payment, nil
}

func toDebtResponse(d *models.Debt, payments []*models.Payment) dto.DebtResponse {
	resp := dto.DebtResponse{
		ID:               d.ID.String(),
		DebtorName:       d.DebtorName,
		Amount:           d.Amount,
		Type:             string(d.Type),
		Description:      d.Description,
		IsPaid:           d.IsPaid,
		TotalPaid:        d.TotalPaid(payments),
		RemainingBalance: d.RemainingBalance(payments),
		PaymentCount:     len(payments),
		CreatedAt:        d.CreatedAt.Format(time.RFC3339),
	}
	if d.DueDate != nil {
		due := d.DueDate.Format("2006-01-02")
		resp.DueDate = &due
	}
	return resp
}

func toPaymentResponse(p *models.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:          p.ID.String(),
		Amount:      p.Amount,
		PaymentDate: p.PaymentDate.Format("2006-01-02"),
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}
