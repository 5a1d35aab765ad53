package service

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrAmountRequired = errors.New("amount is required when no receipt is attached")

// ExpenseRepo is the persistence surface the expense service needs;
// *repository.ExpenseRepository satisfies it.
type ExpenseRepo interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Expense, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Expense, error)
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	SumByUserID(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	SumByUserIDSince(ctx context.Context, userID uuid.UUID, since time.Time) (decimal.Decimal, error)
}

type ExpenseService struct {
	repo     ExpenseRepo
	receipts *ReceiptService
	logger   *zap.Logger
}

func NewExpenseService(repo ExpenseRepo, receipts *ReceiptService, logger *zap.Logger) *ExpenseService {
	return &ExpenseService{
		repo:     repo,
		receipts: receipts,
		logger:   logger,
	}
}

func (s *ExpenseService) List(ctx context.Context, userID uuid.UUID) (*dto.ExpenseListResponse, error) {
	expenses, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.SumByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	thisMonth, err := s.repo.SumByUserIDSince(ctx, userID, monthStart)
	if err != nil {
		return nil, err
	}

	resp := &dto.ExpenseListResponse{
		Expenses: make([]dto.ExpenseResponse, 0, len(expenses)),
		Summary: dto.ExpenseSummary{
			Total:     total,
			Count:     len(expenses),
			ThisMonth: thisMonth,
		},
	}
	for _, e := range expenses {
		resp.Expenses = append(resp.Expenses, toExpenseResponse(e))
	}
	return resp, nil
}

func (s *ExpenseService) Get(ctx context.Context, id, userID uuid.UUID) (*dto.ExpenseResponse, error) {
	expense, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	resp := toExpenseResponse(expense)
	return &resp, nil
}

// Create records an expense. When a receipt is attached and no amount is
// given, the pipeline supplies amount, currency, description and category;
// explicitly provided fields always win over extracted ones.
func (s *ExpenseService) Create(ctx context.Context, userID uuid.UUID, input dto.ExpenseInput, upload *Upload) (*dto.ExpenseResponse, error) {
	now := time.Now().UTC()
	expense := &models.Expense{
		ID:          uuid.New(),
		UserID:      userID,
		Description: input.Description,
		Category:    input.Category,
		Date:        input.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if expense.Date.IsZero() {
		expense.Date = now
	}

	switch {
	case upload == nil:
		if input.Amount == nil {
			return nil, ErrAmountRequired
		}
		expense.Amount = input.Amount.Round(2)

	case input.Amount != nil:
		expense.Amount = input.Amount.Round(2)
		key, err := s.receipts.Store(ctx, *upload)
		if err != nil {
			return nil, err
		}
		expense.ReceiptPath = &key

	default:
		result, err := s.receipts.Process(ctx, *upload, ModePersist)
		if err != nil {
			return nil, err
		}
		expense.Amount = result.Conversion.AmountBase
		expense.OriginalAmount = &result.Conversion.OriginalAmount
		expense.OriginalCurrency = &result.Conversion.OriginalCurrency
		expense.ExchangeRate = &result.Conversion.ExchangeRate
		expense.ReceiptPath = result.StoragePath
		if expense.Description == nil {
			expense.Description = &result.Extraction.Description
		}
		if expense.Category == nil {
			expense.Category = &result.Extraction.Category
		}
	}

	if err := s.repo.Create(ctx, expense); err != nil {
		if expense.ReceiptPath != nil {
			if cleanupErr := s.receipts.Remove(ctx, *expense.ReceiptPath); cleanupErr != nil {
				s.logger.Error("Failed to remove orphaned receipt",
					zap.String("key", *expense.ReceiptPath),
					zap.Error(cleanupErr),
				)
			}
		}
		return nil, err
	}

	resp := toExpenseResponse(expense)
	return &resp, nil
}

// Update applies the given fields. A new receipt upload replaces the stored
// object; the old one is removed only after the row update succeeds.
func (s *ExpenseService) Update(ctx context.Context, id, userID uuid.UUID, input dto.ExpenseInput, upload *Upload) (*dto.ExpenseResponse, error) {
	expense, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	oldReceipt := expense.ReceiptPath
	if upload != nil {
		key, err := s.receipts.Store(ctx, *upload)
		if err != nil {
			return nil, err
		}
		expense.ReceiptPath = &key
	}

	if input.Amount != nil {
		expense.Amount = input.Amount.Round(2)
		// A manual amount supersedes whatever the receipt said.
		expense.OriginalAmount = nil
		expense.OriginalCurrency = nil
		expense.ExchangeRate = nil
	}
	if input.Description != nil {
		expense.Description = input.Description
	}
	if input.Category != nil {
		expense.Category = input.Category
	}
	if !input.Date.IsZero() {
		expense.Date = input.Date
	}
	expense.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, expense); err != nil {
		if upload != nil && expense.ReceiptPath != nil {
			if cleanupErr := s.receipts.Remove(ctx, *expense.ReceiptPath); cleanupErr != nil {
				s.logger.Error("Failed to remove orphaned receipt",
					zap.String("key", *expense.ReceiptPath),
					zap.Error(cleanupErr),
				)
			}
		}
		return nil, err
	}

	if upload != nil && oldReceipt != nil {
		if err := s.receipts.Remove(ctx, *oldReceipt); err != nil {
			s.logger.Error("Failed to remove replaced receipt",
				zap.String("key", *oldReceipt),
				zap.Error(err),
			)
		}
	}

	resp := toExpenseResponse(expense)
	return &resp, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	expense, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	if expense.ReceiptPath != nil {
		if err := s.receipts.Remove(ctx, *expense.ReceiptPath); err != nil {
			s.logger.Error("Failed to remove receipt for deleted expense",
				zap.String("key", *expense.ReceiptPath),
				zap.Error(err),
			)
		}
	}
	return nil
}

// AnalyzeReceipt runs the pipeline without storing anything, returning the
// normalized purchase for the client to confirm.
func (s *ExpenseService) AnalyzeReceipt(ctx context.Context, upload Upload) (*dto.ReceiptAnalysis, error) {
	result, err := s.receipts.Process(ctx, upload, ModeAnalyze)
	if err != nil {
		return nil, err
	}

	return &dto.ReceiptAnalysis{
		Amount:           result.Conversion.AmountBase,
		OriginalAmount:   result.Conversion.OriginalAmount,
		OriginalCurrency: result.Conversion.OriginalCurrency,
		ExchangeRate:     result.Conversion.ExchangeRate,
		Description:      result.Extraction.Description,
		Category:         result.Extraction.Category,
		Date:             time.Now().UTC().Format("2006-01-02"),
	}, nil
}

func toExpenseResponse(e *models.Expense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:               e.ID.String(),
		Amount:           e.Amount,
		OriginalAmount:   e.OriginalAmount,
		OriginalCurrency: e.OriginalCurrency,
		ExchangeRate:     e.ExchangeRate,
		Description:      e.Description,
		Category:         e.Category,
		Date:             e.Date.Format("2006-01-02"),
		ReceiptPath:      e.ReceiptPath,
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
	}
}
