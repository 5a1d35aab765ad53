package service

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/document"
	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/vision"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeExpenseRepo struct {
	expenses  map[uuid.UUID]*models.Expense
	createErr error
	updateErr error
}

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{expenses: make(map[uuid.UUID]*models.Expense)}
}

func (f *fakeExpenseRepo) Create(ctx context.Context, expense *models.Expense) error {
	if f.createErr != nil {
		return f.createErr
	}
	clone := *expense
	f.expenses[expense.ID] = &clone
	return nil
}

func (f *fakeExpenseRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Expense, error) {
	expense, ok := f.expenses[id]
	if !ok || expense.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	clone := *expense
	return &clone, nil
}

func (f *fakeExpenseRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Expense, error) {
	var out []*models.Expense
	for _, e := range f.expenses {
		if e.UserID == userID {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeExpenseRepo) Update(ctx context.Context, expense *models.Expense) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	clone := *expense
	f.expenses[expense.ID] = &clone
	return nil
}

func (f *fakeExpenseRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	delete(f.expenses, id)
	return nil
}

func (f *fakeExpenseRepo) SumByUserID(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range f.expenses {
		if e.UserID == userID {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (f *fakeExpenseRepo) SumByUserIDSince(ctx context.Context, userID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range f.expenses {
		if e.UserID == userID && !e.Date.Before(since) {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

var _ = Describe("ExpenseService", func() {
	var (
		repo   *fakeExpenseRepo
		store  *memoryStorage
		svc    *ExpenseService
		userID uuid.UUID
	)

	BeforeEach(func() {
		repo = newFakeExpenseRepo()
		store = newMemoryStorage()
		userID = uuid.New()

		receipts := NewReceiptService(
			&fakeRasterizer{capability: document.NewCapability(true, ""), succeed: true},
			&fakeCompressor{},
			&fakeExtractor{result: &vision.ExtractionResult{
				Amount:      decimal.NewFromFloat(12.99),
				Currency:    "GBP",
				Description: "Groceries",
				Category:    "Food",
			}},
			&fakeConverter{},
			store,
			GinkgoT().TempDir(),
			zap.NewNop(),
		)
		svc = NewExpenseService(repo, receipts, zap.NewNop())
	})

	amount := func(v float64) *decimal.Decimal {
		d := decimal.NewFromFloat(v)
		return &d
	}
	upload := func() *Upload {
		return &Upload{Data: []byte("jpeg bytes"), MimeType: "image/jpeg", Filename: "r.jpg"}
	}

	Describe("Create", func() {
		It("should require an amount without a receipt", func() {
			_, err := svc.Create(context.Background(), userID, dto.ExpenseInput{}, nil)
			Expect(err).To(MatchError(ErrAmountRequired))
		})

		It("should create a plain expense from explicit fields", func() {
			resp, err := svc.Create(context.Background(), userID, dto.ExpenseInput{Amount: amount(9.99)}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Amount.String()).To(Equal("9.99"))
			Expect(resp.ReceiptPath).To(BeNil())
			Expect(store.keys()).To(BeEmpty())
		})

		When("a receipt arrives with an explicit amount", func() {
			It("should store the file but keep the explicit amount", func() {
				resp, err := svc.Create(context.Background(), userID, dto.ExpenseInput{Amount: amount(7.50)}, upload())
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Amount.String()).To(Equal("7.5"))
				Expect(resp.OriginalCurrency).To(BeNil())
				Expect(resp.ReceiptPath).NotTo(BeNil())
				Expect(store.keys()).To(HaveLen(1))
			})
		})

		When("a receipt arrives without an amount", func() {
			It("should fill the record from the pipeline", func() {
				resp, err := svc.Create(context.Background(), userID, dto.ExpenseInput{}, upload())
				Expect(err).NotTo(HaveOccurred())
				// 12.99 GBP at the fake 0.85 rate.
				Expect(resp.Amount.String()).To(Equal("11.04"))
				Expect(*resp.OriginalCurrency).To(Equal("GBP"))
				Expect(*resp.Description).To(Equal("Groceries"))
				Expect(*resp.Category).To(Equal("Food"))
				Expect(resp.ReceiptPath).NotTo(BeNil())
			})

			It("should let explicit description and category win", func() {
				desc := "Weekly shop"
				cat := "Shopping"
				resp, err := svc.Create(context.Background(), userID,
					dto.ExpenseInput{Description: &desc, Category: &cat}, upload())
				Expect(err).NotTo(HaveOccurred())
				Expect(*resp.Description).To(Equal("Weekly shop"))
				Expect(*resp.Category).To(Equal("Shopping"))
			})
		})

		When("the database insert fails after the upload was stored", func() {
			BeforeEach(func() {
				repo.createErr = errors.New("insert failed")
			})

			It("should remove the orphaned object", func() {
				_, err := svc.Create(context.Background(), userID, dto.ExpenseInput{Amount: amount(5)}, upload())
				Expect(err).To(HaveOccurred())
				Expect(store.keys()).To(BeEmpty())
				Expect(store.deleted).To(HaveLen(1))
			})
		})
	})

	Describe("Delete", func() {
		It("should remove the durable object when a receipt is attached", func() {
			resp, err := svc.Create(context.Background(), userID, dto.ExpenseInput{Amount: amount(5)}, upload())
			Expect(err).NotTo(HaveOccurred())
			key := *resp.ReceiptPath

			id, parseErr := uuid.Parse(resp.ID)
			Expect(parseErr).NotTo(HaveOccurred())
			Expect(svc.Delete(context.Background(), id, userID)).To(Succeed())
			Expect(store.deleted).To(ContainElement(key))
			Expect(store.keys()).To(BeEmpty())
		})

		It("should make no storage call when there is no receipt", func() {
			resp, err := svc.Create(context.Background(), userID, dto.ExpenseInput{Amount: amount(5)}, nil)
			Expect(err).NotTo(HaveOccurred())

			id, parseErr := uuid.Parse(resp.ID)
			Expect(parseErr).NotTo(HaveOccurred())
			Expect(svc.Delete(context.Background(), id, userID)).To(Succeed())
			Expect(store.deleted).To(BeEmpty())
		})

		It("should report an unknown expense as not found", func() {
			Expect(svc.Delete(context.Background(), uuid.New(), userID)).To(MatchError(ErrNotFound))
		})

		It("should hide other users' expenses", func() {
			resp, err := svc.Create(context.Background(), userID, dto.ExpenseInput{Amount: amount(5)}, nil)
			Expect(err).NotTo(HaveOccurred())

			id, parseErr := uuid.Parse(resp.ID)
			Expect(parseErr).NotTo(HaveOccurred())
			Expect(svc.Delete(context.Background(), id, uuid.New())).To(MatchError(ErrNotFound))
		})
	})

	Describe("Update", func() {
		It("should replace the stored receipt and remove the old object", func() {
			resp, err := svc.Create(context.Background(), userID, dto.ExpenseInput{Amount: amount(5)}, upload())
			Expect(err).NotTo(HaveOccurred())
			oldKey := *resp.ReceiptPath

			id, parseErr := uuid.Parse(resp.ID)
			Expect(parseErr).NotTo(HaveOccurred())
			updated, err := svc.Update(context.Background(), id, userID, dto.ExpenseInput{}, upload())
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.ReceiptPath).NotTo(Equal(oldKey))
			Expect(store.deleted).To(ContainElement(oldKey))
			Expect(store.keys()).To(HaveLen(1))
		})

		It("should clear original-currency fields when the amount is set manually", func() {
			resp, err := svc.Create(context.Background(), userID, dto.ExpenseInput{}, upload())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.OriginalCurrency).NotTo(BeNil())

			id, parseErr := uuid.Parse(resp.ID)
			Expect(parseErr).NotTo(HaveOccurred())
			updated, err := svc.Update(context.Background(), id, userID, dto.ExpenseInput{Amount: amount(20)}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Amount.String()).To(Equal("20"))
			Expect(updated.OriginalCurrency).To(BeNil())
			Expect(updated.ExchangeRate).To(BeNil())
		})
	})

	Describe("List", func() {
		It("should summarize totals and the current month", func() {
			now := time.Now().UTC()
			lastMonth := now.AddDate(0, 0, -45)
			_, err := svc.Create(context.Background(), userID, dto.ExpenseInput{Amount: amount(10), Date: now}, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Create(context.Background(), userID, dto.ExpenseInput{Amount: amount(4), Date: lastMonth}, nil)
			Expect(err).NotTo(HaveOccurred())

			list, err := svc.List(context.Background(), userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(list.Summary.Count).To(Equal(2))
			Expect(list.Summary.Total.String()).To(Equal("14"))
			Expect(list.Summary.ThisMonth.String()).To(Equal("10"))
		})
	})
})
