package handlers

import (
	"errors"
	"strings"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ExpenseHandler struct {
	expenseService *service.ExpenseService
	logger         *zap.Logger
}

func NewExpenseHandler(expenseService *service.ExpenseService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		logger:         logger,
	}
}

func (h *ExpenseHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	resp, err := h.expenseService.List(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list expenses",
		})
	}
	return c.JSON(resp)
}

func (h *ExpenseHandler) Get(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid expense ID"})
	}

	resp, err := h.expenseService.Get(c.Context(), id, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Expense not found"})
		}
		h.logger.Error("Failed to get expense", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get expense",
		})
	}
	return c.JSON(resp)
}

func (h *ExpenseHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	input, err := parseExpenseInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	upload, err := readReceipt(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resp, err := h.expenseService.Create(c.Context(), userID, input, upload)
	if err != nil {
		return h.receiptError(c, err, "Failed to create expense")
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *ExpenseHandler) Update(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid expense ID"})
	}

	input, err := parseExpenseInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	upload, err := readReceipt(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resp, err := h.expenseService.Update(c.Context(), id, userID, input, upload)
	if err != nil {
		return h.receiptError(c, err, "Failed to update expense")
	}
	return c.JSON(resp)
}

func (h *ExpenseHandler) Delete(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid expense ID"})
	}

	if err := h.expenseService.Delete(c.Context(), id, userID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Expense not found"})
		}
		h.logger.Error("Failed to delete expense", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete expense",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AnalyzeReceipt runs the extraction pipeline without creating a record.
// Failures the client can act on come back as a 422 envelope.
func (h *ExpenseHandler) AnalyzeReceipt(c *fiber.Ctx) error {
	if _, err := getUserID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Receipt file is required"})
	}

	upload, err := openReceipt(fileHeader)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	analysis, err := h.expenseService.AnalyzeReceipt(c.Context(), *upload)
	if err != nil {
		h.logger.Warn("Receipt analysis failed", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.AnalyzeReceiptError{
			Success: false,
			Message: analysisMessage(err),
		})
	}

	return c.JSON(dto.AnalyzeReceiptResponse{
		Success: true,
		Data:    *analysis,
	})
}

func (h *ExpenseHandler) receiptError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Expense not found"})
	case errors.Is(err, service.ErrAmountRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrConversionUnavailable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	var stageErr *service.StageError
	if errors.As(err, &stageErr) {
		h.logger.Warn("Receipt pipeline failed", zap.String("stage", stageErr.Stage), zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": analysisMessage(err),
		})
	}

	h.logger.Error(fallback, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
}

func analysisMessage(err error) string {
	if errors.Is(err, service.ErrConversionUnavailable) {
		return service.ErrConversionUnavailable.Error()
	}
	var stageErr *service.StageError
	if errors.As(err, &stageErr) {
		return stageErr.Err.Error()
	}
	return "failed to analyze receipt"
}

// parseExpenseInput accepts either a JSON body or multipart form fields,
// since receipt uploads arrive as multipart.
func parseExpenseInput(c *fiber.Ctx) (dto.ExpenseInput, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return parseExpenseForm(c)
	}

	var req struct {
		Amount      *decimal.Decimal `json:"amount"`
		Description *string          `json:"description"`
		Category    *string          `json:"category"`
		Date        string           `json:"date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return dto.ExpenseInput{}, errors.New("invalid request body")
	}

	return buildExpenseInput(req.Amount, req.Description, req.Category, req.Date)
}

func parseExpenseForm(c *fiber.Ctx) (dto.ExpenseInput, error) {
	var amount *decimal.Decimal
	if raw := c.FormValue("amount"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return dto.ExpenseInput{}, errors.New("invalid amount")
		}
		amount = &parsed
	}

	var description, category *string
	if v := c.FormValue("description"); v != "" {
		description = &v
	}
	if v := c.FormValue("category"); v != "" {
		category = &v
	}

	return buildExpenseInput(amount, description, category, c.FormValue("date"))
}

func buildExpenseInput(amount *decimal.Decimal, description, category *string, date string) (dto.ExpenseInput, error) {
	if amount != nil && !amount.IsPositive() {
		return dto.ExpenseInput{}, errors.New("amount must be positive")
	}
	if category != nil && !models.ValidCategory(*category) {
		return dto.ExpenseInput{}, errors.New("invalid category")
	}

	input := dto.ExpenseInput{
		Amount:      amount,
		Description: description,
		Category:    category,
	}
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return dto.ExpenseInput{}, errors.New("invalid date, expected YYYY-MM-DD")
		}
		input.Date = parsed
	}
	return input, nil
}
