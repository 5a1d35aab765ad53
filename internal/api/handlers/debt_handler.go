package handlers

import (
	"errors"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type DebtHandler struct {
	debtService *service.DebtService
	logger      *zap.Logger
}

func NewDebtHandler(debtService *service.DebtService, logger *zap.Logger) *DebtHandler {
	return &DebtHandler{
		debtService: debtService,
		logger:      logger,
	}
}

func (h *DebtHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	resp, err := h.debtService.List(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list debts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list debts",
		})
	}
	return c.JSON(resp)
}

func (h *DebtHandler) Get(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := parseIDParam(c, "debtID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid debt ID"})
	}

	resp, err := h.debtService.Get(c.Context(), id, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Debt not found"})
		}
		h.logger.Error("Failed to get debt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get debt",
		})
	}
	return c.JSON(resp)
}

func (h *DebtHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	input, err := parseDebtInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resp, err := h.debtService.Create(c.Context(), userID, input)
	if err != nil {
		h.logger.Error("Failed to create debt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create debt",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *DebtHandler) Update(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := parseIDParam(c, "debtID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid debt ID"})
	}

	input, err := parseDebtInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resp, err := h.debtService.Update(c.Context(), id, userID, input)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Debt not found"})
		}
		h.logger.Error("Failed to update debt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update debt",
		})
	}
	return c.JSON(resp)
}

func (h *DebtHandler) Delete(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := parseIDParam(c, "debtID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid debt ID"})
	}

	if err := h.debtService.Delete(c.Context(), id, userID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Debt not found"})
		}
		h.logger.Error("Failed to delete debt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete debt",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseDebtInput(c *fiber.Ctx) (dto.DebtInput, error) {
	var req struct {
		DebtorName  string          `json:"debtor_name"`
		Amount      decimal.Decimal `json:"amount"`
		Type        string          `json:"type"`
		Description *string         `json:"description"`
		DueDate     *string         `json:"due_date"`
		IsPaid      bool            `json:"is_paid"`
	}
	if err := c.BodyParser(&req); err != nil {
		return dto.DebtInput{}, errors.New("invalid request body")
	}

	if req.DebtorName == "" {
		return dto.DebtInput{}, errors.New("debtor_name is required")
	}
	if !req.Amount.IsPositive() {
		return dto.DebtInput{}, errors.New("amount must be positive")
	}
	if req.Type != string(models.DebtOwedToMe) && req.Type != string(models.DebtIOwe) {
		return dto.DebtInput{}, errors.New("type must be owed_to_me or i_owe")
	}

	input := dto.DebtInput{
		DebtorName:  req.DebtorName,
		Amount:      req.Amount,
		Type:        req.Type,
		Description: req.Description,
		IsPaid:      req.IsPaid,
	}
	if req.DueDate != nil && *req.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return dto.DebtInput{}, errors.New("invalid due_date, expected YYYY-MM-DD")
		}
		input.DueDate = &parsed
	}
	return input, nil
}
