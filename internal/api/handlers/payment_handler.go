package handlers

import (
	"errors"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	debtService *service.DebtService
	logger      *zap.Logger
}

func NewPaymentHandler(debtService *service.DebtService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		debtService: debtService,
		logger:      logger,
	}
}

func (h *PaymentHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	debtID, err := parseIDParam(c, "debtID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid debt ID"})
	}

	resp, err := h.debtService.ListPayments(c.Context(), debtID, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Debt not found"})
		}
		h.logger.Error("Failed to list payments", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list payments",
		})
	}
	return c.JSON(resp)
}

func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	debtID, err := parseIDParam(c, "debtID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid debt ID"})
	}

	paymentID, err := parseIDParam(c, "paymentID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}

	resp, err := h.debtService.GetPayment(c.Context(), debtID, paymentID, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		h.logger.Error("Failed to get payment", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get payment",
		})
	}
	return c.JSON(resp)
}

func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	debtID, err := parseIDParam(c, "debtID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid debt ID"})
	}

	input, err := parsePaymentInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resp, err := h.debtService.CreatePayment(c.Context(), debtID, userID, input)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Debt not found"})
		}
		h.logger.Error("Failed to create payment", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create payment",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *PaymentHandler) Update(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	debtID, err := parseIDParam(c, "debtID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid debt ID"})
	}

	paymentID, err := parseIDParam(c, "paymentID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}

	input, err := parsePaymentInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resp, err := h.debtService.UpdatePayment(c.Context(), debtID, paymentID, userID, input)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		h.logger.Error("Failed to update payment", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update payment",
		})
	}
	return c.JSON(resp)
}

func (h *PaymentHandler) Delete(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	debtID, err := parseIDParam(c, "debtID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid debt ID"})
	}

	paymentID, err := parseIDParam(c, "paymentID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}

	if err := h.debtService.DeletePayment(c.Context(), debtID, paymentID, userID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		h.logger.Error("Failed to delete payment", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete payment",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parsePaymentInput(c *fiber.Ctx) (dto.PaymentInput, error) {
	var req struct {
		Amount      decimal.Decimal `json:"amount"`
		PaymentDate string          `json:"payment_date"`
		Notes       *string         `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return dto.PaymentInput{}, errors.New("invalid request body")
	}

	if !req.Amount.IsPositive() {
		return dto.PaymentInput{}, errors.New("amount must be positive")
	}

	input := dto.PaymentInput{
		Amount: req.Amount,
		Notes:  req.Notes,
	}
	if req.PaymentDate != "" {
		parsed, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			return dto.PaymentInput{}, errors.New("invalid payment_date, expected YYYY-MM-DD")
		}
		input.PaymentDate = parsed
	}
	return input, nil
}
