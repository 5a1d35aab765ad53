package handlers

import (
	"errors"
	"time"

	"fintrack/internal/currency"
	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AssetHandler struct {
	assetService *service.AssetService
	logger       *zap.Logger
}

func NewAssetHandler(assetService *service.AssetService, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{
		assetService: assetService,
		logger:       logger,
	}
}

func (h *AssetHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	resp, err := h.assetService.List(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list assets", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list assets",
		})
	}
	return c.JSON(resp)
}

func (h *AssetHandler) Get(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset ID"})
	}

	resp, err := h.assetService.Get(c.Context(), id, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Asset not found"})
		}
		h.logger.Error("Failed to get asset", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get asset",
		})
	}
	return c.JSON(resp)
}

func (h *AssetHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	input, err := parseAssetInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resp, err := h.assetService.Create(c.Context(), userID, input)
	if err != nil {
		return h.assetError(c, err, "Failed to create asset")
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AssetHandler) Update(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset ID"})
	}

	input, err := parseAssetInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resp, err := h.assetService.Update(c.Context(), id, userID, input)
	if err != nil {
		return h.assetError(c, err, "Failed to update asset")
	}
	return c.JSON(resp)
}

func (h *AssetHandler) Delete(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset ID"})
	}

	if err := h.assetService.Delete(c.Context(), id, userID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Asset not found"})
		}
		h.logger.Error("Failed to delete asset", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete asset",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AssetHandler) IncrementUses(c *fiber.Ctx) error {
	return h.adjustUses(c, 1)
}

func (h *AssetHandler) DecrementUses(c *fiber.Ctx) error {
	return h.adjustUses(c, -1)
}

func (h *AssetHandler) IncrementHours(c *fiber.Ctx) error {
	return h.adjustHours(c, true)
}

func (h *AssetHandler) DecrementHours(c *fiber.Ctx) error {
	return h.adjustHours(c, false)
}

func (h *AssetHandler) adjustUses(c *fiber.Ctx, delta int) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset ID"})
	}

	resp, err := h.assetService.AdjustUses(c.Context(), id, userID, delta)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Asset not found"})
		}
		h.logger.Error("Failed to adjust asset uses", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to adjust asset uses",
		})
	}
	return c.JSON(resp)
}

func (h *AssetHandler) adjustHours(c *fiber.Ctx, increment bool) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset ID"})
	}

	resp, err := h.assetService.AdjustHours(c.Context(), id, userID, increment)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Asset not found"})
		}
		h.logger.Error("Failed to adjust asset hours", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to adjust asset hours",
		})
	}
	return c.JSON(resp)
}

func (h *AssetHandler) assetError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Asset not found"})
	case errors.Is(err, service.ErrCostRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, currency.ErrRateUnavailable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	h.logger.Error(fallback, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
}

func parseAssetInput(c *fiber.Ctx) (dto.AssetInput, error) {
	var req struct {
		Name             string           `json:"name"`
		Description      *string          `json:"description"`
		Cost             *decimal.Decimal `json:"cost"`
		OriginalCost     *decimal.Decimal `json:"original_cost"`
		OriginalCurrency *string          `json:"original_currency"`
		TrackingType     string           `json:"tracking_type"`
		PurchasedAt      string           `json:"purchased_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return dto.AssetInput{}, errors.New("invalid request body")
	}

	if req.Name == "" {
		return dto.AssetInput{}, errors.New("name is required")
	}
	if req.Cost != nil && !req.Cost.IsPositive() {
		return dto.AssetInput{}, errors.New("cost must be positive")
	}
	if req.OriginalCost != nil {
		if !req.OriginalCost.IsPositive() {
			return dto.AssetInput{}, errors.New("original_cost must be positive")
		}
		if req.OriginalCurrency == nil || !currency.Supported(*req.OriginalCurrency) {
			return dto.AssetInput{}, errors.New("original_currency must be one of GBP, EUR, CZK, USD")
		}
	}
	if req.TrackingType != "" &&
		req.TrackingType != string(models.TrackByUses) &&
		req.TrackingType != string(models.TrackByHours) {
		return dto.AssetInput{}, errors.New("tracking_type must be uses or hours")
	}

	input := dto.AssetInput{
		Name:             req.Name,
		Description:      req.Description,
		Cost:             req.Cost,
		OriginalCost:     req.OriginalCost,
		OriginalCurrency: req.OriginalCurrency,
		TrackingType:     req.TrackingType,
	}
	if req.PurchasedAt != "" {
		parsed, err := time.Parse("2006-01-02", req.PurchasedAt)
		if err != nil {
			return dto.AssetInput{}, errors.New("invalid purchased_at, expected YYYY-MM-DD")
		}
		input.PurchasedAt = parsed
	}
	return input, nil
}
