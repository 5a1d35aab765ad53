package api

import (
	"fintrack/internal/api/handlers"
	"fintrack/pkg/auth"
	"fintrack/pkg/config"
	"fintrack/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func SetupRouter(
	authHandler *handlers.AuthHandler,
	expenseHandler *handlers.ExpenseHandler,
	debtHandler *handlers.DebtHandler,
	paymentHandler *handlers.PaymentHandler,
	assetHandler *handlers.AssetHandler,
	jwtManager *auth.JWTManager,
	serverCfg *config.ServerConfig,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    serverCfg.BodyLimit,
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes (public)
	authGroup := app.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	expenses := protected.Group("/expenses")
	expenses.Get("", expenseHandler.List)
	expenses.Post("", expenseHandler.Create)
	expenses.Post("/analyze-receipt", expenseHandler.AnalyzeReceipt)
	expenses.Get("/:id", expenseHandler.Get)
	expenses.Put("/:id", expenseHandler.Update)
	expenses.Delete("/:id", expenseHandler.Delete)

	debts := protected.Group("/debts")
	debts.Get("", debtHandler.List)
	debts.Post("", debtHandler.Create)
	debts.Get("/:debtID", debtHandler.Get)
	debts.Put("/:debtID", debtHandler.Update)
	debts.Delete("/:debtID", debtHandler.Delete)

	payments := debts.Group("/:debtID/payments")
	payments.Get("", paymentHandler.List)
	payments.Post("", paymentHandler.Create)
	payments.Get("/:paymentID", paymentHandler.Get)
	payments.Put("/:paymentID", paymentHandler.Update)
	payments.Delete("/:paymentID", paymentHandler.Delete)

	assets := protected.Group("/assets")
	assets.Get("", assetHandler.List)
	assets.Post("", assetHandler.Create)
	assets.Get("/:id", assetHandler.Get)
	assets.Put("/:id", assetHandler.Update)
	assets.Delete("/:id", assetHandler.Delete)
	assets.Post("/:id/increment-uses", assetHandler.IncrementUses)
	assets.Post("/:id/decrement-uses", assetHandler.DecrementUses)
	assets.Post("/:id/increment-hours", assetHandler.IncrementHours)
	assets.Post("/:id/decrement-hours", assetHandler.DecrementHours)

	return app
}
