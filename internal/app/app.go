package app

import (
	"time"

	"catalog/internal/config"
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Deps are the external resources the application is built on.
type Deps struct {
	DB     *gorm.DB
	Config *config.Config
	Events services.EventPublisher // nil disables product events
	Log    zerolog.Logger
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

// App bundles the HTTP server with the services behind it.
type App struct {
	Fiber    *fiber.App
	Products *services.ProductService
	Auth     *services.AuthService
	Users    repositories.UserRepository
}

// New wires repositories, services and handlers into a Fiber app.
func New(d Deps) *App {
	cfg := d.Config

	// Prices leave the API as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	productRepo := repositories.NewGORMProductRepository(d.DB, repositories.ReplacePolicy{
		WipeOnEmptyImages: cfg.Catalog.WipeOnEmptyImages,
		WipeOnEmptyStock:  cfg.Catalog.WipeOnEmptyStock,
	}, d.Log)
	userRepo := repositories.NewGORMUserRepository(d.DB, d.Log)

	productService := services.NewProductService(productRepo, d.Events, d.Log)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)

	authRequired := middleware.AuthRequired(authService, d.Log)
	productHandler := handlers.NewProductHandler(productService, authRequired, handlers.ProductHandlerConfig{
		PageLimit:  cfg.Catalog.PageLimit,
		AllowPurge: cfg.Catalog.AllowPurge,
	}, d.Log)
	authHandler := handlers.NewAuthHandler(authService, d.Log)

	// UnescapePath: titles may contain spaces and /products/:term must see them decoded.
	f := fiber.New(fiber.Config{
		AppName:      "catalog",
		UnescapePath: true,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	})
	f.Use(recover.New())
	if d.AccessLog {
		f.Use(fiberlogger.New())
	}

	apiV1 := f.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)

	f.Get("/health", func(c *fiber.Ctx) error {
		status, code := "healthy", fiber.StatusOK
		if sqlDB, err := d.DB.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			status, code = "degraded", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"events": d.Events != nil,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return &App{
		Fiber:    f,
		Products: productService,
		Auth:     authService,
		Users:    userRepo,
	}
}
