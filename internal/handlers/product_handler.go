package handlers

import (
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ProductHandlerConfig carries the route-level settings of ProductHandler.
type ProductHandlerConfig struct {
	PageLimit  int
	AllowPurge bool
}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	auth     fiber.Handler
	validate *validator.Validate
	cfg      ProductHandlerConfig
	log      zerolog.Logger
}

// NewProductHandler creates a new ProductHandler. auth guards every write route.
func NewProductHandler(service *services.ProductService, auth fiber.Handler, cfg ProductHandlerConfig, log zerolog.Logger) *ProductHandler {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = repositories.DefaultPageLimit
	}
	return &ProductHandler{
		service:  service,
		auth:     auth,
		validate: models.NewValidator(),
		cfg:      cfg,
		log:      log.With().Str("component", "product_handler").Logger(),
	}
}

// RegisterRoutes registers the product routes. Reads are public, writes need a token.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:term", h.HandleGetProduct)
	productRoutes.Post("/", h.auth, h.HandleCreateProduct)
	productRoutes.Patch("/:id", h.auth, h.HandleUpdateProduct)
	productRoutes.Delete("/", h.auth, h.HandlePurgeProducts)
	productRoutes.Delete("/:term", h.auth, h.HandleDeleteProduct)
}

type listQuery struct {
	Gender models.Gender `validate:"omitempty,oneof=men women kid unisex"`
	Limit  int           `validate:"gte=0"`
	Offset int           `validate:"gte=0"`
}

// HandleListProducts returns a page of products: ?limit=&offset=&gender=.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	q := listQuery{
		Gender: models.Gender(c.Query("gender")),
		Limit:  c.QueryInt("limit", h.cfg.PageLimit),
		Offset: c.QueryInt("offset", 0),
	}
	if err := h.validate.Struct(q); err != nil {
		return validationFailed(c, err)
	}
	if q.Limit == 0 {
		q.Limit = h.cfg.PageLimit
	}

	page, err := h.service.List(c.UserContext(), repositories.ListParams{
		Limit:  q.Limit,
		Offset: q.Offset,
		Gender: q.Gender,
	})
	if err != nil {
		return storeError(c, h.log, err)
	}
	return c.JSON(page)
}

// HandleGetProduct resolves a product by id, title or slug.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.FindOne(c.UserContext(), c.Params("term"))
	if err != nil {
		return storeError(c, h.log, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product owned by the caller.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req models.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	product, err := h.service.Create(c.UserContext(), req, middleware.CurrentUser(c))
	if err != nil {
		return storeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update. Supplying "images" or
// "stockEntries" replaces the whole collection.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req models.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	product, err := h.service.Update(c.UserContext(), c.Params("id"), req, middleware.CurrentUser(c))
	if err != nil {
		return storeError(c, h.log, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by id, title or slug.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	term := c.Params("term")
	if err := h.service.Remove(c.UserContext(), term); err != nil {
		return storeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product " + term + " deleted successfully",
	})
}

// HandlePurgeProducts deletes every product. Disabled unless AllowPurge is set.
func (h *ProductHandler) HandlePurgeProducts(c *fiber.Ctx) error {
	if !h.cfg.AllowPurge {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Purging products is disabled",
		})
	}
	n, err := h.service.DeleteAll(c.UserContext())
	if err != nil {
		return storeError(c, h.log, err)
	}
	h.log.Warn().Int64("count", n).Msg("all products purged")
	return c.JSON(fiber.Map{
		"message": "Products purged",
		"count":   n,
	})
}
