package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"vendora/internal/domain"
	applog "vendora/internal/log"
	"vendora/internal/services"
	"vendora/internal/validate"
)

// CatalogHandler serves variant master data: public browse by product and
// the admin-only publish path.
type CatalogHandler struct {
	Catalog *services.CatalogService
}

// ListVariants lists a product's active variants:
// GET /api/v1/variants?productId
func (h *CatalogHandler) ListVariants(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Query("productId"))
	if !ok {
		return badRequest(c, "missing or invalid productId")
	}
	variants, err := h.Catalog.ListVariants(c.Context(), productID)
	if err != nil {
		return fail(c, "catalog.variants", err)
	}
	return c.JSON(fiber.Map{"variants": variants})
}

type publishVariantRequest struct {
	ProductID string         `json:"productId"`
	Title     string         `json:"title"`
	Attrs     map[string]any `json:"attrs"`
}

// PublishVariant adds catalog master data (admin only). Variants are
// immutable once published.
func (h *CatalogHandler) PublishVariant(c *fiber.Ctx) error {
	var req publishVariantRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	productID, ok := validate.ID(req.ProductID)
	if !ok {
		return badRequest(c, "invalid productId")
	}
	if req.Title == "" {
		return badRequest(c, "title is required")
	}

	v := domain.Variant{ID: uuid.NewString(), ProductID: productID, Title: req.Title}
	if len(req.Attrs) > 0 {
		b, _ := json.Marshal(req.Attrs)
		v.AttrsJSON = string(b)
	}
	if err := h.Catalog.PublishVariant(c.Context(), v); err != nil {
		return fail(c, "catalog.publish", err)
	}
	applog.Audit(c, "catalog.publish", map[string]any{"variant_id": v.ID, "product_id": productID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"variantId": v.ID})
}
