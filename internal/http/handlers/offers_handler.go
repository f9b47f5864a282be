package handlers

import (
	"github.com/gofiber/fiber/v2"

	"vendora/internal/services"
	"vendora/internal/validate"
)

type OffersHandler struct {
	Resolver *services.ResolverService
}

// Available resolves the purchasable offers for a variant:
// GET /api/v1/offers/available?variantId&country&quantity
// An empty list is a normal answer, not an error.
func (h *OffersHandler) Available(c *fiber.Ctx) error {
	variantID, ok := validate.ID(c.Query("variantId"))
	if !ok {
		return badRequest(c, "missing or invalid variantId")
	}
	country, ok := validate.Country(c.Query("country"))
	if !ok {
		return badRequest(c, "country must be a 2-letter code")
	}
	qty, ok := validate.Qty(c.Query("quantity", "1"))
	if !ok {
		return badRequest(c, "quantity must be a positive integer")
	}

	offers, err := h.Resolver.Resolve(c.Context(), variantID, country, qty)
	if err != nil {
		return fail(c, "offers.resolve", err)
	}
	return c.JSON(fiber.Map{"offers": offers})
}
