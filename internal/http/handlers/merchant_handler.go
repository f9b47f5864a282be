package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	applog "vendora/internal/log"
	"vendora/internal/services"
	"vendora/internal/validate"
)

// MerchantHandler exposes the merchant write paths: listing variants,
// pausing offers, appending price records, adjusting stock. All routes sit
// behind RequireMerchant, so the merchant id always comes from the session.
type MerchantHandler struct {
	Merchant *services.MerchantService
}

type createOfferRequest struct {
	VariantID string   `json:"variantId"`
	SKU       string   `json:"sku"`
	Countries []string `json:"countries"`
}

func (h *MerchantHandler) CreateOffer(c *fiber.Ctx) error {
	u := currentUser(c)
	var req createOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	variantID, ok := validate.ID(req.VariantID)
	if !ok {
		return badRequest(c, "invalid variantId")
	}
	sku, ok := validate.SKU(req.SKU)
	if !ok {
		return badRequest(c, "invalid sku")
	}
	countries, ok := validate.Countries(req.Countries)
	if !ok {
		return badRequest(c, "countries must be 2-letter codes")
	}

	offer, err := h.Merchant.CreateOffer(c.Context(), u.MerchantID, variantID, sku, countries)
	if err != nil {
		return fail(c, "offer.create", err)
	}
	applog.Audit(c, "offer.create", map[string]any{"offer_id": offer.ID, "variant_id": variantID})
	return c.Status(fiber.StatusCreated).JSON(offer)
}

func (h *MerchantHandler) Pause(c *fiber.Ctx) error {
	return h.setStatus(c, "offer.pause", h.Merchant.PauseOffer)
}

func (h *MerchantHandler) Resume(c *fiber.Ctx) error {
	return h.setStatus(c, "offer.resume", h.Merchant.ResumeOffer)
}

func (h *MerchantHandler) setStatus(c *fiber.Ctx, action string, op func(ctx context.Context, merchantID, offerID string) error) error {
	u := currentUser(c)
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid offer id")
	}
	if err := op(c.Context(), u.MerchantID, oid); err != nil {
		return fail(c, action, err)
	}
	applog.Audit(c, action, map[string]any{"offer_id": oid})
	return c.JSON(fiber.Map{"ok": true})
}

type setPriceRequest struct {
	Currency  string `json:"currency"`
	BasePrice int64  `json:"basePrice"`
	SalePrice *int64 `json:"salePrice"`
	ValidFrom string `json:"validFrom"` // RFC3339; empty means now
	Source    string `json:"source"`
}

func (h *MerchantHandler) SetPrice(c *fiber.Ctx) error {
	u := currentUser(c)
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid offer id")
	}
	var req setPriceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	currency, ok := validate.Currency(req.Currency)
	if !ok {
		return badRequest(c, "invalid currency")
	}
	if req.BasePrice < 0 || (req.SalePrice != nil && *req.SalePrice < 0) {
		return badRequest(c, "prices must be non-negative minor units")
	}

	in := services.PriceInput{
		Currency:  currency,
		BasePrice: req.BasePrice,
		SalePrice: req.SalePrice,
		Source:    req.Source,
	}
	if req.ValidFrom != "" {
		from, err := time.Parse(time.RFC3339, req.ValidFrom)
		if err != nil {
			return badRequest(c, "validFrom must be RFC3339")
		}
		in.ValidFrom = from
	}

	rec, err := h.Merchant.SetPrice(c.Context(), u.MerchantID, oid, in)
	if err != nil {
		return fail(c, "offer.price", err)
	}
	applog.Audit(c, "offer.price", map[string]any{"offer_id": oid, "base": rec.BasePrice})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"priceRecordId": rec.ID, "validFrom": rec.ValidFrom})
}

type upsertStockRequest struct {
	LocationID   string `json:"locationId"`
	AvailableQty int    `json:"availableQty"`
	IncomingQty  int    `json:"incomingQty"`
}

func (h *MerchantHandler) UpsertStock(c *fiber.Ctx) error {
	u := currentUser(c)
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid offer id")
	}
	var req upsertStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	locID, ok := validate.ID(req.LocationID)
	if !ok {
		return badRequest(c, "invalid locationId")
	}

	if err := h.Merchant.UpsertStock(c.Context(), u.MerchantID, oid, locID, req.AvailableQty, req.IncomingQty); err != nil {
		return fail(c, "offer.stock", err)
	}
	applog.Audit(c, "offer.stock", map[string]any{"offer_id": oid, "location_id": locID, "available": req.AvailableQty})
	return c.JSON(fiber.Map{"ok": true})
}

type addLocationRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // store | warehouse | 3pl
}

func (h *MerchantHandler) AddLocation(c *fiber.Ctx) error {
	u := currentUser(c)
	var req addLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	loc, err := h.Merchant.AddLocation(c.Context(), u.MerchantID, req.Name, req.Kind)
	if err != nil {
		return fail(c, "location.add", err)
	}
	applog.Audit(c, "location.add", map[string]any{"location_id": loc.ID, "kind": loc.Kind})
	return c.Status(fiber.StatusCreated).JSON(loc)
}

func (h *MerchantHandler) ListLocations(c *fiber.Ctx) error {
	u := currentUser(c)
	locs, err := h.Merchant.ListLocations(c.Context(), u.MerchantID)
	if err != nil {
		return fail(c, "location.list", err)
	}
	return c.JSON(fiber.Map{"locations": locs})
}

func (h *MerchantHandler) ListOffers(c *fiber.Ctx) error {
	u := currentUser(c)
	offers, err := h.Merchant.ListOffers(c.Context(), u.MerchantID)
	if err != nil {
		return fail(c, "offer.list", err)
	}
	return c.JSON(fiber.Map{"offers": offers})
}
