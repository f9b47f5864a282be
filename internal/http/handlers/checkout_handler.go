package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"vendora/internal/domain"
	applog "vendora/internal/log"
	"vendora/internal/services"
	"vendora/internal/validate"
)

type CheckoutHandler struct {
	Composer *services.ComposerService
	Auth     *services.AuthService
}

// ownedOrder loads an order only if the session placed it. Admin sessions
// see every order; foreign orders read as absent.
func (h *CheckoutHandler) ownedOrder(c *fiber.Ctx, orderID string) (domain.Order, error) {
	order, err := h.Composer.Get(c.Context(), orderID)
	if err != nil {
		return domain.Order{}, err
	}
	sid := c.Cookies("sid")
	if sid != "" && sid == order.CustomerID {
		return order, nil
	}
	if h.Auth != nil && sid != "" {
		if u, err := h.Auth.CurrentUser(c.Context(), sid); err == nil && u != nil && u.Role == "ADMIN" {
			return order, nil
		}
	}
	applog.Security(c, "access.denied.order", map[string]any{"order_id": orderID})
	return domain.Order{}, domain.ErrNotFound
}

type checkoutRequest struct {
	Selections   []domain.Selection `json:"selections"`
	DiscountCode string             `json:"discountCode"`
}

func (h *CheckoutHandler) ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable true behind TLS
		})
	}
	return sid
}

// Checkout composes a pending multi-merchant order: POST /api/v1/checkout.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if req.DiscountCode != "" {
		if _, ok := validate.Code(req.DiscountCode); !ok {
			return badRequest(c, "invalid discount code")
		}
	}

	customerID := h.ensureSID(c)
	order, err := h.Composer.Compose(c.Context(), customerID, req.Selections, req.DiscountCode)
	if err != nil {
		applog.Security(c, "checkout.fail", map[string]any{"customer": customerID, "error": err.Error()})
		return fail(c, "checkout", err)
	}
	applog.Audit(c, "checkout.placed", map[string]any{
		"order_id":  order.ID,
		"merchants": len(order.Splits),
		"total":     order.Totals.Total,
	})
	return c.Status(fiber.StatusCreated).JSON(order)
}

// List returns the session's order history, newest first. No session means
// no history, not an error.
func (h *CheckoutHandler) List(c *fiber.Ctx) error {
	sid := c.Cookies("sid")
	if sid == "" {
		return c.JSON(fiber.Map{"orders": []domain.Order{}})
	}
	orders, err := h.Composer.ListForCustomer(c.Context(), sid)
	if err != nil {
		return fail(c, "order.list", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func (h *CheckoutHandler) Get(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid order id")
	}
	order, err := h.ownedOrder(c, oid)
	if err != nil {
		return fail(c, "order.get", err)
	}
	return c.JSON(order)
}

// Cancel rolls a pending/paid order back, restoring the stock it reserved.
func (h *CheckoutHandler) Cancel(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid order id")
	}
	if _, err := h.ownedOrder(c, oid); err != nil {
		return fail(c, "order.cancel", err)
	}
	if err := h.Composer.Cancel(c.Context(), oid); err != nil {
		return fail(c, "order.cancel", err)
	}
	applog.Audit(c, "order.cancelled", map[string]any{"order_id": oid})
	return c.JSON(fiber.Map{"ok": true})
}

// UpdateStatus advances an order along its lifecycle (admin only).
func (h *CheckoutHandler) UpdateStatus(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid order id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "malformed request body")
	}
	switch body.Status {
	case domain.OrderPaid, domain.OrderShipped, domain.OrderDelivered, domain.OrderCancelled:
	default:
		return badRequest(c, "unknown status")
	}
	if err := h.Composer.Advance(c.Context(), oid, body.Status); err != nil {
		return fail(c, "order.status", err)
	}
	applog.Audit(c, "order.status", map[string]any{"order_id": oid, "status": body.Status})
	return c.JSON(fiber.Map{"ok": true})
}
