package handlers

import (
	"vendora/internal/domain"
	applog "vendora/internal/log"
	"vendora/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequireMerchant admits only logged-in merchant users and exposes their
// merchant id to downstream handlers and the logger.
func RequireMerchant(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		u, err := auth.CurrentUser(c.Context(), sid)
		if err != nil || u == nil || u.Role != "MERCHANT" || u.MerchantID == "" {
			applog.Security(c, "access.denied.merchant", map[string]any{"sid": sid})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "merchant access required"})
		}
		c.Locals("user", u)
		c.Locals("merchant_id", u.MerchantID)
		return c.Next()
	}
}

// RequireAdmin admits only platform admins.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		u, err := auth.CurrentUser(c.Context(), sid)
		if err != nil || u == nil || u.Role != "ADMIN" {
			applog.Security(c, "access.denied.admin", map[string]any{"sid": sid})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
