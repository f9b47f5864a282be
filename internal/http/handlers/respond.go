package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"vendora/internal/domain"
	applog "vendora/internal/log"
)

// fail maps the engine's error taxonomy onto HTTP statuses:
// absence → 404, contention → 409, bad input → 400, unpriced offer → 422.
// Anything unrecognized is logged and hidden behind a generic 500.
func fail(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownOffer):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		var se *domain.StockError
		body := fiber.Map{"error": err.Error()}
		if errors.As(err, &se) {
			body["offerId"] = se.OfferID
			body["available"] = se.Available
		}
		return c.Status(fiber.StatusConflict).JSON(body)
	case errors.Is(err, domain.ErrDuplicateOffer), errors.Is(err, domain.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidSelection):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrPriceUnavailable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		applog.Error(c, action, err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
