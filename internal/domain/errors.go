package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers absent offers, variants, locations and orders.
	ErrNotFound = errors.New("not found")
	// ErrUnknownOffer marks a selection referencing a missing or paused offer.
	ErrUnknownOffer = errors.New("unknown or inactive offer")
	// ErrPriceUnavailable marks an active offer with no current price record.
	ErrPriceUnavailable = errors.New("no current price record")
	// ErrInvalidSelection marks malformed or empty checkout input.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrInsufficientStock is recoverable: retry with a smaller quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrDuplicateOffer marks a second listing for the same (merchant, variant).
	ErrDuplicateOffer = errors.New("offer already exists for merchant and variant")
	// ErrInvalidTransition marks a disallowed order status change.
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// StockError carries the offending offer alongside ErrInsufficientStock so a
// multi-offer checkout can name which selection failed.
type StockError struct {
	OfferID   string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for offer %s (need %d, have %d)", e.OfferID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
