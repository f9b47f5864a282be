package domain

import (
	"database/sql"
	"encoding/json"
	"strings"
)

// Offer lifecycle states.
const (
	OfferActive = "active"
	OfferPaused = "paused"
)

// Stock statuses, derived from (available, incoming), never stored independently.
const (
	StockInStock    = "in_stock"
	StockBackorder  = "backorder"
	StockOutOfStock = "out_of_stock"
)

// Price record provenance.
const (
	PriceSourceMerchant = "merchant"
	PriceSourcePlatform = "platform"
	PriceSourceCampaign = "campaign"
)

// Fulfillment location kinds.
const (
	LocationStore     = "store"
	LocationWarehouse = "warehouse"
	Location3PL       = "3pl"
)

// Variant is catalog master data: one sellable size/color/material combination.
// Immutable once published; the engine only ever reads it.
type Variant struct {
	ID        string `db:"id"`
	ProductID string `db:"product_id"`
	Title     string `db:"title"`
	AttrsJSON string `db:"attrs_json"`
	Active    bool   `db:"active"`
	CreatedAt string `db:"created_at"`
}

// Location is a merchant-owned store/warehouse/3PL node. Descriptive only.
type Location struct {
	ID         string `db:"id"`
	MerchantID string `db:"merchant_id"`
	Name       string `db:"name"`
	Kind       string `db:"kind"` // store | warehouse | 3pl
	CreatedAt  string `db:"created_at"`
}

// Offer binds a merchant to a variant. At most one per (merchant, variant).
type Offer struct {
	ID            string `db:"id"`
	MerchantID    string `db:"merchant_id"`
	VariantID     string `db:"variant_id"`
	SKU           string `db:"sku"`
	Status        string `db:"status"` // active | paused
	CountriesJSON string `db:"countries_json"`
	CreatedAt     string `db:"created_at"`
	UpdatedAt     string `db:"updated_at"`
}

// Countries decodes the listing-country set. A malformed value reads as empty.
func (o Offer) Countries() []string {
	var out []string
	_ = json.Unmarshal([]byte(o.CountriesJSON), &out)
	return out
}

// ListedIn reports whether the offer is listed in the given 2-letter country.
func (o Offer) ListedIn(country string) bool {
	country = strings.ToUpper(country)
	for _, c := range o.Countries() {
		if strings.ToUpper(c) == country {
			return true
		}
	}
	return false
}

// PriceRecord is one append-only entry in an offer's price history.
// Validity is the half-open interval [ValidFrom, ValidTo); a NULL ValidTo
// means still valid. Seq is the insertion order and breaks ValidFrom ties
// (last writer wins). Amounts are integer minor units (cents).
type PriceRecord struct {
	Seq       int64          `db:"seq"`
	ID        string         `db:"id"`
	OfferID   string         `db:"offer_id"`
	Currency  string         `db:"currency"`
	BasePrice int64          `db:"base_price"`
	SalePrice sql.NullInt64  `db:"sale_price"`
	ValidFrom string         `db:"valid_from"`
	ValidTo   sql.NullString `db:"valid_to"`
	Source    string         `db:"source"` // merchant | platform | campaign
	CreatedAt string         `db:"created_at"`
}

// EffectivePrice is the sale price when present and positive, else the base price.
func (p PriceRecord) EffectivePrice() int64 {
	if p.SalePrice.Valid && p.SalePrice.Int64 > 0 {
		return p.SalePrice.Int64
	}
	return p.BasePrice
}

// StockRecord holds per-offer, per-location quantities. Status is always a
// pure function of (AvailableQty, IncomingQty); see StockStatusFor.
type StockRecord struct {
	ID           string `db:"id"`
	OfferID      string `db:"offer_id"`
	LocationID   string `db:"location_id"`
	AvailableQty int    `db:"available_qty"`
	IncomingQty  int    `db:"incoming_qty"`
	ReservedQty  int    `db:"reserved_qty"`
	Status       string `db:"status"`
	UpdatedAt    string `db:"updated_at"`
}

// StockStatusFor derives the status from quantities.
func StockStatusFor(available, incoming int) string {
	switch {
	case available > 0:
		return StockInStock
	case incoming > 0:
		return StockBackorder
	default:
		return StockOutOfStock
	}
}

// ResolvedOffer is the read-path join of offer + current price + stock.
// Computed fresh per request, never persisted or cached.
type ResolvedOffer struct {
	OfferID           string `json:"offerId"`
	MerchantID        string `json:"merchantId"`
	VariantID         string `json:"variantId"`
	EffectivePrice    int64  `json:"effectivePrice"`
	Currency          string `json:"currency"`
	TotalAvailableQty int    `json:"totalAvailableQty"`
}

func (r ResolvedOffer) HasStock(qty int) bool { return r.TotalAvailableQty >= qty }

// Quote is the narrow single-offer price lookup the composer relies on.
type Quote struct {
	OfferID    string
	MerchantID string
	VariantID  string
	Currency   string
	UnitPrice  int64
}

// Selection is one (offer, quantity) entry of a checkout cart.
type Selection struct {
	OfferID string `json:"offerId"`
	Qty     int    `json:"quantity"`
}

// Allocation records how much of a reservation a single location supplied.
type Allocation struct {
	LocationID string `db:"location_id" json:"locationId"`
	Qty        int    `db:"qty" json:"qty"`
}

// Reservation is the durable result of an atomic stock decrement.
type Reservation struct {
	OfferID     string
	Allocations []Allocation
	Remaining   int
}

// Order statuses.
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

var orderTransitions = map[string][]string{
	OrderPending: {OrderPaid, OrderCancelled},
	OrderPaid:    {OrderShipped, OrderCancelled},
	OrderShipped: {OrderDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderLine snapshots price at purchase time; it is never recomputed.
type OrderLine struct {
	OfferID         string `db:"offer_id" json:"offerId"`
	MerchantID      string `db:"merchant_id" json:"merchantId"`
	Qty             int    `db:"qty" json:"quantity"`
	PriceAtPurchase int64  `db:"price_at_purchase" json:"priceAtPurchase"`
}

func (l OrderLine) LineTotal() int64 { return l.PriceAtPurchase * int64(l.Qty) }

// MerchantSplit is the per-merchant partition of an order, used for settlement.
type MerchantSplit struct {
	MerchantID string      `json:"merchantId"`
	Lines      []OrderLine `json:"lines"`
	Subtotal   int64       `json:"subtotal"`
	Discount   int64       `json:"discount"`
}

type OrderTotals struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// Order is immutable once created, except for its status.
type Order struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customerId"`
	Currency   string          `json:"currency"`
	Status     string          `json:"status"`
	Lines      []OrderLine     `json:"lines"`
	Splits     []MerchantSplit `json:"merchantSplit"`
	Totals     OrderTotals     `json:"totals"`
	CreatedAt  string          `json:"createdAt"`
}

// Discount is a checkout code. An empty MerchantID means a global discount
// applied pro-rata across merchant splits; otherwise it reduces only the
// named merchant's split.
type Discount struct {
	Code       string
	MerchantID string
	PercentBps int64 // basis points, 10000 = 100%
	Active     bool
}
