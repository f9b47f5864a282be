package services

import (
	"context"
	"database/sql"
	"sort"

	"vendora/internal/domain"
	"vendora/internal/repos"

	"github.com/google/uuid"
)

// ShippingQuoter supplies the externally-computed shipping amount for an
// order about to be composed. Shipping cost computation itself is out of
// scope here; the engine only folds the quoted amount into the totals.
type ShippingQuoter interface {
	Quote(ctx context.Context, splits []domain.MerchantSplit) (int64, error)
}

// FlatShipping quotes the same amount for every order.
type FlatShipping struct{ Amount int64 }

func (f FlatShipping) Quote(ctx context.Context, _ []domain.MerchantSplit) (int64, error) {
	return f.Amount, nil
}

// ComposerService builds an immutable multi-merchant order out of a cart of
// (offer, quantity) selections: authoritative prices via the resolver,
// all-or-nothing stock reservations via the authority, per-merchant splits
// with a consistent grand total.
type ComposerService struct {
	Resolver  *ResolverService
	Authority *ReservationService
	Orders    *repos.OrderRepo
	Discounts *repos.DiscountRepo
	Shipping  ShippingQuoter
}

func NewComposerService(resolver *ResolverService, authority *ReservationService, orders *repos.OrderRepo, discounts *repos.DiscountRepo, shipping ShippingQuoter) *ComposerService {
	if shipping == nil {
		shipping = FlatShipping{}
	}
	return &ComposerService{Resolver: resolver, Authority: authority, Orders: orders, Discounts: discounts, Shipping: shipping}
}

// Compose creates a pending order for the given selections. Every price is
// re-read at commit time; every selection is reserved atomically; if any
// reservation fails, the ones already taken are released and nothing
// persists, so retrying the same cart is always safe.
func (s *ComposerService) Compose(ctx context.Context, customerID string, selections []domain.Selection, discountCode string) (domain.Order, error) {
	if len(selections) == 0 {
		return domain.Order{}, domain.ErrInvalidSelection
	}
	merged, err := mergeSelections(selections)
	if err != nil {
		return domain.Order{}, err
	}

	// Authoritative price per selection; the client-supplied price never
	// enters this path.
	quotes := make(map[string]domain.Quote, len(merged))
	currency := ""
	for _, sel := range merged {
		q, err := s.Resolver.PriceFor(ctx, sel.OfferID)
		if err != nil {
			return domain.Order{}, err
		}
		if currency == "" {
			currency = q.Currency
		} else if currency != q.Currency {
			// Mixed-currency carts are not composable.
			return domain.Order{}, domain.ErrInvalidSelection
		}
		quotes[sel.OfferID] = q
	}

	// All-or-nothing reservations. Anything taken before a failure, or
	// before the request is cancelled, is released; the release must not be
	// cut short by the same cancellation that triggered it.
	var taken []domain.Reservation
	committed := false
	defer func() {
		if committed {
			return
		}
		cleanup := context.WithoutCancel(ctx)
		for _, r := range taken {
			_ = s.Authority.Release(cleanup, r.OfferID, r.Allocations)
		}
	}()

	for _, sel := range merged {
		if err := ctx.Err(); err != nil {
			return domain.Order{}, err
		}
		res, err := s.Authority.Reserve(ctx, sel.OfferID, sel.Qty)
		if err != nil {
			return domain.Order{}, err
		}
		taken = append(taken, res)
	}

	// Group the committed lines by owning merchant.
	lines := make([]domain.OrderLine, 0, len(merged))
	for _, sel := range merged {
		q := quotes[sel.OfferID]
		lines = append(lines, domain.OrderLine{
			OfferID:         sel.OfferID,
			MerchantID:      q.MerchantID,
			Qty:             sel.Qty,
			PriceAtPurchase: q.UnitPrice,
		})
	}
	splits := splitByMerchant(lines)

	subtotal := int64(0)
	for _, l := range lines {
		subtotal += l.LineTotal()
	}

	discount, err := s.applyDiscount(ctx, splits, subtotal, discountCode)
	if err != nil {
		return domain.Order{}, err
	}

	shipping, err := s.Shipping.Quote(ctx, splits)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Currency:   currency,
		Status:     domain.OrderPending,
		Lines:      lines,
		Splits:     splits,
		Totals: domain.OrderTotals{
			Subtotal: subtotal,
			Discount: discount,
			Shipping: shipping,
			Total:    subtotal - discount + shipping,
		},
	}

	var allocations []repos.OfferAllocation
	for _, r := range taken {
		for _, a := range r.Allocations {
			allocations = append(allocations, repos.OfferAllocation{OfferID: r.OfferID, LocationID: a.LocationID, Qty: a.Qty})
		}
	}
	if err := s.Orders.Create(ctx, order, allocations); err != nil {
		return domain.Order{}, err
	}

	committed = true
	return order, nil
}

// Cancel moves a pending or paid order to cancelled and re-adds the exact
// per-location stock the composition took.
func (s *ComposerService) Cancel(ctx context.Context, orderID string) error {
	status, err := s.Orders.Status(ctx, orderID)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !domain.CanTransition(status, domain.OrderCancelled) {
		return domain.ErrInvalidTransition
	}
	if err := s.Orders.Transition(ctx, orderID, status, domain.OrderCancelled); err != nil {
		return err
	}

	allocations, err := s.Orders.Allocations(ctx, orderID)
	if err != nil {
		return err
	}
	byOffer := make(map[string][]domain.Allocation)
	for _, a := range allocations {
		byOffer[a.OfferID] = append(byOffer[a.OfferID], domain.Allocation{LocationID: a.LocationID, Qty: a.Qty})
	}
	cleanup := context.WithoutCancel(ctx)
	for offerID, allocs := range byOffer {
		if err := s.Authority.Release(cleanup, offerID, allocs); err != nil {
			return err
		}
	}
	return nil
}

// Advance moves an order along pending → paid → shipped → delivered.
func (s *ComposerService) Advance(ctx context.Context, orderID, to string) error {
	if to == domain.OrderCancelled {
		return s.Cancel(ctx, orderID)
	}
	status, err := s.Orders.Status(ctx, orderID)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !domain.CanTransition(status, to) {
		return domain.ErrInvalidTransition
	}
	return s.Orders.Transition(ctx, orderID, status, to)
}

// ListForCustomer returns the customer's orders, newest first.
func (s *ComposerService) ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.Orders.ListByCustomer(ctx, customerID)
}

func (s *ComposerService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err == sql.ErrNoRows {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, err
}

// applyDiscount mutates the splits' Discount fields and returns the order
// discount total. A global code is spread pro-rata by subtotal with
// largest-remainder rounding so the split sum always equals the order
// discount to the cent; a merchant code reduces only that merchant's split.
func (s *ComposerService) applyDiscount(ctx context.Context, splits []domain.MerchantSplit, subtotal int64, code string) (int64, error) {
	if code == "" {
		return 0, nil
	}
	d, err := s.Discounts.Get(ctx, code)
	if err == sql.ErrNoRows {
		return 0, domain.ErrInvalidSelection
	}
	if err != nil {
		return 0, err
	}

	if d.MerchantID != "" {
		for i := range splits {
			if splits[i].MerchantID == d.MerchantID {
				splits[i].Discount = splits[i].Subtotal * d.PercentBps / 10000
				return splits[i].Discount, nil
			}
		}
		// Code's merchant has no lines in this cart; nothing to reduce.
		return 0, nil
	}

	total := subtotal * d.PercentBps / 10000
	if total == 0 || subtotal == 0 {
		return 0, nil
	}

	// Largest-remainder distribution keeps sum(split discounts) == total.
	type share struct {
		idx int
		rem int64
	}
	assigned := int64(0)
	shares := make([]share, len(splits))
	for i := range splits {
		raw := total * splits[i].Subtotal
		splits[i].Discount = raw / subtotal
		assigned += splits[i].Discount
		shares[i] = share{idx: i, rem: raw % subtotal}
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].rem != shares[j].rem {
			return shares[i].rem > shares[j].rem
		}
		return splits[shares[i].idx].MerchantID < splits[shares[j].idx].MerchantID
	})
	for i := 0; assigned < total; i++ {
		splits[shares[i%len(shares)].idx].Discount++
		assigned++
	}
	return total, nil
}

// mergeSelections folds duplicate offer ids together and validates quantities.
// Order of first appearance is preserved.
func mergeSelections(in []domain.Selection) ([]domain.Selection, error) {
	index := make(map[string]int, len(in))
	out := make([]domain.Selection, 0, len(in))
	for _, sel := range in {
		if sel.OfferID == "" || sel.Qty < 1 {
			return nil, domain.ErrInvalidSelection
		}
		if i, ok := index[sel.OfferID]; ok {
			out[i].Qty += sel.Qty
			continue
		}
		index[sel.OfferID] = len(out)
		out = append(out, sel)
	}
	return out, nil
}

// splitByMerchant partitions lines per owning merchant, merchants ordered by
// id for deterministic output.
func splitByMerchant(lines []domain.OrderLine) []domain.MerchantSplit {
	byMerchant := make(map[string]*domain.MerchantSplit)
	for _, l := range lines {
		split, ok := byMerchant[l.MerchantID]
		if !ok {
			split = &domain.MerchantSplit{MerchantID: l.MerchantID}
			byMerchant[l.MerchantID] = split
		}
		split.Lines = append(split.Lines, l)
		split.Subtotal += l.LineTotal()
	}
	out := make([]domain.MerchantSplit, 0, len(byMerchant))
	for _, s := range byMerchant {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MerchantID < out[j].MerchantID })
	return out
}
