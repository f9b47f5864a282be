package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"vendora/internal/domain"
	"vendora/internal/repos"
)

// ResolverService is the pure read path: it joins the offer registry, price
// ledger and stock ledger into the set of purchasable offers for a variant.
// It never mutates anything and never raises for business-level absence.
type ResolverService struct {
	Offers *repos.OfferRepo
	Prices *repos.PriceRepo
	Stock  *repos.StockRepo

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewResolverService(offers *repos.OfferRepo, prices *repos.PriceRepo, stock *repos.StockRepo) *ResolverService {
	return &ResolverService{Offers: offers, Prices: prices, Stock: stock, Now: time.Now}
}

func (s *ResolverService) nowUTC() string {
	return s.Now().UTC().Format(time.RFC3339)
}

// Resolve returns the active, priced, in-stock offers for a variant in a
// country, cheapest first. Each offer is read at its own instant; the scan
// is not a snapshot across offers. An empty result means "unavailable", not
// an error.
func (s *ResolverService) Resolve(ctx context.Context, variantID, country string, qty int) ([]domain.ResolvedOffer, error) {
	if qty < 1 {
		return nil, domain.ErrInvalidSelection
	}

	offers, err := s.Offers.ListActiveByVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	out := []domain.ResolvedOffer{}
	for _, o := range offers {
		if !o.ListedIn(country) {
			continue
		}
		pr, err := s.Prices.CurrentAt(ctx, o.ID, s.nowUTC())
		if err == sql.ErrNoRows {
			// Active but not yet priced: excluded, not an error.
			continue
		}
		if err != nil {
			return nil, err
		}
		total, err := s.Stock.TotalAvailable(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		if total < qty {
			continue
		}
		out = append(out, domain.ResolvedOffer{
			OfferID:           o.ID,
			MerchantID:        o.MerchantID,
			VariantID:         o.VariantID,
			EffectivePrice:    pr.EffectivePrice(),
			Currency:          pr.Currency,
			TotalAvailableQty: total,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EffectivePrice != out[j].EffectivePrice {
			return out[i].EffectivePrice < out[j].EffectivePrice
		}
		return out[i].OfferID < out[j].OfferID
	})
	return out, nil
}

// PriceFor is the narrow single-offer lookup the composer uses: it never
// trusts a client-supplied price and re-reads the ledger at call time.
func (s *ResolverService) PriceFor(ctx context.Context, offerID string) (domain.Quote, error) {
	o, err := s.Offers.Get(ctx, offerID)
	if err == sql.ErrNoRows {
		return domain.Quote{}, domain.ErrUnknownOffer
	}
	if err != nil {
		return domain.Quote{}, err
	}
	if o.Status != domain.OfferActive {
		return domain.Quote{}, domain.ErrUnknownOffer
	}
	pr, err := s.Prices.CurrentAt(ctx, o.ID, s.nowUTC())
	if err == sql.ErrNoRows {
		return domain.Quote{}, domain.ErrPriceUnavailable
	}
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.Quote{
		OfferID:    o.ID,
		MerchantID: o.MerchantID,
		VariantID:  o.VariantID,
		Currency:   pr.Currency,
		UnitPrice:  pr.EffectivePrice(),
	}, nil
}
