package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"vendora/internal/domain"
	"vendora/internal/repos"

	"github.com/google/uuid"
)

// MerchantService is the merchant-facing write path feeding the registries
// and ledgers: listing a variant, pausing/resuming, appending price records
// and adjusting per-location stock.
type MerchantService struct {
	Offers  *repos.OfferRepo
	Prices  *repos.PriceRepo
	Stock   *repos.StockRepo
	Catalog *CatalogService

	Now func() time.Time
}

func NewMerchantService(offers *repos.OfferRepo, prices *repos.PriceRepo, stock *repos.StockRepo, catalog *CatalogService) *MerchantService {
	return &MerchantService{Offers: offers, Prices: prices, Stock: stock, Catalog: catalog, Now: time.Now}
}

// CreateOffer lists a variant for a merchant. At most one offer may exist
// per (merchant, variant).
func (s *MerchantService) CreateOffer(ctx context.Context, merchantID, variantID, sku string, countries []string) (domain.Offer, error) {
	if _, err := s.Catalog.GetVariant(ctx, variantID); err != nil {
		return domain.Offer{}, err
	}
	if _, err := s.Offers.ByMerchantVariant(ctx, merchantID, variantID); err == nil {
		return domain.Offer{}, domain.ErrDuplicateOffer
	} else if err != sql.ErrNoRows {
		return domain.Offer{}, err
	}

	cj, _ := json.Marshal(countries)
	o := domain.Offer{
		ID:            uuid.NewString(),
		MerchantID:    merchantID,
		VariantID:     variantID,
		SKU:           sku,
		Status:        domain.OfferActive,
		CountriesJSON: string(cj),
	}
	if err := s.Offers.Insert(ctx, o); err != nil {
		return domain.Offer{}, err
	}
	return o, nil
}

func (s *MerchantService) PauseOffer(ctx context.Context, merchantID, offerID string) error {
	return s.setOfferStatus(ctx, merchantID, offerID, domain.OfferPaused)
}

func (s *MerchantService) ResumeOffer(ctx context.Context, merchantID, offerID string) error {
	return s.setOfferStatus(ctx, merchantID, offerID, domain.OfferActive)
}

func (s *MerchantService) setOfferStatus(ctx context.Context, merchantID, offerID, status string) error {
	o, err := s.ownedOffer(ctx, merchantID, offerID)
	if err != nil {
		return err
	}
	return s.Offers.SetStatus(ctx, o.ID, status)
}

// PriceInput is a merchant- or platform-initiated price change. Amounts are
// minor units; a zero ValidFrom means "effective now".
type PriceInput struct {
	Currency  string
	BasePrice int64
	SalePrice *int64
	ValidFrom time.Time
	Source    string
}

// SetPrice appends a price record and closes the previous open record at the
// new validity start. The superseded record itself is never rewritten.
func (s *MerchantService) SetPrice(ctx context.Context, merchantID, offerID string, in PriceInput) (domain.PriceRecord, error) {
	o, err := s.ownedOffer(ctx, merchantID, offerID)
	if err != nil {
		return domain.PriceRecord{}, err
	}

	from := in.ValidFrom
	if from.IsZero() {
		from = s.Now()
	}
	source := in.Source
	if source == "" {
		source = domain.PriceSourceMerchant
	}

	rec := domain.PriceRecord{
		ID:        uuid.NewString(),
		OfferID:   o.ID,
		Currency:  in.Currency,
		BasePrice: in.BasePrice,
		ValidFrom: from.UTC().Format(time.RFC3339),
		Source:    source,
	}
	if in.SalePrice != nil {
		rec.SalePrice = sql.NullInt64{Int64: *in.SalePrice, Valid: true}
	}

	if err := s.Prices.CloseOpen(ctx, o.ID, rec.ValidFrom); err != nil {
		return domain.PriceRecord{}, err
	}
	if err := s.Prices.Insert(ctx, rec); err != nil {
		return domain.PriceRecord{}, err
	}
	return rec, nil
}

// UpsertStock sets the available/incoming quantities for one of the
// merchant's locations; the record's status is recomputed, never supplied.
func (s *MerchantService) UpsertStock(ctx context.Context, merchantID, offerID, locationID string, available, incoming int) error {
	o, err := s.ownedOffer(ctx, merchantID, offerID)
	if err != nil {
		return err
	}
	if available < 0 || incoming < 0 {
		return domain.ErrInvalidSelection
	}
	loc, err := s.Catalog.GetLocation(ctx, locationID)
	if err != nil {
		return err
	}
	if loc.MerchantID != merchantID {
		return domain.ErrNotFound
	}
	return s.Stock.Upsert(ctx, o.ID, locationID, available, incoming)
}

// AddLocation registers a fulfillment location for the merchant.
func (s *MerchantService) AddLocation(ctx context.Context, merchantID, name, kind string) (domain.Location, error) {
	switch kind {
	case domain.LocationStore, domain.LocationWarehouse, domain.Location3PL:
	default:
		return domain.Location{}, domain.ErrInvalidSelection
	}
	if name == "" {
		return domain.Location{}, domain.ErrInvalidSelection
	}
	l := domain.Location{ID: uuid.NewString(), MerchantID: merchantID, Name: name, Kind: kind}
	if err := s.Catalog.AddLocation(ctx, l); err != nil {
		return domain.Location{}, err
	}
	return l, nil
}

func (s *MerchantService) ListLocations(ctx context.Context, merchantID string) ([]domain.Location, error) {
	return s.Catalog.ListLocations(ctx, merchantID)
}

func (s *MerchantService) ListOffers(ctx context.Context, merchantID string) ([]domain.Offer, error) {
	return s.Offers.ListByMerchant(ctx, merchantID)
}

func (s *MerchantService) ownedOffer(ctx context.Context, merchantID, offerID string) (domain.Offer, error) {
	o, err := s.Offers.Get(ctx, offerID)
	if err == sql.ErrNoRows {
		return domain.Offer{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Offer{}, err
	}
	if o.MerchantID != merchantID {
		// Foreign offers read as absent.
		return domain.Offer{}, domain.ErrNotFound
	}
	return o, nil
}
