package services

import (
	"context"
	"database/sql"
	"time"

	"vendora/internal/cache"
	"vendora/internal/domain"
	"vendora/internal/repos"
)

// CatalogService is the Catalog Store collaborator: variant master data and
// the merchant location directory. Variants sit behind an explicit per-id
// TTL cache that catalog writes invalidate.
type CatalogService struct {
	Variants  *repos.VariantRepo
	Locations *repos.LocationRepo
	variants  *cache.Cache[domain.Variant]
}

func NewCatalogService(variants *repos.VariantRepo, locations *repos.LocationRepo, ttl time.Duration) *CatalogService {
	return &CatalogService{
		Variants:  variants,
		Locations: locations,
		variants:  cache.New[domain.Variant](ttl),
	}
}

func (s *CatalogService) GetVariant(ctx context.Context, id string) (domain.Variant, error) {
	if v, ok := s.variants.Get(id); ok {
		return v, nil
	}
	v, err := s.Variants.Get(ctx, id)
	if err == sql.ErrNoRows {
		return domain.Variant{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Variant{}, err
	}
	s.variants.Set(id, v)
	return v, nil
}

// ListVariants returns the active variants of a product, for catalog browse.
func (s *CatalogService) ListVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	return s.Variants.ListByProduct(ctx, productID)
}

func (s *CatalogService) GetLocation(ctx context.Context, id string) (domain.Location, error) {
	l, err := s.Locations.Get(ctx, id)
	if err == sql.ErrNoRows {
		return domain.Location{}, domain.ErrNotFound
	}
	return l, err
}

func (s *CatalogService) ListLocations(ctx context.Context, merchantID string) ([]domain.Location, error) {
	return s.Locations.ListByMerchant(ctx, merchantID)
}

func (s *CatalogService) AddLocation(ctx context.Context, l domain.Location) error {
	return s.Locations.Insert(ctx, l)
}

// PublishVariant adds master data and invalidates the cached entry.
func (s *CatalogService) PublishVariant(ctx context.Context, v domain.Variant) error {
	if err := s.Variants.Insert(ctx, v); err != nil {
		return err
	}
	s.variants.Delete(v.ID)
	return nil
}
