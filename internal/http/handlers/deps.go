package handlers

import (
	"time"

	"vendora/internal/config"
	"vendora/internal/repos"
	"vendora/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	OffersHandler   *OffersHandler
	CheckoutHandler *CheckoutHandler
	MerchantHandler *MerchantHandler
	CatalogHandler  *CatalogHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	variantRepo := repos.NewVariantRepo(db)
	locationRepo := repos.NewLocationRepo(db)
	offerRepo := repos.NewOfferRepo(db)
	priceRepo := repos.NewPriceRepo(db)
	stockRepo := repos.NewStockRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	discountRepo := repos.NewDiscountRepo(db)

	catalogSvc := services.NewCatalogService(variantRepo, locationRepo, time.Duration(cfg.VariantCacheMS)*time.Millisecond)
	resolverSvc := services.NewResolverService(offerRepo, priceRepo, stockRepo)
	authoritySvc := services.NewReservationService(stockRepo)
	composerSvc := services.NewComposerService(resolverSvc, authoritySvc, orderRepo, discountRepo, services.FlatShipping{})
	merchantSvc := services.NewMerchantService(offerRepo, priceRepo, stockRepo, catalogSvc)

	return &Deps{
		OffersHandler:   &OffersHandler{Resolver: resolverSvc},
		CheckoutHandler: &CheckoutHandler{Composer: composerSvc, Auth: auth},
		MerchantHandler: &MerchantHandler{Merchant: merchantSvc},
		CatalogHandler:  &CatalogHandler{Catalog: catalogSvc},
	}
}
