package services_test

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"vendora/internal/repos"
	"vendora/internal/services"
)

// testNow is the fixed resolution instant every fixture uses.
var testNow = time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db        *sqlx.DB
	offers    *repos.OfferRepo
	prices    *repos.PriceRepo
	stock     *repos.StockRepo
	orders    *repos.OrderRepo
	catalog   *services.CatalogService
	resolver  *services.ResolverService
	authority *services.ReservationService
	composer  *services.ComposerService
	merchant  *services.MerchantService
}

// newFixture opens an in-memory market with one variant sold by two
// merchants:
//
//	o-one (m-one): 1000 minor units, stock loc-a=3 loc-b=2
//	o-two (m-two): 2500 minor units, stock loc-c=4
//
// plus a well-stocked o-bulk (m-two) for concurrency tests.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// One connection so the in-memory database is shared by every statement.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	seed := `
	INSERT INTO variants(id,product_id,title) VALUES
	  ('v-lamp','p-lamp','Arc Lamp'),
	  ('v-desk','p-desk','Oak Desk');
	INSERT INTO merchants(id,name) VALUES ('m-one','Merchant One'),('m-two','Merchant Two');
	INSERT INTO locations(id,merchant_id,name,kind) VALUES
	  ('loc-a','m-one','Warehouse A','warehouse'),
	  ('loc-b','m-one','Store B','store'),
	  ('loc-c','m-two','Hub C','3pl');
	INSERT INTO offers(id,merchant_id,variant_id,sku,status,countries_json) VALUES
	  ('o-one','m-one','v-lamp','M1-LAMP','active','["US","DE"]'),
	  ('o-two','m-two','v-lamp','M2-LAMP','active','["US"]'),
	  ('o-bulk','m-two','v-desk','M2-DESK','active','["US"]');
	INSERT INTO price_records(id,offer_id,currency,base_price,sale_price,valid_from,source) VALUES
	  ('pr-one','o-one','USD',1000,NULL,'2026-01-01T00:00:00Z','merchant'),
	  ('pr-two','o-two','USD',2500,NULL,'2026-01-01T00:00:00Z','merchant'),
	  ('pr-bulk','o-bulk','USD',500,NULL,'2026-01-01T00:00:00Z','merchant');
	INSERT INTO stock_records(id,offer_id,location_id,available_qty,incoming_qty,reserved_qty,status) VALUES
	  ('st-a','o-one','loc-a',3,0,0,'in_stock'),
	  ('st-b','o-one','loc-b',2,0,0,'in_stock'),
	  ('st-c','o-two','loc-c',4,0,0,'in_stock'),
	  ('st-bulk','o-bulk','loc-c',10,0,0,'in_stock');
	INSERT INTO discounts(code,merchant_id,percent_bps,active) VALUES
	  ('TEN',NULL,1000,1),
	  ('ONE5','m-one',500,1),
	  ('DEAD',NULL,1000,0);
	`
	if _, err := db.Exec(seed); err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		db:     db,
		offers: repos.NewOfferRepo(db),
		prices: repos.NewPriceRepo(db),
		stock:  repos.NewStockRepo(db),
		orders: repos.NewOrderRepo(db),
	}
	f.catalog = services.NewCatalogService(repos.NewVariantRepo(db), repos.NewLocationRepo(db), time.Minute)
	f.resolver = services.NewResolverService(f.offers, f.prices, f.stock)
	f.resolver.Now = func() time.Time { return testNow }
	f.authority = services.NewReservationService(f.stock)
	f.composer = services.NewComposerService(f.resolver, f.authority, f.orders, repos.NewDiscountRepo(db), services.FlatShipping{})
	f.merchant = services.NewMerchantService(f.offers, f.prices, f.stock, f.catalog)
	f.merchant.Now = func() time.Time { return testNow }
	return f
}

// availableAt reads one stock row back for assertions.
func (f *fixture) stockRow(t *testing.T, offerID, locationID string) (qty int, status string) {
	t.Helper()
	var row struct {
		Qty    int    `db:"available_qty"`
		Status string `db:"status"`
	}
	if err := f.db.Get(&row, `SELECT available_qty, status FROM stock_records WHERE offer_id=? AND location_id=?`, offerID, locationID); err != nil {
		t.Fatal(err)
	}
	return row.Qty, row.Status
}

func (f *fixture) orderCount(t *testing.T) int {
	t.Helper()
	var n int
	if err := f.db.Get(&n, `SELECT COUNT(*) FROM orders`); err != nil {
		t.Fatal(err)
	}
	return n
}
