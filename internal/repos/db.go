package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (catalog/merchants/offers/prices/stock)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Catalog master data (read-only to this engine)
CREATE TABLE IF NOT EXISTS variants(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  title TEXT NOT NULL,
  attrs_json TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_variants_product ON variants(product_id);

CREATE TABLE IF NOT EXISTS merchants(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS locations(
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL REFERENCES merchants(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  kind TEXT NOT NULL CHECK (kind IN ('store','warehouse','3pl')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_locations_merchant ON locations(merchant_id);

-- Offer registry: one offer per (merchant, variant)
CREATE TABLE IF NOT EXISTS offers(
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL REFERENCES merchants(id) ON DELETE RESTRICT,
  variant_id TEXT NOT NULL REFERENCES variants(id) ON DELETE RESTRICT,
  sku TEXT NOT NULL,
  status TEXT NOT NULL CHECK (status IN ('active','paused')) DEFAULT 'active',
  countries_json TEXT NOT NULL DEFAULT '[]',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_offers_merchant_variant ON offers(merchant_id, variant_id);
CREATE INDEX IF NOT EXISTS idx_offers_variant ON offers(variant_id);

-- Price ledger: append-only; seq is the last-writer-wins tie-break.
-- offer_id is nullified, never cascaded, if the offer goes away.
CREATE TABLE IF NOT EXISTS price_records(
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  offer_id TEXT REFERENCES offers(id) ON DELETE SET NULL,
  currency TEXT NOT NULL,
  base_price INTEGER NOT NULL CHECK (base_price >= 0),
  sale_price INTEGER CHECK (sale_price IS NULL OR sale_price >= 0),
  valid_from TEXT NOT NULL,
  valid_to TEXT,
  source TEXT NOT NULL CHECK (source IN ('merchant','platform','campaign')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_price_records_offer ON price_records(offer_id, valid_from);

-- Stock ledger: per-offer, per-location quantities with derived status.
CREATE TABLE IF NOT EXISTS stock_records(
  id TEXT PRIMARY KEY,
  offer_id TEXT REFERENCES offers(id) ON DELETE SET NULL,
  location_id TEXT NOT NULL REFERENCES locations(id) ON DELETE RESTRICT,
  available_qty INTEGER NOT NULL DEFAULT 0 CHECK (available_qty >= 0),
  incoming_qty INTEGER NOT NULL DEFAULT 0 CHECK (incoming_qty >= 0),
  reserved_qty INTEGER NOT NULL DEFAULT 0 CHECK (reserved_qty >= 0),
  status TEXT NOT NULL CHECK (status IN ('in_stock','backorder','out_of_stock')),
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_stock_offer_location ON stock_records(offer_id, location_id);
CREATE INDEX IF NOT EXISTS idx_stock_offer ON stock_records(offer_id);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  currency TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending','paid','shipped','delivered','cancelled')),
  subtotal INTEGER NOT NULL,
  discount INTEGER NOT NULL DEFAULT 0,
  shipping INTEGER NOT NULL DEFAULT 0,
  total INTEGER NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_lines(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  offer_id TEXT NOT NULL,
  merchant_id TEXT NOT NULL,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  price_at_purchase INTEGER NOT NULL,
  PRIMARY KEY (order_id, offer_id)
);

CREATE TABLE IF NOT EXISTS order_splits(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  merchant_id TEXT NOT NULL,
  subtotal INTEGER NOT NULL,
  discount INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (order_id, merchant_id)
);

-- Exact per-location reservation taken at commit time, kept so a
-- cancellation releases precisely what was decremented.
CREATE TABLE IF NOT EXISTS order_allocations(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  offer_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  PRIMARY KEY (order_id, offer_id, location_id)
);

CREATE TABLE IF NOT EXISTS discounts(
  code TEXT PRIMARY KEY,
  merchant_id TEXT REFERENCES merchants(id) ON DELETE CASCADE,
  percent_bps INTEGER NOT NULL CHECK (percent_bps BETWEEN 0 AND 10000),
  active INTEGER NOT NULL DEFAULT 1
);

-- Users & Sessions (auth collaborator)
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('MERCHANT','ADMIN')),
  merchant_id TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM merchants`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo catalog/merchants/offers/prices/stock")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO variants(id,product_id,title,attrs_json) VALUES
	  ('var-tee-red-m','prod-tee','Classic Tee / Red / M','{"color":"red","size":"M"}'),
	  ('var-tee-red-l','prod-tee','Classic Tee / Red / L','{"color":"red","size":"L"}'),
	  ('var-mug-330','prod-mug','Stoneware Mug / 330ml','{"volume":"330ml"}')`)

	tx.MustExec(`INSERT INTO merchants(id,name) VALUES
	  ('m-northside','Northside Goods'),
	  ('m-harbor','Harbor Trading Co')`)

	tx.MustExec(`INSERT INTO locations(id,merchant_id,name,kind) VALUES
	  ('loc-north-wh','m-northside','Northside Warehouse','warehouse'),
	  ('loc-north-store','m-northside','Northside Downtown','store'),
	  ('loc-harbor-3pl','m-harbor','Harbor 3PL Hub','3pl')`)

	tx.MustExec(`INSERT INTO offers(id,merchant_id,variant_id,sku,status,countries_json) VALUES
	  ('off-north-tee-m','m-northside','var-tee-red-m','NS-TEE-R-M','active','["US","DE"]'),
	  ('off-harbor-tee-m','m-harbor','var-tee-red-m','HB-001','active','["US"]'),
	  ('off-north-mug','m-northside','var-mug-330','NS-MUG-330','active','["US"]')`)

	tx.MustExec(`INSERT INTO price_records(id,offer_id,currency,base_price,sale_price,valid_from,source) VALUES
	  ('pr-seed-1','off-north-tee-m','USD',1999,NULL,'2026-01-01T00:00:00Z','merchant'),
	  ('pr-seed-2','off-harbor-tee-m','USD',1899,1699,'2026-01-01T00:00:00Z','merchant'),
	  ('pr-seed-3','off-north-mug','USD',1250,NULL,'2026-01-01T00:00:00Z','merchant')`)

	tx.MustExec(`INSERT INTO stock_records(id,offer_id,location_id,available_qty,incoming_qty,reserved_qty,status) VALUES
	  ('st-seed-1','off-north-tee-m','loc-north-wh',12,0,0,'in_stock'),
	  ('st-seed-2','off-north-tee-m','loc-north-store',3,0,0,'in_stock'),
	  ('st-seed-3','off-harbor-tee-m','loc-harbor-3pl',5,10,0,'in_stock'),
	  ('st-seed-4','off-north-mug','loc-north-wh',0,6,0,'backorder')`)

	tx.MustExec(`INSERT INTO discounts(code,merchant_id,percent_bps,active) VALUES
	  ('WELCOME10',NULL,1000,1),
	  ('NORTH5','m-northside',500,1)`)

	return tx.Commit()
}

// seedUsers ensures one user per demo merchant and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, MerchantID, Hash string
	}
	mk := func(id, email, name, role, merchantID, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, MerchantID: merchantID, Hash: string(h)}
	}

	users := []u{
		mk("u-north", "ops@northside.test", "Northside Ops", "MERCHANT", "m-northside", "Passw0rd!"),
		mk("u-harbor", "ops@harbor.test", "Harbor Ops", "MERCHANT", "m-harbor", "Passw0rd!"),
		mk("u-admin", "admin@vendora.test", "Admin", "ADMIN", "", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role,merchant_id)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role, x.MerchantID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
