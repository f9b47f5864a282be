package repos

import (
	"context"

	"vendora/internal/domain"

	"github.com/jmoiron/sqlx"
)

type PriceRepo struct{ db *sqlx.DB }

func NewPriceRepo(db *sqlx.DB) *PriceRepo { return &PriceRepo{db: db} }

const priceCols = `seq, id, offer_id, currency, base_price, sale_price,
	valid_from, valid_to, source, created_at`

// Insert appends a price record. Records are never mutated once superseded;
// a price change always appends.
func (r *PriceRepo) Insert(ctx context.Context, p domain.PriceRecord) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO price_records(id, offer_id, currency, base_price, sale_price, valid_from, valid_to, source, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, p.ID, p.OfferID, p.Currency, p.BasePrice, p.SalePrice, p.ValidFrom, p.ValidTo, p.Source)
	return err
}

// CurrentAt picks the record governing instant t: the latest valid_from <= t
// among records whose [valid_from, valid_to) interval still covers t, ties on
// valid_from broken by insertion order (highest seq wins). Timestamps are
// RFC3339 UTC, so string comparison orders correctly.
// Returns sql.ErrNoRows when the offer has no current price.
func (r *PriceRepo) CurrentAt(ctx context.Context, offerID, t string) (domain.PriceRecord, error) {
	var p domain.PriceRecord
	err := r.db.GetContext(ctx, &p, `
	  SELECT `+priceCols+` FROM price_records
	  WHERE offer_id = ?
	    AND valid_from <= ?
	    AND (valid_to IS NULL OR valid_to > ?)
	  ORDER BY valid_from DESC, seq DESC
	  LIMIT 1
	`, offerID, t, t)
	return p, err
}

// CloseOpen sets valid_to on any still-open records older than the new
// record's valid_from. Recommended hygiene when appending; the CurrentAt
// rule stays correct either way.
func (r *PriceRepo) CloseOpen(ctx context.Context, offerID, newFrom string) error {
	_, err := r.db.ExecContext(ctx, `
	  UPDATE price_records SET valid_to = ?
	  WHERE offer_id = ? AND valid_to IS NULL AND valid_from < ?
	`, newFrom, offerID, newFrom)
	return err
}

func (r *PriceRepo) History(ctx context.Context, offerID string) ([]domain.PriceRecord, error) {
	var out []domain.PriceRecord
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+priceCols+` FROM price_records
	  WHERE offer_id = ?
	  ORDER BY seq DESC
	`, offerID)
	return out, err
}
