package repos

import (
	"context"

	"vendora/internal/domain"

	"github.com/jmoiron/sqlx"
)

type OfferRepo struct{ db *sqlx.DB }

func NewOfferRepo(db *sqlx.DB) *OfferRepo { return &OfferRepo{db: db} }

const offerCols = `id, merchant_id, variant_id, sku, status, countries_json,
	created_at, COALESCE(updated_at,'') AS updated_at`

func (r *OfferRepo) Get(ctx context.Context, id string) (domain.Offer, error) {
	var o domain.Offer
	err := r.db.GetContext(ctx, &o, `SELECT `+offerCols+` FROM offers WHERE id = ?`, id)
	return o, err
}

func (r *OfferRepo) ByMerchantVariant(ctx context.Context, merchantID, variantID string) (domain.Offer, error) {
	var o domain.Offer
	err := r.db.GetContext(ctx, &o, `
	  SELECT `+offerCols+` FROM offers WHERE merchant_id = ? AND variant_id = ?
	`, merchantID, variantID)
	return o, err
}

// ListActiveByVariant returns every active offer on a variant, in a fixed
// order so resolution output stays deterministic.
func (r *OfferRepo) ListActiveByVariant(ctx context.Context, variantID string) ([]domain.Offer, error) {
	var out []domain.Offer
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+offerCols+` FROM offers
	  WHERE variant_id = ? AND status = 'active'
	  ORDER BY id
	`, variantID)
	return out, err
}

func (r *OfferRepo) ListByMerchant(ctx context.Context, merchantID string) ([]domain.Offer, error) {
	var out []domain.Offer
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+offerCols+` FROM offers WHERE merchant_id = ? ORDER BY created_at DESC
	`, merchantID)
	return out, err
}

func (r *OfferRepo) Insert(ctx context.Context, o domain.Offer) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO offers(id, merchant_id, variant_id, sku, status, countries_json, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, o.ID, o.MerchantID, o.VariantID, o.SKU, o.Status, o.CountriesJSON)
	return err
}

func (r *OfferRepo) SetStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE offers SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
