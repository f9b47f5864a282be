package repos

import (
	"context"

	"vendora/internal/domain"

	"github.com/jmoiron/sqlx"
)

type VariantRepo struct{ db *sqlx.DB }

func NewVariantRepo(db *sqlx.DB) *VariantRepo { return &VariantRepo{db: db} }

func (r *VariantRepo) Get(ctx context.Context, id string) (domain.Variant, error) {
	var v domain.Variant
	err := r.db.GetContext(ctx, &v, `
	  SELECT id, product_id, title, COALESCE(attrs_json,'') AS attrs_json, active, created_at
	  FROM variants
	  WHERE id = ?
	`, id)
	return v, err
}

func (r *VariantRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Variant, error) {
	var out []domain.Variant
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, product_id, title, COALESCE(attrs_json,'') AS attrs_json, active, created_at
	  FROM variants
	  WHERE product_id = ? AND active = 1
	  ORDER BY id
	`, productID)
	return out, err
}

// Insert publishes a variant. Variants are immutable afterwards; there is no
// update path on purpose.
func (r *VariantRepo) Insert(ctx context.Context, v domain.Variant) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO variants(id, product_id, title, attrs_json, active, created_at)
	  VALUES(?, ?, ?, ?, 1, CURRENT_TIMESTAMP)
	`, v.ID, v.ProductID, v.Title, v.AttrsJSON)
	return err
}
