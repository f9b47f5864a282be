package repos

import (
	"context"

	"vendora/internal/domain"

	"github.com/jmoiron/sqlx"
)

type LocationRepo struct{ db *sqlx.DB }

func NewLocationRepo(db *sqlx.DB) *LocationRepo { return &LocationRepo{db: db} }

func (r *LocationRepo) Get(ctx context.Context, id string) (domain.Location, error) {
	var l domain.Location
	err := r.db.GetContext(ctx, &l, `
	  SELECT id, merchant_id, name, kind, created_at
	  FROM locations
	  WHERE id = ?
	`, id)
	return l, err
}

func (r *LocationRepo) ListByMerchant(ctx context.Context, merchantID string) ([]domain.Location, error) {
	var out []domain.Location
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, merchant_id, name, kind, created_at
	  FROM locations
	  WHERE merchant_id = ?
	  ORDER BY name
	`, merchantID)
	return out, err
}

func (r *LocationRepo) Insert(ctx context.Context, l domain.Location) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO locations(id, merchant_id, name, kind, created_at)
	  VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, l.ID, l.MerchantID, l.Name, l.Kind)
	return err
}
