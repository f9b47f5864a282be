package repos

import (
	"context"
	"database/sql"

	"vendora/internal/domain"

	"github.com/jmoiron/sqlx"
)

type DiscountRepo struct{ db *sqlx.DB }

func NewDiscountRepo(db *sqlx.DB) *DiscountRepo { return &DiscountRepo{db: db} }

// Get returns an active discount by code; sql.ErrNoRows when absent or inactive.
func (r *DiscountRepo) Get(ctx context.Context, code string) (domain.Discount, error) {
	var row struct {
		Code       string         `db:"code"`
		MerchantID sql.NullString `db:"merchant_id"`
		PercentBps int64          `db:"percent_bps"`
		Active     bool           `db:"active"`
	}
	err := r.db.GetContext(ctx, &row, `
	  SELECT code, merchant_id, percent_bps, active
	  FROM discounts WHERE code = ? AND active = 1
	`, code)
	if err != nil {
		return domain.Discount{}, err
	}
	return domain.Discount{
		Code:       row.Code,
		MerchantID: row.MerchantID.String,
		PercentBps: row.PercentBps,
		Active:     row.Active,
	}, nil
}

func (r *DiscountRepo) Upsert(ctx context.Context, d domain.Discount) error {
	var merchantID any
	if d.MerchantID != "" {
		merchantID = d.MerchantID
	}
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO discounts(code, merchant_id, percent_bps, active)
	  VALUES(?, ?, ?, ?)
	  ON CONFLICT(code) DO UPDATE SET
	    merchant_id = excluded.merchant_id,
	    percent_bps = excluded.percent_bps,
	    active      = excluded.active
	`, d.Code, merchantID, d.PercentBps, d.Active)
	return err
}
