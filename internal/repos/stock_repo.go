package repos

import (
	"context"
	"errors"

	"vendora/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrStaleStock signals a guarded update that matched no row: another writer
// changed the quantities between read and write. Callers retry.
var ErrStaleStock = errors.New("stock row changed concurrently")

type StockRepo struct{ db *sqlx.DB }

func NewStockRepo(db *sqlx.DB) *StockRepo { return &StockRepo{db: db} }

func (r *StockRepo) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

const stockCols = `id, offer_id, location_id, available_qty, incoming_qty,
	reserved_qty, status, COALESCE(updated_at,'') AS updated_at`

// ByOffer returns an offer's stock rows largest-available-first (ties by
// location id), the allocation order the reservation path uses.
func (r *StockRepo) ByOffer(ctx context.Context, offerID string) ([]domain.StockRecord, error) {
	var out []domain.StockRecord
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+stockCols+` FROM stock_records
	  WHERE offer_id = ?
	  ORDER BY available_qty DESC, location_id ASC
	`, offerID)
	return out, err
}

func (r *StockRepo) ByOfferTx(ctx context.Context, tx *sqlx.Tx, offerID string) ([]domain.StockRecord, error) {
	var out []domain.StockRecord
	err := tx.SelectContext(ctx, &out, `
	  SELECT `+stockCols+` FROM stock_records
	  WHERE offer_id = ?
	  ORDER BY available_qty DESC, location_id ASC
	`, offerID)
	return out, err
}

// TotalAvailable sums available quantity over rows not out of stock.
func (r *StockRepo) TotalAvailable(ctx context.Context, offerID string) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `
	  SELECT COALESCE(SUM(available_qty),0) FROM stock_records
	  WHERE offer_id = ? AND status != 'out_of_stock'
	`, offerID)
	return total, err
}

// Upsert sets available/incoming for (offer, location). Status is recomputed
// here, never accepted from the caller.
func (r *StockRepo) Upsert(ctx context.Context, offerID, locationID string, available, incoming int) error {
	status := domain.StockStatusFor(available, incoming)
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO stock_records(id, offer_id, location_id, available_qty, incoming_qty, reserved_qty, status, updated_at)
	  VALUES(?, ?, ?, ?, ?, 0, ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(offer_id, location_id) DO UPDATE SET
	    available_qty = excluded.available_qty,
	    incoming_qty  = excluded.incoming_qty,
	    status        = excluded.status,
	    updated_at    = CURRENT_TIMESTAMP
	`, uuid.NewString(), offerID, locationID, available, incoming, status)
	return err
}

// DecrementTx atomically subtracts "by" units at one location if enough stock
// exists, bumping reserved_qty and recomputing status in the same statement.
// Returns ErrStaleStock when the guard fails.
func (r *StockRepo) DecrementTx(ctx context.Context, tx *sqlx.Tx, offerID, locationID string, by int) error {
	res, err := tx.ExecContext(ctx, `
	  UPDATE stock_records
	  SET available_qty = available_qty - ?,
	      reserved_qty  = reserved_qty + ?,
	      status = CASE
	        WHEN available_qty - ? > 0 THEN 'in_stock'
	        WHEN incoming_qty > 0 THEN 'backorder'
	        ELSE 'out_of_stock'
	      END,
	      updated_at = CURRENT_TIMESTAMP
	  WHERE offer_id = ? AND location_id = ? AND available_qty >= ?
	`, by, by, by, offerID, locationID, by)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleStock
	}
	return nil
}

// IncrementTx re-adds released units at one location, recomputing status and
// draining reserved_qty without letting it go negative.
func (r *StockRepo) IncrementTx(ctx context.Context, tx *sqlx.Tx, offerID, locationID string, by int) error {
	res, err := tx.ExecContext(ctx, `
	  UPDATE stock_records
	  SET available_qty = available_qty + ?,
	      reserved_qty  = MAX(reserved_qty - ?, 0),
	      status = CASE
	        WHEN available_qty + ? > 0 THEN 'in_stock'
	        WHEN incoming_qty > 0 THEN 'backorder'
	        ELSE 'out_of_stock'
	      END,
	      updated_at = CURRENT_TIMESTAMP
	  WHERE offer_id = ? AND location_id = ?
	`, by, by, by, offerID, locationID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
