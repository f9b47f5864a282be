package repos

import (
	"context"
	"database/sql"

	"vendora/internal/domain"

	"github.com/jmoiron/sqlx"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID         string `db:"id"`
	CustomerID string `db:"customer_id"`
	Currency   string `db:"currency"`
	Status     string `db:"status"`
	Subtotal   int64  `db:"subtotal"`
	Discount   int64  `db:"discount"`
	Shipping   int64  `db:"shipping"`
	Total      int64  `db:"total"`
	CreatedAt  string `db:"created_at"`
}

type splitRow struct {
	MerchantID string `db:"merchant_id"`
	Subtotal   int64  `db:"subtotal"`
	Discount   int64  `db:"discount"`
}

// OfferAllocation is one persisted reservation slice of an order.
type OfferAllocation struct {
	OfferID    string `db:"offer_id"`
	LocationID string `db:"location_id"`
	Qty        int    `db:"qty"`
}

// Create persists the order header, lines, merchant splits and the exact
// per-location allocations in one transaction.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order, allocations []OfferAllocation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
	  INSERT INTO orders(id, customer_id, currency, status, subtotal, discount, shipping, total, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, o.ID, o.CustomerID, o.Currency, o.Status, o.Totals.Subtotal, o.Totals.Discount, o.Totals.Shipping, o.Totals.Total); err != nil {
		return err
	}

	for _, l := range o.Lines {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO order_lines(order_id, offer_id, merchant_id, qty, price_at_purchase)
		  VALUES(?, ?, ?, ?, ?)
		`, o.ID, l.OfferID, l.MerchantID, l.Qty, l.PriceAtPurchase); err != nil {
			return err
		}
	}

	for _, s := range o.Splits {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO order_splits(order_id, merchant_id, subtotal, discount)
		  VALUES(?, ?, ?, ?)
		`, o.ID, s.MerchantID, s.Subtotal, s.Discount); err != nil {
			return err
		}
	}

	for _, a := range allocations {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO order_allocations(order_id, offer_id, location_id, qty)
		  VALUES(?, ?, ?, ?)
		`, o.ID, a.OfferID, a.LocationID, a.Qty); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	var row orderRow
	if err := r.db.GetContext(ctx, &row, `
	  SELECT id, customer_id, currency, status, subtotal, discount, shipping, total, created_at
	  FROM orders WHERE id = ?
	`, id); err != nil {
		return domain.Order{}, err
	}

	var lines []domain.OrderLine
	if err := r.db.SelectContext(ctx, &lines, `
	  SELECT offer_id, merchant_id, qty, price_at_purchase
	  FROM order_lines WHERE order_id = ?
	  ORDER BY merchant_id, offer_id
	`, id); err != nil {
		return domain.Order{}, err
	}

	var splits []splitRow
	if err := r.db.SelectContext(ctx, &splits, `
	  SELECT merchant_id, subtotal, discount
	  FROM order_splits WHERE order_id = ?
	  ORDER BY merchant_id
	`, id); err != nil {
		return domain.Order{}, err
	}

	o := domain.Order{
		ID:         row.ID,
		CustomerID: row.CustomerID,
		Currency:   row.Currency,
		Status:     row.Status,
		Lines:      lines,
		Totals: domain.OrderTotals{
			Subtotal: row.Subtotal,
			Discount: row.Discount,
			Shipping: row.Shipping,
			Total:    row.Total,
		},
		CreatedAt: row.CreatedAt,
	}
	for _, s := range splits {
		split := domain.MerchantSplit{MerchantID: s.MerchantID, Subtotal: s.Subtotal, Discount: s.Discount}
		for _, l := range lines {
			if l.MerchantID == s.MerchantID {
				split.Lines = append(split.Lines, l)
			}
		}
		o.Splits = append(o.Splits, split)
	}
	return o, nil
}

func (r *OrderRepo) Status(ctx context.Context, id string) (string, error) {
	var s string
	err := r.db.GetContext(ctx, &s, `SELECT status FROM orders WHERE id = ?`, id)
	return s, err
}

// Transition moves the order to a new status, guarded against concurrent
// transitions by matching the expected current status in the WHERE clause.
func (r *OrderRepo) Transition(ctx context.Context, id, from, to string) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE orders SET status = ? WHERE id = ? AND status = ?
	`, to, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the order is gone or someone raced the transition.
		if _, gerr := r.Status(ctx, id); gerr == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

// Allocations returns the per-location quantities taken when the order was
// composed, exactly as persisted.
func (r *OrderRepo) Allocations(ctx context.Context, orderID string) ([]OfferAllocation, error) {
	var out []OfferAllocation
	err := r.db.SelectContext(ctx, &out, `
	  SELECT offer_id, location_id, qty
	  FROM order_allocations WHERE order_id = ?
	  ORDER BY offer_id, location_id
	`, orderID)
	return out, err
}

func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `
	  SELECT id FROM orders WHERE customer_id = ? ORDER BY datetime(created_at) DESC
	`, customerID); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		o, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
