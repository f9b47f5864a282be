package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"vendora/internal/domain"
	"vendora/internal/repos"
)

// maxReserveAttempts bounds the internal retry loop when a guarded update
// loses a race. Exhaustion surfaces as insufficient stock, never as a
// distinct conflict error.
const maxReserveAttempts = 3

var errConflict = errors.New("reservation conflict")

// ReservationService is the single write path allowed to decrement available
// stock. Reservations on the same offer are serialized by a per-offer mutex
// and each attempt runs as one transaction with guarded updates, so two
// concurrent reservations can never jointly take more than was available.
// Reservations on different offers never block each other.
type ReservationService struct {
	Stock *repos.StockRepo

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewReservationService(stock *repos.StockRepo) *ReservationService {
	return &ReservationService{Stock: stock, locks: make(map[string]*sync.Mutex)}
}

func (s *ReservationService) lockFor(offerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[offerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[offerID] = l
	}
	return l
}

// Reserve atomically verifies and decrements available stock for an offer,
// exhausting the location with the largest available quantity first.
// On success the decrement is durable; the returned allocations are what a
// later Release must re-add.
func (s *ReservationService) Reserve(ctx context.Context, offerID string, qty int) (domain.Reservation, error) {
	if qty < 1 {
		return domain.Reservation{}, domain.ErrInvalidSelection
	}

	lock := s.lockFor(offerID)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.Reservation{}, err
		}
		res, err := s.tryReserve(ctx, offerID, qty)
		if errors.Is(err, errConflict) {
			continue
		}
		return res, err
	}
	// Retries exhausted: an external writer kept winning. Report the
	// recoverable failure; the caller may retry with a smaller quantity.
	return domain.Reservation{}, fmt.Errorf("reserve offer %s: retries exhausted: %w", offerID, domain.ErrInsufficientStock)
}

func (s *ReservationService) tryReserve(ctx context.Context, offerID string, qty int) (domain.Reservation, error) {
	tx, err := s.Stock.BeginTx(ctx)
	if err != nil {
		return domain.Reservation{}, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := s.Stock.ByOfferTx(ctx, tx, offerID)
	if err != nil {
		return domain.Reservation{}, err
	}

	total := 0
	for _, row := range rows {
		if row.Status != domain.StockOutOfStock {
			total += row.AvailableQty
		}
	}
	if total < qty {
		return domain.Reservation{}, &domain.StockError{OfferID: offerID, Requested: qty, Available: total}
	}

	// Largest-first allocation: rows arrive ordered by available_qty DESC,
	// location_id ASC, so the biggest pool is drained before the next.
	need := qty
	var allocations []domain.Allocation
	for _, row := range rows {
		if need == 0 {
			break
		}
		take := row.AvailableQty
		if take > need {
			take = need
		}
		if take == 0 {
			continue
		}
		if err := s.Stock.DecrementTx(ctx, tx, offerID, row.LocationID, take); err != nil {
			if errors.Is(err, repos.ErrStaleStock) {
				return domain.Reservation{}, errConflict
			}
			return domain.Reservation{}, err
		}
		allocations = append(allocations, domain.Allocation{LocationID: row.LocationID, Qty: take})
		need -= take
	}
	if need > 0 {
		// The rows shrank between read and write.
		return domain.Reservation{}, errConflict
	}

	if err := tx.Commit(); err != nil {
		return domain.Reservation{}, err
	}
	return domain.Reservation{OfferID: offerID, Allocations: allocations, Remaining: total - qty}, nil
}

// Release reverses a reservation by re-adding the exact per-location
// quantities that were taken, never a blind re-increment on an arbitrary
// location. Used on composition rollback and order cancellation.
func (s *ReservationService) Release(ctx context.Context, offerID string, allocations []domain.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}

	lock := s.lockFor(offerID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.Stock.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range allocations {
		if err := s.Stock.IncrementTx(ctx, tx, offerID, a.LocationID, a.Qty); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Availability reports the offer's total available quantity.
func (s *ReservationService) Availability(ctx context.Context, offerID string) (int, error) {
	return s.Stock.TotalAvailable(ctx, offerID)
}
