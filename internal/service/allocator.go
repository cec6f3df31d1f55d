package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// Allocator keeps every table held by at most one live reservation.
// Reserve and Release run in their own transaction; the *Tx variants join
// a transaction the caller already opened.
type Allocator struct {
	store Store
}

// NewAllocator returns an Allocator writing through store.
func NewAllocator(store Store) *Allocator { return &Allocator{store: store} }

// Reserve flips a table from available to taken.  Of several concurrent
// calls on one table exactly one succeeds; the rest get ErrTableUnavailable.
func (a *Allocator) Reserve(ctx context.Context, tableID uint64) error {
	return a.store.WithinTx(ctx, func(tx repository.ReservationTx) error {
		return a.ReserveTx(ctx, tx, tableID)
	})
}

// Release makes a table available again.  It is idempotent.
func (a *Allocator) Release(ctx context.Context, tableID uint64) error {
	return a.store.WithinTx(ctx, func(tx repository.ReservationTx) error {
		return a.ReleaseTx(ctx, tx, tableID)
	})
}

func (a *Allocator) ReserveTx(ctx context.Context, tx repository.ReservationTx, tableID uint64) error {
	err := tx.ClaimTable(ctx, tableID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrTableNotFound):
		return fmt.Errorf("%w: %d", ErrTableNotFound, tableID)
	case errors.Is(err, repository.ErrTableUnavailable):
		return fmt.Errorf("%w: %d", ErrTableUnavailable, tableID)
	}
	return fmt.Errorf("claim table %d: %w", tableID, err)
}

// ReleaseTx frees a table.  A table that no longer exists, for example
// because its floor was deleted, has nothing to free.
func (a *Allocator) ReleaseTx(ctx context.Context, tx repository.ReservationTx, tableID uint64) error {
	err := tx.ReleaseTable(ctx, tableID)
	if err == nil || errors.Is(err, repository.ErrTableNotFound) {
		return nil
	}
	return fmt.Errorf("release table %d: %w", tableID, err)
}

// ChangeTableTx moves res to newTableID: the new table is claimed, the old
// one released and the reservation row updated, all on tx.  The new table
// is claimed first so a failed claim leaves everything as it was.
func (a *Allocator) ChangeTableTx(ctx context.Context, tx repository.ReservationTx, res *model.Reservation, newTableID uint64) error {
	if err := a.ReserveTx(ctx, tx, newTableID); err != nil {
		return err
	}
	if err := a.ReleaseTx(ctx, tx, res.TableID); err != nil {
		return err
	}
	res.TableID = newTableID
	return tx.UpdateReservation(ctx, res)
}
