package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// Config holds the lifecycle switches of the engine.
type Config struct {
	// ReleaseTableOnLeave frees the table when a reservation moves to leave.
	ReleaseTableOnLeave bool
}

// ReservationService runs every reservation mutation.  Each operation
// locks the reservation row, checks the caller and the current state,
// and writes inside one transaction; events go out after commit.
type ReservationService struct {
	store  Store
	tables TableRegistry
	users  UserDirectory
	pricer *Pricer
	alloc  *Allocator
	guard  Guard
	events EventPublisher
	log    Logger
	cfg    Config
}

// NewReservationService wires the engine.  events may be nil.
func NewReservationService(store Store, catalog Catalog, tables TableRegistry, users UserDirectory,
	events EventPublisher, logger Logger, cfg Config) *ReservationService {
	if logger == nil {
		logger = log.New("reservation")
	}
	return &ReservationService{
		store:  store,
		tables: tables,
		users:  users,
		pricer: NewPricer(catalog),
		alloc:  NewAllocator(store),
		events: events,
		log:    logger,
		cfg:    cfg,
	}
}

// CreateInput describes a new booking.
type CreateInput struct {
	TableID  uint64
	Date     string
	Time     string
	Note     string
	NoteFood string
	Items    []OrderItem
	Friends  []uint64
}

// DetailsInput carries the schedule and note fields to overwrite.  Nil
// fields keep their current value.
type DetailsInput struct {
	Date     *string
	Time     *string
	Note     *string
	NoteFood *string
}

// Create books a table.  The table is checked and the order priced before
// any write; the table claim and the reservation insert then share one
// transaction, so a failed insert leaves the table available.
func (s *ReservationService) Create(ctx context.Context, actor Actor, in CreateInput) (*model.Reservation, error) {
	if err := s.guard.CanCreate(actor); err != nil {
		return nil, err
	}
	table, err := s.tables.FindTable(ctx, in.TableID)
	if errors.Is(err, repository.ErrTableNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrTableNotFound, in.TableID)
	}
	if err != nil {
		return nil, fmt.Errorf("find table %d: %w", in.TableID, err)
	}
	if !table.Available {
		return nil, fmt.Errorf("%w: %d", ErrTableUnavailable, in.TableID)
	}
	order, err := s.pricer.PriceOrder(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	friends, err := s.normalizeFriends(ctx, actor.UserID, in.Friends)
	if err != nil {
		return nil, err
	}

	res := &model.Reservation{
		UserID:    actor.UserID,
		TableID:   in.TableID,
		Date:      in.Date,
		Time:      in.Time,
		Note:      in.Note,
		NoteFood:  in.NoteFood,
		Friends:   friends,
		Status:    model.StatusPending,
		PayStatus: model.PayUnpaid,
	}
	order.applyTo(res)

	err = s.store.WithinTx(ctx, func(tx repository.ReservationTx) error {
		if err := s.alloc.ReserveTx(ctx, tx, res.TableID); err != nil {
			return err
		}
		return tx.InsertReservation(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("reservation %d created by user %d on table %d", res.ID, res.UserID, res.TableID)
	s.publish(ctx, queue.EventReservationCreated, res, nil)
	return res, nil
}

// Get returns a reservation visible to actor.
func (s *ReservationService) Get(ctx context.Context, actor Actor, id uint64) (*model.Reservation, error) {
	res, err := s.store.GetReservation(ctx, id)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation %d: %w", id, err)
	}
	if err := s.guard.CanView(actor, res); err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateStatus moves a reservation through its lifecycle.  Canceling also
// cancels the payment and frees the table; leaving frees the table when
// ReleaseTableOnLeave is set.
func (s *ReservationService) UpdateStatus(ctx context.Context, actor Actor, id uint64, status string) (*model.Reservation, error) {
	target := model.Status(status)
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	var prev model.Status
	res, err := s.mutate(ctx, id, func(tx repository.ReservationTx, res *model.Reservation) error {
		if err := s.guard.CanManageLifecycle(actor, res); err != nil {
			return err
		}
		if err := checkTransition(res, target); err != nil {
			return err
		}
		prev = res.Status
		res.Status = target
		switch {
		case target == model.StatusCanceled:
			res.PayStatus = model.PayCanceled
			if err := s.alloc.ReleaseTx(ctx, tx, res.TableID); err != nil {
				return err
			}
		case target == model.StatusLeave && s.cfg.ReleaseTableOnLeave:
			if err := s.alloc.ReleaseTx(ctx, tx, res.TableID); err != nil {
				return err
			}
		}
		return tx.UpdateReservation(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventStatusChanged, res, func(ev *queue.ReservationEvent) {
		ev.PreviousStatus = string(prev)
	})
	return res, nil
}

// UpdatePayment sets the payment state.  A deposit must be above zero and
// below the order total; other states leave the recorded deposit alone.
func (s *ReservationService) UpdatePayment(ctx context.Context, actor Actor, id uint64, payStatus string, deposit *float64) (*model.Reservation, error) {
	target := model.PayStatus(payStatus)
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, payStatus)
	}
	res, err := s.mutate(ctx, id, func(tx repository.ReservationTx, res *model.Reservation) error {
		if err := s.guard.CanManageLifecycle(actor, res); err != nil {
			return err
		}
		if err := ensureMutable(res); err != nil {
			return err
		}
		if target == model.PayDeposit {
			if deposit == nil {
				return ErrInvalidDepositAmount
			}
			cents, ok := AmountToCents(*deposit)
			if !ok {
				return ErrInvalidDepositAmount
			}
			if err := checkDeposit(cents, res.TotalCents); err != nil {
				return err
			}
			res.DepositCents = cents
		}
		res.PayStatus = target
		return tx.UpdateReservation(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventPaymentUpdated, res, nil)
	return res, nil
}

// UpdateFoodItems replaces the whole order and re-prices it from the
// current menu.  An order that would leave a recorded deposit at or above
// the new total is refused.
func (s *ReservationService) UpdateFoodItems(ctx context.Context, actor Actor, id uint64, items []OrderItem) (*model.Reservation, error) {
	res, err := s.mutate(ctx, id, func(tx repository.ReservationTx, res *model.Reservation) error {
		if err := s.guard.CanEdit(actor, res); err != nil {
			return err
		}
		if err := ensureMutable(res); err != nil {
			return err
		}
		order, err := s.pricer.PriceOrder(ctx, items)
		if err != nil {
			return err
		}
		if res.PayStatus == model.PayDeposit {
			if err := checkDeposit(res.DepositCents, order.TotalCents); err != nil {
				return err
			}
		}
		order.applyTo(res)
		if err := tx.ReplaceItems(ctx, res.ID, res.Items); err != nil {
			return err
		}
		return tx.UpdateReservation(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventOrderUpdated, res, nil)
	return res, nil
}

// UpdateDetails overwrites date, time, note and notefood as given.
func (s *ReservationService) UpdateDetails(ctx context.Context, actor Actor, id uint64, in DetailsInput) (*model.Reservation, error) {
	return s.mutate(ctx, id, func(tx repository.ReservationTx, res *model.Reservation) error {
		if err := s.guard.CanEdit(actor, res); err != nil {
			return err
		}
		if err := ensureMutable(res); err != nil {
			return err
		}
		if in.Date != nil {
			res.Date = *in.Date
		}
		if in.Time != nil {
			res.Time = *in.Time
		}
		if in.Note != nil {
			res.Note = *in.Note
		}
		if in.NoteFood != nil {
			res.NoteFood = *in.NoteFood
		}
		return tx.UpdateReservation(ctx, res)
	})
}

// AddFriend invites an existing user to the reservation.
func (s *ReservationService) AddFriend(ctx context.Context, actor Actor, id, friendID uint64) (*model.Reservation, error) {
	return s.mutate(ctx, id, func(tx repository.ReservationTx, res *model.Reservation) error {
		if err := s.guard.CanEdit(actor, res); err != nil {
			return err
		}
		if err := ensureMutable(res); err != nil {
			return err
		}
		if friendID == res.UserID {
			return ErrInvalidFriend
		}
		if _, err := s.users.FindUser(ctx, friendID); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return fmt.Errorf("%w: %d", ErrUserNotFound, friendID)
			}
			return fmt.Errorf("find user %d: %w", friendID, err)
		}
		if res.HasFriend(friendID) {
			return ErrDuplicateFriend
		}
		if err := tx.AddFriend(ctx, res.ID, friendID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrDuplicateFriend
			}
			return err
		}
		res.Friends = append(res.Friends, friendID)
		return nil
	})
}

// RemoveFriend takes a user off the friend list.
func (s *ReservationService) RemoveFriend(ctx context.Context, actor Actor, id, friendID uint64) (*model.Reservation, error) {
	return s.mutate(ctx, id, func(tx repository.ReservationTx, res *model.Reservation) error {
		if err := s.guard.CanEdit(actor, res); err != nil {
			return err
		}
		if err := ensureMutable(res); err != nil {
			return err
		}
		if !res.HasFriend(friendID) {
			return ErrFriendNotFound
		}
		if err := tx.RemoveFriend(ctx, res.ID, friendID); err != nil {
			if errors.Is(err, repository.ErrFriendNotFound) {
				return ErrFriendNotFound
			}
			return err
		}
		kept := res.Friends[:0]
		for _, f := range res.Friends {
			if f != friendID {
				kept = append(kept, f)
			}
		}
		res.Friends = kept
		return nil
	})
}

// ChangeTable moves a pending reservation to another available table.
func (s *ReservationService) ChangeTable(ctx context.Context, actor Actor, id, newTableID uint64) (*model.Reservation, error) {
	var prevTable uint64
	res, err := s.mutate(ctx, id, func(tx repository.ReservationTx, res *model.Reservation) error {
		if err := s.guard.CanEdit(actor, res); err != nil {
			return err
		}
		if err := ensureMutable(res); err != nil {
			return err
		}
		if res.Status != model.StatusPending {
			return ErrNotPending
		}
		prevTable = res.TableID
		return s.alloc.ChangeTableTx(ctx, tx, res, newTableID)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventTableChanged, res, func(ev *queue.ReservationEvent) {
		ev.PreviousTableID = prevTable
	})
	return res, nil
}

// mutate locks reservation id for the length of one transaction and runs fn
// on it.  fn's error aborts the transaction.
func (s *ReservationService) mutate(ctx context.Context, id uint64,
	fn func(tx repository.ReservationTx, res *model.Reservation) error) (*model.Reservation, error) {
	var out *model.Reservation
	err := s.store.WithinTx(ctx, func(tx repository.ReservationTx) error {
		res, err := tx.LockReservation(ctx, id)
		if errors.Is(err, repository.ErrReservationNotFound) {
			return ErrReservationNotFound
		}
		if err != nil {
			return fmt.Errorf("lock reservation %d: %w", id, err)
		}
		if err := fn(tx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// normalizeFriends de-duplicates ids, drops the owner and checks that every
// remaining user exists.
func (s *ReservationService) normalizeFriends(ctx context.Context, ownerID uint64, ids []uint64) ([]uint64, error) {
	out := make([]uint64, 0, len(ids))
	seen := map[uint64]bool{ownerID: true}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return out, nil
	}
	users, err := s.users.FindUsers(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("find friends: %w", err)
	}
	for _, id := range out {
		if _, ok := users[id]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrUserNotFound, id)
		}
	}
	return out, nil
}

func (s *ReservationService) publish(ctx context.Context, typ string, res *model.Reservation, edit func(*queue.ReservationEvent)) {
	if s.events == nil {
		return
	}
	ev := queue.NewReservationEvent(typ, res)
	if edit != nil {
		edit(&ev)
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warnf("publish %s for reservation %d: %v", typ, res.ID, err)
	}
}
