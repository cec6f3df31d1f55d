// Package service implements the reservation lifecycle: order pricing,
// exclusive table allocation, the status and payment state machine, and
// the read projections used by history and listing endpoints.
package service

import (
	"context"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// Store is the transactional persistence the engine writes through.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx repository.ReservationTx) error) error
	GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	ListReservations(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error)
}

// Catalog resolves menu entries.
type Catalog interface {
	FindFood(ctx context.Context, id uint64) (model.Food, error)
}

// TableRegistry resolves tables and where they stand.
type TableRegistry interface {
	FindTable(ctx context.Context, id uint64) (model.Table, error)
	Placements(ctx context.Context, ids []uint64) (map[uint64]model.TablePlacement, error)
}

// UserDirectory resolves users.
type UserDirectory interface {
	FindUser(ctx context.Context, id uint64) (model.User, error)
	FindUsers(ctx context.Context, ids []uint64) (map[uint64]model.User, error)
}

// EventPublisher receives reservation events after their transaction committed.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Logger is the subset of github.com/labstack/gommon/log used here.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
