package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// PersonView is the public face of a user on a reservation.
type PersonView struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FloorView is a floor inlined into a table.
type FloorView struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// TableView is a table with its floor inlined.
type TableView struct {
	ID       uint64    `json:"id"`
	Name     string    `json:"name"`
	Capacity int       `json:"capacity"`
	Top      int       `json:"top"`
	Left     int       `json:"left"`
	Floor    FloorView `json:"floor"`
}

// ItemView is a line item as captured when it was ordered.  The menu entry
// it came from is not resolved.
type ItemView struct {
	ID       uint64  `json:"id"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
	Price    float64 `json:"price"`
}

// ReservationView is the flattened read model served to clients.
type ReservationView struct {
	ID           uint64       `json:"id"`
	User         PersonView   `json:"user"`
	Table        *TableView   `json:"table"`
	Date         string       `json:"date"`
	Time         string       `json:"time"`
	Note         string       `json:"note"`
	NoteFood     string       `json:"note_food"`
	FriendList   []PersonView `json:"friend_list"`
	FoodItems    []ItemView   `json:"food_items"`
	Subtotal     float64      `json:"subtotal"`
	Tax          float64      `json:"tax"`
	Total        float64      `json:"total"`
	MoneyDeposit float64      `json:"money_deposit"`
	Status       string       `json:"status"`
	PayStatus    string       `json:"pay_status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Projector builds every reservation read view.  Prices and images come
// from the snapshots stored on the reservation, never from the live menu.
type Projector struct {
	store  Store
	tables TableRegistry
	users  UserDirectory
	guard  Guard
}

// NewProjector returns a Projector over the given sources.
func NewProjector(store Store, tables TableRegistry, users UserDirectory) *Projector {
	return &Projector{store: store, tables: tables, users: users}
}

// MyHistory lists completed reservations the actor owns or was invited to,
// newest first.
func (p *Projector) MyHistory(ctx context.Context, actor Actor) ([]ReservationView, error) {
	return p.list(ctx, model.ReservationFilter{Status: model.StatusLeave, ParticipantID: actor.UserID})
}

// AllHistory lists every completed reservation.  Admins only.
func (p *Projector) AllHistory(ctx context.Context, actor Actor) ([]ReservationView, error) {
	if err := p.guard.CanListAll(actor); err != nil {
		return nil, err
	}
	return p.list(ctx, model.ReservationFilter{Status: model.StatusLeave})
}

// HistoryDetail returns one completed reservation of the actor.  Anything
// else, including a live reservation, reads as not found.
func (p *Projector) HistoryDetail(ctx context.Context, actor Actor, id uint64) (ReservationView, error) {
	res, err := p.store.GetReservation(ctx, id)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return ReservationView{}, ErrReservationNotFound
	}
	if err != nil {
		return ReservationView{}, fmt.Errorf("get reservation %d: %w", id, err)
	}
	if res.Status != model.StatusLeave || !res.IsParticipant(actor.UserID) {
		return ReservationView{}, ErrReservationNotFound
	}
	return p.View(ctx, res)
}

// MyReservations lists the actor's reservations, optionally limited to one status.
func (p *Projector) MyReservations(ctx context.Context, actor Actor, status string) ([]ReservationView, error) {
	f, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	f.ParticipantID = actor.UserID
	return p.list(ctx, f)
}

// AllReservations lists every reservation, optionally limited to one status.  Admins only.
func (p *Projector) AllReservations(ctx context.Context, actor Actor, status string) ([]ReservationView, error) {
	if err := p.guard.CanListAll(actor); err != nil {
		return nil, err
	}
	f, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	return p.list(ctx, f)
}

// View projects a single reservation.
func (p *Projector) View(ctx context.Context, res *model.Reservation) (ReservationView, error) {
	views, err := p.Views(ctx, []model.Reservation{*res})
	if err != nil {
		return ReservationView{}, err
	}
	return views[0], nil
}

// Views projects reservations in the given order, resolving tables and
// people with one batched lookup each.
func (p *Projector) Views(ctx context.Context, list []model.Reservation) ([]ReservationView, error) {
	var tableIDs, userIDs []uint64
	for i := range list {
		tableIDs = append(tableIDs, list[i].TableID)
		userIDs = append(userIDs, list[i].UserID)
		userIDs = append(userIDs, list[i].Friends...)
	}
	placements, err := p.tables.Placements(ctx, tableIDs)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	people, err := p.users.FindUsers(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	out := make([]ReservationView, len(list))
	for i := range list {
		out[i] = project(&list[i], placements, people)
	}
	return out, nil
}

func (p *Projector) list(ctx context.Context, f model.ReservationFilter) ([]ReservationView, error) {
	list, err := p.store.ListReservations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return p.Views(ctx, list)
}

func statusFilter(status string) (model.ReservationFilter, error) {
	if status == "" {
		return model.ReservationFilter{}, nil
	}
	s := model.Status(status)
	if !s.Valid() {
		return model.ReservationFilter{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return model.ReservationFilter{Status: s}, nil
}

func project(res *model.Reservation, placements map[uint64]model.TablePlacement, people map[uint64]model.User) ReservationView {
	v := ReservationView{
		ID:           res.ID,
		User:         person(res.UserID, people),
		Date:         res.Date,
		Time:         res.Time,
		Note:         res.Note,
		NoteFood:     res.NoteFood,
		FriendList:   make([]PersonView, 0, len(res.Friends)),
		FoodItems:    make([]ItemView, 0, len(res.Items)),
		Subtotal:     CentsToAmount(res.SubtotalCents),
		Tax:          CentsToAmount(res.TaxCents),
		Total:        CentsToAmount(res.TotalCents),
		MoneyDeposit: CentsToAmount(res.DepositCents),
		Status:       string(res.Status),
		PayStatus:    string(res.PayStatus),
		CreatedAt:    res.CreatedAt,
		UpdatedAt:    res.UpdatedAt,
	}
	// A table whose floor was deleted projects as null.
	if pl, ok := placements[res.TableID]; ok {
		v.Table = &TableView{
			ID:       pl.Table.ID,
			Name:     pl.Table.Name,
			Capacity: pl.Table.Capacity,
			Top:      pl.Table.PosTop,
			Left:     pl.Table.PosLeft,
			Floor:    FloorView{ID: pl.Floor.ID, Name: pl.Floor.Name},
		}
	}
	for _, id := range res.Friends {
		v.FriendList = append(v.FriendList, person(id, people))
	}
	for _, it := range res.Items {
		v.FoodItems = append(v.FoodItems, ItemView{
			ID:       it.ID,
			Quantity: it.Quantity,
			Image:    it.Image,
			Price:    CentsToAmount(it.PriceCents),
		})
	}
	return v
}

func person(id uint64, people map[uint64]model.User) PersonView {
	u := people[id]
	return PersonView{ID: id, Name: u.Name, Email: u.Email}
}
