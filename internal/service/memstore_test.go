package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// memState is everything a transaction may touch.
type memState struct {
	tables       map[uint64]model.Table
	reservations map[uint64]model.Reservation
	nextID       uint64
	nextItemID   uint64
}

func (s memState) clone() memState {
	out := memState{
		tables:       make(map[uint64]model.Table, len(s.tables)),
		reservations: make(map[uint64]model.Reservation, len(s.reservations)),
		nextID:       s.nextID,
		nextItemID:   s.nextItemID,
	}
	for id, t := range s.tables {
		out.tables[id] = t
	}
	for id, r := range s.reservations {
		out.reservations[id] = cloneReservation(r)
	}
	return out
}

func cloneReservation(r model.Reservation) model.Reservation {
	r.Friends = append([]uint64(nil), r.Friends...)
	r.Items = append([]model.LineItem(nil), r.Items...)
	return r
}

// memStore is an in-memory Store.  Transactions run one at a time on a
// private copy of the state that replaces the committed state only when
// fn succeeds, which mirrors row locks plus rollback in MySQL.
type memStore struct {
	mu     sync.Mutex
	state  memState
	floors map[uint64]model.Floor
	clock  time.Time

	failInsert error
	failUpdate error
}

func newMemStore() *memStore {
	return &memStore{
		state:  memState{tables: map[uint64]model.Table{}, reservations: map[uint64]model.Reservation{}},
		floors: map[uint64]model.Floor{},
		clock:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) addTable(id, floorID uint64, available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.floors[floorID]; !ok {
		m.floors[floorID] = model.Floor{ID: floorID, Name: "Floor"}
	}
	m.state.tables[id] = model.Table{ID: id, FloorID: floorID, Name: "T", Capacity: 4, Available: available}
}

func (m *memStore) table(id uint64) model.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.tables[id]
}

func (m *memStore) deleteTable(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.tables, id)
}

func (m *memStore) reservation(id uint64) model.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneReservation(m.state.reservations[id])
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.reservations)
}

// seed stores res as committed, bypassing the engine.
func (m *memStore) seed(res model.Reservation) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.nextID++
	res.ID = m.state.nextID
	m.state.reservations[res.ID] = cloneReservation(res)
	return res.ID
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx repository.ReservationTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{store: m, state: m.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *memStore) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	out := cloneReservation(r)
	return &out, nil
}

func (m *memStore) ListReservations(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.state.reservations {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.ParticipantID != 0 && !r.IsParticipant(f.ParticipantID) {
			continue
		}
		out = append(out, cloneReservation(r))
	}
	return out, nil
}

// TableRegistry over the committed state.

func (m *memStore) FindTable(ctx context.Context, id uint64) (model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.state.tables[id]
	if !ok {
		return model.Table{}, repository.ErrTableNotFound
	}
	return t, nil
}

func (m *memStore) Placements(ctx context.Context, ids []uint64) (map[uint64]model.TablePlacement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uint64]model.TablePlacement{}
	for _, id := range ids {
		if t, ok := m.state.tables[id]; ok {
			out[id] = model.TablePlacement{Table: t, Floor: m.floors[t.FloorID]}
		}
	}
	return out, nil
}

type memTx struct {
	store *memStore
	state memState
}

func (t *memTx) ClaimTable(ctx context.Context, id uint64) error {
	tb, ok := t.state.tables[id]
	if !ok {
		return repository.ErrTableNotFound
	}
	if !tb.Available {
		return repository.ErrTableUnavailable
	}
	tb.Available = false
	t.state.tables[id] = tb
	return nil
}

func (t *memTx) ReleaseTable(ctx context.Context, id uint64) error {
	tb, ok := t.state.tables[id]
	if !ok {
		return repository.ErrTableNotFound
	}
	tb.Available = true
	t.state.tables[id] = tb
	return nil
}

func (t *memTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
	if t.store.failInsert != nil {
		return t.store.failInsert
	}
	t.state.nextID++
	res.ID = t.state.nextID
	res.CreatedAt = t.store.tick()
	res.UpdatedAt = res.CreatedAt
	t.numberItems(res.Items)
	t.state.reservations[res.ID] = cloneReservation(*res)
	return nil
}

func (t *memTx) LockReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, ok := t.state.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	out := cloneReservation(r)
	return &out, nil
}

// UpdateReservation writes the row columns only; items and friends have
// their own writes, as in SQL.
func (t *memTx) UpdateReservation(ctx context.Context, res *model.Reservation) error {
	if t.store.failUpdate != nil {
		return t.store.failUpdate
	}
	cur, ok := t.state.reservations[res.ID]
	if !ok {
		return repository.ErrReservationNotFound
	}
	next := cloneReservation(*res)
	next.Items = cur.Items
	next.Friends = cur.Friends
	t.state.reservations[res.ID] = next
	return nil
}

func (t *memTx) ReplaceItems(ctx context.Context, reservationID uint64, items []model.LineItem) error {
	cur, ok := t.state.reservations[reservationID]
	if !ok {
		return repository.ErrReservationNotFound
	}
	t.numberItems(items)
	cur.Items = append([]model.LineItem(nil), items...)
	t.state.reservations[reservationID] = cur
	return nil
}

func (t *memTx) AddFriend(ctx context.Context, reservationID, userID uint64) error {
	cur := t.state.reservations[reservationID]
	if cur.HasFriend(userID) {
		return repository.ErrConflict
	}
	cur.Friends = append(cur.Friends, userID)
	t.state.reservations[reservationID] = cur
	return nil
}

func (t *memTx) RemoveFriend(ctx context.Context, reservationID, userID uint64) error {
	cur := t.state.reservations[reservationID]
	kept := []uint64{}
	for _, f := range cur.Friends {
		if f != userID {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(cur.Friends) {
		return repository.ErrFriendNotFound
	}
	cur.Friends = kept
	t.state.reservations[reservationID] = cur
	return nil
}

func (t *memTx) numberItems(items []model.LineItem) {
	for i := range items {
		t.state.nextItemID++
		items[i].ID = t.state.nextItemID
	}
}

// memCatalog is a mutable menu.
type memCatalog struct {
	mu    sync.Mutex
	foods map[uint64]model.Food
}

func (c *memCatalog) FindFood(ctx context.Context, id uint64) (model.Food, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.foods[id]
	if !ok {
		return model.Food{}, repository.ErrFoodNotFound
	}
	return f, nil
}

func (c *memCatalog) setPrice(id uint64, price string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.foods[id]
	f.Price = price
	c.foods[id] = f
}

type memUsers map[uint64]model.User

func (u memUsers) FindUser(ctx context.Context, id uint64) (model.User, error) {
	usr, ok := u[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return usr, nil
}

func (u memUsers) FindUsers(ctx context.Context, ids []uint64) (map[uint64]model.User, error) {
	out := map[uint64]model.User{}
	for _, id := range ids {
		if usr, ok := u[id]; ok {
			out[id] = usr
		}
	}
	return out, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, ev queue.ReservationEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// types lists the event types published so far, in order.
func (m *mockPublisher) types() []string {
	var out []string
	for _, c := range m.Calls {
		if c.Method == "Publish" {
			out = append(out, c.Arguments.Get(1).(queue.ReservationEvent).Type)
		}
	}
	return out
}

const (
	ownerID    = uint64(1)
	friendID   = uint64(2)
	strangerID = uint64(3)
	adminID    = uint64(9)

	foodSteak = uint64(10)
	foodSoup  = uint64(11)
	foodBroke = uint64(12)
	foodGiant = uint64(13)
	foodHuge  = uint64(14)

	tableA = uint64(100)
	tableB = uint64(101)
	tableC = uint64(102)
)

var (
	owner    = Actor{UserID: ownerID, Role: model.RoleUser}
	friend   = Actor{UserID: friendID, Role: model.RoleUser}
	stranger = Actor{UserID: strangerID, Role: model.RoleUser}
	admin    = Actor{UserID: adminID, Role: model.RoleAdmin}

	errDisk = errors.New("disk full")
)

type fixture struct {
	store   *memStore
	catalog *memCatalog
	users   memUsers
	pub     *mockPublisher
	svc     *ReservationService
	views   *Projector
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	store := newMemStore()
	store.addTable(tableA, 1, true)
	store.addTable(tableB, 1, true)
	store.addTable(tableC, 2, false)

	catalog := &memCatalog{foods: map[uint64]model.Food{
		foodSteak: {ID: foodSteak, Name: "Steak", Price: "$50", Image: "steak.jpg"},
		foodSoup:  {ID: foodSoup, Name: "Soup", Price: "30.00 USD", Image: "soup.jpg"},
		foodBroke: {ID: foodBroke, Name: "Mystery", Price: "ask staff"},
	}}
	users := memUsers{
		ownerID:    {ID: ownerID, Name: "Owner", Email: "owner@example.com", Role: model.RoleUser},
		friendID:   {ID: friendID, Name: "Friend", Email: "friend@example.com", Role: model.RoleUser},
		strangerID: {ID: strangerID, Name: "Stranger", Email: "stranger@example.com", Role: model.RoleUser},
		adminID:    {ID: adminID, Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin},
	}
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	logger := log.New("test")
	logger.SetOutput(io.Discard)

	return &fixture{
		store:   store,
		catalog: catalog,
		users:   users,
		pub:     pub,
		svc:     NewReservationService(store, catalog, store, users, pub, logger, cfg),
		views:   NewProjector(store, store, users),
	}
}

// book creates the reference reservation: two steaks and a soup on table A.
func (f *fixture) book(t *testing.T) *model.Reservation {
	t.Helper()
	res, err := f.svc.Create(context.Background(), owner, CreateInput{
		TableID: tableA,
		Date:    "2024-05-02",
		Time:    "19:30",
		Items:   []OrderItem{{FoodID: foodSteak, Quantity: 2}, {FoodID: foodSoup, Quantity: 1}},
		Friends: []uint64{friendID},
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return res
}
