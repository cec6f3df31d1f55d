package handler

import (
    "context"
    "errors"
    "net/http"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/repository"
)

type stubFloors struct {
    created []model.Floor
    updated []model.Floor
    floors  map[uint64]model.Floor
    deleted int64
    err     error
}

func (s *stubFloors) Create(_ context.Context, f *model.Floor) error {
    if s.err != nil {
        return s.err
    }
    f.ID = uint64(len(s.created) + 1)
    s.created = append(s.created, *f)
    return nil
}

func (s *stubFloors) GetByID(_ context.Context, id uint64) (model.Floor, error) {
    f, found := s.floors[id]
    if !found {
        return model.Floor{}, repository.ErrFloorNotFound
    }
    return f, nil
}

func (s *stubFloors) Update(_ context.Context, f *model.Floor) error {
    if s.err != nil {
        return s.err
    }
    s.updated = append(s.updated, *f)
    return nil
}

func (s *stubFloors) Delete(_ context.Context, id uint64) (int64, error) { return s.deleted, s.err }

type stubTables struct {
    placements map[uint64]model.TablePlacement
    byFloor    map[uint64][]model.Table
    available  *bool
    deleted    []uint64
    err        error
}

func (s *stubTables) Create(_ context.Context, t *model.Table) error {
    if s.err != nil {
        return s.err
    }
    t.ID = 40
    return nil
}

func (s *stubTables) Update(_ context.Context, t *model.Table, available *bool) error {
    if s.err != nil {
        return s.err
    }
    s.available = available
    if available != nil {
        t.Available = *available
    }
    return nil
}

func (s *stubTables) Delete(_ context.Context, id uint64) error {
    if s.err != nil {
        return s.err
    }
    s.deleted = append(s.deleted, id)
    return nil
}

func (s *stubTables) ListByFloor(_ context.Context, floorID uint64) ([]model.Table, error) {
    return s.byFloor[floorID], s.err
}

func (s *stubTables) Placements(_ context.Context, ids []uint64) (map[uint64]model.TablePlacement, error) {
    return s.placements, s.err
}

type stubMenu struct {
    categories  map[uint64]model.Category
    foods       map[uint64]model.Food
    err         error
    sawDeadline bool
}

func (s *stubMenu) CreateCategory(_ context.Context, c *model.Category) error { return s.err }
func (s *stubMenu) UpdateCategory(_ context.Context, c *model.Category) error { return s.err }
func (s *stubMenu) DeleteCategory(_ context.Context, id uint64) error         { return s.err }
func (s *stubMenu) Create(_ context.Context, f *model.Food) error             { f.ID = 10; return s.err }
func (s *stubMenu) Update(_ context.Context, f *model.Food) error             { return s.err }
func (s *stubMenu) Delete(_ context.Context, id uint64) error                 { return s.err }

func (s *stubMenu) FindCategory(_ context.Context, id uint64) (model.Category, error) {
    c, found := s.categories[id]
    if !found {
        return model.Category{}, repository.ErrCategoryNotFound
    }
    return c, nil
}

func (s *stubMenu) ListByCategory(_ context.Context, categoryID uint64) ([]model.Food, error) {
    var out []model.Food
    for _, f := range s.foods {
        if f.CategoryID == categoryID {
            out = append(out, f)
        }
    }
    return out, nil
}

func (s *stubMenu) FindFood(ctx context.Context, id uint64) (model.Food, error) {
    _, s.sawDeadline = ctx.Deadline()
    f, found := s.foods[id]
    if !found {
        return model.Food{}, repository.ErrFoodNotFound
    }
    return f, nil
}

func TestCatalogHandler_Floors(t *testing.T) {
    floors := &stubFloors{deleted: 3, floors: map[uint64]model.Floor{2: {ID: 2, Name: "Ground"}}}
    tables := &stubTables{byFloor: map[uint64][]model.Table{2: {{ID: 5, FloorID: 2, Name: "T5", Capacity: 4, Available: true}}}}
    h := NewCatalogHandler(floors, tables, &stubMenu{})
    e := newEcho()
    e.POST("/floors", h.CreateFloor)
    e.GET("/floors/:id", h.GetFloor)
    e.PUT("/floors/:id", h.UpdateFloor)
    e.DELETE("/floors/:id", h.DeleteFloor)

    rec := do(e, http.MethodPost, "/floors", `{"name":"  Terrace "}`)
    assert.Equal(t, http.StatusCreated, rec.Code)
    require.Len(t, floors.created, 1)
    assert.Equal(t, "Terrace", floors.created[0].Name)

    rec = do(e, http.MethodPost, "/floors", `{}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "is required", decode(t, rec).Errors["name"])

    rec = do(e, http.MethodGet, "/floors/2", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"floor":{"id":2,"name":"Ground"},"tables":[{"id":5,"name":"T5","top":0,"left":0,"capacity":4,"available":true}]}`,
        string(decode(t, rec).Data))
    assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/floors/9", "").Code)

    rec = do(e, http.MethodPut, "/floors/2", `{"name":" Rooftop "}`)
    assert.Equal(t, http.StatusOK, rec.Code)
    require.Len(t, floors.updated, 1)
    assert.Equal(t, model.Floor{ID: 2, Name: "Rooftop"}, floors.updated[0])

    rec = do(e, http.MethodDelete, "/floors/2", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"id":2,"tables_deleted":3}`, string(decode(t, rec).Data))

    floors.err = repository.ErrFloorNotFound
    assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/floors/2", "").Code)
    assert.Equal(t, http.StatusNotFound, do(e, http.MethodPut, "/floors/2", `{"name":"X"}`).Code)
}

func TestCatalogHandler_Tables(t *testing.T) {
    tables := &stubTables{placements: map[uint64]model.TablePlacement{
        5: {Table: model.Table{ID: 5, Name: "T5", Capacity: 4, Available: true}, Floor: model.Floor{ID: 1, Name: "Ground"}},
    }}
    h := NewCatalogHandler(&stubFloors{}, tables, &stubMenu{})
    e := newEcho()
    e.POST("/tables", h.CreateTable)
    e.GET("/tables/:id", h.GetTable)

    rec := do(e, http.MethodGet, "/tables/5", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"id":5,"name":"T5","top":0,"left":0,"capacity":4,"available":true,"floor":{"id":1,"name":"Ground"}}`,
        string(decode(t, rec).Data))

    assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/tables/6", "").Code)

    rec = do(e, http.MethodPost, "/tables", `{"floor_id":1,"name":"T9","capacity":0}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, decode(t, rec).Errors, "capacity")

    tables.err = repository.ErrFloorNotFound
    rec = do(e, http.MethodPost, "/tables", `{"floor_id":99,"name":"T9","capacity":2}`)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "floor not found", decode(t, rec).Message)
}

func TestCatalogHandler_TableEdits(t *testing.T) {
    tables := &stubTables{}
    h := NewCatalogHandler(&stubFloors{}, tables, &stubMenu{})
    e := newEcho()
    e.PUT("/tables/:id", h.UpdateTable)
    e.DELETE("/tables/:id", h.DeleteTable)

    rec := do(e, http.MethodPut, "/tables/5", `{"floor_id":1,"name":"T5","top":3,"left":4,"capacity":6}`)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Nil(t, tables.available)

    rec = do(e, http.MethodPut, "/tables/5", `{"floor_id":1,"name":"T5","capacity":6,"available":true}`)
    assert.Equal(t, http.StatusOK, rec.Code)
    require.NotNil(t, tables.available)
    assert.True(t, *tables.available)
    assert.Contains(t, string(decode(t, rec).Data), `"available":true`)

    rec = do(e, http.MethodPut, "/tables/5", `{"name":"T5","capacity":6}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, decode(t, rec).Errors, "floor_id")

    rec = do(e, http.MethodDelete, "/tables/5", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, []uint64{5}, tables.deleted)

    tables.err = repository.ErrTableHeld
    rec = do(e, http.MethodDelete, "/tables/5", "")
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Equal(t, "table is held by an active reservation", decode(t, rec).Message)
    assert.Equal(t, http.StatusConflict, do(e, http.MethodPut, "/tables/5", `{"floor_id":1,"name":"T5","capacity":6,"available":true}`).Code)

    tables.err = repository.ErrTableNotFound
    assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/tables/5", "").Code)
}

func TestCatalogHandler_Menu(t *testing.T) {
    menu := &stubMenu{foods: map[uint64]model.Food{10: {ID: 10, Name: "Steak", Price: "$50"}}}
    h := NewCatalogHandler(&stubFloors{}, &stubTables{}, menu)
    e := newEcho()
    e.POST("/categories", h.CreateCategory)
    e.POST("/foods", h.CreateFood)
    e.PUT("/foods/:id", h.UpdateFood)
    e.GET("/foods/:id", h.GetFood)
    e.DELETE("/foods/:id", h.DeleteFood)

    rec := do(e, http.MethodGet, "/foods/10", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, string(decode(t, rec).Data), `"price":"$50"`)
    assert.True(t, menu.sawDeadline)
    assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/foods/11", "").Code)

    rec = do(e, http.MethodPost, "/foods", `{"category_id":1,"name":"Soup","price":"30.00 USD","rating":6}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "must be at most 5", decode(t, rec).Errors["rating"])

    assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/foods", `{"category_id":1,"name":"Soup","price":"30.00 USD"}`).Code)
    assert.Equal(t, http.StatusOK, do(e, http.MethodDelete, "/foods/10", "").Code)

    menu.err = repository.ErrConflict
    assert.Equal(t, http.StatusConflict, do(e, http.MethodPost, "/categories", `{"name":"Drinks"}`).Code)

    menu.err = repository.ErrCategoryNotFound
    assert.Equal(t, http.StatusNotFound, do(e, http.MethodPut, "/foods/10", `{"category_id":9,"name":"Steak","price":"$55"}`).Code)

    menu.err = repository.ErrFoodNotFound
    assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/foods/10", "").Code)

    menu.err = errors.New("deadlock")
    rec = do(e, http.MethodPut, "/foods/10", `{"category_id":1,"name":"Steak","price":"$55"}`)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.Equal(t, "db error", decode(t, rec).Message)
}

func TestCatalogHandler_Categories(t *testing.T) {
    menu := &stubMenu{
        categories: map[uint64]model.Category{1: {ID: 1, Name: "Mains"}, 2: {ID: 2, Name: "Empty"}},
        foods:      map[uint64]model.Food{10: {ID: 10, CategoryID: 1, Name: "Steak", Price: "$50"}},
    }
    h := NewCatalogHandler(&stubFloors{}, &stubTables{}, menu)
    e := newEcho()
    e.GET("/categories/:id", h.GetCategory)
    e.PUT("/categories/:id", h.UpdateCategory)
    e.DELETE("/categories/:id", h.DeleteCategory)

    rec := do(e, http.MethodGet, "/categories/1", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"category":{"id":1,"name":"Mains"},"foods":[{"id":10,"category_id":1,"name":"Steak","image":"","prep_time":"","rating":0,"price":"$50","is_best_sale":false}]}`,
        string(decode(t, rec).Data))

    rec = do(e, http.MethodGet, "/categories/2", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"category":{"id":2,"name":"Empty"},"foods":[]}`, string(decode(t, rec).Data))
    assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/categories/3", "").Code)

    rec = do(e, http.MethodPut, "/categories/1", `{"name":" Grill "}`)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"id":1,"name":"Grill"}`, string(decode(t, rec).Data))
    assert.Equal(t, http.StatusOK, do(e, http.MethodDelete, "/categories/2", "").Code)

    menu.err = repository.ErrCategoryInUse
    rec = do(e, http.MethodDelete, "/categories/1", "")
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Equal(t, "category still has foods", decode(t, rec).Message)

    menu.err = repository.ErrConflict
    assert.Equal(t, http.StatusConflict, do(e, http.MethodPut, "/categories/2", `{"name":"Mains"}`).Code)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
    e := newEcho()
    e.GET("/up", Health(pingFunc(func(context.Context) error { return nil })))
    e.GET("/down", Health(pingFunc(func(context.Context) error { return errors.New("refused") })))
    e.GET("/nodb", Health(nil))

    assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/up", "").Code)
    assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/down", "").Code)
    assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/nodb", "").Code)
}
