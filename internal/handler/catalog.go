package handler // catalog handlers manage floors, tables, categories and foods

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/repository"
)

// FloorStore persists floors.
type FloorStore interface {
    Create(ctx context.Context, f *model.Floor) error
    GetByID(ctx context.Context, id uint64) (model.Floor, error)
    Update(ctx context.Context, f *model.Floor) error
    Delete(ctx context.Context, id uint64) (int64, error)
}

// TableStore persists tables.
type TableStore interface {
    Create(ctx context.Context, t *model.Table) error
    Update(ctx context.Context, t *model.Table, available *bool) error
    Delete(ctx context.Context, id uint64) error
    ListByFloor(ctx context.Context, floorID uint64) ([]model.Table, error)
    Placements(ctx context.Context, ids []uint64) (map[uint64]model.TablePlacement, error)
}

// MenuStore persists categories and foods.
type MenuStore interface {
    CreateCategory(ctx context.Context, c *model.Category) error
    FindCategory(ctx context.Context, id uint64) (model.Category, error)
    UpdateCategory(ctx context.Context, c *model.Category) error
    DeleteCategory(ctx context.Context, id uint64) error
    ListByCategory(ctx context.Context, categoryID uint64) ([]model.Food, error)
    Create(ctx context.Context, f *model.Food) error
    Update(ctx context.Context, f *model.Food) error
    Delete(ctx context.Context, id uint64) error
    FindFood(ctx context.Context, id uint64) (model.Food, error)
}

// CatalogHandler serves the restaurant layout and the menu.  Reads are
// public; writes are mounted behind the admin role.
type CatalogHandler struct {
    Floors FloorStore
    Tables TableStore
    Menu   MenuStore
}

func NewCatalogHandler(floors FloorStore, tables TableStore, menu MenuStore) *CatalogHandler {
    if floors == nil || tables == nil || menu == nil {
        panic("nil repository passed to NewCatalogHandler")
    }
    return &CatalogHandler{Floors: floors, Tables: tables, Menu: menu}
}

// ----- DTOs -----

type floorReq struct {
    Name string `json:"name" validate:"required,max=100"`
}

type tableReq struct {
    FloorID  uint64 `json:"floor_id" validate:"required"`
    Name     string `json:"name" validate:"required,max=100"`
    Top      int    `json:"top" validate:"gte=0"`
    Left     int    `json:"left" validate:"gte=0"`
    Capacity int    `json:"capacity" validate:"required,gt=0"`
}

// tableUpdateReq edits the layout.  available is optional; a table held by
// a live reservation cannot be freed through it.
type tableUpdateReq struct {
    tableReq
    Available *bool `json:"available"`
}

type categoryReq struct {
    Name string `json:"name" validate:"required,max=100"`
}

type foodReq struct {
    CategoryID uint64  `json:"category_id" validate:"required"`
    Name       string  `json:"name" validate:"required,max=150"`
    Image      string  `json:"image" validate:"max=500"`
    PrepTime   string  `json:"prep_time" validate:"max=50"`
    Rating     float64 `json:"rating" validate:"gte=0,max=5"`
    Price      string  `json:"price" validate:"required,max=32"`
    IsBestSale bool    `json:"is_best_sale"`
}

type foodResp struct {
    ID         uint64  `json:"id"`
    CategoryID uint64  `json:"category_id"`
    Name       string  `json:"name"`
    Image      string  `json:"image"`
    PrepTime   string  `json:"prep_time"`
    Rating     float64 `json:"rating"`
    Price      string  `json:"price"`
    IsBestSale bool    `json:"is_best_sale"`
}

type floorResp struct {
    ID   uint64 `json:"id"`
    Name string `json:"name"`
}

type tableResp struct {
    ID        uint64     `json:"id"`
    Name      string     `json:"name"`
    Top       int        `json:"top"`
    Left      int        `json:"left"`
    Capacity  int        `json:"capacity"`
    Available bool       `json:"available"`
    Floor     *floorResp `json:"floor,omitempty"`
}

type categoryResp struct {
    ID   uint64 `json:"id"`
    Name string `json:"name"`
}

func toTableResp(t model.Table) tableResp {
    return tableResp{ID: t.ID, Name: t.Name, Top: t.PosTop, Left: t.PosLeft, Capacity: t.Capacity, Available: t.Available}
}

func toFoodResp(f model.Food) foodResp {
    return foodResp{
        ID: f.ID, CategoryID: f.CategoryID, Name: f.Name, Image: f.Image,
        PrepTime: f.PrepTime, Rating: f.Rating, Price: f.Price, IsBestSale: f.IsBestSale,
    }
}

func (r foodReq) toModel() model.Food {
    return model.Food{
        CategoryID: r.CategoryID,
        Name:       strings.TrimSpace(r.Name),
        Image:      strings.TrimSpace(r.Image),
        PrepTime:   strings.TrimSpace(r.PrepTime),
        Rating:     r.Rating,
        Price:      strings.TrimSpace(r.Price),
        IsBestSale: r.IsBestSale,
    }
}

// catalogError maps repository sentinels to responses.
func catalogError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, repository.ErrFloorNotFound):
        return fail(c, http.StatusNotFound, "floor not found")
    case errors.Is(err, repository.ErrTableNotFound):
        return fail(c, http.StatusNotFound, "table not found")
    case errors.Is(err, repository.ErrCategoryNotFound):
        return fail(c, http.StatusNotFound, "category not found")
    case errors.Is(err, repository.ErrFoodNotFound):
        return fail(c, http.StatusNotFound, "food not found")
    case errors.Is(err, repository.ErrConflict):
        return fail(c, http.StatusConflict, "already exists")
    case errors.Is(err, repository.ErrTableHeld):
        return fail(c, http.StatusConflict, "table is held by an active reservation")
    case errors.Is(err, repository.ErrCategoryInUse):
        return fail(c, http.StatusConflict, "category still has foods")
    }
    c.Logger().Errorf("[%s %s] %v", c.Request().Method, c.Path(), err)
    return fail(c, http.StatusInternalServerError, "db error")
}

// ----- floors -----

// CreateFloor handles POST /v1/floors.
func (h *CatalogHandler) CreateFloor(c echo.Context) error {
    var req floorReq
    if handled, err := bindValid(c, &req); handled {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    f := &model.Floor{Name: strings.TrimSpace(req.Name)}
    if err := h.Floors.Create(ctx, f); err != nil {
        return catalogError(c, err)
    }
    return ok(c, http.StatusCreated, "floor created", floorResp{ID: f.ID, Name: f.Name})
}

// GetFloor handles GET /v1/floors/:id with the floor's tables.
func (h *CatalogHandler) GetFloor(c echo.Context) error {
    id, valid := parseID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid floor id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    f, err := h.Floors.GetByID(ctx, id)
    if err != nil {
        return catalogError(c, err)
    }
    tables, err := h.Tables.ListByFloor(ctx, id)
    if err != nil {
        return catalogError(c, err)
    }
    out := make([]tableResp, 0, len(tables))
    for _, t := range tables {
        out = append(out, toTableResp(t))
    }
    return ok(c, http.StatusOK, "floor", echo.Map{"floor": floorResp{ID: f.ID, Name: f.Name}, "tables": out})
}

// UpdateFloor handles PUT /v1/floors/:id.
func (h *CatalogHandler) UpdateFloor(c echo.Context) error {
    id, valid := parseID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid floor id")
    }
    var req floorReq
    if handled, err := bindValid(c, &req); handled {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    f := &model.Floor{ID: id, Name: strings.TrimSpace(req.Name)}
    if err := h.Floors.Update(ctx, f); err != nil {
        return catalogError(c, err)
    }
    return ok(c, http.StatusOK, "floor updated", floorResp{ID: f.ID, Name: f.Name})
}

// DeleteFloor handles DELETE /v1/floors/:id.  Tables on the floor go with
// it; reservations that pointed at them keep their rows and show no table.
func (h *CatalogHandler) DeleteFloor(c echo.Context) error {
    id, valid := parseID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid floor id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    n, err := h.Floors.Delete(ctx, id)
    if err != nil {
        return catalogError(c, err)
    }
    return ok(c, http.StatusOK, "floor deleted", echo.Map{"id": id, "tables_deleted": n})
}

// ----- tables -----

// CreateTable handles POST /v1/tables.  New tables start available.
func (h *CatalogHandler) CreateTable(c echo.Context) error {
    var req tableReq
    if handled, err := bindValid(c, &req); handled {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    t := req.toModel()
    t.Available = true
    if err := h.Tables.Create(ctx, &t); err != nil {
        return catalogError(c, err)
    }
    return ok(c, http.StatusCreated, "table created", toTableResp(t))
}

func (r tableReq) toModel() model.Table {
    return model.Table{
        FloorID:  r.FloorID,
        Name:     strings.TrimSpace(r.Name),
        PosTop:   r.Top,
        PosLeft:  r.Left,
        Capacity: r.Capacity,
    }
}

// GetTable handles GET /v1/tables/:id with its floor inlined.
func (h *CatalogHandler) GetTable(c echo.Context) error {
    id, valid := parseID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid table id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    placements, err := h.Tables.Placements(ctx, []uint64{id})
    if err != nil {
        return catalogError(c, err)
    }
    pl, found := placements[id]
    if !found {
        return catalogError(c, repository.ErrTableNotFound)
    }
    resp := toTableResp(pl.Table)
    resp.Floor = &floorResp{ID: pl.Floor.ID, Name: pl.Floor.Name}
    return ok(c, http.StatusOK, "table", resp)
}

// UpdateTable handles PUT /v1/tables/:id.
func (h *CatalogHandler) UpdateTable(c echo.Context) error {
    id, valid := parseID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid table id")
    }
    var req tableUpdateReq
    if handled, err := bindValid(c, &req); handled {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    t := req.toModel()
    t.ID = id
    if err := h.Tables.Update(ctx, &t, req.Available); err != nil {
        return catalogError(c, err)
    }
    return ok(c, http.StatusOK, "table updated", toTableResp(t))
}

// DeleteTable handles DELETE /v1/tables/:id.  A table a live reservation
// holds is refused with 409.
func (h *CatalogHandler) DeleteTable(c echo.Context) error {
    id, valid := parseID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid table id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if err := h.Tables.Delete(ctx, id); err != nil {
        return catalogError(c, err)
    }
    return ok(c, http.StatusOK, "table deleted", echo.Map{"id": id})
}

// ----- categories -----

// CreateCategory handles POST /v1/categories.
func (h *CatalogHandler) CreateCategory(c echo.Context) error {
    var req categoryReq
    if handled, err := bindValid(c, &req); handled {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    cat := &model.Category{Name: strings.TrimSpace(req.Name)}
    if err := h.Menu.CreateCategory(ctx, cat); err != nil {
        return catalogError(c, err)
    }
    return ok(c, http.StatusCreated, "category created", categoryResp{ID: cat.ID, Name: cat.Name})
}

// GetCategory handles GET /v1/categories/:id with the category's foods.
func (h *CatalogHandler) GetCategory(c echo.Context) error {
    id, valid := parseID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid category id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    cat, err := h.Menu.FindCategory(ctx, id)
    if err != nil {
        return catalogError(c, err)
    }
    foods, err := h.Menu.ListByCategory(ctx, id)
    if err != nil {
        return catalogError(c, err)
    }
    out := make([]foodResp, 0, len(foods))
    for _, f := range foods {
        out = append(out, toFoodResp(f))
    }
    return ok(c, http.StatusOK, "category", echo.Map{"category": categoryResp{ID: cat.ID, Name: cat.Name}, "foods": out})
}

// UpdateCategory handles PUT /v1/categories/:id.
func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
    id, valid := parseID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid category id")
    }
    var req categoryReq
    if handled, err := bindValid(c, &req); handled {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    cat := &model.Category{ID: id, Name: strings.TrimSpace(req.Name)}
    if err := h.Menu.UpdateCategory(ctx, cat); err != nil {
        return catalogError(c, err)
    }
    return ok(c, http.StatusOK, "category updated", categoryResp{ID: cat.ID, Name: cat.Name})
}

// DeleteCategory handles DELETE /v1/categories/:id.  Only empty categories
// can go.
func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
    id, valid := parseID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid category id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if err := h.Menu.DeleteCategory(ctx, id); err != nil {
        return catalogError(c, err)
    }
    return ok(c, http.StatusOK, "category deleted", echo.Map{"id": id})
}

// ----- foods -----

// CreateFood handles POST /v1/foods.
func (h *CatalogHandler) CreateFood(c echo.Context) error {
    var req foodReq
    if handled, err := bindValid(c, &req); handled {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    f := req.toModel()
    if err := h.Menu.Create(ctx, &f); err != nil {
        return catalogError(c, err)
    }
    return ok(c, http.StatusCreated, "food created", toFoodResp(f))
}

// UpdateFood handles PUT /v1/foods/:id.  Reservations already priced keep
// their snapshot; only later orders see the new price.
func (h *CatalogHandler) UpdateFood(c echo.Context) error {
    id, valid := parseID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid food id")
    }
    var req foodReq
    if handled, err := bindValid(c, &req); handled {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    f := req.toModel()
    f.ID = id
    if err := h.Menu.Update(ctx, &f); err != nil {
        return catalogError(c, err)
    }
    return ok(c, http.StatusOK, "food updated", toFoodResp(f))
}

// DeleteFood handles DELETE /v1/foods/:id.
func (h *CatalogHandler) DeleteFood(c echo.Context) error {
    id, valid := parseID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid food id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if err := h.Menu.Delete(ctx, id); err != nil {
        return catalogError(c, err)
    }
    return ok(c, http.StatusOK, "food deleted", echo.Map{"id": id})
}

// GetFood handles GET /v1/foods/:id.
func (h *CatalogHandler) GetFood(c echo.Context) error {
    id, valid := parseID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid food id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    f, err := h.Menu.FindFood(ctx, id)
    if err != nil {
        return catalogError(c, err)
    }
    return ok(c, http.StatusOK, "food", toFoodResp(f))
}
