package handler

import (
	"context"
	"math"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-rental/internal/model"
)

type GroupStore interface {
	Create(ctx context.Context, g *model.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Group, error)
	List(ctx context.Context) ([]model.Group, error)
	Update(ctx context.Context, g *model.Group) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type AccessoryStore interface {
	Create(ctx context.Context, a *model.Accessory) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Accessory, error)
	List(ctx context.Context) ([]model.Accessory, error)
	Update(ctx context.Context, a *model.Accessory) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type VehicleStore interface {
	Create(ctx context.Context, v *model.Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	List(ctx context.Context, offset, limit int) ([]model.Vehicle, error)
	Update(ctx context.Context, v *model.Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CatalogHandler serves groups, accessories and vehicles.  Reads of
// groups and accessories are public; every write requires MANAGER.
type CatalogHandler struct {
	Groups      GroupStore
	Accessories AccessoryStore
	Vehicles    VehicleStore
	Log         *logrus.Logger
}

func NewCatalogHandler(g GroupStore, a AccessoryStore, v VehicleStore, log *logrus.Logger) *CatalogHandler {
	if g == nil || a == nil || v == nil || log == nil {
		panic("nil dependency passed to NewCatalogHandler")
	}
	return &CatalogHandler{Groups: g, Accessories: a, Vehicles: v, Log: log}
}

type rateReq struct {
	Name      string  `json:"name" validate:"required,max=100"`
	DailyRate float64 `json:"daily_rate" validate:"gte=0"`
}

// ----- groups -----

func (h *CatalogHandler) CreateGroup(c echo.Context) error {
	var req rateReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	g := &model.Group{Name: req.Name, DailyRate: req.DailyRate}
	if err := h.Groups.Create(c.Request().Context(), g); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *CatalogHandler) GetGroup(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	g, err := h.Groups.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *CatalogHandler) ListGroups(c echo.Context) error {
	items, err := h.Groups.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CatalogHandler) UpdateGroup(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	var req rateReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	g := &model.Group{ID: id, Name: req.Name, DailyRate: req.DailyRate}
	if err := h.Groups.Update(c.Request().Context(), g); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, g)
}

// DeleteGroup refuses with 409 while vehicles or reservations reference
// the group.
func (h *CatalogHandler) DeleteGroup(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	if err := h.Groups.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- accessories -----

func (h *CatalogHandler) CreateAccessory(c echo.Context) error {
	var req rateReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	a := &model.Accessory{Name: req.Name, DailyRate: req.DailyRate}
	if err := h.Accessories.Create(c.Request().Context(), a); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *CatalogHandler) GetAccessory(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	a, err := h.Accessories.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *CatalogHandler) ListAccessories(c echo.Context) error {
	items, err := h.Accessories.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CatalogHandler) UpdateAccessory(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	var req rateReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	a := &model.Accessory{ID: id, Name: req.Name, DailyRate: req.DailyRate}
	if err := h.Accessories.Update(c.Request().Context(), a); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *CatalogHandler) DeleteAccessory(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	if err := h.Accessories.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- vehicles -----

type vehicleReq struct {
	Model             string    `json:"model" validate:"required,max=100"`
	LicensePlate      string    `json:"license_plate" validate:"required,max=20"`
	Brand             string    `json:"brand" validate:"required,max=100"`
	Color             string    `json:"color" validate:"max=50"`
	YearOfManufacture int       `json:"year_of_manufacture" validate:"gte=1900,lte=2100"`
	GroupID           uuid.UUID `json:"group_id" validate:"required"`
}

func (r vehicleReq) vehicle(id uuid.UUID) *model.Vehicle {
	return &model.Vehicle{
		ID:                id,
		Model:             r.Model,
		LicensePlate:      r.LicensePlate,
		Brand:             r.Brand,
		Color:             r.Color,
		YearOfManufacture: r.YearOfManufacture,
		GroupID:           r.GroupID,
	}
}

func (h *CatalogHandler) CreateVehicle(c echo.Context) error {
	var req vehicleReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	v := req.vehicle(uuid.Nil)
	if err := h.Vehicles.Create(c.Request().Context(), v); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *CatalogHandler) GetVehicle(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	v, err := h.Vehicles.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *CatalogHandler) ListVehicles(c echo.Context) error {
	number, size, err := pageParams(c, 50)
	if err != nil || number < 0 || size < 1 || size > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid paging"})
	}
	if number > math.MaxInt32/size {
		return c.JSON(http.StatusOK, echo.Map{"items": []model.Vehicle{}, "page_number": number, "page_size": size})
	}
	items, err := h.Vehicles.List(c.Request().Context(), number*size, size)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "page_number": number, "page_size": size})
}

func (h *CatalogHandler) UpdateVehicle(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	var req vehicleReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	v := req.vehicle(id)
	if err := h.Vehicles.Update(c.Request().Context(), v); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *CatalogHandler) DeleteVehicle(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	if err := h.Vehicles.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
