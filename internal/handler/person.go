package handler

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/utils"
)

type PersonStore interface {
	Create(ctx context.Context, p *model.Person) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Person, error)
	GetByEmail(ctx context.Context, email string) (*model.Person, error)
	List(ctx context.Context, offset, limit int) ([]model.Person, error)
	Update(ctx context.Context, p *model.Person) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PersonHandler manages person accounts.  A person may read and change
// only their own record unless they are a MANAGER.
type PersonHandler struct {
	Persons    PersonStore
	BcryptCost int
	Log        *logrus.Logger
}

func NewPersonHandler(p PersonStore, bcryptCost int, log *logrus.Logger) *PersonHandler {
	if p == nil || log == nil {
		panic("nil dependency passed to NewPersonHandler")
	}
	return &PersonHandler{Persons: p, BcryptCost: bcryptCost, Log: log}
}

type registerReq struct {
	FullName string `json:"full_name" validate:"required,max=150"`
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type updatePersonReq struct {
	FullName string `json:"full_name" validate:"required,max=150"`
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
}

type emailReq struct {
	Email string `json:"email" validate:"required,email"`
}

// Register creates a USER account.  MANAGER accounts are provisioned
// out of band.
func (h *PersonHandler) Register(c echo.Context) error {
	var req registerReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return writeError(c, h.Log, err)
	}
	p := &model.Person{
		FullName:     req.FullName,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := h.Persons.Create(c.Request().Context(), p); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PersonHandler) Get(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	if !selfOrManager(c, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	p, err := h.Persons.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

// FindByEmail looks a person up by the email in the request body.
func (h *PersonHandler) FindByEmail(c echo.Context) error {
	var req emailReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	p, err := h.Persons.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if !selfOrManager(c, p.ID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, p)
}

// List pages through persons; MANAGER only.
func (h *PersonHandler) List(c echo.Context) error {
	number, size, err := pageParams(c, 50)
	if err != nil || number < 0 || size < 1 || size > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid paging"})
	}
	if number > math.MaxInt32/size {
		return c.JSON(http.StatusOK, echo.Map{"items": []model.Person{}, "page_number": number, "page_size": size})
	}
	items, err := h.Persons.List(c.Request().Context(), number*size, size)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "page_number": number, "page_size": size})
}

func (h *PersonHandler) Update(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	if !selfOrManager(c, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req updatePersonReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ctx := c.Request().Context()
	p := &model.Person{ID: id, FullName: req.FullName, Username: req.Username, Email: req.Email}
	if err := h.Persons.Update(ctx, p); err != nil {
		return writeError(c, h.Log, err)
	}
	// Role and timestamps are not part of the request; answer with the stored row.
	saved, err := h.Persons.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, saved)
}

// Delete removes a person.  Persons with reservations answer 409.
func (h *PersonHandler) Delete(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	if !selfOrManager(c, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Persons.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
