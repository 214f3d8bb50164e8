package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/service"
)

// ReservationManager is the reservation lifecycle as seen by HTTP.
type ReservationManager interface {
	CreateReservation(ctx context.Context, in service.CreateReservationInput) (*service.CreateResult, error)
	GetReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	ListReservations(ctx context.Context, personID uuid.UUID, pageNumber, pageSize int) ([]model.Reservation, error)
	ConfirmPayment(ctx context.Context, paymentID uuid.UUID) (*service.PaymentOutcome, error)
	CancelPayment(ctx context.Context, paymentID uuid.UUID) (*service.PaymentOutcome, error)
}

// ReservationHandler serves /reservation and the provider redirects under
// /payment.
type ReservationHandler struct {
	Manager         ReservationManager
	Log             *logrus.Logger
	DefaultPageSize int
}

func NewReservationHandler(m ReservationManager, log *logrus.Logger) *ReservationHandler {
	if m == nil || log == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Manager: m, Log: log, DefaultPageSize: 20}
}

type createReservationReq struct {
	// PersonID may only be set by a MANAGER booking for someone else.
	PersonID     *uuid.UUID  `json:"person_id"`
	GroupID      uuid.UUID   `json:"group_id" validate:"required"`
	AccessoryIDs []uuid.UUID `json:"accessory_ids"`
	PickupAt     time.Time   `json:"pickup_at" validate:"required"`
	ReturnAt     time.Time   `json:"return_at" validate:"required"`
}

type reservationResp struct {
	Reservation *model.Reservation `json:"reservation"`
	Payment     *model.Payment     `json:"payment,omitempty"`
	PaymentURL  string             `json:"payment_url,omitempty"`
}

// CreateOnline books a reservation paid through hosted checkout.  The
// response carries the URL the client must redirect the payer to.
func (h *ReservationHandler) CreateOnline(c echo.Context) error {
	return h.create(c, model.OnlinePayment)
}

// CreateStore books a reservation paid at the counter.
func (h *ReservationHandler) CreateStore(c echo.Context) error {
	return h.create(c, model.PayAtCounter)
}

func (h *ReservationHandler) create(c echo.Context, method model.PaymentMethod) error {
	var req createReservationReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	personID := uid
	if req.PersonID != nil && *req.PersonID != uid {
		if !isManager(c) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot book for another person"})
		}
		personID = *req.PersonID
	}

	out, err := h.Manager.CreateReservation(c.Request().Context(), service.CreateReservationInput{
		PersonID:      personID,
		GroupID:       req.GroupID,
		AccessoryIDs:  req.AccessoryIDs,
		PickupAt:      req.PickupAt,
		ReturnAt:      req.ReturnAt,
		PaymentMethod: method,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, reservationResp{
		Reservation: out.Reservation,
		Payment:     out.Payment,
		PaymentURL:  out.PaymentURL,
	})
}

// Get returns one reservation.  Persons only see their own.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	res, err := h.Manager.GetReservation(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if !selfOrManager(c, res.PersonID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, res)
}

// List pages through reservations: ?pageNumber=0&pageSize=20.  A USER
// sees only their own reservations; a MANAGER sees all of them.
func (h *ReservationHandler) List(c echo.Context) error {
	number, size, err := pageParams(c, h.DefaultPageSize)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	owner := uuid.Nil
	if !isManager(c) {
		if owner, err = getUserID(c); err != nil {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	items, err := h.Manager.ListReservations(c.Request().Context(), owner, number, size)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":       items,
		"page_number": number,
		"page_size":   size,
	})
}

type paymentOutcomeResp struct {
	Payment     *model.Payment     `json:"payment"`
	Reservation *model.Reservation `json:"reservation"`
	Applied     bool               `json:"applied"`
}

// PaymentSuccess is the provider's success redirect target.
func (h *ReservationHandler) PaymentSuccess(c echo.Context) error {
	return h.settle(c, h.Manager.ConfirmPayment)
}

// PaymentCancel is the provider's cancel redirect target.
func (h *ReservationHandler) PaymentCancel(c echo.Context) error {
	return h.settle(c, h.Manager.CancelPayment)
}

func (h *ReservationHandler) settle(c echo.Context, fn func(context.Context, uuid.UUID) (*service.PaymentOutcome, error)) error {
	id, ok, err := idParam(c, "paymentId")
	if !ok {
		return err
	}
	out, err := fn(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, paymentOutcomeResp{
		Payment:     out.Payment,
		Reservation: out.Reservation,
		Applied:     out.Applied,
	})
}
