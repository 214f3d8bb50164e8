package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-rental/internal/middleware"
	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/payment"
	"github.com/iliyamo/vehicle-rental/internal/repository"
	"github.com/iliyamo/vehicle-rental/internal/service"
)

var errNoIdentity = errors.New("invalid user_id in context")

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator { return &Validator{v: validator.New()} }

func (cv *Validator) Validate(i interface{}) error { return cv.v.Struct(i) }

// bindValid binds the request body into dst and runs the registered
// validator.  On failure it writes the 400 response itself and returns
// false.
func bindValid(c echo.Context, dst interface{}) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": validationMessage(err)})
	}
	return true, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, strings.ToLower(fe.Field())+" failed on "+fe.Tag())
	}
	return strings.Join(msgs, "; ")
}

// getUserID returns the authenticated person's id set by middleware.JWTAuth.
func getUserID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get(middleware.CtxUserID).(string)
	if !ok {
		return uuid.Nil, errNoIdentity
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errNoIdentity
	}
	return id, nil
}

func isManager(c echo.Context) bool {
	role, _ := c.Get(middleware.CtxRole).(string)
	return model.Role(role) == model.RoleManager
}

// selfOrManager reports whether the caller may act on the person id.
func selfOrManager(c echo.Context, id uuid.UUID) bool {
	if isManager(c) {
		return true
	}
	uid, err := getUserID(c)
	return err == nil && uid == id
}

// idParam parses a UUID path parameter.  ok is false when the 400 has
// already been written.
func idParam(c echo.Context, name string) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + name})
	}
	return id, true, nil
}

// pageParams reads pageNumber and pageSize (0-based page, size defaulting
// to def).  Range checks beyond parsing are left to the caller.
func pageParams(c echo.Context, def int) (number, size int, err error) {
	number, size = 0, def
	if v := c.QueryParam("pageNumber"); v != "" {
		if number, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.New("invalid pageNumber")
		}
	}
	if v := c.QueryParam("pageSize"); v != "" {
		if size, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.New("invalid pageSize")
		}
	}
	return number, size, nil
}

// writeError maps domain errors onto HTTP responses.  Anything unknown is
// logged and reported as a 500.
func writeError(c echo.Context, log *logrus.Logger, err error) error {
	var gwErr *payment.GatewayError
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, repository.ErrConstraint):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrStateConflict),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.As(err, &gwErr):
		log.WithError(err).WithField("op", gwErr.Op).Warn("payment provider failure")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
