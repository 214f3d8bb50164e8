package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/repository"
	"github.com/iliyamo/vehicle-rental/internal/utils"
)

// CredentialStore resolves a login email to a person.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Person, error)
}

// AuthHandler issues access tokens.
type AuthHandler struct {
	Persons      CredentialStore
	JWTSecret    string
	AccessTTLMin int
	Log          *logrus.Logger
}

func NewAuthHandler(p CredentialStore, secret string, ttlMin int, log *logrus.Logger) *AuthHandler {
	if p == nil || log == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Persons: p, JWTSecret: secret, AccessTTLMin: ttlMin, Log: log}
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type personPart struct {
	ID    uuid.UUID  `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type authResp struct {
	Person personPart `json:"person"`
	Access tokenPart  `json:"access"`
}

// Login verifies email and password and returns a signed access token.
// Unknown emails and bad passwords get the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Persons.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return writeError(c, h.Log, err)
	}
	if !utils.VerifyPassword(p.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.JWTSecret, p.ID, string(p.Role), h.AccessTTLMin)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, authResp{
		Person: personPart{ID: p.ID, Email: p.Email, Role: p.Role},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}
