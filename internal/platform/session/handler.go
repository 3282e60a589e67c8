package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinova/clinova/internal/platform/auth"
)

// Account is the minimal identity a credential check yields.
type Account struct {
	ID    uuid.UUID
	Email string
}

// Authenticator verifies an email/password pair. The profile service
// implements it through an adapter wired in main.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (Account, error)
}

// Handler exposes login and logout. Both live on public paths; the gateway
// lets them through unauthenticated.
type Handler struct {
	resolver *Resolver
	accounts Authenticator
	logger   zerolog.Logger
}

func NewHandler(resolver *Resolver, accounts Authenticator, logger zerolog.Logger) *Handler {
	return &Handler{resolver: resolver, accounts: accounts, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/auth/login", h.Login)
	e.POST("/api/v1/auth/logout", h.Logout)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.accounts.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		// Same answer for unknown email and wrong password.
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	p, patch, err := h.resolver.Issue(c, account.ID, account.Email)
	if err != nil {
		h.logger.Error().Err(err).Msg("session issue failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not start session")
	}
	patch.Apply(c)

	h.logger.Info().
		Str("user_id", p.ID.String()).
		Str("session_id", p.SessionID).
		Str("remote_ip", c.RealIP()).
		Msg("login")

	return c.JSON(http.StatusOK, loginResponse{UserID: p.ID, Email: p.Email})
}

func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := auth.SessionIDFromContext(ctx)
	if sessionID != "" {
		if err := h.resolver.Revoke(c, sessionID); err != nil {
			// Clear the cookie anyway; the dangling store entry expires on
			// its own TTL.
			h.logger.Error().Err(err).Str("session_id", sessionID).Msg("session revoke failed")
		}
	}
	h.resolver.ClearPatch().Apply(c)

	h.logger.Info().
		Str("user_id", auth.UserIDFromContext(ctx)).
		Str("session_id", sessionID).
		Msg("logout")

	return c.NoContent(http.StatusNoContent)
}
