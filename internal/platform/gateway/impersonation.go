package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinova/clinova/internal/domain/clinic"
	"github.com/clinova/clinova/internal/platform/auth"
)

// Overlay is the transient "view as clinic" pair a super-admin can hold. It
// changes which clinic's data tenant-scoped reads see and nothing else: it
// is not a grant, it is not persisted, and it dies with the admin's session.
type Overlay struct {
	ClinicID   uuid.UUID `json:"clinic_id"`
	ClinicName string    `json:"clinic_name"`
	ClinicSlug string    `json:"-"`
	StartedAt  time.Time `json:"started_at"`
	expiresAt  time.Time
}

// OverlayStore holds active overlays keyed by the admin's session id, so an
// overlay cannot outlive the session that started it. Entries also carry
// their own TTL as a backstop for sessions that end without a logout.
type OverlayStore struct {
	mu       sync.RWMutex
	overlays map[string]Overlay
	ttl      time.Duration
	done     chan struct{}
}

func NewOverlayStore(ttl time.Duration) *OverlayStore {
	s := &OverlayStore{
		overlays: make(map[string]Overlay),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *OverlayStore) Start(sessionID string, o Overlay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.StartedAt = time.Now()
	o.expiresAt = time.Now().Add(s.ttl)
	s.overlays[sessionID] = o
}

// Stop clears the overlay immediately. Stopping an absent overlay is a
// no-op.
func (s *OverlayStore) Stop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overlays, sessionID)
}

func (s *OverlayStore) Get(sessionID string) (Overlay, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overlays[sessionID]
	if !ok || time.Now().After(o.expiresAt) {
		return Overlay{}, false
	}
	return o, true
}

func (s *OverlayStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for sid, o := range s.overlays {
				if now.After(o.expiresAt) {
					delete(s.overlays, sid)
				}
			}
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

func (s *OverlayStore) Close() {
	close(s.done)
}

// ImpersonationHandler exposes start/stop/status for the overlay. All three
// routes sit behind a super_admin role guard; the overlay itself never
// satisfies that guard, so an impersonating admin cannot nest overlays into
// privilege they do not hold.
type ImpersonationHandler struct {
	store   *OverlayStore
	clinics clinic.Repository
	logger  zerolog.Logger
}

func NewImpersonationHandler(store *OverlayStore, clinics clinic.Repository, logger zerolog.Logger) *ImpersonationHandler {
	return &ImpersonationHandler{store: store, clinics: clinics, logger: logger}
}

func (h *ImpersonationHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/impersonation", auth.RequireRole("super_admin"))
	g.POST("", h.Start)
	g.DELETE("", h.Stop)
	g.GET("", h.Status)
}

type startImpersonationRequest struct {
	ClinicID uuid.UUID `json:"clinic_id"`
}

type impersonationStatus struct {
	Active     bool       `json:"active"`
	ClinicID   *uuid.UUID `json:"clinic_id,omitempty"`
	ClinicName string     `json:"clinic_name,omitempty"`
}

func (h *ImpersonationHandler) Start(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := auth.SessionIDFromContext(ctx)
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}

	var req startImpersonationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ClinicID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "clinic_id is required")
	}

	target, err := h.clinics.GetByID(ctx, req.ClinicID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "clinic not found")
	}
	if !target.Active {
		return echo.NewHTTPError(http.StatusConflict, "clinic is deactivated")
	}

	h.store.Start(sessionID, Overlay{
		ClinicID:   target.ID,
		ClinicName: target.Name,
		ClinicSlug: target.Slug,
	})

	h.logger.Warn().
		Str("admin_user_id", auth.UserIDFromContext(ctx)).
		Str("session_id", sessionID).
		Str("clinic_id", target.ID.String()).
		Str("clinic_name", target.Name).
		Msg("impersonation started")

	id := target.ID
	return c.JSON(http.StatusOK, impersonationStatus{Active: true, ClinicID: &id, ClinicName: target.Name})
}

func (h *ImpersonationHandler) Stop(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := auth.SessionIDFromContext(ctx)
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}

	if o, ok := h.store.Get(sessionID); ok {
		h.logger.Warn().
			Str("admin_user_id", auth.UserIDFromContext(ctx)).
			Str("session_id", sessionID).
			Str("clinic_id", o.ClinicID.String()).
			Msg("impersonation stopped")
	}
	h.store.Stop(sessionID)

	return c.JSON(http.StatusOK, impersonationStatus{Active: false})
}

// Status backs the persistent banner the admin UI renders while an overlay
// is active.
func (h *ImpersonationHandler) Status(c echo.Context) error {
	sessionID := auth.SessionIDFromContext(c.Request().Context())
	o, ok := h.store.Get(sessionID)
	if !ok {
		return c.JSON(http.StatusOK, impersonationStatus{Active: false})
	}
	id := o.ClinicID
	return c.JSON(http.StatusOK, impersonationStatus{Active: true, ClinicID: &id, ClinicName: o.ClinicName})
}
