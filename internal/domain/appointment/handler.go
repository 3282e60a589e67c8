package appointment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinova/clinova/internal/platform/auth"
	"github.com/clinova/clinova/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the agenda under /appointments. Reads admit
// super-admins because an impersonation overlay gives them a clinic scope;
// writes stay with clinic staff.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/appointments")
	g.GET("", h.ListAgenda, auth.RequireRole("super_admin", "clinic_manager", "therapist", "receptionist"))
	g.GET("/:id", h.GetAppointment, auth.RequireRole("super_admin", "clinic_manager", "therapist", "receptionist"))
	g.POST("", h.Schedule, auth.RequireRole("clinic_manager", "therapist", "receptionist"))
	g.PUT("/:id/cancel", h.Cancel, auth.RequireRole("clinic_manager", "therapist", "receptionist"))
	g.PUT("/:id/complete", h.Complete, auth.RequireRole("clinic_manager", "therapist"))
}

type scheduleRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	TherapistID uuid.UUID `json:"therapist_id"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Note        string    `json:"note"`
}

func (h *Handler) Schedule(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a := &Appointment{
		PatientID:   req.PatientID,
		TherapistID: req.TherapistID,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Note:        req.Note,
	}
	clinicID := auth.ClinicIDFromContext(c.Request().Context())
	if err := h.svc.Schedule(c.Request().Context(), clinicID, a); err != nil {
		if errors.Is(err, ErrNoClinicScope) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAgenda(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)

	var from, to *time.Time
	if v := c.QueryParam("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
		}
		from = &ts
	}
	if v := c.QueryParam("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
		}
		to = &ts
	}

	appointments, total, err := h.svc.Agenda(ctx, auth.ClinicIDFromContext(ctx), from, to, pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, ErrNoClinicScope) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.Wrap(appointments, total, pg))
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	a, err := h.svc.Get(ctx, auth.ClinicIDFromContext(ctx), id)
	if err != nil {
		if errors.Is(err, ErrNoClinicScope) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.setStatus(c, h.svc.Cancel)
}

func (h *Handler) Complete(c echo.Context) error {
	return h.setStatus(c, h.svc.Complete)
}

func (h *Handler) setStatus(c echo.Context, op func(ctx context.Context, clinicID, id uuid.UUID) error) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if err := op(ctx, auth.ClinicIDFromContext(ctx), id); err != nil {
		if errors.Is(err, ErrNoClinicScope) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.NoContent(http.StatusNoContent)
}
