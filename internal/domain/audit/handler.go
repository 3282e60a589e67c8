package audit

import (
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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/audit-events", auth.RequireRole("super_admin", "clinic_manager"))
	g.GET("", h.SearchEvents)
}

// SearchEvents backs the audit log screen. Clinic managers only ever see
// their own clinic's trail; super-admins may filter by any clinic or none.
func (h *Handler) SearchEvents(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)

	var f Filter
	f.Action = Action(c.QueryParam("action"))
	if v := c.QueryParam("actor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid actor_id")
		}
		f.ActorID = &id
	}
	if v := c.QueryParam("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
		}
		f.From = &ts
	}
	if v := c.QueryParam("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
		}
		f.To = &ts
	}

	if auth.RoleFromContext(ctx) == "super_admin" {
		if v := c.QueryParam("clinic_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic_id")
			}
			f.ClinicID = &id
		}
	} else {
		own := auth.ClinicIDFromContext(ctx)
		if own == uuid.Nil {
			return echo.NewHTTPError(http.StatusForbidden, "no clinic scope")
		}
		f.ClinicID = &own
	}

	events, total, err := h.svc.Search(ctx, f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.Wrap(events, total, pg))
}
