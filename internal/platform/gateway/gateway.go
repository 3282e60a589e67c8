// Package gateway is the request-time authorization pipeline: identity
// resolution, profile lookup, and the routing policy, run in that order on
// every request before any page or API logic.
package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinova/clinova/internal/domain/profile"
	"github.com/clinova/clinova/internal/platform/auth"
	"github.com/clinova/clinova/internal/platform/metrics"
	"github.com/clinova/clinova/internal/platform/session"
)

// ProfileSource is the single point of truth for role, clinic membership,
// and the active flag. It is consulted on every request, uncached, so an
// admin deactivating a user takes effect on that user's next navigation.
type ProfileSource interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error)
}

type Gateway struct {
	resolver *session.Resolver
	profiles ProfileSource
	overlays *OverlayStore
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func New(resolver *session.Resolver, profiles ProfileSource, overlays *OverlayStore, m *metrics.Metrics, logger zerolog.Logger) *Gateway {
	return &Gateway{
		resolver: resolver,
		profiles: profiles,
		overlays: overlays,
		metrics:  m,
		logger:   logger,
	}
}

// Middleware evaluates the routing policy for the request. It has exactly
// one exit point: the credential patch, if resolution rotated the session
// cookie, is attached to the response before either the redirect or the
// pass-through, so a rotated credential is never dropped on a redirect.
func (g *Gateway) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, patch := g.resolver.Resolve(c)

			var prof *profile.Profile
			if principal != nil {
				p, err := g.profiles.GetByUserID(c.Request().Context(), principal.ID)
				switch {
				case err == nil:
					prof = p
				case errors.Is(err, pgx.ErrNoRows):
					// Authenticated but not provisioned yet. The policy
					// treats this as unauthenticated.
				default:
					// Store unreachable. Treating the profile as missing
					// denies access rather than guessing a role.
					g.logger.Error().Err(err).
						Str("user_id", principal.ID.String()).
						Msg("profile lookup failed")
				}
			}

			state := StateOf(principal != nil, prof)
			role := profile.RoleUnknown
			if prof != nil {
				role = prof.Role
			}
			path := c.Request().URL.Path
			decision := Evaluate(state, role, Classify(path), path)

			g.populateContext(c, principal, prof)
			g.record(principal, patch, decision)

			// Single exit: the rotated credential rides along whatever the
			// decision was.
			patch.Apply(c)
			if !decision.Allow() {
				g.logger.Debug().
					Str("path", path).
					Str("state", state.String()).
					Str("target", decision.Target).
					Msg("gateway redirect")
				return c.Redirect(http.StatusFound, decision.Target)
			}
			return next(c)
		}
	}
}

// populateContext exposes the resolved identity, role, and effective clinic
// scope to everything downstream. While a super-admin holds an impersonation
// overlay, the effective clinic becomes the overlay target; the role does
// not change.
func (g *Gateway) populateContext(c echo.Context, principal *session.Principal, prof *profile.Profile) {
	if principal == nil {
		return
	}
	ctx := auth.WithIdentity(c.Request().Context(), principal.ID.String(), principal.Email, principal.SessionID)

	if prof != nil {
		ctx = auth.WithRole(ctx, string(prof.Role))
		if prof.ClinicID != nil {
			ctx = auth.WithClinicID(ctx, *prof.ClinicID)
		}
		if prof.Role == profile.RoleSuperAdmin && g.overlays != nil {
			if o, ok := g.overlays.Get(principal.SessionID); ok {
				ctx = auth.WithImpersonation(ctx, auth.Impersonation{Active: true, TargetClinicID: o.ClinicID})
				ctx = auth.WithClinicID(ctx, o.ClinicID)
				c.Set("clinic_slug", o.ClinicSlug)
			}
		}
	}

	c.SetRequest(c.Request().WithContext(ctx))
}

func (g *Gateway) record(principal *session.Principal, patch *session.CredentialPatch, decision Decision) {
	if g.metrics == nil {
		return
	}
	if principal == nil {
		g.metrics.Resolutions.WithLabelValues("anonymous").Inc()
	} else {
		g.metrics.Resolutions.WithLabelValues("authenticated").Inc()
		if patch != nil && !patch.Clears() {
			g.metrics.Resolutions.WithLabelValues("rotated").Inc()
		}
	}
	g.metrics.Decisions.WithLabelValues(decision.Outcome(), decision.Target).Inc()
}
