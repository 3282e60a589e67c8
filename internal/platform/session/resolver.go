package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Config holds the resolver's signing and lifetime parameters.
type Config struct {
	SigningKey []byte
	// TTL is the credential's total lifetime.
	TTL time.Duration
	// RefreshWindow is how close to expiry a resolved credential gets
	// rotated. Must be shorter than TTL.
	RefreshWindow time.Duration
	CookieSecure  bool
}

// Resolver turns an inbound request into a Principal. Resolution never
// errors toward the caller: a missing, malformed, expired, or revoked
// credential is the Unauthenticated state, not a failure.
type Resolver struct {
	cfg    Config
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewResolver(cfg Config, store Store, logger zerolog.Logger) *Resolver {
	return &Resolver{cfg: cfg, store: store, logger: logger, now: time.Now}
}

// Resolve recovers the Principal carried by the request's session cookie.
// When the credential is inside the refresh window it is rotated, and the
// returned CredentialPatch must reach the response whatever the request's
// final outcome.
func (r *Resolver) Resolve(c echo.Context) (*Principal, *CredentialPatch) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return r.cfg.SigningKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(r.now))
	if err != nil || !token.Valid {
		return nil, nil
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || claims.ID == "" {
		return nil, nil
	}

	alive, err := r.store.IsAlive(c.Request().Context(), claims.ID)
	if err != nil {
		// Store unreachable: deny rather than accept a possibly revoked
		// session.
		r.logger.Error().Err(err).Str("session_id", claims.ID).Msg("session store check failed")
		return nil, nil
	}
	if !alive {
		return nil, nil
	}

	p := &Principal{ID: userID, Email: claims.Email, SessionID: claims.ID}

	var patch *CredentialPatch
	if claims.ExpiresAt != nil && claims.ExpiresAt.Sub(r.now()) < r.cfg.RefreshWindow {
		rotated, err := r.sign(p.ID.String(), p.Email, p.SessionID)
		if err != nil {
			r.logger.Error().Err(err).Msg("credential rotation failed")
		} else {
			if err := r.store.Refresh(c.Request().Context(), p.SessionID, r.cfg.TTL); err != nil {
				r.logger.Error().Err(err).Str("session_id", p.SessionID).Msg("session refresh failed")
			}
			patch = newSetPatch(rotated, int(r.cfg.TTL.Seconds()), r.cfg.CookieSecure)
		}
	}

	return p, patch
}

// Issue creates a new session for a freshly authenticated user and returns
// the patch that sets its cookie.
func (r *Resolver) Issue(c echo.Context, userID uuid.UUID, email string) (*Principal, *CredentialPatch, error) {
	sessionID := uuid.NewString()
	token, err := r.sign(userID.String(), email, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if err := r.store.Put(c.Request().Context(), sessionID, userID.String(), r.cfg.TTL); err != nil {
		return nil, nil, err
	}
	p := &Principal{ID: userID, Email: email, SessionID: sessionID}
	return p, newSetPatch(token, int(r.cfg.TTL.Seconds()), r.cfg.CookieSecure), nil
}

// Revoke ends a session server-side. The cookie is cleared separately via
// ClearPatch.
func (r *Resolver) Revoke(c echo.Context, sessionID string) error {
	return r.store.Revoke(c.Request().Context(), sessionID)
}

// ClearPatch returns a patch that removes the session cookie.
func (r *Resolver) ClearPatch() *CredentialPatch {
	return ClearPatch(r.cfg.CookieSecure)
}

// Store exposes the underlying session store for components that revoke out
// of band, such as the inactivity monitor.
func (r *Resolver) Store() Store {
	return r.store
}

func (r *Resolver) sign(subject, email, sessionID string) (string, error) {
	now := r.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.cfg.TTL)),
		},
		Email: email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.cfg.SigningKey)
}
