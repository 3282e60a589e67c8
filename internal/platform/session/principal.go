// Package session implements the request-time identity layer: a signed,
// cookie-borne session credential, its server-side liveness store, and the
// resolver that turns an inbound request into a Principal.
package session

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the cookie that carries the signed session credential.
const CookieName = "clinova_session"

// Principal is a resolved, authenticated identity. It lives for the duration
// of one request; absence of a Principal is a normal state, not an error.
type Principal struct {
	ID        uuid.UUID
	Email     string
	SessionID string
}

// Claims is the payload of the signed session credential. The jti claim is
// the server-side session id; revoking it invalidates the credential before
// its natural expiry.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}
