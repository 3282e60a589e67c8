package session

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CredentialPatch is a pending change to the outgoing session cookie. The
// resolver produces one when it rotates a credential; login and logout
// produce one for the fresh and cleared cookie respectively. Whoever ends the
// request must apply it to the response on every exit path, redirects
// included, or the rotation is silently lost and the user is logged out on
// their next navigation.
type CredentialPatch struct {
	value  string
	maxAge int
	clear  bool
	secure bool
}

func newSetPatch(token string, maxAge int, secure bool) *CredentialPatch {
	return &CredentialPatch{value: token, maxAge: maxAge, secure: secure}
}

// ClearPatch returns a patch that deletes the session cookie.
func ClearPatch(secure bool) *CredentialPatch {
	return &CredentialPatch{clear: true, secure: secure}
}

// Apply attaches the patch to the response. Safe to call on a nil patch.
func (p *CredentialPatch) Apply(c echo.Context) {
	if p == nil {
		return
	}
	cookie := &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if p.clear {
		cookie.Value = ""
		cookie.MaxAge = -1
	} else {
		cookie.Value = p.value
		cookie.MaxAge = p.maxAge
	}
	c.SetCookie(cookie)
}

// Token returns the credential carried by the patch, empty for a clearing
// patch.
func (p *CredentialPatch) Token() string {
	if p == nil || p.clear {
		return ""
	}
	return p.value
}

// Clears reports whether the patch deletes the cookie.
func (p *CredentialPatch) Clears() bool {
	return p != nil && p.clear
}
