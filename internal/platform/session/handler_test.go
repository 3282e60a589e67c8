package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinova/clinova/internal/platform/auth"
)

type stubAuthenticator struct {
	account Account
	err     error
}

func (s stubAuthenticator) Authenticate(ctx context.Context, email, password string) (Account, error) {
	return s.account, s.err
}

func newHandlerFixture(t *testing.T, accounts Authenticator) *Handler {
	t.Helper()
	store := NewMemoryStore()
	t.Cleanup(store.Close)
	r := NewResolver(testConfig(), store, zerolog.New(os.Stderr))
	return NewHandler(r, accounts, zerolog.New(os.Stderr))
}

func TestLogin_Success(t *testing.T) {
	uid := uuid.New()
	h := newHandlerFixture(t, stubAuthenticator{account: Account{ID: uid, Email: "ana@clinova.app"}})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"ana@clinova.app","password":"s3cretpass"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var sessionCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == CookieName {
			sessionCookie = ck
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("expected login to set a session cookie")
	}
	if !strings.Contains(rec.Body.String(), uid.String()) {
		t.Errorf("expected body to carry the user id, got %s", rec.Body.String())
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	h := newHandlerFixture(t, stubAuthenticator{err: errors.New("no match")})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"ana@clinova.app","password":"wrong"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == CookieName {
			t.Error("failed login must not set a session cookie")
		}
	}
}

func TestLogout_RevokesAndClears(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	r := NewResolver(testConfig(), store, zerolog.New(os.Stderr))
	h := NewHandler(r, stubAuthenticator{}, zerolog.New(os.Stderr))

	e := echo.New()
	issueReq := httptest.NewRequest(http.MethodPost, "/", nil)
	issueCtx := e.NewContext(issueReq, httptest.NewRecorder())
	p, _, err := r.Issue(issueCtx, uuid.New(), "ana@clinova.app")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	ctx := auth.WithIdentity(req.Context(), p.ID.String(), p.Email, p.SessionID)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	alive, err := store.IsAlive(context.Background(), p.SessionID)
	if err != nil {
		t.Fatalf("is alive: %v", err)
	}
	if alive {
		t.Error("expected logout to revoke the session")
	}

	cleared := false
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == CookieName && ck.MaxAge == -1 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected logout to clear the session cookie")
	}
}

func TestLogout_WithoutSession(t *testing.T) {
	h := newHandlerFixture(t, stubAuthenticator{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
