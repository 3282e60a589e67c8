package clinic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	h := NewHandler(newTestService())
	e := echo.New()
	return h, e
}

func TestHandler_CreateClinic(t *testing.T) {
	h, e := newTestHandler()
	body := `{"name":"Clinica Norte","slug":"norte"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.CreateClinic(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_CreateClinic_BadSlug(t *testing.T) {
	h, e := newTestHandler()
	body := `{"name":"Clinica Norte","slug":"Bad Slug"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.CreateClinic(c); err == nil {
		t.Error("expected error for invalid slug")
	}
}

func TestHandler_GetClinic(t *testing.T) {
	h, e := newTestHandler()
	cl := &Clinic{Name: "Clinica Sur", Slug: "sur"}
	if err := h.svc.Create(context.Background(), cl); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(cl.ID.String())
	if err := h.GetClinic(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetClinic_NotFound(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	if err := h.GetClinic(c); err == nil {
		t.Error("expected error for not found")
	}
}

func TestHandler_SetActive(t *testing.T) {
	h, e := newTestHandler()
	cl := &Clinic{Name: "Clinica Este", Slug: "este"}
	if err := h.svc.Create(context.Background(), cl); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"active":false}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(cl.ID.String())
	if err := h.SetActive(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := h.svc.Get(context.Background(), cl.ID)
	if got.Active {
		t.Error("expected clinic to be suspended")
	}
}
