package db

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func slugContext(t *testing.T, header string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("X-Clinic-Slug", header)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestResolveClinicSlug_OverlayWins(t *testing.T) {
	c := slugContext(t, "norte")
	c.Set("clinic_slug", "vidasana")

	got, err := resolveClinicSlug(c, "sur", "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "vidasana" {
		t.Errorf("expected vidasana, got %s", got)
	}
}

func TestResolveClinicSlug_ClaimDominatesHeader(t *testing.T) {
	c := slugContext(t, "")
	got, err := resolveClinicSlug(c, "vidasana", "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "vidasana" {
		t.Errorf("expected vidasana, got %s", got)
	}

	// A matching header is a no-op.
	c = slugContext(t, "vidasana")
	got, err = resolveClinicSlug(c, "vidasana", "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "vidasana" {
		t.Errorf("expected vidasana, got %s", got)
	}
}

func TestResolveClinicSlug_RejectsForeignHeader(t *testing.T) {
	// A staff member naming another clinic in the header must not be able
	// to steer writes into that clinic's schema.
	c := slugContext(t, "norte")
	if _, err := resolveClinicSlug(c, "vidasana", "default"); !errors.Is(err, errClinicScopeMismatch) {
		t.Fatalf("expected clinic scope mismatch, got %v", err)
	}
}

func TestResolveClinicSlug_HeaderForUnclaimedCallers(t *testing.T) {
	c := slugContext(t, "norte")
	got, err := resolveClinicSlug(c, "", "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "norte" {
		t.Errorf("expected norte, got %s", got)
	}
}

func TestResolveClinicSlug_Default(t *testing.T) {
	c := slugContext(t, "")
	got, err := resolveClinicSlug(c, "", "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "default" {
		t.Errorf("expected default, got %s", got)
	}
}

func TestSlugDirectory_CachesLookups(t *testing.T) {
	calls := 0
	dir := newSlugDirectory(func(ctx context.Context, id uuid.UUID) (string, error) {
		calls++
		return "vidasana", nil
	})

	id := uuid.New()
	for i := 0; i < 3; i++ {
		slug, err := dir.slugFor(context.Background(), id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if slug != "vidasana" {
			t.Errorf("expected vidasana, got %s", slug)
		}
	}
	if calls != 1 {
		t.Errorf("expected a single lookup, got %d", calls)
	}
}

func TestSlugDirectory_LookupErrorNotCached(t *testing.T) {
	fail := true
	dir := newSlugDirectory(func(ctx context.Context, id uuid.UUID) (string, error) {
		if fail {
			return "", errors.New("unavailable")
		}
		return "vidasana", nil
	})

	id := uuid.New()
	if _, err := dir.slugFor(context.Background(), id); err == nil {
		t.Fatal("expected error from failing lookup")
	}

	fail = false
	slug, err := dir.slugFor(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slug != "vidasana" {
		t.Errorf("expected vidasana, got %s", slug)
	}
}

func TestClinicSlugPattern(t *testing.T) {
	valid := []string{"default", "clinica_norte", "c1"}
	for _, s := range valid {
		if !clinicSlugPattern.MatchString(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	invalid := []string{"", "Norte", "no-dash", "a b", "x;drop"}
	for _, s := range invalid {
		if clinicSlugPattern.MatchString(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestCreateClinicSchema_RejectsInvalidSlug(t *testing.T) {
	err := CreateClinicSchema(context.Background(), nil, "bad;slug", "")
	if err == nil {
		t.Fatal("expected error for invalid slug")
	}
}

func TestConnFromContext_Empty(t *testing.T) {
	if ConnFromContext(context.Background()) != nil {
		t.Error("expected nil conn for empty context")
	}
	if ClinicSlugFromContext(context.Background()) != "" {
		t.Error("expected empty slug for empty context")
	}
}
