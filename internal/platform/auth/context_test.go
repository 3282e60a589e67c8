package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestContext_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithIdentity(ctx, "u-1", "ana@clinova.app", "s-1")
	ctx = WithRole(ctx, "therapist")

	if got := UserIDFromContext(ctx); got != "u-1" {
		t.Errorf("expected user id u-1, got %q", got)
	}
	if got := UserEmailFromContext(ctx); got != "ana@clinova.app" {
		t.Errorf("expected email, got %q", got)
	}
	if got := SessionIDFromContext(ctx); got != "s-1" {
		t.Errorf("expected session id s-1, got %q", got)
	}
	if got := RoleFromContext(ctx); got != "therapist" {
		t.Errorf("expected role therapist, got %q", got)
	}
}

func TestContext_Empty(t *testing.T) {
	ctx := context.Background()
	if UserIDFromContext(ctx) != "" {
		t.Error("expected empty user id")
	}
	if RoleFromContext(ctx) != "" {
		t.Error("expected empty role")
	}
	if ClinicIDFromContext(ctx) != uuid.Nil {
		t.Error("expected nil clinic id")
	}
	imp := ImpersonationFromContext(ctx)
	if imp.Active {
		t.Error("expected inactive impersonation by default")
	}
}

func TestContext_Impersonation(t *testing.T) {
	target := uuid.New()
	ctx := WithImpersonation(context.Background(), Impersonation{Active: true, TargetClinicID: target})

	imp := ImpersonationFromContext(ctx)
	if !imp.Active {
		t.Fatal("expected active impersonation")
	}
	if imp.TargetClinicID != target {
		t.Errorf("expected target %s, got %s", target, imp.TargetClinicID)
	}
}

func TestContext_ClinicID(t *testing.T) {
	cid := uuid.New()
	ctx := WithClinicID(context.Background(), cid)
	if got := ClinicIDFromContext(ctx); got != cid {
		t.Errorf("expected clinic %s, got %s", cid, got)
	}
}
