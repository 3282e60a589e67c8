package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey        contextKey = "user_id"
	UserEmailKey     contextKey = "user_email"
	UserRoleKey      contextKey = "user_role"
	SessionIDKey     contextKey = "session_id"
	ClinicIDKey      contextKey = "clinic_id"
	ImpersonationKey contextKey = "impersonation"
)

// Impersonation is the transient view-scope override a super-admin can hold.
// It changes which clinic's data tenant-scoped reads see; it never grants
// write access and never changes the routing decision.
type Impersonation struct {
	Active         bool
	TargetClinicID uuid.UUID
}

// WithIdentity stores the resolved principal's id, email, and session id.
func WithIdentity(ctx context.Context, userID, email, sessionID string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, UserEmailKey, email)
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// WithRole stores the profile's role for downstream role guards.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, UserRoleKey, role)
}

// WithClinicID stores the effective clinic scope for tenant-scoped reads.
// The gateway sets this to the profile's own clinic, or to the impersonation
// target while an overlay is active.
func WithClinicID(ctx context.Context, clinicID uuid.UUID) context.Context {
	return context.WithValue(ctx, ClinicIDKey, clinicID)
}

// WithImpersonation stores the overlay pair so every tenant-scoped read can
// see it in its call chain.
func WithImpersonation(ctx context.Context, imp Impersonation) context.Context {
	return context.WithValue(ctx, ImpersonationKey, imp)
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func UserEmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailKey).(string)
	return email
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(SessionIDKey).(string)
	return sid
}

// ClinicIDFromContext returns the effective clinic scope, or uuid.Nil when
// the principal is clinic-less (an unimpersonating super-admin).
func ClinicIDFromContext(ctx context.Context) uuid.UUID {
	cid, _ := ctx.Value(ClinicIDKey).(uuid.UUID)
	return cid
}

func ImpersonationFromContext(ctx context.Context) Impersonation {
	imp, _ := ctx.Value(ImpersonationKey).(Impersonation)
	return imp
}
