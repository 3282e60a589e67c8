package profile

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles a provisioned user can hold. Anything the
// store returns outside this set parses to RoleUnknown, which the routing
// policy treats like an unprovisioned account.
type Role string

const (
	RoleSuperAdmin    Role = "super_admin"
	RoleClinicManager Role = "clinic_manager"
	RoleTherapist     Role = "therapist"
	RoleReceptionist  Role = "receptionist"
	RolePatient       Role = "patient"
	RoleUnknown       Role = "unknown"
)

// ParseRole maps a stored role string onto the closed Role set.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleSuperAdmin, RoleClinicManager, RoleTherapist, RoleReceptionist, RolePatient:
		return Role(s)
	default:
		return RoleUnknown
	}
}

// Known reports whether the role is one of the five provisionable roles.
func (r Role) Known() bool {
	return ParseRole(string(r)) == r && r != RoleUnknown
}

// Staff reports whether the role is a clinic-staff role.
func (r Role) Staff() bool {
	return r == RoleClinicManager || r == RoleTherapist || r == RoleReceptionist
}

// Profile maps to the user_profile table. It is the single source of truth
// for a user's role, clinic membership, and active flag. Deactivation is a
// flag flip, never a row delete.
type Profile struct {
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	Email        string     `db:"email" json:"email"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         Role       `db:"role" json:"role"`
	ClinicID     *uuid.UUID `db:"clinic_id" json:"clinic_id,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	PasswordHash string     `db:"password_hash" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
