package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names a recorded security event.
type Action string

const (
	ActionLogin              Action = "login"
	ActionLogout             Action = "logout"
	ActionForcedLogout       Action = "forced_logout"
	ActionImpersonationStart Action = "impersonation_start"
	ActionImpersonationStop  Action = "impersonation_stop"
	ActionRoleChange         Action = "role_change"
	ActionActivationChange   Action = "activation_change"
	ActionClinicReassign     Action = "clinic_reassign"
)

// Event is one row of the append-only security trail. Events are never
// updated or deleted.
type Event struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Action     Action     `db:"action" json:"action"`
	ActorID    *uuid.UUID `db:"actor_id" json:"actor_id,omitempty"`
	ActorEmail string     `db:"actor_email" json:"actor_email,omitempty"`
	ClinicID   *uuid.UUID `db:"clinic_id" json:"clinic_id,omitempty"`
	TargetID   *uuid.UUID `db:"target_id" json:"target_id,omitempty"`
	Detail     string     `db:"detail" json:"detail,omitempty"`
	RequestID  string     `db:"request_id" json:"request_id,omitempty"`
	RemoteIP   string     `db:"remote_ip" json:"remote_ip,omitempty"`
	SessionID  string     `db:"session_id" json:"session_id,omitempty"`
	Recorded   time.Time  `db:"recorded" json:"recorded"`
}

// Filter narrows queries over the trail.
type Filter struct {
	Action   Action
	ActorID  *uuid.UUID
	ClinicID *uuid.UUID
	From     *time.Time
	To       *time.Time
}
