package gateway

import (
	"github.com/clinova/clinova/internal/domain/profile"
)

// Redirect targets. The set is fixed; every policy outcome is either allow
// or one of these.
const (
	TargetLogin          = "/login"
	TargetSuspended      = "/account-suspended"
	TargetSuperAdminHome = "/super-admin/dashboard"
	TargetPatientPortal  = "/dashboard/portal"
	TargetDashboard      = "/dashboard"
)

// State is the routing regime a resolved request falls into. A missing
// profile, an unparseable role, and no principal at all are the same state:
// the policy has nobody it can trust.
type State int

const (
	StateUnauthenticated State = iota
	StateSuspended
	StateSuperAdmin
	StateClinicStaff
	StatePatient
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateSuperAdmin:
		return "super_admin"
	case StateClinicStaff:
		return "clinic_staff"
	case StatePatient:
		return "patient"
	default:
		return "unauthenticated"
	}
}

// StateOf collapses resolution and lookup results into a State. Suspension
// dominates role: a deactivated super-admin holds no super-admin regime.
func StateOf(authenticated bool, p *profile.Profile) State {
	if !authenticated || p == nil {
		return StateUnauthenticated
	}
	if !p.IsActive {
		return StateSuspended
	}
	switch p.Role {
	case profile.RoleSuperAdmin:
		return StateSuperAdmin
	case profile.RoleClinicManager, profile.RoleTherapist, profile.RoleReceptionist:
		return StateClinicStaff
	case profile.RolePatient:
		return StatePatient
	default:
		// Unknown role: the account exists but cannot be routed anywhere
		// authenticated.
		return StateUnauthenticated
	}
}

// Decision is a routing outcome: allow the request through, or redirect it
// to Target.
type Decision struct {
	Target string
}

func (d Decision) Allow() bool { return d.Target == "" }

func (d Decision) Outcome() string {
	if d.Allow() {
		return "allow"
	}
	return "redirect"
}

func allow() Decision { return Decision{} }

func redirect(to string) Decision { return Decision{Target: to} }

// Evaluate is the routing decision table. It is a pure function of
// already-resolved state; it cannot fail. Rules are ordered: suspension
// dominates every role rule, and role-confinement (super-admins and patients
// forced out of the staff dashboard) is decided before per-path permission
// checks, so a super-admin visiting /dashboard/users lands on their own
// console rather than being judged on that one page.
func Evaluate(state State, role profile.Role, class RouteClass, path string) Decision {
	// Only actual dashboard pages trigger role confinement; API and
	// infrastructure paths fall through to the per-class rules.
	onDashboard := hasPathPrefix(path, TargetDashboard)

	switch state {
	case StateUnauthenticated:
		if class == RoutePublic {
			return allow()
		}
		return redirect(TargetLogin)

	case StateSuspended:
		// The lockout page itself and the logout call stay reachable, so a
		// suspended user can still end their session. Logout only: login
		// would let a suspended account keep minting fresh sessions.
		if hasPathPrefix(path, TargetSuspended) || hasPathPrefix(path, "/api/v1/auth/logout") {
			return allow()
		}
		return redirect(TargetSuspended)

	case StateSuperAdmin:
		if onDashboard {
			return redirect(TargetSuperAdminHome)
		}
		return allow()

	case StatePatient:
		if onDashboard && class != RoutePatientPortal {
			return redirect(TargetPatientPortal)
		}
		if class == RouteSuperAdminOnly {
			return redirect(TargetDashboard)
		}
		return allow()

	case StateClinicStaff:
		if class == RouteSuperAdminOnly {
			return redirect(TargetDashboard)
		}
		if class == RouteAdminOnly && role != profile.RoleClinicManager {
			return redirect(TargetDashboard)
		}
		return allow()
	}

	return redirect(TargetLogin)
}
