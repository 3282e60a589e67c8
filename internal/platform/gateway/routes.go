package gateway

import "strings"

// RouteClass is the static category of a request path. Classification is a
// pure function of the path prefix; nothing about the caller feeds into it.
type RouteClass int

const (
	// RoutePublic paths are reachable without a session.
	RoutePublic RouteClass = iota
	// RouteSuperAdminOnly is the platform console under /super-admin.
	RouteSuperAdminOnly
	// RouteAdminOnly covers dashboard pages restricted to clinic managers
	// and super-admins.
	RouteAdminOnly
	// RoutePatientPortal is the patient self-service area.
	RoutePatientPortal
	// RouteGeneralDashboard is everything else, including the staff
	// dashboard itself.
	RouteGeneralDashboard
)

func (c RouteClass) String() string {
	switch c {
	case RoutePublic:
		return "public"
	case RouteSuperAdminOnly:
		return "super_admin_only"
	case RouteAdminOnly:
		return "admin_only"
	case RoutePatientPortal:
		return "patient_portal"
	default:
		return "general_dashboard"
	}
}

var (
	// Auth endpoints, health probes, and the metrics scrape are public:
	// nobody can log in through a gateway that bounces the login call.
	publicPrefixes = []string{
		"/login", "/signup", "/reset-password", TargetSuspended,
		"/api/v1/auth", "/health", "/metrics",
	}

	adminOnlyPrefixes = []string{
		"/dashboard/users",
		"/dashboard/configuracion",
		"/dashboard/audit-log",
	}
)

// Classify maps a request path onto its RouteClass. Longer, more specific
// prefixes win over the general /dashboard prefix.
func Classify(path string) RouteClass {
	for _, p := range publicPrefixes {
		if hasPathPrefix(path, p) {
			return RoutePublic
		}
	}
	if hasPathPrefix(path, "/super-admin") {
		return RouteSuperAdminOnly
	}
	for _, p := range adminOnlyPrefixes {
		if hasPathPrefix(path, p) {
			return RouteAdminOnly
		}
	}
	if hasPathPrefix(path, TargetPatientPortal) {
		return RoutePatientPortal
	}
	return RouteGeneralDashboard
}

// hasPathPrefix matches whole path segments, so /dashboard/users-export does
// not classify as /dashboard/users.
func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
