package gateway

import (
	"testing"

	"github.com/google/uuid"

	"github.com/clinova/clinova/internal/domain/profile"
)

func TestStateOf(t *testing.T) {
	cid := uuid.New()
	cases := []struct {
		name          string
		authenticated bool
		prof          *profile.Profile
		want          State
	}{
		{"no principal", false, nil, StateUnauthenticated},
		{"principal without profile", true, nil, StateUnauthenticated},
		{"suspended dominates super_admin", true, &profile.Profile{Role: profile.RoleSuperAdmin, IsActive: false}, StateSuspended},
		{"suspended patient", true, &profile.Profile{Role: profile.RolePatient, ClinicID: &cid, IsActive: false}, StateSuspended},
		{"super_admin", true, &profile.Profile{Role: profile.RoleSuperAdmin, IsActive: true}, StateSuperAdmin},
		{"clinic_manager", true, &profile.Profile{Role: profile.RoleClinicManager, ClinicID: &cid, IsActive: true}, StateClinicStaff},
		{"therapist", true, &profile.Profile{Role: profile.RoleTherapist, ClinicID: &cid, IsActive: true}, StateClinicStaff},
		{"receptionist", true, &profile.Profile{Role: profile.RoleReceptionist, ClinicID: &cid, IsActive: true}, StateClinicStaff},
		{"patient", true, &profile.Profile{Role: profile.RolePatient, ClinicID: &cid, IsActive: true}, StatePatient},
		{"unknown role", true, &profile.Profile{Role: profile.RoleUnknown, IsActive: true}, StateUnauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StateOf(tc.authenticated, tc.prof); got != tc.want {
				t.Errorf("StateOf = %v, want %v", got, tc.want)
			}
		})
	}
}

func evalPath(state State, role profile.Role, path string) Decision {
	return Evaluate(state, role, Classify(path), path)
}

func TestEvaluate_Unauthenticated(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/dashboard", TargetLogin},
		{"/dashboard/agenda", TargetLogin},
		{"/super-admin", TargetLogin},
		{"/api/v1/users", TargetLogin},
		{"/login", ""},
		{"/signup", ""},
		{"/reset-password", ""},
		{"/api/v1/auth/login", ""},
		{"/health", ""},
		{"/metrics", ""},
	}
	for _, tc := range cases {
		got := evalPath(StateUnauthenticated, profile.RoleUnknown, tc.path)
		if got.Target != tc.want {
			t.Errorf("unauthenticated %q: got %q, want %q", tc.path, got.Target, tc.want)
		}
	}
}

func TestEvaluate_SuspensionDominates(t *testing.T) {
	roles := []profile.Role{
		profile.RoleSuperAdmin,
		profile.RoleClinicManager,
		profile.RoleTherapist,
		profile.RoleReceptionist,
		profile.RolePatient,
	}
	paths := []string{"/dashboard", "/dashboard/users", "/super-admin", "/dashboard/portal", "/login", "/api/v1/users"}
	for _, role := range roles {
		for _, path := range paths {
			got := evalPath(StateSuspended, role, path)
			if got.Target != TargetSuspended {
				t.Errorf("suspended %s on %q: got %q, want %q", role, path, got.Target, TargetSuspended)
			}
		}
	}
	if d := evalPath(StateSuspended, profile.RolePatient, TargetSuspended); !d.Allow() {
		t.Error("suspended user must be able to reach the lockout page")
	}
	if d := evalPath(StateSuspended, profile.RoleTherapist, "/api/v1/auth/logout"); !d.Allow() {
		t.Error("suspended user must be able to log out")
	}
	if d := evalPath(StateSuspended, profile.RoleTherapist, "/api/v1/auth/login"); d.Target != TargetSuspended {
		t.Errorf("suspended user minting a new session: got %q, want %q", d.Target, TargetSuspended)
	}
}

func TestEvaluate_SuperAdminConfinement(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/dashboard", TargetSuperAdminHome},
		{"/dashboard/agenda", TargetSuperAdminHome},
		{"/dashboard/users", TargetSuperAdminHome},
		{"/dashboard/portal", TargetSuperAdminHome},
		{"/super-admin", ""},
		{"/super-admin/dashboard", ""},
		{"/super-admin/clinics", ""},
		{"/login", ""},
		{"/api/v1/clinics", ""},
	}
	for _, tc := range cases {
		got := evalPath(StateSuperAdmin, profile.RoleSuperAdmin, tc.path)
		if got.Target != tc.want {
			t.Errorf("super_admin %q: got %q, want %q", tc.path, got.Target, tc.want)
		}
	}
}

func TestEvaluate_PatientConfinement(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/dashboard", TargetPatientPortal},
		{"/dashboard/agenda", TargetPatientPortal},
		{"/dashboard/users", TargetPatientPortal},
		{"/dashboard/portal", ""},
		{"/dashboard/portal/appointments", ""},
		{"/super-admin", TargetDashboard},
		{"/login", ""},
	}
	for _, tc := range cases {
		got := evalPath(StatePatient, profile.RolePatient, tc.path)
		if got.Target != tc.want {
			t.Errorf("patient %q: got %q, want %q", tc.path, got.Target, tc.want)
		}
	}
}

func TestEvaluate_ClinicStaff(t *testing.T) {
	cases := []struct {
		role profile.Role
		path string
		want string
	}{
		{profile.RoleClinicManager, "/dashboard/configuracion", ""},
		{profile.RoleClinicManager, "/dashboard/users", ""},
		{profile.RoleClinicManager, "/dashboard/audit-log", ""},
		{profile.RoleClinicManager, "/dashboard", ""},
		{profile.RoleClinicManager, "/super-admin", TargetDashboard},
		{profile.RoleTherapist, "/dashboard", ""},
		{profile.RoleTherapist, "/dashboard/agenda", ""},
		{profile.RoleTherapist, "/dashboard/users", TargetDashboard},
		{profile.RoleTherapist, "/super-admin", TargetDashboard},
		{profile.RoleReceptionist, "/dashboard/audit-log", TargetDashboard},
		{profile.RoleReceptionist, "/dashboard/configuracion", TargetDashboard},
		{profile.RoleReceptionist, "/dashboard", ""},
	}
	for _, tc := range cases {
		got := evalPath(StateClinicStaff, tc.role, tc.path)
		if got.Target != tc.want {
			t.Errorf("%s %q: got %q, want %q", tc.role, tc.path, got.Target, tc.want)
		}
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	d1 := evalPath(StateSuperAdmin, profile.RoleSuperAdmin, "/dashboard/users")
	d2 := evalPath(StateSuperAdmin, profile.RoleSuperAdmin, "/dashboard/users")
	if d1 != d2 {
		t.Error("evaluation must be deterministic")
	}
}
