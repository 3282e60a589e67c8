package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Provision creates a profile for a newly registered user. Every role other
// than super_admin must belong to a clinic.
func (s *Service) Provision(ctx context.Context, p *Profile, password string) error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !p.Role.Known() {
		return fmt.Errorf("unknown role %q", p.Role)
	}
	if p.Role != RoleSuperAdmin && p.ClinicID == nil {
		return fmt.Errorf("role %s requires a clinic_id", p.Role)
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	p.PasswordHash = string(hash)
	p.IsActive = true
	return s.repo.Create(ctx, p)
}

// Get returns the profile for a user id, re-fetched from the store on every
// call. Callers must not cache the result across requests: role and active
// status can change between navigations.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// Authenticate verifies an email/password pair and returns the matching
// profile. It does not check is_active: suspension is the routing policy's
// concern, and a suspended user still authenticates into the lockout page.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Profile, error) {
	p, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return p, nil
}

// ChangeRole moves a user to a new role. Promoting to super_admin detaches
// the clinic; every other role keeps or requires one.
func (s *Service) ChangeRole(ctx context.Context, userID uuid.UUID, role Role, clinicID *uuid.UUID) error {
	if !role.Known() {
		return fmt.Errorf("unknown role %q", role)
	}
	if role == RoleSuperAdmin {
		clinicID = nil
	} else if clinicID == nil {
		current, err := s.repo.GetByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if current.ClinicID == nil {
			return fmt.Errorf("role %s requires a clinic_id", role)
		}
		clinicID = current.ClinicID
	}
	return s.repo.SetRole(ctx, userID, role, clinicID)
}

// SetActive toggles the suspension flag. The change takes effect on the
// user's very next navigation through the gateway.
func (s *Service) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	return s.repo.SetActive(ctx, userID, active)
}

// ReassignClinic moves a non-super-admin user to another clinic.
func (s *Service) ReassignClinic(ctx context.Context, userID uuid.UUID, clinicID uuid.UUID) error {
	current, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if current.Role == RoleSuperAdmin {
		return fmt.Errorf("super_admin does not belong to a clinic")
	}
	return s.repo.ReassignClinic(ctx, userID, clinicID)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Profile, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Profile, int, error) {
	return s.repo.ListByClinic(ctx, clinicID, limit, offset)
}
