package profile

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
	SetRole(ctx context.Context, userID uuid.UUID, role Role, clinicID *uuid.UUID) error
	ReassignClinic(ctx context.Context, userID uuid.UUID, clinicID uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Profile, int, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Profile, int, error)
}
