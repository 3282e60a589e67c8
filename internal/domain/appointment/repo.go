package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Appointment, int, error)
	SetStatus(ctx context.Context, clinicID, id uuid.UUID, status Status) error
}
