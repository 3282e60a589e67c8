package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoClinicScope = errors.New("caller has no clinic scope")
	ErrInvalidWindow = errors.New("appointment must end after it starts")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Schedule creates an appointment inside the given clinic scope.
func (s *Service) Schedule(ctx context.Context, clinicID uuid.UUID, a *Appointment) error {
	if clinicID == uuid.Nil {
		return ErrNoClinicScope
	}
	if a.PatientID == uuid.Nil || a.TherapistID == uuid.Nil {
		return errors.New("patient_id and therapist_id are required")
	}
	if !a.EndsAt.After(a.StartsAt) {
		return ErrInvalidWindow
	}
	a.ClinicID = clinicID
	a.Status = StatusScheduled
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	if clinicID == uuid.Nil {
		return nil, ErrNoClinicScope
	}
	return s.repo.GetByID(ctx, clinicID, id)
}

// Agenda lists the clinic's appointments in a time window. The clinic id is
// always the caller's effective scope, so a super-admin holding an
// impersonation overlay reads the overlay target's agenda.
func (s *Service) Agenda(ctx context.Context, clinicID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Appointment, int, error) {
	if clinicID == uuid.Nil {
		return nil, 0, ErrNoClinicScope
	}
	return s.repo.ListByClinic(ctx, clinicID, from, to, limit, offset)
}

func (s *Service) Cancel(ctx context.Context, clinicID, id uuid.UUID) error {
	if clinicID == uuid.Nil {
		return ErrNoClinicScope
	}
	return s.repo.SetStatus(ctx, clinicID, id, StatusCancelled)
}

func (s *Service) Complete(ctx context.Context, clinicID, id uuid.UUID) error {
	if clinicID == uuid.Nil {
		return ErrNoClinicScope
	}
	return s.repo.SetStatus(ctx, clinicID, id, StatusCompleted)
}
