package clinic

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new clinic. The slug is fixed at creation because it
// names the clinic's database schema.
func (s *Service) Create(ctx context.Context, c *Clinic) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	if !slugPattern.MatchString(c.Slug) {
		return fmt.Errorf("slug must match %s", slugPattern)
	}
	if existing, err := s.repo.GetBySlug(ctx, c.Slug); err == nil && existing != nil {
		return fmt.Errorf("slug %q already in use", c.Slug)
	}
	c.Active = true
	return s.repo.Create(ctx, c)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Clinic, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) Update(ctx context.Context, c *Clinic) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return s.repo.Update(ctx, c)
}

// SetActive suspends or reactivates a whole clinic. Suspending a clinic does
// not touch its users' profiles; their access ends when their own profiles
// are deactivated.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Clinic, int, error) {
	return s.repo.List(ctx, limit, offset)
}
