package clinic

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

// ── Mock Repository ──

type mockRepo struct {
	data map[uuid.UUID]*Clinic
}

func newMockRepo() *mockRepo {
	return &mockRepo{data: map[uuid.UUID]*Clinic{}}
}

func (m *mockRepo) Create(_ context.Context, c *Clinic) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.data[c.ID] = c
	return nil
}
func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Clinic, error) {
	if c, ok := m.data[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockRepo) GetBySlug(_ context.Context, slug string) (*Clinic, error) {
	for _, c := range m.data {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockRepo) Update(_ context.Context, c *Clinic) error {
	if _, ok := m.data[c.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.data[c.ID] = c
	return nil
}
func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	c, ok := m.data[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	c.Active = active
	return nil
}
func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Clinic, int, error) {
	var out []*Clinic
	for _, c := range m.data {
		out = append(out, c)
	}
	return out, len(out), nil
}

func newTestService() *Service {
	return NewService(newMockRepo())
}

func TestCreate(t *testing.T) {
	svc := newTestService()
	c := &Clinic{Name: "Clinica Norte", Slug: "norte"}
	if err := svc.Create(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Active {
		t.Error("expected new clinic to be active")
	}
}

func TestCreate_RequiresName(t *testing.T) {
	svc := newTestService()
	if err := svc.Create(context.Background(), &Clinic{Slug: "norte"}); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestCreate_RejectsBadSlug(t *testing.T) {
	svc := newTestService()
	for _, slug := range []string{"", "No Caps", "with-dash", "x;drop"} {
		if err := svc.Create(context.Background(), &Clinic{Name: "C", Slug: slug}); err == nil {
			t.Errorf("expected error for slug %q", slug)
		}
	}
}

func TestCreate_RejectsDuplicateSlug(t *testing.T) {
	svc := newTestService()
	if err := svc.Create(context.Background(), &Clinic{Name: "A", Slug: "norte"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Create(context.Background(), &Clinic{Name: "B", Slug: "norte"}); err == nil {
		t.Error("expected error for duplicate slug")
	}
}

func TestSetActive(t *testing.T) {
	svc := newTestService()
	c := &Clinic{Name: "Clinica Sur", Slug: "sur"}
	if err := svc.Create(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SetActive(context.Background(), c.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.Get(context.Background(), c.ID)
	if got.Active {
		t.Error("expected clinic to be suspended")
	}
}
