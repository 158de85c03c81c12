package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
	"github.com/clinicdesk/clinicdesk/pkg/textfilter"
)

type Service struct {
	repo    Repository
	metrics *metrics.Collector
	now     func() time.Time
}

func NewService(repo Repository, col *metrics.Collector) *Service {
	return &Service{repo: repo, metrics: col, now: time.Now}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	p.Normalize()
	if err := p.Validate(dateonly.Of(s.now())); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.metrics.PatientCreated()
	return nil
}

func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	p.Normalize()
	if err := p.Validate(dateonly.Of(s.now())); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.repo.Delete(ctx, ownerID, id)
}

// List returns the owner's patients ordered by name, keeping those whose name
// contains search.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, search string) ([]*Patient, error) {
	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return textfilter.Filter(items, search, func(p *Patient) []string {
		return []string{p.Name}
	}), nil
}

func (s *Service) Count(ctx context.Context, ownerID uuid.UUID) (int, error) {
	return s.repo.CountByOwner(ctx, ownerID)
}
