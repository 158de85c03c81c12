package expense

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
	"github.com/clinicdesk/clinicdesk/pkg/textfilter"
)

type Service struct {
	expenses   ExpenseRepository
	categories CategoryRepository
	metrics    *metrics.Collector
}

func NewService(exp ExpenseRepository, cat CategoryRepository, col *metrics.Collector) *Service {
	return &Service{expenses: exp, categories: cat, metrics: col}
}

// Filter narrows an expense listing.
type Filter struct {
	Range    dateonly.Range
	Category string
	Search   string
}

// -- Expense --

func (s *Service) CreateExpense(ctx context.Context, e *Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.expenses.Create(ctx, e); err != nil {
		return err
	}
	s.metrics.ExpenseCreated()
	return nil
}

func (s *Service) GetExpense(ctx context.Context, ownerID, id uuid.UUID) (*Expense, error) {
	return s.expenses.GetByID(ctx, ownerID, id)
}

func (s *Service) UpdateExpense(ctx context.Context, e *Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return s.expenses.Update(ctx, e)
}

func (s *Service) DeleteExpense(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.expenses.Delete(ctx, ownerID, id)
}

// ListExpenses returns the owner's expenses newest first, restricted by f.
// The category filter is an exact, case-insensitive match; the search is a
// substring match on the description.
func (s *Service) ListExpenses(ctx context.Context, ownerID uuid.UUID, f Filter) ([]*Expense, error) {
	if f.Range.Inverted() {
		return nil, apperr.Invalid("to must not be before from")
	}
	items, err := s.expenses.ListByOwner(ctx, ownerID, f.Range)
	if err != nil {
		return nil, err
	}
	if cat := strings.TrimSpace(f.Category); cat != "" {
		kept := items[:0:0]
		for _, e := range items {
			if strings.EqualFold(e.Category, cat) {
				kept = append(kept, e)
			}
		}
		items = kept
	}
	return textfilter.Filter(items, f.Search, func(e *Expense) []string {
		return []string{e.Description}
	}), nil
}

// -- Category --

// ListCategories returns the default categories followed by the owner's own,
// the latter ordered by name.
func (s *Service) ListCategories(ctx context.Context, ownerID uuid.UUID) ([]*Category, error) {
	custom, err := s.categories.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]*Category, 0, len(DefaultCategories)+len(custom))
	for _, name := range DefaultCategories {
		out = append(out, &Category{OwnerID: ownerID, Name: name, Default: true})
	}
	for _, c := range custom {
		if !IsDefaultCategory(c.Name) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) CreateCategory(ctx context.Context, c *Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.categories.Create(ctx, c)
}

func (s *Service) GetCategory(ctx context.Context, ownerID, id uuid.UUID) (*Category, error) {
	return s.categories.GetByID(ctx, ownerID, id)
}

func (s *Service) UpdateCategory(ctx context.Context, c *Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.categories.Update(ctx, c)
}

func (s *Service) DeleteCategory(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.categories.Delete(ctx, ownerID, id)
}
