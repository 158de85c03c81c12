package expense

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
)

type ExpenseRepository interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Expense, error)
	Update(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	// ListByOwner returns expenses dated inside r, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, r dateonly.Range) ([]*Expense, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Category, error)
}
