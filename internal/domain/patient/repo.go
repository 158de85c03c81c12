package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists patients. Every method is scoped by owner; rows of
// another owner behave as missing.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Patient, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}
