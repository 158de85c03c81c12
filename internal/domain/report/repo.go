package report

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Template, error)
	Update(ctx context.Context, t *Template) error
	SetLetterhead(ctx context.Context, ownerID, id uuid.UUID, url string) (*Template, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Template, error)
}
