package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

type ProfileRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
}

type ResetRepository interface {
	Create(ctx context.Context, r *PasswordReset) error
	GetByTokenHash(ctx context.Context, hash string) (*PasswordReset, error)
	MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}
