package clinical

import (
	"context"

	"github.com/google/uuid"
)

// RecordRepository persists clinical records. Lists carry the patient name.
type RecordRepository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	// ListByOwner returns records newest first. A non-nil patientID
	// restricts the list to that patient.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID) ([]*Record, error)
}

// EvolutionRepository persists evolutions. Lists carry the patient name.
type EvolutionRepository interface {
	Create(ctx context.Context, e *Evolution) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Evolution, error)
	Update(ctx context.Context, e *Evolution) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	// ListByOwner returns evolutions by date, newest first. A non-nil
	// patientID restricts the list to that patient.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID) ([]*Evolution, error)
}
