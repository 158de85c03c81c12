package scheduling

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	// ListByOwner returns appointments ordered by date then time.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, r dateonly.Range) ([]*Appointment, error)
	// ListForPatient returns appointments linked to patientID or, for rows
	// without a link, titled with the patient's name. Newest first.
	ListForPatient(ctx context.Context, ownerID, patientID uuid.UUID, patientName string) ([]*Appointment, error)
}

type CareTypeRepository interface {
	Create(ctx context.Context, ct *CareType) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*CareType, error)
	Update(ctx context.Context, ct *CareType) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*CareType, error)
}
