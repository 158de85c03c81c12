package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
	"github.com/clinicdesk/clinicdesk/pkg/textfilter"
)

// MaxSlots caps how many appointments one replication request may create.
const MaxSlots = 200

// PatientDirectory resolves the owner's patients.
type PatientDirectory interface {
	Get(ctx context.Context, ownerID, id uuid.UUID) (*patient.Patient, error)
}

type Service struct {
	appointments AppointmentRepository
	careTypes    CareTypeRepository
	patients     PatientDirectory
	inTx         db.TxFunc
	metrics      *metrics.Collector
	now          func() time.Time
}

func NewService(appt AppointmentRepository, ct CareTypeRepository, patients PatientDirectory, inTx db.TxFunc, col *metrics.Collector) *Service {
	return &Service{
		appointments: appt,
		careTypes:    ct,
		patients:     patients,
		inTx:         inTx,
		metrics:      col,
		now:          time.Now,
	}
}

// -- Appointment --

// prepare normalizes and validates a, and fills an empty title with the
// linked patient's name.
func (s *Service) prepare(ctx context.Context, a *Appointment) error {
	a.Normalize()
	if a.PatientID != nil {
		p, err := s.patients.Get(ctx, a.OwnerID, *a.PatientID)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Invalid("patient_id does not reference one of your patients")
		}
		if err != nil {
			return err
		}
		if a.Title == "" {
			a.Title = p.Name
		}
	}
	return a.Validate()
}

// CreateAppointments stores the appointments described by req. All of them
// are written in one transaction; a single invalid slot rejects the batch.
func (s *Service) CreateAppointments(ctx context.Context, req *CreateRequest) ([]*Appointment, error) {
	if len(req.Slots) > MaxSlots {
		return nil, apperr.Invalid("at most %d slots may be replicated at once", MaxSlots)
	}
	appts := req.Expand()
	for i, a := range appts {
		if err := s.prepare(ctx, a); err != nil {
			if len(req.Slots) > 0 {
				return nil, fmt.Errorf("slot %d: %w", i+1, err)
			}
			return nil, err
		}
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		for _, a := range appts {
			if err := s.appointments.Create(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AppointmentsCreated(string(appts[0].PatientCategory), len(appts))
	return appts, nil
}

func (s *Service) GetAppointment(ctx context.Context, ownerID, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, ownerID, id)
}

func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment) error {
	if err := s.prepare(ctx, a); err != nil {
		return err
	}
	return s.appointments.Update(ctx, a)
}

func (s *Service) DeleteAppointment(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.appointments.Delete(ctx, ownerID, id)
}

// ListAppointments returns the owner's appointments inside dr whose title or
// category label contains search.
func (s *Service) ListAppointments(ctx context.Context, ownerID uuid.UUID, dr dateonly.Range, search string) ([]*Appointment, error) {
	if dr.Inverted() {
		return nil, apperr.Invalid("to must not be before from")
	}
	items, err := s.appointments.ListByOwner(ctx, ownerID, dr)
	if err != nil {
		return nil, err
	}
	return textfilter.Filter(items, search, func(a *Appointment) []string {
		return []string{a.Title, a.PatientCategory.Label()}
	}), nil
}

// Today lists the owner's appointments dated today.
func (s *Service) Today(ctx context.Context, ownerID uuid.UUID) ([]*Appointment, error) {
	today := dateonly.Of(s.now())
	return s.appointments.ListByOwner(ctx, ownerID, dateonly.Range{From: today, To: today})
}

// ListForPatient returns the patient's appointments newest first. Rows
// created without a patient link are matched by title.
func (s *Service) ListForPatient(ctx context.Context, ownerID, patientID uuid.UUID) ([]*Appointment, error) {
	p, err := s.patients.Get(ctx, ownerID, patientID)
	if err != nil {
		return nil, err
	}
	return s.appointments.ListForPatient(ctx, ownerID, p.ID, p.Name)
}

// -- CareType --

func (s *Service) CreateCareType(ctx context.Context, ct *CareType) error {
	if err := ct.Validate(); err != nil {
		return err
	}
	return s.careTypes.Create(ctx, ct)
}

func (s *Service) GetCareType(ctx context.Context, ownerID, id uuid.UUID) (*CareType, error) {
	return s.careTypes.GetByID(ctx, ownerID, id)
}

func (s *Service) UpdateCareType(ctx context.Context, ct *CareType) error {
	if err := ct.Validate(); err != nil {
		return err
	}
	return s.careTypes.Update(ctx, ct)
}

func (s *Service) DeleteCareType(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.careTypes.Delete(ctx, ownerID, id)
}

func (s *Service) ListCareTypes(ctx context.Context, ownerID uuid.UUID) ([]*CareType, error) {
	return s.careTypes.ListByOwner(ctx, ownerID)
}
