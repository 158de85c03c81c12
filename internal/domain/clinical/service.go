package clinical

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/textfilter"
)

// PatientDirectory resolves the owner's patients.
type PatientDirectory interface {
	Get(ctx context.Context, ownerID, id uuid.UUID) (*patient.Patient, error)
}

type Service struct {
	records    RecordRepository
	evolutions EvolutionRepository
	patients   PatientDirectory
}

func NewService(rec RecordRepository, evo EvolutionRepository, patients PatientDirectory) *Service {
	return &Service{records: rec, evolutions: evo, patients: patients}
}

// patientName checks that id is one of the owner's patients.
func (s *Service) patientName(ctx context.Context, ownerID, id uuid.UUID) (string, error) {
	p, err := s.patients.Get(ctx, ownerID, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", errForeignPatient
	}
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// -- Record --

func (s *Service) CreateRecord(ctx context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	name, err := s.patientName(ctx, r.OwnerID, r.PatientID)
	if err != nil {
		return err
	}
	if err := s.records.Create(ctx, r); err != nil {
		return err
	}
	r.PatientName = name
	return nil
}

func (s *Service) GetRecord(ctx context.Context, ownerID, id uuid.UUID) (*Record, error) {
	return s.records.GetByID(ctx, ownerID, id)
}

func (s *Service) UpdateRecord(ctx context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	name, err := s.patientName(ctx, r.OwnerID, r.PatientID)
	if err != nil {
		return err
	}
	if err := s.records.Update(ctx, r); err != nil {
		return err
	}
	r.PatientName = name
	return nil
}

func (s *Service) DeleteRecord(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.records.Delete(ctx, ownerID, id)
}

// ListRecords returns records newest first, optionally for one patient,
// keeping those whose patient name contains search.
func (s *Service) ListRecords(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, search string) ([]*Record, error) {
	items, err := s.records.ListByOwner(ctx, ownerID, patientID)
	if err != nil {
		return nil, err
	}
	return textfilter.Filter(items, search, func(r *Record) []string {
		return []string{r.PatientName}
	}), nil
}

// LatestRecord returns the most recent record of a patient.
func (s *Service) LatestRecord(ctx context.Context, ownerID, patientID uuid.UUID) (*Record, error) {
	items, err := s.records.ListByOwner(ctx, ownerID, &patientID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.NotFound("clinical record")
	}
	return items[0], nil
}

// -- Evolution --

func (s *Service) CreateEvolution(ctx context.Context, e *Evolution) error {
	if err := e.Validate(); err != nil {
		return err
	}
	name, err := s.patientName(ctx, e.OwnerID, e.PatientID)
	if err != nil {
		return err
	}
	if err := s.evolutions.Create(ctx, e); err != nil {
		return err
	}
	e.PatientName = name
	return nil
}

func (s *Service) GetEvolution(ctx context.Context, ownerID, id uuid.UUID) (*Evolution, error) {
	return s.evolutions.GetByID(ctx, ownerID, id)
}

func (s *Service) UpdateEvolution(ctx context.Context, e *Evolution) error {
	if err := e.Validate(); err != nil {
		return err
	}
	name, err := s.patientName(ctx, e.OwnerID, e.PatientID)
	if err != nil {
		return err
	}
	if err := s.evolutions.Update(ctx, e); err != nil {
		return err
	}
	e.PatientName = name
	return nil
}

func (s *Service) DeleteEvolution(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.evolutions.Delete(ctx, ownerID, id)
}

// ListEvolutions returns evolutions newest first, optionally for one
// patient, keeping those whose patient name contains search.
func (s *Service) ListEvolutions(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, search string) ([]*Evolution, error) {
	items, err := s.evolutions.ListByOwner(ctx, ownerID, patientID)
	if err != nil {
		return nil, err
	}
	return textfilter.Filter(items, search, func(e *Evolution) []string {
		return []string{e.PatientName}
	}), nil
}
