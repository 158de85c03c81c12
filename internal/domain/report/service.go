package report

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/clinical"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
	"github.com/clinicdesk/clinicdesk/pkg/textfilter"
)

type ProfileSource interface {
	GetProfile(ctx context.Context, ownerID uuid.UUID) (*identity.Profile, error)
}

type PatientDirectory interface {
	Get(ctx context.Context, ownerID, id uuid.UUID) (*patient.Patient, error)
}

type ClinicalSource interface {
	LatestRecord(ctx context.Context, ownerID, patientID uuid.UUID) (*clinical.Record, error)
	ListEvolutions(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, search string) ([]*clinical.Evolution, error)
}

type AppointmentSource interface {
	ListForPatient(ctx context.Context, ownerID, patientID uuid.UUID) ([]*scheduling.Appointment, error)
}

// Sources are the services a preview reads from.
type Sources struct {
	Profiles     ProfileSource
	Patients     PatientDirectory
	Clinical     ClinicalSource
	Appointments AppointmentSource
}

type Service struct {
	repo    Repository
	src     Sources
	metrics *metrics.Collector
	now     func() time.Time
}

func NewService(repo Repository, src Sources, col *metrics.Collector) *Service {
	return &Service{repo: repo, src: src, metrics: col, now: time.Now}
}

// -- Templates --

func (s *Service) Create(ctx context.Context, t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.AvailableFields = FieldNames()
	return s.repo.Create(ctx, t)
}

func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*Template, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *Service) Update(ctx context.Context, t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.AvailableFields = FieldNames()
	return s.repo.Update(ctx, t)
}

func (s *Service) SetLetterhead(ctx context.Context, ownerID, id uuid.UUID, url string) (*Template, error) {
	return s.repo.SetLetterhead(ctx, ownerID, id, url)
}

func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.repo.Delete(ctx, ownerID, id)
}

// List returns the owner's templates newest first, keeping those whose name
// contains search.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, search string) ([]*Template, error) {
	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return textfilter.Filter(items, search, func(t *Template) []string {
		return []string{t.Name}
	}), nil
}

// -- Preview --

// Preview renders a saved template for the patient. A nil patient renders
// the patient fields with their fallback labels.
func (s *Service) Preview(ctx context.Context, ownerID, templateID uuid.UUID, patientID *uuid.UUID) (*Preview, error) {
	t, err := s.repo.GetByID(ctx, ownerID, templateID)
	if err != nil {
		return nil, err
	}
	p, err := s.render(ctx, ownerID, t.Body, patientID)
	if err != nil {
		return nil, err
	}
	p.TemplateID = &t.ID
	p.LetterheadURL = t.LetterheadURL
	return p, nil
}

// PreviewDraft renders a body that has not been saved yet.
func (s *Service) PreviewDraft(ctx context.Context, ownerID uuid.UUID, req PreviewRequest) (*Preview, error) {
	if strings.TrimSpace(req.Body) == "" {
		return nil, apperr.Invalid("body is required")
	}
	p, err := s.render(ctx, ownerID, req.Body, req.PatientID)
	if err != nil {
		return nil, err
	}
	p.LetterheadURL = req.LetterheadURL
	return p, nil
}

func (s *Service) render(ctx context.Context, ownerID uuid.UUID, body string, patientID *uuid.UUID) (*Preview, error) {
	values, err := s.gather(ctx, ownerID, patientID)
	if err != nil {
		return nil, err
	}

	unresolved := []string{}
	for _, name := range Placeholders(body) {
		if _, ok := values[name]; !ok {
			unresolved = append(unresolved, name)
		}
	}

	s.metrics.ReportRendered()
	return &Preview{
		PatientID:  patientID,
		Text:       Substitute(body, values),
		Values:     values,
		Unresolved: unresolved,
		RenderedAt: s.now().UTC(),
	}, nil
}

// gather collects the value of every catalogue field. Missing data falls
// back to the field's label.
func (s *Service) gather(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID) (map[string]string, error) {
	values := make(map[string]string, len(catalogue))

	profile, err := s.src.Profiles.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	values[FieldProfessional] = profile.Name
	values[FieldSpecialization] = profile.Specialization
	values[FieldCouncilRegistration] = profile.CouncilRegistration

	if patientID != nil {
		if err := s.gatherPatient(ctx, ownerID, *patientID, values); err != nil {
			return nil, err
		}
	}

	for _, f := range catalogue {
		if values[f.Name] == "" {
			values[f.Name] = f.fallback
		}
	}
	return values, nil
}

func (s *Service) gatherPatient(ctx context.Context, ownerID, patientID uuid.UUID, values map[string]string) error {
	p, err := s.src.Patients.Get(ctx, ownerID, patientID)
	if err != nil {
		return err
	}
	values[FieldPatientName] = p.Name
	if !p.BirthDate.IsZero() {
		values[FieldBirthDate] = p.BirthDate.Display()
	}

	rec, err := s.src.Clinical.LatestRecord(ctx, ownerID, patientID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
	case err != nil:
		return err
	default:
		values[FieldChiefComplaint] = rec.ChiefComplaint
		values[FieldDiagnosis] = rec.Diagnosis
		values[FieldAssessment] = rec.Assessment
	}

	appts, err := s.src.Appointments.ListForPatient(ctx, ownerID, patientID)
	if err != nil {
		return err
	}
	dates := make([]string, len(appts))
	for i, a := range appts {
		dates[i] = a.Date.Display()
	}
	values[FieldAppointmentDates] = strings.Join(dates, ", ")

	evos, err := s.src.Clinical.ListEvolutions(ctx, ownerID, &patientID, "")
	if err != nil {
		return err
	}
	dates = make([]string, len(evos))
	notes := make([]string, len(evos))
	for i, e := range evos {
		dates[i] = e.Date.Display()
		notes[i] = e.Description
	}
	values[FieldEvolutionDates] = strings.Join(dates, ", ")
	values[FieldEvolutionNotes] = strings.Join(notes, "\n\n")
	return nil
}
