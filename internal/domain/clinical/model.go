package clinical

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
)

// Record maps to the clinical_records table: the intake sheet of a patient.
type Record struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OwnerID        uuid.UUID `db:"owner_id" json:"owner_id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	PatientName    string    `db:"-" json:"patient_name"`
	ChiefComplaint string    `db:"chief_complaint" json:"chief_complaint"`
	Diagnosis      string    `db:"diagnosis" json:"diagnosis"`
	Medications    string    `db:"medications" json:"medications"`
	Assessment     string    `db:"assessment" json:"assessment"`
	Considerations string    `db:"considerations" json:"considerations"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

func (r *Record) Validate() error {
	var v apperr.Validator
	v.Check(r.PatientID != uuid.Nil, "patient_id is required")
	return v.Err()
}

// Evolution maps to the evolutions table: one dated progress note.
type Evolution struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	OwnerID         uuid.UUID     `db:"owner_id" json:"owner_id"`
	PatientID       uuid.UUID     `db:"patient_id" json:"patient_id"`
	PatientName     string        `db:"-" json:"patient_name"`
	Date            dateonly.Date `db:"date" json:"date"`
	Description     string        `db:"description" json:"description"`
	NextAppointment dateonly.Date `db:"next_appointment" json:"next_appointment"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

func (e *Evolution) Validate() error {
	e.Description = strings.TrimSpace(e.Description)
	var v apperr.Validator
	v.Check(e.PatientID != uuid.Nil, "patient_id is required")
	v.Check(!e.Date.IsZero(), "date is required")
	v.Check(e.Description != "", "description is required")
	v.Check(e.NextAppointment.IsZero() || !e.NextAppointment.Before(e.Date),
		"next_appointment must not be before date")
	return v.Err()
}
