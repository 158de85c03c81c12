package scheduling

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
	"github.com/clinicdesk/clinicdesk/pkg/money"
)

// Category says who pays for an appointment.
type Category string

const (
	CategoryInsurance Category = "insurance"
	CategoryPrivate   Category = "private"
)

func (c Category) Valid() bool {
	return c == CategoryInsurance || c == CategoryPrivate
}

// Label is the display name searched by the appointment list.
func (c Category) Label() string {
	switch c {
	case CategoryInsurance:
		return "Insurance"
	case CategoryPrivate:
		return "Private"
	}
	return string(c)
}

var timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Appointment maps to the appointments table.
type Appointment struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	OwnerID         uuid.UUID     `db:"owner_id" json:"owner_id"`
	PatientID       *uuid.UUID    `db:"patient_id" json:"patient_id"`
	Title           string        `db:"title" json:"title"`
	Description     string        `db:"description" json:"description"`
	Date            dateonly.Date `db:"date" json:"date"`
	Time            string        `db:"time" json:"time"`
	Duration        int           `db:"duration" json:"duration"`
	Amount          float64       `db:"amount" json:"amount"`
	CareType        string        `db:"care_type" json:"care_type"`
	PatientCategory Category      `db:"patient_category" json:"patient_category"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// Normalize trims text fields and cuts "HH:MM:SS" times down to "HH:MM".
func (a *Appointment) Normalize() {
	a.Title = strings.TrimSpace(a.Title)
	a.CareType = strings.TrimSpace(a.CareType)
	a.Time = strings.TrimSpace(a.Time)
	if len(a.Time) == 8 && a.Time[5] == ':' {
		a.Time = a.Time[:5]
	}
	a.PatientCategory = Category(strings.ToLower(strings.TrimSpace(string(a.PatientCategory))))
	if a.PatientID != nil && *a.PatientID == uuid.Nil {
		a.PatientID = nil
	}
}

func (a *Appointment) Validate() error {
	var v apperr.Validator
	v.Check(a.Title != "", "title is required")
	v.Check(!a.Date.IsZero(), "date is required")
	v.Check(timeOfDay.MatchString(a.Time), "time must be HH:MM")
	v.Check(a.Duration > 0, "duration must be greater than 0")
	v.Check(a.Amount >= 0, "amount must be >= 0")
	v.Check(money.Valid(a.Amount), "amount must have at most two decimal places and not exceed 9999999999.99")
	v.Check(a.CareType != "", "care_type is required")
	v.Check(a.PatientCategory.Valid(), `patient_category must be "insurance" or "private"`)
	return v.Err()
}

// Start is the appointment's date and time of day in loc.
func (a *Appointment) Start(loc *time.Location) time.Time {
	t, err := time.ParseInLocation(time.DateOnly+" 15:04", a.Date.String()+" "+a.Time, loc)
	if err != nil {
		return a.Date.Time
	}
	return t
}

// Slot is one date/time at which a replicated appointment is booked.
type Slot struct {
	Date dateonly.Date `json:"date"`
	Time string        `json:"time"`
}

// CreateRequest is the body of POST /appointments. With Slots set, one
// appointment per slot is created sharing every other field.
type CreateRequest struct {
	Appointment
	Slots []Slot `json:"slots,omitempty"`
}

// Expand returns the appointments described by the request.
func (r *CreateRequest) Expand() []*Appointment {
	if len(r.Slots) == 0 {
		a := r.Appointment
		return []*Appointment{&a}
	}
	out := make([]*Appointment, 0, len(r.Slots))
	for _, sl := range r.Slots {
		a := r.Appointment
		a.Date = sl.Date
		a.Time = sl.Time
		out = append(out, &a)
	}
	return out
}

// CareType is an owner-defined kind of appointment, e.g. "Consultation".
type CareType struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OwnerID   uuid.UUID `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (ct *CareType) Validate() error {
	ct.Name = strings.TrimSpace(ct.Name)
	var v apperr.Validator
	v.Check(ct.Name != "", "name is required")
	return v.Err()
}
