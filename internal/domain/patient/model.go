package patient

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/postalcode"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
)

// Patient maps to the patients table.
type Patient struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	OwnerID      uuid.UUID     `db:"owner_id" json:"owner_id"`
	Name         string        `db:"name" json:"name"`
	Email        string        `db:"email" json:"email"`
	Phone        string        `db:"phone" json:"phone"`
	CPF          string        `db:"cpf" json:"cpf"`
	BirthDate    dateonly.Date `db:"birth_date" json:"birth_date"`
	PostalCode   string        `db:"postal_code" json:"postal_code"`
	Street       string        `db:"street" json:"street"`
	Number       string        `db:"number" json:"number"`
	Complement   string        `db:"complement" json:"complement"`
	Neighborhood string        `db:"neighborhood" json:"neighborhood"`
	City         string        `db:"city" json:"city"`
	State        string        `db:"state" json:"state"`
	Notes        string        `db:"notes" json:"notes"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// Normalize trims free-text fields, upper-cases the state and reduces the
// postal code to its digits when it has a valid shape.
func (p *Patient) Normalize() {
	for _, f := range []*string{
		&p.Name, &p.Email, &p.Phone, &p.CPF, &p.PostalCode, &p.Street, &p.Number,
		&p.Complement, &p.Neighborhood, &p.City, &p.State,
	} {
		*f = strings.TrimSpace(*f)
	}
	p.State = strings.ToUpper(p.State)
	if code, err := postalcode.Normalize(p.PostalCode); err == nil {
		p.PostalCode = code
	}
}

// Validate checks the record against today's date.
func (p *Patient) Validate(today dateonly.Date) error {
	var v apperr.Validator
	v.Check(p.Name != "", "name is required")
	v.Check(utf8.RuneCountInString(p.Name) <= 255, "name must be at most 255 characters")
	if p.Email != "" {
		_, err := mail.ParseAddress(p.Email)
		v.Check(err == nil, "email is invalid")
	}
	if p.PostalCode != "" {
		_, err := postalcode.Normalize(p.PostalCode)
		v.Check(err == nil, "postal_code must have 8 digits")
	}
	v.Check(p.State == "" || len(p.State) == 2, "state must be a 2-letter code")
	v.Check(p.BirthDate.IsZero() || !p.BirthDate.After(today), "birth_date cannot be in the future")
	return v.Err()
}
