package report

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
)

// Template maps to the report_templates table.
type Template struct {
	ID              uuid.UUID `db:"id" json:"id"`
	OwnerID         uuid.UUID `db:"owner_id" json:"owner_id"`
	Name            string    `db:"name" json:"name"`
	Body            string    `db:"body" json:"body"`
	AvailableFields []string  `db:"available_fields" json:"available_fields"`
	LetterheadURL   string    `db:"letterhead_url" json:"letterhead_url"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

func (t *Template) Validate() error {
	t.Name = strings.TrimSpace(t.Name)
	t.LetterheadURL = strings.TrimSpace(t.LetterheadURL)

	var v apperr.Validator
	v.Check(t.Name != "", "name is required")
	v.Check(utf8.RuneCountInString(t.Name) <= 255, "name must be at most 255 characters")
	v.Check(strings.TrimSpace(t.Body) != "", "body is required")
	return v.Err()
}

// PreviewRequest renders an unsaved body.
type PreviewRequest struct {
	Body          string     `json:"body"`
	LetterheadURL string     `json:"letterhead_url"`
	PatientID     *uuid.UUID `json:"patient_id,omitempty"`
}

// Preview is a template rendered for one patient.
type Preview struct {
	TemplateID    *uuid.UUID        `json:"template_id,omitempty"`
	PatientID     *uuid.UUID        `json:"patient_id,omitempty"`
	Text          string            `json:"text"`
	LetterheadURL string            `json:"letterhead_url"`
	Values        map[string]string `json:"values"`
	Unresolved    []string          `json:"unresolved"`
	RenderedAt    time.Time         `json:"rendered_at"`
}
