package identity

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSignupDisabled     = errors.New("sign-up is disabled")
	ErrInvalidResetToken  = errors.New("reset token is invalid or has expired")
)

// Account maps to the accounts table. Its id is the owner id of every row
// the practitioner creates.
type Account struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// NormalizeEmail lower-cases and trims an address for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Credentials is the sign-up and login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Credentials) Validate() error {
	c.Email = NormalizeEmail(c.Email)
	var v apperr.Validator
	if c.Email == "" {
		v.Check(false, "email is required")
	} else {
		_, err := mail.ParseAddress(c.Email)
		v.Check(err == nil, "email is not a valid address")
	}
	v.Check(auth.ValidatePassword(c.Password) == nil, auth.ErrWeakPassword.Error())
	return v.Err()
}

// Profile maps to the profiles table. It shares its id with the account.
type Profile struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	Email               string    `db:"-" json:"email"`
	Name                string    `db:"name" json:"name"`
	Profession          string    `db:"profession" json:"profession"`
	Specialization      string    `db:"specialization" json:"specialization"`
	CouncilRegistration string    `db:"council_registration" json:"council_registration"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

func (p *Profile) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Profession = strings.TrimSpace(p.Profession)
	p.Specialization = strings.TrimSpace(p.Specialization)
	p.CouncilRegistration = strings.TrimSpace(p.CouncilRegistration)

	var v apperr.Validator
	v.Check(utf8.RuneCountInString(p.Name) <= 255, "name must be at most 255 characters")
	v.Check(utf8.RuneCountInString(p.Profession) <= 255, "profession must be at most 255 characters")
	v.Check(utf8.RuneCountInString(p.Specialization) <= 255, "specialization must be at most 255 characters")
	v.Check(utf8.RuneCountInString(p.CouncilRegistration) <= 100, "council_registration must be at most 100 characters")
	return v.Err()
}

// PasswordReset maps to the password_resets table. Only the SHA-256 of the
// token is stored.
type PasswordReset struct {
	ID        uuid.UUID  `db:"id"`
	AccountID uuid.UUID  `db:"account_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// Usable reports whether the reset can still be redeemed at now.
func (r *PasswordReset) Usable(now time.Time) bool {
	return r.UsedAt == nil && now.Before(r.ExpiresAt)
}

// ResetRequest starts a password reset.
type ResetRequest struct {
	Email string `json:"email"`
}

// ResetConfirmation completes a password reset.
type ResetConfirmation struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}
