package expense

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
	"github.com/clinicdesk/clinicdesk/pkg/money"
)

// DefaultCategories are offered to every owner ahead of their own.
var DefaultCategories = []string{
	"Taxes", "Fees", "Supplies", "Travel", "Meals", "Rent",
	"Electricity", "Water", "Internet", "Phone", "Other",
}

// IsDefaultCategory reports whether name matches a default category,
// ignoring case.
func IsDefaultCategory(name string) bool {
	for _, d := range DefaultCategories {
		if strings.EqualFold(d, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// Expense maps to the expenses table.
type Expense struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	OwnerID       uuid.UUID     `db:"owner_id" json:"owner_id"`
	Description   string        `db:"description" json:"description"`
	Amount        float64       `db:"amount" json:"amount"`
	Date          dateonly.Date `db:"date" json:"date"`
	Category      string        `db:"category" json:"category"`
	PaymentMethod string        `db:"payment_method" json:"payment_method"`
	Notes         string        `db:"notes" json:"notes"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

func (e *Expense) Validate() error {
	e.Description = strings.TrimSpace(e.Description)
	e.Category = strings.TrimSpace(e.Category)
	e.PaymentMethod = strings.TrimSpace(e.PaymentMethod)

	var v apperr.Validator
	v.Check(e.Description != "", "description is required")
	v.Check(e.Amount > 0, "amount must be greater than 0")
	v.Check(money.Valid(e.Amount), "amount must have at most two decimal places and not exceed 9999999999.99")
	v.Check(e.Category != "", "category is required")
	v.Check(!e.Date.IsZero(), "date is required")
	return v.Err()
}

// Category maps to the expense_categories table. Default categories are
// synthesized with a nil ID and Default set.
type Category struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OwnerID   uuid.UUID `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	Default   bool      `db:"-" json:"default"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (c *Category) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	var v apperr.Validator
	v.Check(c.Name != "", "name is required")
	v.Check(!IsDefaultCategory(c.Name), "name matches a default category")
	return v.Err()
}
