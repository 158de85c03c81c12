package expense

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
)

// =========== Expense Repository ===========

type expenseRepoPG struct{ pool db.Querier }

func NewExpenseRepoPG(pool db.Querier) ExpenseRepository { return &expenseRepoPG{pool: pool} }

func (r *expenseRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const expenseCols = `id, owner_id, description, amount::float8, date, category, payment_method,
	notes, created_at, updated_at`

func scanExpense(row pgx.Row) (*Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.OwnerID, &e.Description, &e.Amount, &e.Date, &e.Category,
		&e.PaymentMethod, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *expenseRepoPG) Create(ctx context.Context, e *Expense) error {
	e.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO expenses (id, owner_id, description, amount, date, category, payment_method, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		e.ID, e.OwnerID, e.Description, e.Amount, e.Date, e.Category, e.PaymentMethod, e.Notes,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *expenseRepoPG) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Expense, error) {
	e, err := scanExpense(r.conn(ctx).QueryRow(ctx,
		`SELECT `+expenseCols+` FROM expenses WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("expense")
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *expenseRepoPG) Update(ctx context.Context, e *Expense) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE expenses SET description=$3, amount=$4, date=$5, category=$6, payment_method=$7,
			notes=$8, updated_at=NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`,
		e.ID, e.OwnerID, e.Description, e.Amount, e.Date, e.Category, e.PaymentMethod, e.Notes,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("expense")
	}
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

func (r *expenseRepoPG) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("expense")
	}
	return nil
}

func (r *expenseRepoPG) ListByOwner(ctx context.Context, ownerID uuid.UUID, dr dateonly.Range) ([]*Expense, error) {
	query := `SELECT ` + expenseCols + ` FROM expenses WHERE owner_id = $1`
	args := []interface{}{ownerID}
	idx := 2

	if !dr.From.IsZero() {
		query += fmt.Sprintf(` AND date >= $%d`, idx)
		args = append(args, dr.From)
		idx++
	}
	if !dr.To.IsZero() {
		query += fmt.Sprintf(` AND date <= $%d`, idx)
		args = append(args, dr.To)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	items := []*Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// =========== Category Repository ===========

type categoryRepoPG struct{ pool db.Querier }

func NewCategoryRepoPG(pool db.Querier) CategoryRepository { return &categoryRepoPG{pool: pool} }

func (r *categoryRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const categoryCols = `id, owner_id, name, created_at, updated_at`

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepoPG) Create(ctx context.Context, c *Category) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO expense_categories (id, owner_id, name) VALUES ($1,$2,$3)
		RETURNING created_at, updated_at`,
		c.ID, c.OwnerID, c.Name,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("expense category")
	}
	if err != nil {
		return fmt.Errorf("insert expense category: %w", err)
	}
	return nil
}

func (r *categoryRepoPG) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Category, error) {
	c, err := scanCategory(r.conn(ctx).QueryRow(ctx,
		`SELECT `+categoryCols+` FROM expense_categories WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("expense category")
	}
	if err != nil {
		return nil, fmt.Errorf("get expense category: %w", err)
	}
	return c, nil
}

func (r *categoryRepoPG) Update(ctx context.Context, c *Category) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE expense_categories SET name=$3, updated_at=NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`,
		c.ID, c.OwnerID, c.Name,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	switch {
	case db.IsNoRows(err):
		return apperr.NotFound("expense category")
	case db.IsUniqueViolation(err):
		return apperr.Conflict("expense category")
	case err != nil:
		return fmt.Errorf("update expense category: %w", err)
	}
	return nil
}

func (r *categoryRepoPG) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM expense_categories WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete expense category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("expense category")
	}
	return nil
}

func (r *categoryRepoPG) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Category, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+categoryCols+` FROM expense_categories WHERE owner_id = $1 ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expense categories: %w", err)
	}
	defer rows.Close()
	items := []*Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
