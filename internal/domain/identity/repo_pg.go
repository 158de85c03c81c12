package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// -- Account --

type accountRepoPG struct{ pool db.Querier }

func NewAccountRepoPG(pool db.Querier) AccountRepository { return &accountRepoPG{pool: pool} }

func (r *accountRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const accountCols = `id, email, password_hash, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepoPG) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO accounts (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		a.ID, a.Email, a.PasswordHash,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("account")
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *accountRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	a, err := scanAccount(r.conn(ctx).QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("account")
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *accountRepoPG) GetByEmail(ctx context.Context, email string) (*Account, error) {
	a, err := scanAccount(r.conn(ctx).QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("account")
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

func (r *accountRepoPG) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("account")
	}
	return nil
}

// -- Profile --

type profileRepoPG struct{ pool db.Querier }

func NewProfileRepoPG(pool db.Querier) ProfileRepository { return &profileRepoPG{pool: pool} }

func (r *profileRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *profileRepoPG) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, profession, specialization, council_registration, created_at, updated_at
		FROM profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Profession, &p.Specialization, &p.CouncilRegistration, &p.CreatedAt, &p.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("profile")
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepoPG) Upsert(ctx context.Context, p *Profile) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO profiles (id, name, profession, specialization, council_registration)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			profession = EXCLUDED.profession,
			specialization = EXCLUDED.specialization,
			council_registration = EXCLUDED.council_registration,
			updated_at = NOW()
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Profession, p.Specialization, p.CouncilRegistration,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return apperr.NotFound("account")
	}
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// -- PasswordReset --

type resetRepoPG struct{ pool db.Querier }

func NewResetRepoPG(pool db.Querier) ResetRepository { return &resetRepoPG{pool: pool} }

func (r *resetRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *resetRepoPG) Create(ctx context.Context, pr *PasswordReset) error {
	pr.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO password_resets (id, account_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		pr.ID, pr.AccountID, pr.TokenHash, pr.ExpiresAt,
	).Scan(&pr.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert password reset: %w", err)
	}
	return nil
}

func (r *resetRepoPG) GetByTokenHash(ctx context.Context, hash string) (*PasswordReset, error) {
	var pr PasswordReset
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, account_id, token_hash, expires_at, used_at, created_at
		FROM password_resets WHERE token_hash = $1`, hash,
	).Scan(&pr.ID, &pr.AccountID, &pr.TokenHash, &pr.ExpiresAt, &pr.UsedAt, &pr.CreatedAt)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("password reset")
	}
	if err != nil {
		return nil, fmt.Errorf("get password reset: %w", err)
	}
	return &pr, nil
}

// MarkUsed stamps the reset only if it was still unused, so a token cannot be
// redeemed twice by concurrent requests.
func (r *resetRepoPG) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE password_resets SET used_at = $2 WHERE id = $1 AND used_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("password reset")
	}
	return nil
}
