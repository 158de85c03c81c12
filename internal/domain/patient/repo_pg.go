package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

type repoPG struct{ pool db.Querier }

func NewRepoPG(pool db.Querier) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, owner_id, name, email, phone, cpf, birth_date, postal_code,
	street, number, complement, neighborhood, city, state, notes, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Email, &p.Phone, &p.CPF, &p.BirthDate,
		&p.PostalCode, &p.Street, &p.Number, &p.Complement, &p.Neighborhood, &p.City,
		&p.State, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, owner_id, name, email, phone, cpf, birth_date, postal_code,
			street, number, complement, neighborhood, city, state, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		p.ID, p.OwnerID, p.Name, p.Email, p.Phone, p.CPF, p.BirthDate, p.PostalCode,
		p.Street, p.Number, p.Complement, p.Neighborhood, p.City, p.State, p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("patient")
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patients SET name=$3, email=$4, phone=$5, cpf=$6, birth_date=$7, postal_code=$8,
			street=$9, number=$10, complement=$11, neighborhood=$12, city=$13, state=$14,
			notes=$15, updated_at=NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`,
		p.ID, p.OwnerID, p.Name, p.Email, p.Phone, p.CPF, p.BirthDate, p.PostalCode,
		p.Street, p.Number, p.Complement, p.Neighborhood, p.City, p.State, p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("patient")
	}
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient")
	}
	return nil
}

func (r *repoPG) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patients WHERE owner_id = $1 ORDER BY name ASC, created_at ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()
	items := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients WHERE owner_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}
