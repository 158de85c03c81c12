package report

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

const templateCols = `id, owner_id, name, body, available_fields, COALESCE(letterhead_url, ''), created_at, updated_at`

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Body, &t.AvailableFields, &t.LetterheadURL,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) Create(ctx context.Context, t *Template) error {
	t.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO report_templates (id, owner_id, name, body, available_fields, letterhead_url)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING created_at, updated_at`,
		t.ID, t.OwnerID, t.Name, t.Body, t.AvailableFields, t.LetterheadURL,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert report template: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Template, error) {
	t, err := scanTemplate(r.conn(ctx).QueryRow(ctx,
		`SELECT `+templateCols+` FROM report_templates WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("report template")
	}
	if err != nil {
		return nil, fmt.Errorf("get report template: %w", err)
	}
	return t, nil
}

func (r *repoPG) Update(ctx context.Context, t *Template) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE report_templates SET name=$3, body=$4, available_fields=$5,
			letterhead_url=NULLIF($6, ''), updated_at=NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`,
		t.ID, t.OwnerID, t.Name, t.Body, t.AvailableFields, t.LetterheadURL,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("report template")
	}
	if err != nil {
		return fmt.Errorf("update report template: %w", err)
	}
	return nil
}

func (r *repoPG) SetLetterhead(ctx context.Context, ownerID, id uuid.UUID, url string) (*Template, error) {
	t, err := scanTemplate(r.conn(ctx).QueryRow(ctx, `
		UPDATE report_templates SET letterhead_url=NULLIF($3, ''), updated_at=NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING `+templateCols, id, ownerID, url))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("report template")
	}
	if err != nil {
		return nil, fmt.Errorf("set letterhead: %w", err)
	}
	return t, nil
}

func (r *repoPG) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM report_templates WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete report template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("report template")
	}
	return nil
}

func (r *repoPG) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Template, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+templateCols+` FROM report_templates WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list report templates: %w", err)
	}
	defer rows.Close()

	items := []*Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report template: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
