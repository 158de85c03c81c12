package clinical

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

var errForeignPatient = apperr.Invalid("patient_id does not reference one of your patients")

// =========== Record Repository ===========

type recordRepoPG struct{ pool db.Querier }

func NewRecordRepoPG(pool db.Querier) RecordRepository { return &recordRepoPG{pool: pool} }

func (r *recordRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const recordCols = `r.id, r.owner_id, r.patient_id, p.name, r.chief_complaint, r.diagnosis,
	r.medications, r.assessment, r.considerations, r.created_at, r.updated_at`

const recordFrom = ` FROM clinical_records r JOIN patients p ON p.id = r.patient_id AND p.owner_id = r.owner_id`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.PatientID, &rec.PatientName, &rec.ChiefComplaint,
		&rec.Diagnosis, &rec.Medications, &rec.Assessment, &rec.Considerations,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recordRepoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO clinical_records (id, owner_id, patient_id, chief_complaint, diagnosis,
			medications, assessment, considerations)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		rec.ID, rec.OwnerID, rec.PatientID, rec.ChiefComplaint, rec.Diagnosis,
		rec.Medications, rec.Assessment, rec.Considerations,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return errForeignPatient
	}
	if err != nil {
		return fmt.Errorf("insert clinical record: %w", err)
	}
	return nil
}

func (r *recordRepoPG) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Record, error) {
	rec, err := scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+recordFrom+` WHERE r.id = $1 AND r.owner_id = $2`, id, ownerID))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("clinical record")
	}
	if err != nil {
		return nil, fmt.Errorf("get clinical record: %w", err)
	}
	return rec, nil
}

func (r *recordRepoPG) Update(ctx context.Context, rec *Record) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE clinical_records SET patient_id=$3, chief_complaint=$4, diagnosis=$5,
			medications=$6, assessment=$7, considerations=$8, updated_at=NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`,
		rec.ID, rec.OwnerID, rec.PatientID, rec.ChiefComplaint, rec.Diagnosis,
		rec.Medications, rec.Assessment, rec.Considerations,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	switch {
	case db.IsNoRows(err):
		return apperr.NotFound("clinical record")
	case db.IsForeignKeyViolation(err):
		return errForeignPatient
	case err != nil:
		return fmt.Errorf("update clinical record: %w", err)
	}
	return nil
}

func (r *recordRepoPG) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM clinical_records WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete clinical record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("clinical record")
	}
	return nil
}

func (r *recordRepoPG) ListByOwner(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID) ([]*Record, error) {
	query := `SELECT ` + recordCols + recordFrom + ` WHERE r.owner_id = $1`
	args := []interface{}{ownerID}
	if patientID != nil {
		query += ` AND r.patient_id = $2`
		args = append(args, *patientID)
	}
	query += ` ORDER BY r.created_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clinical records: %w", err)
	}
	defer rows.Close()
	items := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clinical record: %w", err)
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

// =========== Evolution Repository ===========

type evolutionRepoPG struct{ pool db.Querier }

func NewEvolutionRepoPG(pool db.Querier) EvolutionRepository { return &evolutionRepoPG{pool: pool} }

func (r *evolutionRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const evolutionCols = `e.id, e.owner_id, e.patient_id, p.name, e.date, e.description,
	e.next_appointment, e.created_at, e.updated_at`

const evolutionFrom = ` FROM evolutions e JOIN patients p ON p.id = e.patient_id AND p.owner_id = e.owner_id`

func scanEvolution(row pgx.Row) (*Evolution, error) {
	var e Evolution
	err := row.Scan(&e.ID, &e.OwnerID, &e.PatientID, &e.PatientName, &e.Date, &e.Description,
		&e.NextAppointment, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *evolutionRepoPG) Create(ctx context.Context, e *Evolution) error {
	e.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO evolutions (id, owner_id, patient_id, date, description, next_appointment)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		e.ID, e.OwnerID, e.PatientID, e.Date, e.Description, e.NextAppointment,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return errForeignPatient
	}
	if err != nil {
		return fmt.Errorf("insert evolution: %w", err)
	}
	return nil
}

func (r *evolutionRepoPG) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Evolution, error) {
	e, err := scanEvolution(r.conn(ctx).QueryRow(ctx,
		`SELECT `+evolutionCols+evolutionFrom+` WHERE e.id = $1 AND e.owner_id = $2`, id, ownerID))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("evolution")
	}
	if err != nil {
		return nil, fmt.Errorf("get evolution: %w", err)
	}
	return e, nil
}

func (r *evolutionRepoPG) Update(ctx context.Context, e *Evolution) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE evolutions SET patient_id=$3, date=$4, description=$5, next_appointment=$6,
			updated_at=NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`,
		e.ID, e.OwnerID, e.PatientID, e.Date, e.Description, e.NextAppointment,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	switch {
	case db.IsNoRows(err):
		return apperr.NotFound("evolution")
	case db.IsForeignKeyViolation(err):
		return errForeignPatient
	case err != nil:
		return fmt.Errorf("update evolution: %w", err)
	}
	return nil
}

func (r *evolutionRepoPG) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM evolutions WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete evolution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("evolution")
	}
	return nil
}

func (r *evolutionRepoPG) ListByOwner(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID) ([]*Evolution, error) {
	query := `SELECT ` + evolutionCols + evolutionFrom + ` WHERE e.owner_id = $1`
	args := []interface{}{ownerID}
	if patientID != nil {
		query += ` AND e.patient_id = $2`
		args = append(args, *patientID)
	}
	query += ` ORDER BY e.date DESC, e.created_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list evolutions: %w", err)
	}
	defer rows.Close()
	items := []*Evolution{}
	for rows.Next() {
		e, err := scanEvolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evolution: %w", err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
