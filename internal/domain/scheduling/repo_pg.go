package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
)

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool db.Querier }

func NewAppointmentRepoPG(pool db.Querier) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const apptCols = `id, owner_id, patient_id, title, description, date, time, duration,
	amount::float8, care_type, patient_category, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.OwnerID, &a.PatientID, &a.Title, &a.Description, &a.Date, &a.Time,
		&a.Duration, &a.Amount, &a.CareType, &a.PatientCategory, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	items := []*Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, owner_id, patient_id, title, description, date, time,
			duration, amount, care_type, patient_category)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		a.ID, a.OwnerID, a.PatientID, a.Title, a.Description, a.Date, a.Time,
		a.Duration, a.Amount, a.CareType, string(a.PatientCategory),
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("appointment")
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET patient_id=$3, title=$4, description=$5, date=$6, time=$7,
			duration=$8, amount=$9, care_type=$10, patient_category=$11, updated_at=NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`,
		a.ID, a.OwnerID, a.PatientID, a.Title, a.Description, a.Date, a.Time,
		a.Duration, a.Amount, a.CareType, string(a.PatientCategory),
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("appointment")
	}
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment")
	}
	return nil
}

func (r *appointmentRepoPG) ListByOwner(ctx context.Context, ownerID uuid.UUID, dr dateonly.Range) ([]*Appointment, error) {
	query := `SELECT ` + apptCols + ` FROM appointments WHERE owner_id = $1`
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
	query += ` ORDER BY date ASC, time ASC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return collectAppointments(rows)
}

func (r *appointmentRepoPG) ListForPatient(ctx context.Context, ownerID, patientID uuid.UUID, patientName string) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE owner_id = $1 AND (patient_id = $2 OR (patient_id IS NULL AND title = $3))
		ORDER BY date DESC, time DESC`, ownerID, patientID, patientName)
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	return collectAppointments(rows)
}

// =========== CareType Repository ===========

type careTypeRepoPG struct{ pool db.Querier }

func NewCareTypeRepoPG(pool db.Querier) CareTypeRepository {
	return &careTypeRepoPG{pool: pool}
}

func (r *careTypeRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const careTypeCols = `id, owner_id, name, created_at, updated_at`

func scanCareType(row pgx.Row) (*CareType, error) {
	var ct CareType
	if err := row.Scan(&ct.ID, &ct.OwnerID, &ct.Name, &ct.CreatedAt, &ct.UpdatedAt); err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *careTypeRepoPG) Create(ctx context.Context, ct *CareType) error {
	ct.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO care_types (id, owner_id, name) VALUES ($1,$2,$3)
		RETURNING created_at, updated_at`,
		ct.ID, ct.OwnerID, ct.Name,
	).Scan(&ct.CreatedAt, &ct.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("care type")
	}
	if err != nil {
		return fmt.Errorf("insert care type: %w", err)
	}
	return nil
}

func (r *careTypeRepoPG) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*CareType, error) {
	ct, err := scanCareType(r.conn(ctx).QueryRow(ctx,
		`SELECT `+careTypeCols+` FROM care_types WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("care type")
	}
	if err != nil {
		return nil, fmt.Errorf("get care type: %w", err)
	}
	return ct, nil
}

func (r *careTypeRepoPG) Update(ctx context.Context, ct *CareType) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE care_types SET name=$3, updated_at=NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`,
		ct.ID, ct.OwnerID, ct.Name,
	).Scan(&ct.CreatedAt, &ct.UpdatedAt)
	switch {
	case db.IsNoRows(err):
		return apperr.NotFound("care type")
	case db.IsUniqueViolation(err):
		return apperr.Conflict("care type")
	case err != nil:
		return fmt.Errorf("update care type: %w", err)
	}
	return nil
}

func (r *careTypeRepoPG) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM care_types WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete care type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("care type")
	}
	return nil
}

func (r *careTypeRepoPG) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*CareType, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+careTypeCols+` FROM care_types WHERE owner_id = $1 ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list care types: %w", err)
	}
	defer rows.Close()
	items := []*CareType{}
	for rows.Next() {
		ct, err := scanCareType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan care type: %w", err)
		}
		items = append(items, ct)
	}
	return items, rows.Err()
}
