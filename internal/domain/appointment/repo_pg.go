package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medibook/medibook/internal/platform/db"
	"github.com/medibook/medibook/pkg/pagination"
)

// SlotConstraint is the unique constraint on (doctor_id, appointment_date,
// time_slot) declared in migrations/001_core.sql.
const SlotConstraint = "appointments_doctor_date_slot_key"

const feeConstraint = "appointments_consultation_fee_check"

type repoPG struct{ q db.Querier }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{q: pool} }

const apptCols = `id, patient_id, doctor_id, appointment_date, time_slot, status,
	payment_status, consultation_fee, version_id, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var date time.Time
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &date, &a.TimeSlot, &a.Status,
		&a.PaymentStatus, &a.ConsultationFee, &a.VersionID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.AppointmentDate = DateOf(date)
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	row := r.q.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, appointment_date, time_slot,
			status, payment_status, consultation_fee)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING version_id, created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.AppointmentDate.Time, a.TimeSlot,
		a.Status, a.PaymentStatus, a.ConsultationFee)
	if err := row.Scan(&a.VersionID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err, SlotConstraint) {
			return ErrSlotTaken
		}
		if db.IsCheckViolation(err, feeConstraint) {
			return ErrInvalidFee
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.q.QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (r *repoPG) SlotTaken(ctx context.Context, key SlotKey) (bool, error) {
	var taken bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND appointment_date = $2 AND time_slot = $3)`,
		key.DoctorID, key.Date.Time, key.TimeSlot).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return taken, nil
}

func (r *repoPG) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	a, err := scanAppointment(r.q.QueryRow(ctx, `
		UPDATE appointments
		SET status = $3, version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+apptCols,
		id, from, to))
	if err == nil {
		return a, nil
	}
	if !db.IsNoRows(err) {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	// Nothing matched: either the row is gone or its status moved on.
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check appointment: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrStatusChanged
}

func (r *repoPG) list(ctx context.Context, where string, page pagination.Params, args ...any) ([]*Appointment, error) {
	query := `SELECT ` + apptCols + ` FROM appointments`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY created_at DESC, id ` + page.SQL()

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	items := []*Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return items, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, page pagination.Params) ([]*Appointment, error) {
	return r.list(ctx, `patient_id = $1`, page, patientID)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, page pagination.Params) ([]*Appointment, error) {
	return r.list(ctx, `doctor_id = $1`, page, doctorID)
}

func (r *repoPG) ListAll(ctx context.Context, page pagination.Params) ([]*Appointment, error) {
	return r.list(ctx, ``, page)
}
