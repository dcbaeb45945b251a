package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medibook/medibook/internal/platform/db"
)

type directoryPG struct{ q db.Querier }

func NewDirectoryPG(pool *pgxpool.Pool) Directory { return &directoryPG{q: pool} }

const doctorCols = `d.id, d.user_id, d.specialization, d.experience, d.consultation_fee,
	d.available_days, d.available_time_slots, d.hospital_name, d.address, d.bio,
	d.is_available, d.ratings, d.total_reviews, d.created_at, d.updated_at`

func scanDoctor(row pgx.Row, extra ...any) (*Doctor, error) {
	var d Doctor
	dest := []any{&d.ID, &d.UserID, &d.Specialization, &d.Experience, &d.ConsultationFee,
		&d.AvailableDays, &d.AvailableTimeSlots, &d.HospitalName, &d.Address, &d.Bio,
		&d.IsAvailable, &d.Ratings, &d.TotalReviews, &d.CreatedAt, &d.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *directoryPG) findOne(ctx context.Context, where string, arg uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.q.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors d WHERE `+where, arg))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query doctor: %w", err)
	}
	return d, nil
}

func (r *directoryPG) FindByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return r.findOne(ctx, `d.id = $1`, id)
}

func (r *directoryPG) FindOwnedBy(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return r.findOne(ctx, `d.user_id = $1`, userID)
}

func (r *directoryPG) ListAvailable(ctx context.Context) ([]*AvailableDoctor, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+doctorCols+`, u.id, u.name, u.email, COALESCE(u.phone, ''), u.is_approved
		FROM doctors d
		JOIN users u ON u.id = d.user_id
		WHERE d.is_available AND u.is_approved
		ORDER BY d.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list available doctors: %w", err)
	}
	defer rows.Close()

	var out []*AvailableDoctor
	for rows.Next() {
		var u UserSummary
		d, err := scanDoctor(rows, &u.ID, &u.Name, &u.Email, &u.Phone, &u.IsApproved)
		if err != nil {
			return nil, fmt.Errorf("scan available doctor: %w", err)
		}
		out = append(out, &AvailableDoctor{Doctor: *d, User: u})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate available doctors: %w", err)
	}
	return out, nil
}

func (r *directoryPG) PatientsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*PatientProfile, error) {
	out := make(map[uuid.UUID]*PatientProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx,
		`SELECT id, name, email, COALESCE(phone, '') FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query patient profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p PatientProfile
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone); err != nil {
			return nil, fmt.Errorf("scan patient profile: %w", err)
		}
		out[p.ID] = &p
	}
	return out, rows.Err()
}

func (r *directoryPG) DoctorsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*DoctorProfile, error) {
	out := make(map[uuid.UUID]*DoctorProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	// LEFT JOIN: a doctor whose user row is gone still shows its specialization.
	rows, err := r.q.Query(ctx, `
		SELECT d.id, d.specialization, COALESCE(u.name, ''), COALESCE(u.email, '')
		FROM doctors d
		LEFT JOIN users u ON u.id = d.user_id
		WHERE d.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query doctor profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p DoctorProfile
		if err := rows.Scan(&p.ID, &p.Specialization, &p.Name, &p.Email); err != nil {
			return nil, fmt.Errorf("scan doctor profile: %w", err)
		}
		out[p.ID] = &p
	}
	return out, rows.Err()
}
