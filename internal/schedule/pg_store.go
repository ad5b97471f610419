package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore persists requests in Postgres for multi-process deployments.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const requestColumns = `
	id, patient_name, patient_phone, patient_email,
	doctor_id, doctor_name, visit_date, start_time, duration_min,
	type, status, symptoms, notes, priority, booking_source,
	created_at, updated_at, decline_reason
`

func scanRequest(row pgx.Row) (*AppointmentRequest, error) {
	var r AppointmentRequest

	err := row.Scan(
		&r.ID,
		&r.PatientName,
		&r.PatientPhone,
		&r.PatientEmail,
		&r.DoctorID,
		&r.DoctorName,
		&r.Date,
		&r.Time,
		&r.DurationMin,
		&r.Type,
		&r.Status,
		&r.Symptoms,
		&r.Notes,
		&r.Priority,
		&r.BookingSource,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.DeclineReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &r, nil
}

func (s *PgStore) GetRequestByID(ctx context.Context, id string) (*AppointmentRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM appointment_requests
		WHERE id = $1
	`, id)
	return scanRequest(row)
}

func (s *PgStore) ListRequests(ctx context.Context) ([]AppointmentRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM appointment_requests
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRequests(rows)
}

func (s *PgStore) ListByDoctorDate(ctx context.Context, doctorID, date string) ([]AppointmentRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM appointment_requests
		WHERE doctor_id = $1 AND visit_date = $2
		ORDER BY start_time, id
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRequests(rows)
}

func (s *PgStore) InsertRequest(ctx context.Context, req *AppointmentRequest) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO appointment_requests (
			id, patient_name, patient_phone, patient_email,
			doctor_id, doctor_name, visit_date, start_time, duration_min,
			type, status, symptoms, notes, priority, booking_source,
			created_at, updated_at, decline_reason
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		req.ID, req.PatientName, req.PatientPhone, req.PatientEmail,
		req.DoctorID, req.DoctorName, req.Date, req.Time, req.DurationMin,
		req.Type, req.Status, req.Symptoms, req.Notes, req.Priority, req.BookingSource,
		req.CreatedAt, req.UpdatedAt, req.DeclineReason,
	)
	if err != nil {
		return fmt.Errorf("insert appointment request: %w", err)
	}
	return nil
}

func (s *PgStore) UpdateRequest(ctx context.Context, req *AppointmentRequest) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE appointment_requests
		SET visit_date = $2,
		    start_time = $3,
		    duration_min = $4,
		    status = $5,
		    notes = $6,
		    updated_at = $7,
		    decline_reason = $8
		WHERE id = $1
	`,
		req.ID, req.Date, req.Time, req.DurationMin,
		req.Status, req.Notes, req.UpdatedAt, req.DeclineReason,
	)
	if err != nil {
		return fmt.Errorf("update appointment request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectRequests(rows pgx.Rows) ([]AppointmentRequest, error) {
	var out []AppointmentRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
