package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore persists queue items in Postgres. It also satisfies Source, so a
// pg-backed deployment can Refresh straight from the table.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const itemColumns = `
	id, patient_name, patient_phone, doctor_id, doctor_name,
	appointment_time, estimated_duration_min, status, priority,
	queue_position, check_in_time, check_out_time, estimated_call_time,
	created_at
`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item

	err := row.Scan(
		&it.ID,
		&it.PatientName,
		&it.PatientPhone,
		&it.DoctorID,
		&it.DoctorName,
		&it.AppointmentTime,
		&it.EstimatedDurationMin,
		&it.Status,
		&it.Priority,
		&it.QueuePosition,
		&it.CheckInTime,
		&it.CheckOutTime,
		&it.EstimatedCallTime,
		&it.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &it, nil
}

func (s *PgStore) GetItemByID(ctx context.Context, id string) (*Item, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM queue_items
		WHERE id = $1
	`, id)
	return scanItem(row)
}

func (s *PgStore) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM queue_items
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PgStore) InsertItem(ctx context.Context, item *Item) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO queue_items (
			id, patient_name, patient_phone, doctor_id, doctor_name,
			appointment_time, estimated_duration_min, status, priority,
			queue_position, check_in_time, check_out_time, estimated_call_time,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		item.ID, item.PatientName, item.PatientPhone, item.DoctorID, item.DoctorName,
		item.AppointmentTime, item.EstimatedDurationMin, item.Status, item.Priority,
		item.QueuePosition, item.CheckInTime, item.CheckOutTime, item.EstimatedCallTime,
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert queue item: %w", err)
	}
	return nil
}

func (s *PgStore) UpdateItem(ctx context.Context, item *Item) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE queue_items
		SET status = $2,
		    queue_position = $3,
		    check_in_time = $4,
		    check_out_time = $5,
		    estimated_call_time = $6
		WHERE id = $1
	`,
		item.ID, item.Status, item.QueuePosition,
		item.CheckInTime, item.CheckOutTime, item.EstimatedCallTime,
	)
	if err != nil {
		return fmt.Errorf("update queue item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) ReplaceAll(ctx context.Context, items []Item) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM queue_items`); err != nil {
		return fmt.Errorf("clear queue items: %w", err)
	}

	for i := range items {
		it := &items[i]
		_, err := tx.Exec(ctx, `
			INSERT INTO queue_items (
				id, patient_name, patient_phone, doctor_id, doctor_name,
				appointment_time, estimated_duration_min, status, priority,
				queue_position, check_in_time, check_out_time, estimated_call_time,
				created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
			it.ID, it.PatientName, it.PatientPhone, it.DoctorID, it.DoctorName,
			it.AppointmentTime, it.EstimatedDurationMin, it.Status, it.Priority,
			it.QueuePosition, it.CheckInTime, it.CheckOutTime, it.EstimatedCallTime,
			it.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert queue item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// FetchQueue satisfies Source for pg-backed deployments.
func (s *PgStore) FetchQueue(ctx context.Context) ([]Item, error) {
	return s.ListItems(ctx)
}
