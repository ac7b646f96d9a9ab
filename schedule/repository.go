package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrSlotTaken signals a duplicate availability window for the agent.
	ErrSlotTaken = errors.New("schedule: slot already exists")
	// ErrAppointmentNotFound signals a missing or foreign appointment.
	ErrAppointmentNotFound = errors.New("schedule: appointment not found")
)

// Repository handles data access for availability and appointments.
type Repository interface {
	ListSlots(ctx context.Context) ([]Slot, error)
	CreateSlot(ctx context.Context, params CreateSlotParams) (Slot, error)

	ListAppointments(ctx context.Context, ownerID string) ([]Appointment, error)
	CreateAppointment(ctx context.Context, params CreateAppointmentParams) (Appointment, error)
	GetAppointment(ctx context.Context, id, ownerID string) (Appointment, error)
	UpdateAppointment(ctx context.Context, id, ownerID string, params UpdateAppointmentParams) (Appointment, error)
}

type CreateSlotParams struct {
	AgentID   string
	Day       string
	StartTime string
	EndTime   string
}

type CreateAppointmentParams struct {
	ID           string
	OwnerID      string
	LeadRowIndex *int
	Day          string
	Time         string
	Notes        string
	Status       AppointmentStatus
}

type UpdateAppointmentParams struct {
	Day    *string
	Time   *string
	Notes  *string
	Status *AppointmentStatus
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) ListSlots(ctx context.Context) ([]Slot, error) {
	const query = `
		SELECT id, agent_id, day::text, start_time::text, end_time::text, created_at
		FROM availability
		ORDER BY day, start_time
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("schedule: list slots: %w", err)
	}
	defer rows.Close()

	slots := make([]Slot, 0, 16)
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.ID, &s.AgentID, &s.Day, &s.StartTime, &s.EndTime, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("schedule: scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: iterate slots: %w", err)
	}
	return slots, nil
}

func (r *PGRepository) CreateSlot(ctx context.Context, params CreateSlotParams) (Slot, error) {
	const query = `
		INSERT INTO availability (agent_id, day, start_time, end_time)
		VALUES ($1, $2::date, $3::time, $4::time)
		RETURNING id, agent_id, day::text, start_time::text, end_time::text, created_at
	`

	var s Slot
	err := r.pool.QueryRow(ctx, query, params.AgentID, params.Day, params.StartTime, params.EndTime).
		Scan(&s.ID, &s.AgentID, &s.Day, &s.StartTime, &s.EndTime, &s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Slot{}, ErrSlotTaken
		}
		return Slot{}, fmt.Errorf("schedule: create slot: %w", err)
	}
	return s, nil
}

const appointmentColumns = `id, owner_id, lead_row_index, day::text, time::text, notes, status, created_at, updated_at`

func (r *PGRepository) ListAppointments(ctx context.Context, ownerID string) ([]Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("schedule: list appointments: %w", err)
	}
	defer rows.Close()

	out := make([]Appointment, 0, 8)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("schedule: scan appointment: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: iterate appointments: %w", err)
	}
	return out, nil
}

func (r *PGRepository) CreateAppointment(ctx context.Context, params CreateAppointmentParams) (Appointment, error) {
	query := `
		INSERT INTO appointments (id, owner_id, lead_row_index, day, time, notes, status)
		VALUES ($1, $2, $3, $4::date, $5::time, $6, $7)
		RETURNING ` + appointmentColumns

	appt, err := scanAppointment(r.pool.QueryRow(ctx, query,
		params.ID, params.OwnerID, params.LeadRowIndex, params.Day, params.Time, params.Notes, params.Status))
	if err != nil {
		return Appointment{}, fmt.Errorf("schedule: create appointment: %w", err)
	}
	return appt, nil
}

func (r *PGRepository) GetAppointment(ctx context.Context, id, ownerID string) (Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND owner_id = $2`

	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Appointment{}, ErrAppointmentNotFound
		}
		return Appointment{}, fmt.Errorf("schedule: get appointment: %w", err)
	}
	return appt, nil
}

func (r *PGRepository) UpdateAppointment(ctx context.Context, id, ownerID string, params UpdateAppointmentParams) (Appointment, error) {
	query := `
		UPDATE appointments
		SET day = COALESCE($3::date, day),
		    time = COALESCE($4::time, time),
		    notes = COALESCE($5, notes),
		    status = COALESCE($6, status),
		    updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + appointmentColumns

	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id, ownerID, params.Day, params.Time, params.Notes, params.Status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Appointment{}, ErrAppointmentNotFound
		}
		return Appointment{}, fmt.Errorf("schedule: update appointment: %w", err)
	}
	return appt, nil
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var (
		appt    Appointment
		leadRow *int
	)
	err := row.Scan(
		&appt.ID,
		&appt.OwnerID,
		&leadRow,
		&appt.Day,
		&appt.Time,
		&appt.Notes,
		&appt.Status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return Appointment{}, err
	}
	appt.LeadRowIndex = leadRow
	return appt, nil
}
