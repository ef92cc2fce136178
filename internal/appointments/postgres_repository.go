package appointments

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresRepository stores appointments in the relational database. Id
// assignment relies on the table's sequence, so concurrent creates get
// distinct ids without coordination here.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

var _ Repository = (*PostgresRepository)(nil)

const appointmentColumns = `id, doctor_id, doctor, specialty, "date", "time", "name", phone, email, status`

// Create inserts a new row and returns it with the assigned id.
func (r *PostgresRepository) Create(ctx context.Context, appt Appointment) (Appointment, error) {
	query := `
		INSERT INTO appointments (doctor_id, doctor, specialty, "date", "time", "name", phone, email, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		appt.DoctorID,
		appt.Doctor,
		appt.Specialty,
		appt.Date,
		appt.Time,
		appt.Name,
		appt.Phone,
		appt.Email,
		string(appt.Status),
	).Scan(&appt.ID)
	if err != nil {
		return Appointment{}, fmt.Errorf("appointments: insert: %w", err)
	}
	return appt, nil
}

// GetByID returns the appointment with the given id.
func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Appointment, error) {
	query := fmt.Sprintf("SELECT %s FROM appointments WHERE id = $1", appointmentColumns)
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, fmt.Errorf("appointments: select: %w", err)
	}
	return appt, nil
}

// List returns matching appointments newest-first.
func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]Appointment, error) {
	conds, args := filterConds(filter)
	query := fmt.Sprintf("SELECT %s FROM appointments", appointmentColumns)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	result := make([]Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		result = append(result, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate: %w", err)
	}
	return result, nil
}

// UpdateStatus atomically replaces the row's status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int, status Status) (Appointment, error) {
	query := fmt.Sprintf(`
		UPDATE appointments SET status = $2 WHERE id = $1
		RETURNING %s
	`, appointmentColumns)
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id, string(status)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, fmt.Errorf("appointments: update status: %w", err)
	}
	return appt, nil
}

// CountByStatus tallies matching appointments per status.
func (r *PostgresRepository) CountByStatus(ctx context.Context, filter Filter) (map[Status]int, error) {
	conds, args := filterConds(filter)
	query := "SELECT status, COUNT(*) FROM appointments"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " GROUP BY status"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: count: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("appointments: scan count: %w", err)
		}
		counts[Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate counts: %w", err)
	}
	return counts, nil
}

// Ping reports store reachability.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func filterConds(filter Filter) ([]string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		conds = append(conds, fmt.Sprintf("doctor_id = $%d", len(args)))
	}
	if filter.Email != "" {
		args = append(args, strings.TrimSpace(filter.Email))
		conds = append(conds, fmt.Sprintf("LOWER(email) = LOWER($%d)", len(args)))
	}
	return conds, args
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var (
		appt   Appointment
		status string
	)
	err := row.Scan(
		&appt.ID,
		&appt.DoctorID,
		&appt.Doctor,
		&appt.Specialty,
		&appt.Date,
		&appt.Time,
		&appt.Name,
		&appt.Phone,
		&appt.Email,
		&status,
	)
	if err != nil {
		return Appointment{}, err
	}
	appt.Status = Status(status)
	return appt, nil
}
