package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medibook/booking-platform/internal/identity"
)

// PgxPool is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresUserRepository stores accounts in the relational database.
type PostgresUserRepository struct {
	pool PgxPool
}

// NewPostgresUserRepository initializes a repo backed by pgx.
func NewPostgresUserRepository(pool PgxPool) *PostgresUserRepository {
	if pool == nil {
		panic("auth: pgx pool required")
	}
	return &PostgresUserRepository{pool: pool}
}

var _ UserRepository = (*PostgresUserRepository)(nil)

const uniqueViolation = "23505"

// Create inserts a new account. Patient rows get patient_id = 1000 + id,
// assigned in the same transaction.
func (r *PostgresUserRepository) Create(ctx context.Context, user *User) (*User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insert := `
		INSERT INTO users (email, password_hash, name, phone, role, doctor_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0))
		RETURNING id, created_at
	`
	stored := *user
	err = tx.QueryRow(ctx, insert,
		stored.Email,
		stored.PasswordHash,
		stored.Name,
		stored.Phone,
		stored.Role,
		stored.DoctorID,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("auth: insert user: %w", err)
	}

	if stored.Role == identity.RolePatient {
		assign := `UPDATE users SET patient_id = 1000 + id WHERE id = $1 RETURNING patient_id`
		if err := tx.QueryRow(ctx, assign, stored.ID).Scan(&stored.PatientID); err != nil {
			return nil, fmt.Errorf("auth: assign patient_id: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("auth: commit: %w", err)
	}
	return &stored, nil
}

// FindByEmail looks an account up case-insensitively.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password_hash, name, COALESCE(phone, ''), role,
		       COALESCE(patient_id, 0), COALESCE(doctor_id, 0), created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// FindByID looks an account up by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, email, password_hash, name, COALESCE(phone, ''), role,
		       COALESCE(patient_id, 0), COALESCE(doctor_id, 0), created_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresUserRepository) scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Phone,
		&user.Role,
		&user.PatientID,
		&user.DoctorID,
		&user.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("auth: select user: %w", err)
	}
	return &user, nil
}
