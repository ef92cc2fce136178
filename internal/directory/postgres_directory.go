package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the directory needs. pgxmock
// satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresDirectory reads doctor reference data from the relational store.
type PostgresDirectory struct {
	pool PgxPool
}

// NewPostgresDirectory initializes a directory backed by pgx.
func NewPostgresDirectory(pool PgxPool) *PostgresDirectory {
	if pool == nil {
		panic("directory: pgx pool required")
	}
	return &PostgresDirectory{pool: pool}
}

var _ Directory = (*PostgresDirectory)(nil)

// FindByID returns the doctor with the given id.
func (d *PostgresDirectory) FindByID(ctx context.Context, id int) (*Doctor, error) {
	query := `
		SELECT id, full_name, specialty, available
		FROM doctors
		WHERE id = $1
	`
	var doc Doctor
	if err := d.pool.QueryRow(ctx, query, id).Scan(&doc.ID, &doc.FullName, &doc.Specialty, &doc.Available); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("directory: select doctor: %w", err)
	}
	return &doc, nil
}

// Query filters the doctor list.
func (d *PostgresDirectory) Query(ctx context.Context, filter Filter) ([]Doctor, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Specialty != "" {
		args = append(args, filter.Specialty)
		conds = append(conds, fmt.Sprintf("LOWER(specialty) = LOWER($%d)", len(args)))
	}
	if filter.Available != nil {
		args = append(args, *filter.Available)
		conds = append(conds, fmt.Sprintf("available = $%d", len(args)))
	}

	query := "SELECT id, full_name, specialty, available FROM doctors"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("directory: query doctors: %w", err)
	}
	defer rows.Close()

	doctors := make([]Doctor, 0)
	for rows.Next() {
		var doc Doctor
		if err := rows.Scan(&doc.ID, &doc.FullName, &doc.Specialty, &doc.Available); err != nil {
			return nil, fmt.Errorf("directory: scan doctor: %w", err)
		}
		doctors = append(doctors, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: iterate doctors: %w", err)
	}
	return doctors, nil
}
