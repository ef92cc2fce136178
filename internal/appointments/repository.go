package appointments

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Filter narrows a listing. Constraints intersect; zero values are
// ignored. Email matches case-insensitively.
type Filter struct {
	DoctorID *int
	Email    string
}

// Repository defines the interface for appointment storage. The store
// guarantees that concurrent creates receive distinct sequential ids and
// that a status update is atomic per row.
type Repository interface {
	Create(ctx context.Context, appt Appointment) (Appointment, error)
	GetByID(ctx context.Context, id int) (Appointment, error)
	// List returns matching appointments newest-first (descending id).
	List(ctx context.Context, filter Filter) ([]Appointment, error)
	UpdateStatus(ctx context.Context, id int, status Status) (Appointment, error)
	CountByStatus(ctx context.Context, filter Filter) (map[Status]int, error)
	Ping(ctx context.Context) error
}

// InMemoryRepository keeps appointments in memory. Used in tests and
// when no database is configured.
type InMemoryRepository struct {
	mu     sync.RWMutex
	rows   []Appointment
	nextID int
}

// NewInMemoryRepository creates an empty in-memory appointment store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1}
}

var _ Repository = (*InMemoryRepository)(nil)

// Create assigns the next sequential id and stores the row.
func (r *InMemoryRepository) Create(ctx context.Context, appt Appointment) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt.ID = r.nextID
	r.nextID++
	r.rows = append(r.rows, appt)
	return appt, nil
}

// GetByID returns the appointment with the given id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, row := range r.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return Appointment{}, ErrNotFound
}

// List returns matching appointments newest-first.
func (r *InMemoryRepository) List(ctx context.Context, filter Filter) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Appointment, 0, len(r.rows))
	for _, row := range r.rows {
		if matches(row, filter) {
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// UpdateStatus atomically replaces the row's status.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id int, status Status) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].Status = status
			return r.rows[i], nil
		}
	}
	return Appointment{}, ErrNotFound
}

// CountByStatus tallies matching appointments per status.
func (r *InMemoryRepository) CountByStatus(ctx context.Context, filter Filter) (map[Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[Status]int)
	for _, row := range r.rows {
		if matches(row, filter) {
			counts[row.Status]++
		}
	}
	return counts, nil
}

// Ping reports store reachability; the in-memory store is always up.
func (r *InMemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func matches(row Appointment, filter Filter) bool {
	if filter.DoctorID != nil && row.DoctorID != *filter.DoctorID {
		return false
	}
	if filter.Email != "" && !strings.EqualFold(strings.TrimSpace(row.Email), strings.TrimSpace(filter.Email)) {
		return false
	}
	return true
}
