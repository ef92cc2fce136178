package directory

import (
	"context"
	"strings"
	"sync"
)

// Directory is a read-only lookup over the doctor list.
type Directory interface {
	FindByID(ctx context.Context, id int) (*Doctor, error)
	Query(ctx context.Context, filter Filter) ([]Doctor, error)
}

// InMemoryDirectory serves a fixed doctor list. Used in tests and when
// no database is configured.
type InMemoryDirectory struct {
	mu      sync.RWMutex
	doctors []Doctor
}

// NewInMemoryDirectory creates a directory over the given doctors.
func NewInMemoryDirectory(doctors []Doctor) *InMemoryDirectory {
	return &InMemoryDirectory{doctors: doctors}
}

// SeedDoctors is the default demo roster.
func SeedDoctors() []Doctor {
	return []Doctor{
		{ID: 1, FullName: "Dr John Smith", Specialty: "Cardiology", Available: true},
		{ID: 2, FullName: "Dr Jane Doe", Specialty: "Dermatology", Available: true},
	}
}

// FindByID returns the doctor with the given id.
func (d *InMemoryDirectory) FindByID(ctx context.Context, id int) (*Doctor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, doc := range d.doctors {
		if doc.ID == id {
			found := doc
			return &found, nil
		}
	}
	return nil, ErrDoctorNotFound
}

// Query filters the doctor list. Specialty matches case-insensitively.
func (d *InMemoryDirectory) Query(ctx context.Context, filter Filter) ([]Doctor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]Doctor, 0, len(d.doctors))
	for _, doc := range d.doctors {
		if filter.Specialty != "" && !strings.EqualFold(doc.Specialty, filter.Specialty) {
			continue
		}
		if filter.Available != nil && doc.Available != *filter.Available {
			continue
		}
		result = append(result, doc)
	}
	return result, nil
}
