package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/medibook/booking-platform/internal/identity"
)

// UserRepository defines the interface for account storage.
type UserRepository interface {
	// Create inserts the user and assigns its id. Patients also get a
	// patient_id derived from the new row id.
	Create(ctx context.Context, user *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
}

// InMemoryUserRepository keeps accounts in memory. Used in tests and
// when no database is configured.
type InMemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[int]*User
	nextID int
}

// NewInMemoryUserRepository creates an empty in-memory user store.
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{users: make(map[int]*User), nextID: 1}
}

var _ UserRepository = (*InMemoryUserRepository)(nil)

// Create inserts a new account.
func (r *InMemoryUserRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return nil, ErrDuplicateEmail
		}
	}

	stored := *user
	stored.ID = r.nextID
	r.nextID++
	if stored.Role == identity.RolePatient && stored.PatientID == 0 {
		stored.PatientID = 1000 + stored.ID
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.users[stored.ID] = &stored

	result := stored
	return &result, nil
}

// FindByEmail looks an account up case-insensitively.
func (r *InMemoryUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.TrimSpace(email)
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			found := *user
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

// FindByID looks an account up by primary key.
func (r *InMemoryUserRepository) FindByID(ctx context.Context, id int) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	found := *user
	return &found, nil
}

// SeedDemoAccounts registers one account per role for development runs
// without a database. Passwords are all "1234".
func SeedDemoAccounts(ctx context.Context, repo UserRepository) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	accounts := []User{
		{Email: "patient@test.com", Name: "Test Patient", Phone: "+23052500001", Role: identity.RolePatient},
		{Email: "doctor@test.com", Name: "Dr John Smith", Phone: "+23052500002", Role: identity.RoleDoctor, DoctorID: 1},
		{Email: "admin@test.com", Name: "Admin", Phone: "+23052500003", Role: identity.RoleAdmin},
	}
	for i := range accounts {
		accounts[i].PasswordHash = string(hash)
		if _, err := repo.Create(ctx, &accounts[i]); err != nil && err != ErrDuplicateEmail {
			return err
		}
	}
	return nil
}
