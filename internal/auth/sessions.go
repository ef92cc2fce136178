package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/medibook/booking-platform/internal/identity"
	"github.com/medibook/booking-platform/pkg/logging"
)

// SessionStore tracks live session ids. A token whose jti is absent here
// is dead regardless of its JWT expiry, which makes logout effective
// immediately.
type SessionStore interface {
	Put(ctx context.Context, jti string, userID int, ttl time.Duration) error
	Get(ctx context.Context, jti string) (int, bool, error)
	Delete(ctx context.Context, jti string) error
}

// RedisSessionStore keeps sessions in Redis with a TTL.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a session store over the given client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	if client == nil {
		panic("auth: redis client required")
	}
	return &RedisSessionStore{client: client}
}

var _ SessionStore = (*RedisSessionStore)(nil)

// Put registers a live session.
func (s *RedisSessionStore) Put(ctx context.Context, jti string, userID int, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(jti), userID, ttl).Err(); err != nil {
		return fmt.Errorf("auth: save session: %w", err)
	}
	return nil
}

// Get reports whether the session is live and which user owns it.
func (s *RedisSessionStore) Get(ctx context.Context, jti string) (int, bool, error) {
	val, err := s.client.Get(ctx, sessionKey(jti)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("auth: load session: %w", err)
	}
	userID, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("auth: corrupt session value: %w", err)
	}
	return userID, true, nil
}

// Delete revokes the session.
func (s *RedisSessionStore) Delete(ctx context.Context, jti string) error {
	if err := s.client.Del(ctx, sessionKey(jti)).Err(); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

func sessionKey(jti string) string {
	return fmt.Sprintf("session:%s", jti)
}

// InMemorySessionStore is the fallback when Redis is not configured.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]inMemorySession
}

type inMemorySession struct {
	userID    int
	expiresAt time.Time
}

// NewInMemorySessionStore creates an empty in-memory session store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]inMemorySession)}
}

var _ SessionStore = (*InMemorySessionStore)(nil)

// Put registers a live session.
func (s *InMemorySessionStore) Put(ctx context.Context, jti string, userID int, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[jti] = inMemorySession{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Get reports whether the session is live and which user owns it.
func (s *InMemorySessionStore) Get(ctx context.Context, jti string) (int, bool, error) {
	s.mu.RLock()
	sess, ok := s.sessions[jti]
	s.mu.RUnlock()
	if !ok || time.Now().After(sess.expiresAt) {
		return 0, false, nil
	}
	return sess.userID, true, nil
}

// Delete revokes the session.
func (s *InMemorySessionStore) Delete(ctx context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, jti)
	return nil
}

// SessionProvider issues and resolves session cookies. Tokens are
// HMAC-signed JWTs whose jti must also be live in the session store.
type SessionProvider struct {
	secret []byte
	ttl    time.Duration
	store  SessionStore
	users  UserRepository
	logger *logging.Logger
}

// NewSessionProvider wires the session layer together.
func NewSessionProvider(secret string, ttl time.Duration, store SessionStore, users UserRepository, logger *logging.Logger) *SessionProvider {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionProvider{
		secret: []byte(secret),
		ttl:    ttl,
		store:  store,
		users:  users,
		logger: logger,
	}
}

// TTL returns the configured session lifetime.
func (p *SessionProvider) TTL() time.Duration {
	return p.ttl
}

// Issue creates a session for the user and returns the cookie token.
func (p *SessionProvider) Issue(ctx context.Context, user *User) (string, error) {
	if len(p.secret) == 0 {
		return "", fmt.Errorf("auth: session secret not configured")
	}

	jti := uuid.NewString()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(user.ID),
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign session token: %w", err)
	}
	if err := p.store.Put(ctx, jti, user.ID, p.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve turns a cookie token into the caller's actor. Any problem with
// the token, the session, or the account yields ErrSessionInvalid.
func (p *SessionProvider) Resolve(ctx context.Context, token string) (identity.Actor, error) {
	claims, err := p.parse(token)
	if err != nil {
		return identity.Actor{}, ErrSessionInvalid
	}

	userID, live, err := p.store.Get(ctx, claims.ID)
	if err != nil {
		return identity.Actor{}, err
	}
	if !live {
		return identity.Actor{}, ErrSessionInvalid
	}

	user, err := p.users.FindByID(ctx, userID)
	if err != nil {
		if err == ErrUserNotFound {
			// Stale session for a deleted account; clean it up.
			_ = p.store.Delete(ctx, claims.ID)
			return identity.Actor{}, ErrSessionInvalid
		}
		return identity.Actor{}, err
	}

	return identity.Actor{
		UserID:    user.ID,
		Role:      user.Role,
		Email:     user.Email,
		DoctorID:  user.DoctorID,
		PatientID: user.PatientID,
	}, nil
}

// Revoke kills the session behind the token. Unparseable tokens are a
// no-op: there is nothing to revoke.
func (p *SessionProvider) Revoke(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return nil
	}
	return p.store.Delete(ctx, claims.ID)
}

func (p *SessionProvider) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid || claims.ID == "" {
		return nil, ErrSessionInvalid
	}
	return claims, nil
}
