package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store persists weekly schedules keyed by doctor id. Get returns nil
// without error when no schedule has been saved.
type Store interface {
	Get(ctx context.Context, doctorID string) (WeeklySchedule, error)
	Put(ctx context.Context, doctorID string, schedule WeeklySchedule) error
}

// RedisStore keeps schedules in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a schedule store over the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("availability: redis client required")
	}
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

// Get loads a saved schedule, or nil if the doctor has none.
func (s *RedisStore) Get(ctx context.Context, doctorID string) (WeeklySchedule, error) {
	data, err := s.client.Get(ctx, scheduleKey(doctorID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("availability: load schedule: %w", err)
	}

	var schedule WeeklySchedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("availability: decode schedule: %w", err)
	}
	return schedule, nil
}

// Put saves a schedule. Schedules have no TTL; they live until replaced.
func (s *RedisStore) Put(ctx context.Context, doctorID string, schedule WeeklySchedule) error {
	data, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("availability: encode schedule: %w", err)
	}
	if err := s.client.Set(ctx, scheduleKey(doctorID), data, 0).Err(); err != nil {
		return fmt.Errorf("availability: save schedule: %w", err)
	}
	return nil
}

func scheduleKey(doctorID string) string {
	return fmt.Sprintf("availability:%s", doctorID)
}

// InMemoryStore is the fallback when Redis is not configured.
type InMemoryStore struct {
	mu        sync.RWMutex
	schedules map[string]WeeklySchedule
}

// NewInMemoryStore creates an empty in-memory schedule store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{schedules: make(map[string]WeeklySchedule)}
}

var _ Store = (*InMemoryStore)(nil)

// Get loads a saved schedule, or nil if the doctor has none.
func (s *InMemoryStore) Get(ctx context.Context, doctorID string) (WeeklySchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schedule, ok := s.schedules[doctorID]
	if !ok {
		return nil, nil
	}
	return schedule, nil
}

// Put saves a schedule.
func (s *InMemoryStore) Put(ctx context.Context, doctorID string, schedule WeeklySchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[doctorID] = schedule
	return nil
}
