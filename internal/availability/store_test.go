package availability

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)
	ctx := context.Background()

	// Unset doctor yields nil without error.
	schedule, err := store.Get(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if schedule != nil {
		t.Fatal("expected nil for unset schedule")
	}

	want := WeeklySchedule{"mon": {"10:00-12:00"}, "fri": {}}
	if err := store.Put(ctx, "1", want); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got["mon"]) != 1 || got["mon"][0] != "10:00-12:00" {
		t.Errorf("unexpected schedule: %+v", got)
	}
}

func TestInMemoryStoreRoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	schedule, err := store.Get(ctx, "2")
	if err != nil {
		t.Fatal(err)
	}
	if schedule != nil {
		t.Fatal("expected nil for unset schedule")
	}

	want := WeeklySchedule{"tue": {"09:00-11:00"}}
	if err := store.Put(ctx, "2", want); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, "2")
	if err != nil {
		t.Fatal(err)
	}
	if len(got["tue"]) != 1 {
		t.Errorf("unexpected schedule: %+v", got)
	}
}
