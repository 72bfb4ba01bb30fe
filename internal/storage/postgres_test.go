package storage

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNewPool_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"invalid", "not-a-url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPool(context.Background(), tt.url, 5, 1); err == nil {
				t.Error("NewPool() should return error")
			}
		})
	}
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("tracker"),
		tcpostgres.WithUsername("tracker"),
		tcpostgres.WithPassword("tracker"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminating container: %v", err)
		}
	})

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	pool, err := NewPool(ctx, url, 5, 1)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Close()

	store, err := NewPostgresStore(ctx, pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}

	// Absent key
	_, ok, err := store.Get(ctx, ExercisesKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true for absent key")
	}

	// Write, read back
	if err := store.Set(ctx, ExercisesKey, `[{"id":1}]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, ok, err := store.Get(ctx, ExercisesKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || v != `[{"id":1}]` {
		t.Errorf("Get() = %q, %v; want stored value", v, ok)
	}

	// Upsert overwrites
	if err := store.Set(ctx, ExercisesKey, `[]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, _, _ = store.Get(ctx, ExercisesKey)
	if v != `[]` {
		t.Errorf("Get() after overwrite = %q, want %q", v, `[]`)
	}
}

func TestNewPostgresStore_NilPool(t *testing.T) {
	if _, err := NewPostgresStore(context.Background(), nil); err == nil {
		t.Error("NewPostgresStore() should return error for nil pool")
	}
}
