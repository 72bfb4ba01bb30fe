// Package storage provides the key-value persistence layer that mirrors
// the in-memory study state. Each collection lives under its own fixed key
// as a JSON blob; writes are independent per key and last-write-wins.
package storage

import (
	"context"
	"sync"
)

// Fixed keys for the three persisted collections. The version suffix is the
// only migration mechanism: a format change means a new key.
const (
	SubjectsKey  = "concurso-subjects-v2"
	ExercisesKey = "concurso-exercises-v2"
	LevelsKey    = "concurso-levels"
)

// Store is a minimal key-value contract. Get reports an absent key with
// ok=false and a nil error; errors are reserved for transport failures.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// MemoryStore is an in-memory Store used as the default backend and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
