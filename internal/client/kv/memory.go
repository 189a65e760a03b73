package kv

import (
	"context"
	"strings"
	"sync"

	"github.com/camtrapkit/uploader/internal/common"
)

// MemoryStore is an in-memory Store used by tests and by ephemeral runs that
// do not want a database on disk.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, key string, fn func(old []byte, found bool) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, found := s.data[key]
	next, err := fn(append([]byte(nil), old...), found)
	if err != nil {
		return err
	}
	s.data[key] = append([]byte(nil), next...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

func (s *MemoryStore) ListPrefix(_ context.Context, prefix string) ([]Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Pair
	for k, v := range s.data {
		if strings.HasPrefix(k, prefix) {
			result = append(result, Pair{Key: k, Value: append([]byte(nil), v...)})
		}
	}
	return result, nil
}
