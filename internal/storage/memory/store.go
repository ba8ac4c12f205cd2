// Package memory is an in-process KeyValueStore. Contents are lost with the process.
package memory

import (
	"context"
	"sync"
)

type Store struct {
	mu      sync.RWMutex
	data    map[string][]byte
	readErr error
	setErr  error
}

func New() *Store { return &Store{data: map[string][]byte{}} }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return nil, false, s.readErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// FailReads makes every Get return err until called again with nil.
func (s *Store) FailReads(err error) {
	s.mu.Lock()
	s.readErr = err
	s.mu.Unlock()
}

// FailWrites makes every Set return err until called again with nil.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	s.setErr = err
	s.mu.Unlock()
}
