// Package store keeps per-session values keyed by (session id, key).
package store

import (
	"context"
	"sync"
)

// Store is a session-scoped key/value store. Values are opaque bytes.
type Store interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, bool, error)
	Put(ctx context.Context, sessionID, key string, value []byte) error
	// Delete removes every key of the session.
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// MemoryStore keeps sessions in process memory. Data is lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.sessions[sessionID][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Put(_ context.Context, sessionID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = make(map[string][]byte)
		s.sessions[sessionID] = sess
	}
	sess[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
