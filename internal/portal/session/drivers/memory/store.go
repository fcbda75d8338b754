// Package memory is a process-local session store for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/domain"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/session"
)

type record struct {
	data      []byte
	updatedAt time.Time
}

type Store struct {
	mu      sync.RWMutex
	records map[string]record
}

func NewStore() *Store {
	return &Store{records: make(map[string]record)}
}

func (s *Store) Get(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Session{}, session.ErrNotFound
	}
	return session.Decode(rec.data)
}

func (s *Store) Put(_ context.Context, sess domain.Session) error {
	data, err := session.Encode(sess)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.records[sess.ID] = record{data: data, updatedAt: sess.UpdatedAt}
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

func (s *Store) DeleteIdleBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, rec := range s.records {
		if rec.updatedAt.Before(cutoff) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// Len is the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
