// Package memory is the default devserver store: a mutex-guarded map, good
// enough for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/itsDongki/quicknotes/internal/devserver/store"
	"github.com/itsDongki/quicknotes/internal/model"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu    sync.RWMutex
	notes map[string]model.Note
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{notes: make(map[string]model.Note)}
}

func (s *Store) Insert(ctx context.Context, note model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[note.ID] = note
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (model.Note, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	note, ok := s.notes[id]
	return note, ok, nil
}

func (s *Store) Select(ctx context.Context, q store.ListQuery) ([]model.Note, int, error) {
	s.mu.RLock()
	all := make([]model.Note, 0, len(s.notes))
	for _, n := range s.notes {
		all = append(all, n)
	}
	s.mu.RUnlock()

	items, total := store.Apply(all, q)
	return items, total, nil
}

func (s *Store) Update(ctx context.Context, note model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[note.ID] = note
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return false, nil
	}
	delete(s.notes, id)
	return true, nil
}
