// Package redis is a redis-backed devserver store, for keeping seed and demo
// data across restarts. Notes are JSON values under per-id keys plus a set of
// all ids.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/itsDongki/quicknotes/internal/devserver/store"
	"github.com/itsDongki/quicknotes/internal/model"
)

const (
	keyPrefixNote = "quicknotes:note:"
	keyAllNotes   = "quicknotes:notes:all"
)

// NoteKey returns the key holding one note.
func NoteKey(id string) string { return keyPrefixNote + id }

var _ store.Store = (*Store)(nil)

type Store struct {
	client *goredis.Client
}

// New wraps an already-connected client.
func New(client *goredis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Insert(ctx context.Context, note model.Note) error {
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, NoteKey(note.ID), data, 0)
	pipe.SAdd(ctx, keyAllNotes, note.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (model.Note, bool, error) {
	data, err := s.client.Get(ctx, NoteKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return model.Note{}, false, nil
		}
		return model.Note{}, false, fmt.Errorf("get note: %w", err)
	}

	var note model.Note
	if err := json.Unmarshal(data, &note); err != nil {
		return model.Note{}, false, fmt.Errorf("unmarshal note: %w", err)
	}
	return note, true, nil
}

func (s *Store) Select(ctx context.Context, q store.ListQuery) ([]model.Note, int, error) {
	ids, err := s.client.SMembers(ctx, keyAllNotes).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("list note ids: %w", err)
	}

	all := make([]model.Note, 0, len(ids))
	for _, id := range ids {
		note, ok, err := s.Get(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			all = append(all, note)
		}
	}

	items, total := store.Apply(all, q)
	return items, total, nil
}

func (s *Store) Update(ctx context.Context, note model.Note) error {
	return s.Insert(ctx, note)
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.client.Del(ctx, NoteKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	if err := s.client.SRem(ctx, keyAllNotes, id).Err(); err != nil {
		return false, fmt.Errorf("remove note from set: %w", err)
	}
	return removed > 0, nil
}
