// Package notes is the note record access layer: it translates create/get/
// list/update/delete intents into the remote table service's query shape and
// back into typed records. It holds no state of its own.
package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/itsDongki/quicknotes/internal/model"
	"github.com/itsDongki/quicknotes/internal/remote"
)

// Table is the remote table holding notes.
const Table = "notes"

const (
	DefaultPage      = 1
	DefaultPageSize  = 10
	DefaultSortField = model.SortByUpdatedAt
	DefaultSortOrder = model.SortDesc
)

// ListParams selects a page of an owner's notes.
type ListParams struct {
	Page       int // 1-based
	PageSize   int
	SearchText string
	SortField  model.SortField
	SortOrder  model.SortOrder
}

// Normalize fills zero values with the defaults.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.SortField == "" {
		p.SortField = DefaultSortField
	}
	if p.SortOrder == "" {
		p.SortOrder = DefaultSortOrder
	}
	return p
}

// Service performs note operations for authenticated owners. Every operation
// carries the owner as a mandatory filter predicate, so a note is never
// visible or mutable outside its owner.
type Service struct {
	client *remote.Client
}

// NewService builds the access layer on an explicitly constructed client.
func NewService(client *remote.Client) *Service {
	return &Service{client: client}
}

// Create validates the draft, inserts it and returns the persisted note with
// its generated id and timestamps.
func (s *Service) Create(ctx context.Context, owner string, draft model.Draft) (model.Note, error) {
	if owner == "" {
		return model.Note{}, fmt.Errorf("owner is required")
	}
	if draft.Color == "" {
		draft.Color = model.DefaultColor
	}
	if err := draft.Validate(); err != nil {
		return model.Note{}, err
	}

	row := map[string]any{
		"user_id": owner,
		"title":   draft.Title,
		"content": draft.Content,
		"color":   draft.Color,
	}

	var created model.Note
	if err := s.client.InsertOne(ctx, Table, row, &created); err != nil {
		return model.Note{}, fmt.Errorf("create note: %w", err)
	}
	return created, nil
}

// GetByID fetches a note scoped to its owner. A missing or non-owned note is
// reported as (zero, false, nil), not an error.
func (s *Service) GetByID(ctx context.Context, id, owner string) (model.Note, bool, error) {
	q := remote.Query{}.Eq("id", id).Eq("user_id", owner)

	var note model.Note
	err := s.client.SelectOne(ctx, Table, q, &note)
	if remote.IsNotFound(err) {
		return model.Note{}, false, nil
	}
	if err != nil {
		return model.Note{}, false, fmt.Errorf("fetch note: %w", err)
	}
	return note, true, nil
}

// List returns one page of the owner's notes plus the exact total of notes
// matching the search. Ties on the sort key break by id ascending so page
// boundaries are stable.
func (s *Service) List(ctx context.Context, owner string, params ListParams) ([]model.Note, int, error) {
	params = params.Normalize()

	from := (params.Page - 1) * params.PageSize
	to := from + params.PageSize - 1

	q := remote.Query{}.Eq("user_id", owner)
	if params.SearchText != "" {
		q = q.OrContains(params.SearchText, "title", "content")
	}
	q = q.Order(string(params.SortField), params.SortOrder == model.SortDesc).
		Order("id", false).
		Range(from, to)

	items := make([]model.Note, 0, params.PageSize)
	total, err := s.client.Select(ctx, Table, q, &items)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch notes: %w", err)
	}
	if total < 0 {
		total = len(items)
	}
	return items, total, nil
}

// Update applies a partial patch and refreshes updated_at in the same
// operation. It fails when no row matches (id, owner).
func (s *Service) Update(ctx context.Context, id, owner string, patch model.Patch) (model.Note, error) {
	if patch.IsEmpty() {
		return model.Note{}, fmt.Errorf("empty patch")
	}
	if err := patch.Validate(); err != nil {
		return model.Note{}, err
	}

	row := map[string]any{
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if patch.Title != nil {
		row["title"] = *patch.Title
	}
	if patch.Content != nil {
		row["content"] = *patch.Content
	}
	if patch.Color != nil {
		row["color"] = *patch.Color
	}

	q := remote.Query{}.Eq("id", id).Eq("user_id", owner)

	var updated model.Note
	if err := s.client.UpdateOne(ctx, Table, q, row, &updated); err != nil {
		if remote.IsNotFound(err) {
			return model.Note{}, fmt.Errorf("update note %s: %w", id, remote.ErrNotFound)
		}
		return model.Note{}, fmt.Errorf("update note: %w", err)
	}
	return updated, nil
}

// Delete removes a note. Deleting an already-deleted note fails with the same
// no-matching-row error; delete is deliberately not idempotent.
func (s *Service) Delete(ctx context.Context, id, owner string) error {
	q := remote.Query{}.Eq("id", id).Eq("user_id", owner)

	removed, err := s.client.DeleteWhere(ctx, Table, q)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("delete note %s: %w", id, remote.ErrNotFound)
	}
	return nil
}
