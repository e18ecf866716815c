package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/itsDongki/quicknotes/internal/devserver/deps"
	"github.com/itsDongki/quicknotes/internal/devserver/mw"
	"github.com/itsDongki/quicknotes/internal/devserver/store"
	"github.com/itsDongki/quicknotes/internal/logger"
	"github.com/itsDongki/quicknotes/internal/model"
)

// requireOwnedQuery parses the list query and enforces that the caller
// filtered by their own user_id. Ownership is a mandatory predicate on every
// read and write, not a courtesy the client may skip.
func requireOwnedQuery(w http.ResponseWriter, r *http.Request) (store.ListQuery, bool) {
	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return q, false
	}
	subject := mw.Subject(r.Context())
	if q.Owner == "" {
		writeError(w, http.StatusBadRequest, "", "user_id filter is required")
		return q, false
	}
	if q.Owner != subject {
		writeError(w, http.StatusForbidden, "", "user_id filter does not match token subject")
		return q, false
	}
	return q, true
}

// ListNotes serves filtered, sorted, ranged reads of the notes table.
func ListNotes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, ok := requireOwnedQuery(w, r)
		if !ok {
			return
		}

		items, total, err := d.Store.Select(r.Context(), q)
		if err != nil {
			d.Logger.Error("select failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "", "storage failure")
			return
		}

		if wantsSingle(r) {
			if len(items) != 1 {
				writeError(w, http.StatusNotAcceptable, codeNoSingleRow,
					"JSON object requested, multiple (or no) rows returned")
				return
			}
			writeJSON(w, http.StatusOK, items[0])
			return
		}

		if prefersCount(r) {
			w.Header().Set("Content-Range", contentRange(q.From, len(items), total))
		}
		writeJSON(w, http.StatusOK, items)
	}
}

type insertRow struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Color   string `json:"color"`
}

// CreateNote inserts a row, assigning id and timestamps server-side.
func CreateNote(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var row insertRow
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			writeError(w, http.StatusBadRequest, "", "invalid request body")
			return
		}

		if row.UserID != mw.Subject(r.Context()) {
			writeError(w, http.StatusForbidden, "", "user_id does not match token subject")
			return
		}

		color, err := model.ParseColor(row.Color)
		if err != nil {
			writeError(w, http.StatusBadRequest, "", err.Error())
			return
		}

		draft := model.Draft{Title: row.Title, Content: row.Content, Color: color}
		if err := draft.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "", err.Error())
			return
		}

		now := d.Now().UTC()
		note := model.Note{
			ID:        uuid.NewString(),
			Owner:     row.UserID,
			Title:     row.Title,
			Content:   row.Content,
			Color:     color,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := d.Store.Insert(r.Context(), note); err != nil {
			d.Logger.Error("insert failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "", "storage failure")
			return
		}

		if wantsSingle(r) {
			writeJSON(w, http.StatusCreated, note)
			return
		}
		writeJSON(w, http.StatusCreated, []model.Note{note})
	}
}

type columnPatch struct {
	Title     *string    `json:"title"`
	Content   *string    `json:"content"`
	Color     *string    `json:"color"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// UpdateNotes patches the rows matching the filter. With an id filter that is
// at most one row.
func UpdateNotes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, ok := requireOwnedQuery(w, r)
		if !ok {
			return
		}

		var patch columnPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "", "invalid request body")
			return
		}
		if patch.Color != nil {
			if _, err := model.ParseColor(*patch.Color); err != nil {
				writeError(w, http.StatusBadRequest, "", err.Error())
				return
			}
		}

		matched, _, err := d.Store.Select(r.Context(), q)
		if err != nil {
			d.Logger.Error("select failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "", "storage failure")
			return
		}

		updated := make([]model.Note, 0, len(matched))
		for _, note := range matched {
			if patch.Title != nil {
				note.Title = *patch.Title
			}
			if patch.Content != nil {
				note.Content = *patch.Content
			}
			if patch.Color != nil {
				note.Color = model.Color(*patch.Color)
			}
			if patch.UpdatedAt != nil {
				note.UpdatedAt = patch.UpdatedAt.UTC()
			} else {
				note.UpdatedAt = d.Now().UTC()
			}
			if err := d.Store.Update(r.Context(), note); err != nil {
				d.Logger.Error("update failed", logger.Error(err))
				writeError(w, http.StatusInternalServerError, "", "storage failure")
				return
			}
			updated = append(updated, note)
		}

		if wantsSingle(r) {
			if len(updated) != 1 {
				writeError(w, http.StatusNotAcceptable, codeNoSingleRow,
					"JSON object requested, multiple (or no) rows returned")
				return
			}
			writeJSON(w, http.StatusOK, updated[0])
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// DeleteNotes removes the rows matching the filter and returns them, so the
// caller can tell a no-op delete from a real one.
func DeleteNotes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, ok := requireOwnedQuery(w, r)
		if !ok {
			return
		}

		matched, _, err := d.Store.Select(r.Context(), q)
		if err != nil {
			d.Logger.Error("select failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "", "storage failure")
			return
		}

		removed := make([]model.Note, 0, len(matched))
		for _, note := range matched {
			ok, err := d.Store.Delete(r.Context(), note.ID)
			if err != nil {
				d.Logger.Error("delete failed", logger.Error(err))
				writeError(w, http.StatusInternalServerError, "", "storage failure")
				return
			}
			if ok {
				removed = append(removed, note)
			}
		}

		writeJSON(w, http.StatusOK, removed)
	}
}
