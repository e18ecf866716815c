// Package seed loads demo notes into the devserver store at startup.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/itsDongki/quicknotes/internal/devserver/identity"
	"github.com/itsDongki/quicknotes/internal/devserver/store"
	"github.com/itsDongki/quicknotes/internal/model"
)

// Loader reads a YAML seed file and inserts its notes.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for the given file.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load parses the seed file into notes ready for insertion. Timestamps are
// staggered one second apart so seeded listings have a stable default order.
func (l *Loader) Load() ([]model.Note, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}

	return MapNotes(f)
}

// MapNotes converts the file shape to domain notes.
func MapNotes(f File) ([]model.Note, error) {
	var out []model.Note
	base := time.Now().UTC().Add(-time.Duration(countNotes(f)) * time.Second)

	i := 0
	for _, u := range f.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("seed user with empty username")
		}
		owner := identity.OwnerID(u.Username)
		for _, sn := range u.Notes {
			color, err := model.ParseColor(sn.Color)
			if err != nil {
				return nil, fmt.Errorf("seed note %q: %w", sn.Title, err)
			}
			ts := base.Add(time.Duration(i) * time.Second)
			i++
			out = append(out, model.Note{
				ID:        uuid.NewString(),
				Owner:     owner,
				Title:     sn.Title,
				Content:   sn.Content,
				Color:     color,
				CreatedAt: ts,
				UpdatedAt: ts,
			})
		}
	}
	return out, nil
}

// Apply inserts all notes from the seed file into the store.
func (l *Loader) Apply(ctx context.Context, st store.Store) (int, error) {
	notes, err := l.Load()
	if err != nil {
		return 0, err
	}
	for _, n := range notes {
		if err := st.Insert(ctx, n); err != nil {
			return 0, fmt.Errorf("insert seed note %q: %w", n.Title, err)
		}
	}
	return len(notes), nil
}

func countNotes(f File) int {
	n := 0
	for _, u := range f.Users {
		n += len(u.Notes)
	}
	return n
}
