package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// MaxTitleLen is the maximum accepted title length.
	MaxTitleLen = 100
	// MaxContentLen is the maximum accepted content length.
	MaxContentLen = 5000
)

// Color is the tag color of a note.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorPurple Color = "purple"

	// DefaultColor is applied when a draft does not specify one.
	DefaultColor = ColorYellow
)

// Colors lists every valid color, in display order.
var Colors = []Color{ColorYellow, ColorBlue, ColorGreen, ColorRed, ColorPurple}

// ParseColor validates a color name. Empty input resolves to DefaultColor.
func ParseColor(s string) (Color, error) {
	if s == "" {
		return DefaultColor, nil
	}
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Colors {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown color %q (valid: %s)", s, joinColors())
}

func joinColors() string {
	names := make([]string, len(Colors))
	for i, c := range Colors {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// Note is the sole domain entity.
//
// ID and Owner are assigned at creation and immutable afterwards. Owner scopes
// every read and write. JSON tags match the remote table's column names.
type Note struct {
	ID        string    `json:"id"`
	Owner     string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Color     Color     `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Draft is the input for creating a note. Owner is filled in by the access
// layer from the authenticated session.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Color   Color  `json:"color"`
}

// Validate checks a draft against the entity bounds.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("title cannot be empty")
	}
	if len(d.Title) > MaxTitleLen {
		return fmt.Errorf("title exceeds %d characters", MaxTitleLen)
	}
	if len(d.Content) > MaxContentLen {
		return fmt.Errorf("content exceeds %d characters", MaxContentLen)
	}
	if _, err := ParseColor(string(d.Color)); err != nil {
		return err
	}
	return nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Color   *Color  `json:"color,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *Patch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Color == nil
}

// Validate checks the provided fields against the entity bounds.
func (p *Patch) Validate() error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return errors.New("title cannot be empty")
		}
		if len(*p.Title) > MaxTitleLen {
			return fmt.Errorf("title exceeds %d characters", MaxTitleLen)
		}
	}
	if p.Content != nil && len(*p.Content) > MaxContentLen {
		return fmt.Errorf("content exceeds %d characters", MaxContentLen)
	}
	if p.Color != nil {
		if _, err := ParseColor(string(*p.Color)); err != nil {
			return err
		}
	}
	return nil
}

// Apply copies the patch's fields onto a note. Timestamps are the caller's
// concern.
func (p *Patch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
}

// SortField selects the column a listing is ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
)

// SortOrder is the listing direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)
