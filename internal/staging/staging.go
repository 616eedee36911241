// Package staging holds the ordered, in-memory list of items waiting to be
// submitted for ingestion. It never persists anything.
package staging

import (
	"path/filepath"
	"strings"
	"time"

	"atlas-cli/internal/model"

	"github.com/google/uuid"
)

// FileRef identifies a file chosen in the picker.
type FileRef struct {
	// PickerID is the picker's own identifier for the file (the cleaned absolute path).
	PickerID string
	Name     string
	Path     string
	Size     int64
}

// NewFileRef builds a FileRef from a path, resolving it to an absolute picker id.
func NewFileRef(path string, size int64) FileRef {
	p := strings.TrimSpace(path)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	p = filepath.Clean(p)
	return FileRef{PickerID: p, Name: filepath.Base(p), Path: p, Size: size}
}

// Item is a staged, not-yet-submitted entry candidate.
//
// The kind and its payload (file or url) are fixed at creation; only theme and
// date are editable, and only through Store.UpdateField.
type Item struct {
	id    string
	name  string
	kind  model.SourceKind
	file  *FileRef
	url   string
	theme string
	date  model.YearMonth
}

func (it Item) ID() string             { return it.id }
func (it Item) Name() string           { return it.name }
func (it Item) Kind() model.SourceKind { return it.kind }
func (it Item) URL() string            { return it.url }
func (it Item) Theme() string          { return it.theme }
func (it Item) Date() model.YearMonth  { return it.date }

// File returns a copy of the file payload for image items.
func (it Item) File() (FileRef, bool) {
	if it.file == nil {
		return FileRef{}, false
	}
	return *it.file, true
}

type Field int

const (
	FieldTheme Field = iota
	FieldDate
)

func (f Field) String() string {
	switch f {
	case FieldTheme:
		return "theme"
	case FieldDate:
		return "date"
	default:
		return "unknown"
	}
}

// Store is the staging list. The zero value is not usable; call New.
type Store struct {
	items        []Item
	defaultTheme string
	themes       []string
	now          func() time.Time
	newID        func() string
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithThemes restricts theme edits to the given labels.
func WithThemes(themes []string) Option {
	return func(s *Store) {
		s.themes = append([]string(nil), themes...)
	}
}

func WithIDFunc(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func New(defaultTheme string, opts ...Option) *Store {
	if strings.TrimSpace(defaultTheme) == "" {
		defaultTheme = model.DefaultTheme
	}
	s := &Store{
		defaultTheme: defaultTheme,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) DefaultTheme() string { return s.defaultTheme }

func (s *Store) Len() int { return len(s.items) }

// Items returns the staged items in order.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Get(id string) (Item, bool) {
	if i := s.index(id); i >= 0 {
		return s.items[i], true
	}
	return Item{}, false
}

// Files returns the file refs of staged image items, in order.
func (s *Store) Files() []FileRef {
	var out []FileRef
	for _, it := range s.items {
		if it.file != nil {
			out = append(out, *it.file)
		}
	}
	return out
}

func (s *Store) index(id string) int {
	for i := range s.items {
		if s.items[i].id == id {
			return i
		}
	}
	return -1
}

// AddFiles stages one image item per selected file not already staged, and drops
// staged image items whose file is no longer part of the selection. Link items
// are left alone. It returns the number of items added and removed.
func (s *Store) AddFiles(selected []FileRef) (added, removed int) {
	present := make(map[string]bool, len(selected))
	for _, f := range selected {
		if f.PickerID != "" {
			present[f.PickerID] = true
		}
	}

	kept := s.items[:0]
	for _, it := range s.items {
		if it.kind == model.SourceImage && !present[it.id] {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept

	date := model.CurrentYearMonth(s.now())
	for _, f := range selected {
		if f.PickerID == "" || s.index(f.PickerID) >= 0 {
			continue
		}
		ref := f
		name := strings.TrimSpace(ref.Name)
		if name == "" {
			name = filepath.Base(ref.Path)
		}
		s.items = append(s.items, Item{
			id:    ref.PickerID,
			name:  name,
			kind:  model.SourceImage,
			file:  &ref,
			theme: s.defaultTheme,
			date:  date,
		})
		added++
	}
	return added, removed
}

// AddLinksFromText stages one link item per non-empty line of raw.
func (s *Store) AddLinksFromText(raw string) int {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	date := model.CurrentYearMonth(s.now())
	n := 0
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id := s.newID()
		for id == "" || s.index(id) >= 0 {
			id = uuid.NewString()
		}
		s.items = append(s.items, Item{
			id:    id,
			name:  line,
			kind:  model.SourceLink,
			url:   line,
			theme: s.defaultTheme,
			date:  date,
		})
		n++
	}
	return n
}

// UpdateField sets the theme or date of the item matching id. It returns false
// when the id is unknown or the value is not valid for the field.
func (s *Store) UpdateField(id string, field Field, value string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	switch field {
	case FieldTheme:
		v := strings.TrimSpace(value)
		if v == "" || (len(s.themes) > 0 && !model.HasTheme(s.themes, v)) {
			return false
		}
		s.items[i].theme = v
	case FieldDate:
		ym, err := model.ParseYearMonth(value)
		if err != nil {
			return false
		}
		s.items[i].date = ym
	default:
		return false
	}
	return true
}

func (s *Store) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// RemoveIDs drops every item whose id is in ids.
func (s *Store) RemoveIDs(ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.items[:0]
	n := 0
	for _, it := range s.items {
		if drop[it.id] {
			n++
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	return n
}

func (s *Store) Clear() { s.items = nil }
