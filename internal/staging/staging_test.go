package staging

import (
	"fmt"
	"testing"
	"time"

	"atlas-cli/internal/model"

	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, time.May, 17, 9, 0, 0, 0, time.UTC) }

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("link-%d", n)
	}
}

func newTestStore() *Store {
	return New("General", WithClock(fixedNow), WithIDFunc(seqIDs()))
}

func ref(id string) FileRef {
	return FileRef{PickerID: id, Name: id + ".png", Path: "/pics/" + id + ".png", Size: 3}
}

func TestAddFiles_DefaultsAndDedup(t *testing.T) {
	s := newTestStore()

	added, removed := s.AddFiles([]FileRef{ref("a"), ref("b"), ref("a")})
	require.Equal(t, 2, added)
	require.Equal(t, 0, removed)

	items := s.Items()
	require.Len(t, items, 2)
	require.Equal(t, "a", items[0].ID())
	require.Equal(t, model.SourceImage, items[0].Kind())
	require.Equal(t, "General", items[0].Theme())
	require.Equal(t, "2024-05", items[0].Date().String())
	f, ok := items[0].File()
	require.True(t, ok)
	require.Equal(t, "/pics/a.png", f.Path)
	require.Empty(t, items[0].URL())

	// Re-reporting the same selection adds nothing.
	added, _ = s.AddFiles([]FileRef{ref("a"), ref("b")})
	require.Equal(t, 0, added)
	require.Equal(t, 2, s.Len())
}

func TestAddFiles_ReconcilesRemovedFilesButKeepsLinks(t *testing.T) {
	s := newTestStore()
	s.AddFiles([]FileRef{ref("a"), ref("b")})
	require.Equal(t, 1, s.AddLinksFromText("https://example.org/x"))

	added, removed := s.AddFiles([]FileRef{ref("b"), ref("c")})
	require.Equal(t, 1, added)
	require.Equal(t, 1, removed)

	var ids []string
	for _, it := range s.Items() {
		ids = append(ids, it.ID())
	}
	require.Equal(t, []string{"b", "link-1", "c"}, ids)
}

func TestAddLinksFromText_SplitsTrimsAndSkipsBlank(t *testing.T) {
	s := newTestStore()
	n := s.AddLinksFromText("  https://a.example \r\n\n\thttps://b.example\r   \nhttps://c.example")
	require.Equal(t, 3, n)

	items := s.Items()
	require.Equal(t, "https://a.example", items[0].URL())
	require.Equal(t, "https://b.example", items[1].URL())
	require.Equal(t, "https://c.example", items[2].URL())
	for _, it := range items {
		require.Equal(t, model.SourceLink, it.Kind())
		_, hasFile := it.File()
		require.False(t, hasFile)
	}
	require.Equal(t, 0, s.AddLinksFromText("\n \n"))
}

func TestAddLinksFromText_RegeneratesDuplicateIDs(t *testing.T) {
	s := New("General", WithIDFunc(func() string { return "same" }))
	s.AddLinksFromText("https://a\nhttps://b")
	items := s.Items()
	require.Len(t, items, 2)
	require.NotEqual(t, items[0].ID(), items[1].ID())
}

func TestLengthMatchesDistinctFilesPlusLines(t *testing.T) {
	s := newTestStore()
	s.AddLinksFromText("l1\n\nl2")
	s.AddFiles([]FileRef{ref("a"), ref("b"), ref("b")})
	s.AddLinksFromText("l3")
	s.AddFiles([]FileRef{ref("a"), ref("b"), ref("c")})

	require.Equal(t, 3+3, s.Len())
	seen := map[string]bool{}
	for _, it := range s.Items() {
		require.False(t, seen[it.ID()], "duplicate id %s", it.ID())
		seen[it.ID()] = true
	}
}

func TestUpdateField_NeverTouchesKindOrPayload(t *testing.T) {
	s := newTestStore()
	s.AddFiles([]FileRef{ref("a")})
	s.AddLinksFromText("https://example.org")
	before := s.Items()

	inputs := []struct {
		field Field
		value string
	}{
		{FieldTheme, "Art"},
		{FieldTheme, "link"},
		{FieldDate, "2020-01"},
		{FieldDate, "not-a-date"},
		{Field(99), "image"},
	}
	for _, it := range before {
		for _, in := range inputs {
			s.UpdateField(it.ID(), in.field, in.value)
		}
	}

	after := s.Items()
	for i := range before {
		require.Equal(t, before[i].Kind(), after[i].Kind())
		require.Equal(t, before[i].URL(), after[i].URL())
		bf, _ := before[i].File()
		af, _ := after[i].File()
		require.Equal(t, bf, af)
		require.Equal(t, "link", after[i].Theme())
		require.Equal(t, "2020-01", after[i].Date().String())
	}
}

func TestUpdateField_UnknownIDIsNoop(t *testing.T) {
	s := newTestStore()
	s.AddLinksFromText("x")
	require.False(t, s.UpdateField("missing", FieldTheme, "Art"))
	require.False(t, s.UpdateField("link-1", FieldTheme, "  "))
	it, _ := s.Get("link-1")
	require.Equal(t, "General", it.Theme())
}

func TestUpdateField_ThemeOutsideSetIsNoop(t *testing.T) {
	s := New("General", WithIDFunc(seqIDs()), WithThemes([]string{"General", "Art"}))
	s.AddLinksFromText("x")
	require.False(t, s.UpdateField("link-1", FieldTheme, "Cooking"))
	it, _ := s.Get("link-1")
	require.Equal(t, "General", it.Theme())

	require.True(t, s.UpdateField("link-1", FieldTheme, "Art"))
	it, _ = s.Get("link-1")
	require.Equal(t, "Art", it.Theme())
}

func TestRemove(t *testing.T) {
	s := newTestStore()
	s.AddLinksFromText("a\nb\nc")
	require.True(t, s.Remove("link-2"))
	require.False(t, s.Remove("link-2"))
	require.Equal(t, 2, s.Len())
	require.Equal(t, 2, s.RemoveIDs([]string{"link-1", "link-3", "nope"}))
	require.Equal(t, 0, s.Len())
}

func TestItems_ReturnsCopy(t *testing.T) {
	s := newTestStore()
	s.AddLinksFromText("a")
	items := s.Items()
	items[0] = Item{}
	got, ok := s.Get("link-1")
	require.True(t, ok)
	require.Equal(t, "a", got.URL())
}
