package browse

import (
	"context"
	"errors"
	"testing"

	"atlas-cli/internal/api"
	"atlas-cli/internal/model"

	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	lists     []api.ListParams
	page      model.EntryPage
	listErr   error
	reprocess []string
	reprocErr error
	patches   map[string]api.EntryPatch
	patchErr  error
}

func (f *fakeBackend) ListEntries(ctx context.Context, p api.ListParams) (model.EntryPage, error) {
	f.lists = append(f.lists, p)
	return f.page, f.listErr
}

func (f *fakeBackend) Reprocess(ctx context.Context, id string) (api.Message, error) {
	f.reprocess = append(f.reprocess, id)
	return api.Message{}, f.reprocErr
}

func (f *fakeBackend) UpdateEntry(ctx context.Context, id string, p api.EntryPatch) (model.Entry, error) {
	if f.patches == nil {
		f.patches = map[string]api.EntryPatch{}
	}
	f.patches[id] = p
	return model.Entry{}, f.patchErr
}

func rows(ids ...string) []model.Entry {
	out := make([]model.Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Entry{ID: id, Stage: model.StageUploaded})
	}
	return out
}

func TestFetchPage_ReplacesRowsAndTotal(t *testing.T) {
	be := &fakeBackend{page: model.EntryPage{Data: rows("a", "b", "c"), Total: 3}}
	q := NewQuery(10)

	req := q.Search("solar")
	require.True(t, q.Loading)
	page, err := Run(context.Background(), be, req)
	require.True(t, q.Apply(req, page, err))

	require.Equal(t, []api.ListParams{{Page: 1, Limit: 10, Keyword: "solar"}}, be.lists)
	require.Len(t, q.Rows, 3)
	require.Equal(t, 3, q.Total)
	require.Equal(t, 1, q.Pages())
	require.False(t, q.Loading)
}

func TestApply_FailureEmptiesRowsKeepsTotal(t *testing.T) {
	q := NewQuery(10)
	req := q.Fetch()
	q.Apply(req, model.EntryPage{Data: rows("a"), Total: 41}, nil)

	req = q.NextPage()
	require.True(t, q.Apply(req, model.EntryPage{}, errors.New("dial tcp: refused")))
	require.Empty(t, q.Rows)
	require.Equal(t, 41, q.Total)
	require.Error(t, q.Err)
	require.False(t, q.Loading)
}

func TestApply_DiscardsStaleResponses(t *testing.T) {
	q := NewQuery(10)
	first := q.Search("old")
	second := q.Search("new")

	require.True(t, q.Apply(second, model.EntryPage{Data: rows("new"), Total: 1}, nil))
	require.False(t, q.Apply(first, model.EntryPage{Data: rows("old1", "old2"), Total: 2}, nil))
	require.Len(t, q.Rows, 1)
	require.Equal(t, "new", q.Rows[0].ID)

	// A stale response arriving before the latest must not clear loading.
	third := q.Refresh()
	require.False(t, q.Apply(second, model.EntryPage{}, nil))
	require.True(t, q.Loading)
	require.True(t, q.Apply(third, model.EntryPage{Data: rows("x"), Total: 1}, nil))
}

func TestSearch_AlwaysResetsToFirstPage(t *testing.T) {
	q := NewQuery(5)
	q.Apply(q.Fetch(), model.EntryPage{Total: 50}, nil)
	p := 7
	q.Paginate(&p, nil)
	require.Equal(t, 7, q.Page)

	req := q.Search("  moon ")
	require.Equal(t, 1, req.Page)
	require.Equal(t, "moon", req.Keyword)
}

func TestPaginate_FallsBackToLastKnown(t *testing.T) {
	q := NewQuery(10)
	q.Apply(q.Fetch(), model.EntryPage{Total: 100}, nil)

	p := 4
	req := q.Paginate(&p, nil)
	require.Equal(t, Request{Seq: req.Seq, Page: 4, PageSize: 10}, req)

	size := 20
	req = q.Paginate(nil, &size)
	require.Equal(t, 4, req.Page)
	require.Equal(t, 20, req.PageSize)

	req = q.Paginate(nil, nil)
	require.Equal(t, 4, req.Page)
	require.Equal(t, 20, req.PageSize)

	size = 50
	req = q.Paginate(nil, &size)
	require.Equal(t, 2, req.Page, "page clamps to the last page of the new size")
}

func TestNextPrev_Clamp(t *testing.T) {
	q := NewQuery(10)
	q.Apply(q.Fetch(), model.EntryPage{Total: 15}, nil)
	require.Equal(t, 1, q.PrevPage().Page)
	require.Equal(t, 2, q.NextPage().Page)
	require.Equal(t, 2, q.NextPage().Page)
}

func TestReprocess_FailureLeavesRowsAndNoRefetch(t *testing.T) {
	be := &fakeBackend{reprocErr: errors.New("network down")}
	q := NewQuery(10)
	req := q.Fetch()
	q.Apply(req, model.EntryPage{Data: rows("e42"), Total: 1}, nil)
	seq := q.Seq()

	e, ok := q.Find("e42")
	require.True(t, ok)
	err := Reprocess(context.Background(), be, e)
	require.Error(t, err)
	require.Equal(t, []string{"e42"}, be.reprocess)
	require.Empty(t, be.lists)
	require.Equal(t, seq, q.Seq())
	require.Equal(t, model.StageUploaded, q.Rows[0].Stage)
}

func TestReprocess_RefusesCompleteEntries(t *testing.T) {
	be := &fakeBackend{}
	err := Reprocess(context.Background(), be, model.Entry{ID: "done", Stage: model.StageComplete})
	require.ErrorIs(t, err, ErrAlreadyComplete)
	require.Empty(t, be.reprocess)
}

func TestUpdateTheme(t *testing.T) {
	be := &fakeBackend{}
	themes := []string{"General", "Art"}

	require.NoError(t, UpdateTheme(context.Background(), be, themes, "e1", "Art"))
	require.Equal(t, api.EntryPatch{Theme: "Art"}, be.patches["e1"])

	err := UpdateTheme(context.Background(), be, themes, "e2", "Cooking")
	require.ErrorIs(t, err, ErrUnknownTheme)
	_, sent := be.patches["e2"]
	require.False(t, sent)
}
