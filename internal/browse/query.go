// Package browse holds the entry list query state: paging, keyword filter and
// the request sequence number that keeps stale responses from overwriting
// newer ones.
package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"atlas-cli/internal/api"
	"atlas-cli/internal/model"
)

var (
	ErrAlreadyComplete = errors.New("entry is already complete")
	ErrUnknownTheme    = errors.New("unknown theme")
)

type Lister interface {
	ListEntries(ctx context.Context, p api.ListParams) (model.EntryPage, error)
}

type Reprocessor interface {
	Reprocess(ctx context.Context, id string) (api.Message, error)
}

type Updater interface {
	UpdateEntry(ctx context.Context, id string, patch api.EntryPatch) (model.Entry, error)
}

// Request is one issued fetch. Only the most recently issued request may
// update the query state.
type Request struct {
	Seq      uint64
	Page     int
	PageSize int
	Keyword  string
}

func (r Request) Params() api.ListParams {
	return api.ListParams{Page: r.Page, Limit: r.PageSize, Keyword: r.Keyword}
}

type Query struct {
	Page     int
	PageSize int
	Keyword  string

	Rows    []model.Entry
	Total   int
	Loading bool
	Err     error

	seq uint64
}

func NewQuery(pageSize int) *Query {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Query{Page: 1, PageSize: pageSize}
}

// Seq returns the sequence number of the latest issued request.
func (q *Query) Seq() uint64 { return q.seq }

// Pages is the number of pages for the last known total (at least 1).
func (q *Query) Pages() int {
	if q.PageSize <= 0 || q.Total <= 0 {
		return 1
	}
	return (q.Total + q.PageSize - 1) / q.PageSize
}

// Fetch issues a request for the current page, size and keyword.
func (q *Query) Fetch() Request {
	if q.Page < 1 {
		q.Page = 1
	}
	q.seq++
	q.Loading = true
	return Request{Seq: q.seq, Page: q.Page, PageSize: q.PageSize, Keyword: q.Keyword}
}

// Refresh re-runs the current page.
func (q *Query) Refresh() Request { return q.Fetch() }

// Search sets the keyword, resets to the first page and fetches.
func (q *Query) Search(keyword string) Request {
	q.Keyword = strings.TrimSpace(keyword)
	q.Page = 1
	return q.Fetch()
}

// Paginate applies the pagination widget's reported values. A nil value falls
// back to the last known one.
func (q *Query) Paginate(current, size *int) Request {
	if size != nil && *size > 0 && *size != q.PageSize {
		q.PageSize = *size
		if q.Page > q.Pages() {
			q.Page = q.Pages()
		}
	}
	if current != nil && *current > 0 {
		q.Page = *current
	}
	return q.Fetch()
}

func (q *Query) NextPage() Request {
	p := q.Page + 1
	if p > q.Pages() {
		p = q.Pages()
	}
	return q.Paginate(&p, nil)
}

func (q *Query) PrevPage() Request {
	p := q.Page - 1
	if p < 1 {
		p = 1
	}
	return q.Paginate(&p, nil)
}

// Apply records the outcome of req. Responses for anything but the latest
// request are discarded and Apply returns false.
//
// On failure the rows are emptied and the total is left as it was.
func (q *Query) Apply(req Request, page model.EntryPage, err error) bool {
	if req.Seq != q.seq {
		return false
	}
	q.Loading = false
	if err != nil {
		q.Err = err
		q.Rows = nil
		return true
	}
	q.Err = nil
	q.Rows = page.Data
	q.Total = page.Total
	return true
}

// Find returns the row with the given id from the current page.
func (q *Query) Find(id string) (model.Entry, bool) {
	for _, e := range q.Rows {
		if e.ID == id {
			return e, true
		}
	}
	return model.Entry{}, false
}

// Run performs the HTTP call for req.
func Run(ctx context.Context, l Lister, req Request) (model.EntryPage, error) {
	return l.ListEntries(ctx, req.Params())
}

// Reprocess asks the backend to re-run the pipeline for e. Complete entries are
// refused without a request.
func Reprocess(ctx context.Context, r Reprocessor, e model.Entry) error {
	if !e.Stage.Reprocessable() {
		return fmt.Errorf("%w: %s", ErrAlreadyComplete, e.ID)
	}
	if _, err := r.Reprocess(ctx, e.ID); err != nil {
		return fmt.Errorf("reprocess %s: %w", e.ID, err)
	}
	return nil
}

// UpdateTheme sends a theme edit for one entry. themes is the allowed label set.
func UpdateTheme(ctx context.Context, u Updater, themes []string, id, theme string) error {
	theme = strings.TrimSpace(theme)
	if !model.HasTheme(themes, theme) {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}
	if _, err := u.UpdateEntry(ctx, id, api.EntryPatch{Theme: theme}); err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	return nil
}
