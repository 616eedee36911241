package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"atlas-cli/internal/model"
)

type ListParams struct {
	Page    int
	Limit   int
	Keyword string
}

// ListEntries fetches one page of entries. Page is 1-based.
func (c *Client) ListEntries(ctx context.Context, p ListParams) (model.EntryPage, error) {
	q := url.Values{}
	if p.Page < 1 {
		p.Page = 1
	}
	q.Set("page", strconv.Itoa(p.Page))
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if kw := strings.TrimSpace(p.Keyword); kw != "" {
		q.Set("keyword", kw)
	}

	req, err := c.newJSONRequest(ctx, http.MethodGet, q, nil, "api", "entries")
	if err != nil {
		return model.EntryPage{}, err
	}
	var page model.EntryPage
	if err := c.do(req, &page); err != nil {
		return model.EntryPage{}, err
	}
	if page.Data == nil {
		page.Data = []model.Entry{}
	}
	return page, nil
}

// Reprocess resets an entry to Uploaded and re-queues it on the backend.
func (c *Client) Reprocess(ctx context.Context, id string) (Message, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Message{}, ErrMissingID
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, nil, nil, "api", "reprocess", id)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	if err := c.do(req, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// EntryPatch carries the editable metadata of an entry. Empty fields are omitted.
type EntryPatch struct {
	Theme     string `json:"theme,omitempty"`
	EntryDate string `json:"entryDate,omitempty"`
}

func (p EntryPatch) Empty() bool {
	return strings.TrimSpace(p.Theme) == "" && strings.TrimSpace(p.EntryDate) == ""
}

// UpdateEntry sends a metadata edit. The returned entry is zero when the backend
// acknowledges without a body.
func (c *Client) UpdateEntry(ctx context.Context, id string, patch EntryPatch) (model.Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Entry{}, ErrMissingID
	}
	req, err := c.newJSONRequest(ctx, http.MethodPatch, nil, patch, "api", "entries", id)
	if err != nil {
		return model.Entry{}, err
	}
	var e model.Entry
	if err := c.do(req, &e); err != nil {
		return model.Entry{}, err
	}
	return e, nil
}
