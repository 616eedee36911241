package tui

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"atlas-cli/internal/api"
	"atlas-cli/internal/config"
	"atlas-cli/internal/model"
)

type fakeBackend struct {
	mu sync.Mutex

	page      model.EntryPage
	listErr   error
	listCalls []api.ListParams

	reprocessed []string
	patches     map[string]api.EntryPatch

	// failURLs makes link uploads for these URLs fail.
	failURLs map[string]bool
	uploads  []api.UploadRequest
}

func (f *fakeBackend) ListEntries(_ context.Context, p api.ListParams) (model.EntryPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, p)
	return f.page, f.listErr
}

func (f *fakeBackend) Reprocess(_ context.Context, id string) (api.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reprocessed = append(f.reprocessed, id)
	return api.Message{Message: "ok"}, nil
}

func (f *fakeBackend) UpdateEntry(_ context.Context, id string, patch api.EntryPatch) (model.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.patches == nil {
		f.patches = map[string]api.EntryPatch{}
	}
	f.patches[id] = patch
	return model.Entry{ID: id, Theme: patch.Theme}, nil
}

func (f *fakeBackend) Upload(_ context.Context, r api.UploadRequest) (api.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.File != nil {
		_, _ = io.Copy(io.Discard, r.File)
		r.File = nil
	}
	f.uploads = append(f.uploads, r)
	if f.failURLs[r.URL] {
		return api.UploadResult{}, errors.New("boom")
	}
	return api.UploadResult{ID: "new-" + r.URL, Message: "uploaded"}, nil
}

func newTestModel(t *testing.T, fb *fakeBackend) appModel {
	t.Helper()
	return newAppModel(Options{
		Backend: fb,
		Config:  config.Defaults(),
		Now:     func() time.Time { return time.Date(2024, time.May, 3, 12, 0, 0, 0, time.UTC) },
	})
}

func update(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	mm, cmd := m.Update(msg)
	out, ok := mm.(appModel)
	if !ok {
		t.Fatalf("expected appModel, got %T", mm)
	}
	return out, cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleEntries() []model.Entry {
	return []model.Entry{
		{ID: "e1-aaaaaaaa", Theme: "Science", SourceType: model.SourceImage, EntryDate: "2024-05", Stage: model.StageComplete, SummaryCaption: "A comet"},
		{ID: "e2-bbbbbbbb", Theme: "General", SourceType: model.SourceLink, EntryDate: "2024-04", Stage: model.StageError},
	}
}

// loaded returns m with a page of sample entries applied.
func loaded(t *testing.T, m appModel) appModel {
	t.Helper()
	req := m.browser.query.Fetch()
	m, _ = update(t, m, entriesLoadedMsg{req: req, page: model.EntryPage{Data: sampleEntries(), Total: 2}})
	return m
}
