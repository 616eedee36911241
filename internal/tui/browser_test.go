package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"atlas-cli/internal/model"
)

func TestEntriesLoaded_DropsStaleResponse(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	q := m.browser.query

	first := q.Fetch()
	second := q.Search("comet")

	m, _ = update(t, m, entriesLoadedMsg{req: first, page: model.EntryPage{Data: sampleEntries(), Total: 2}})
	if len(m.browser.query.Rows) != 0 {
		t.Fatalf("expected stale response to be dropped, got %d rows", len(m.browser.query.Rows))
	}
	if !m.browser.query.Loading {
		t.Fatalf("expected query to still be loading")
	}

	m, _ = update(t, m, entriesLoadedMsg{req: second, page: model.EntryPage{Data: sampleEntries()[:1], Total: 1}})
	if got := len(m.browser.query.Rows); got != 1 {
		t.Fatalf("expected 1 row, got %d", got)
	}
	if got := len(m.browser.table.Rows()); got != 1 {
		t.Fatalf("expected table to show 1 row, got %d", got)
	}
}

func TestEntriesLoaded_ErrorKeepsTotalAndShowsMinibuffer(t *testing.T) {
	m := loaded(t, newTestModel(t, &fakeBackend{}))

	req := m.browser.query.Refresh()
	m, _ = update(t, m, entriesLoadedMsg{req: req, err: errors.New("connection refused")})

	if len(m.browser.query.Rows) != 0 {
		t.Fatalf("expected rows to be emptied on error")
	}
	if m.browser.query.Total != 2 {
		t.Fatalf("expected total to be kept, got %d", m.browser.query.Total)
	}
	if !m.minibufferErr || !strings.Contains(m.minibufferText, "connection refused") {
		t.Fatalf("expected error in minibuffer, got %q", m.minibufferText)
	}
}

func TestLoadCmd_PassesQueryParams(t *testing.T) {
	fb := &fakeBackend{page: model.EntryPage{Data: sampleEntries(), Total: 2}}
	m := newTestModel(t, fb)

	req := m.browser.query.Search("  comet ")
	msg, ok := m.loadCmd(req)().(entriesLoadedMsg)
	if !ok {
		t.Fatalf("expected entriesLoadedMsg")
	}
	if msg.err != nil {
		t.Fatalf("unexpected error: %v", msg.err)
	}
	if len(fb.listCalls) != 1 {
		t.Fatalf("expected one list call, got %d", len(fb.listCalls))
	}
	got := fb.listCalls[0]
	if got.Page != 1 || got.Limit != 10 || got.Keyword != "comet" {
		t.Fatalf("unexpected params: %+v", got)
	}
}

func TestSearchKey_EnterResetsPage(t *testing.T) {
	m := loaded(t, newTestModel(t, &fakeBackend{}))
	m.browser.query.Page = 3

	m, _ = update(t, m, keyRunes("/"))
	if !m.browser.searching {
		t.Fatalf("expected search input to open")
	}
	for _, r := range "cat" {
		m, _ = update(t, m, keyRunes(string(r)))
	}
	// Keys typed into the search box must not trigger list actions.
	if m.browser.detail {
		t.Fatalf("unexpected detail toggle while typing")
	}
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected fetch command")
	}
	q := m.browser.query
	if q.Keyword != "cat" || q.Page != 1 || !q.Loading {
		t.Fatalf("unexpected query state: keyword=%q page=%d loading=%v", q.Keyword, q.Page, q.Loading)
	}
}

func TestPageSizeKeys_StepThroughSizes(t *testing.T) {
	m := loaded(t, newTestModel(t, &fakeBackend{}))

	m, _ = update(t, m, keyRunes("+"))
	if got := m.browser.query.PageSize; got != 20 {
		t.Fatalf("expected page size 20, got %d", got)
	}
	m, _ = update(t, m, keyRunes("-"))
	m, _ = update(t, m, keyRunes("-"))
	if got := m.browser.query.PageSize; got != 5 {
		t.Fatalf("expected page size 5, got %d", got)
	}
}

func TestNextPage_StopsAtLastPage(t *testing.T) {
	m := loaded(t, newTestModel(t, &fakeBackend{}))
	seq := m.browser.query.Seq()

	m, cmd := update(t, m, keyRunes("n"))
	if cmd != nil || m.browser.query.Seq() != seq {
		t.Fatalf("expected no request past the last page")
	}
}

func TestReprocessKey_RefusesCompleteEntry(t *testing.T) {
	fb := &fakeBackend{}
	m := loaded(t, newTestModel(t, fb))

	m, _ = update(t, m, keyRunes("r"))
	if !strings.Contains(m.minibufferText, "already complete") {
		t.Fatalf("expected refusal message, got %q", m.minibufferText)
	}
	if len(fb.reprocessed) != 0 {
		t.Fatalf("expected no reprocess request")
	}
}

func TestReprocessCmd_RefreshesOnSuccess(t *testing.T) {
	fb := &fakeBackend{}
	m := loaded(t, newTestModel(t, fb))
	e := m.browser.query.Rows[1]

	msg := m.reprocessCmd(e)()
	if len(fb.reprocessed) != 1 || fb.reprocessed[0] != e.ID {
		t.Fatalf("expected reprocess of %s, got %v", e.ID, fb.reprocessed)
	}
	m, _ = update(t, m, msg)
	if !strings.Contains(m.minibufferText, "Reprocess started") {
		t.Fatalf("unexpected minibuffer %q", m.minibufferText)
	}
	if !m.browser.query.Loading {
		t.Fatalf("expected list refresh after reprocess")
	}
}

func TestReprocessDone_ErrorDoesNotRefetch(t *testing.T) {
	fb := &fakeBackend{}
	m := loaded(t, newTestModel(t, fb))
	seq := m.browser.query.Seq()
	calls := len(fb.listCalls)

	m, _ = update(t, m, reprocessDoneMsg{id: "e2-bbbbbbbb", err: errors.New("boom")})
	if !m.minibufferErr || !strings.Contains(m.minibufferText, "boom") {
		t.Fatalf("expected error minibuffer, got %q (err=%v)", m.minibufferText, m.minibufferErr)
	}
	if got := m.browser.query.Seq(); got != seq {
		t.Fatalf("seq changed %d -> %d", seq, got)
	}
	if m.browser.query.Loading {
		t.Fatalf("expected no list refresh after failed reprocess")
	}
	if len(fb.listCalls) != calls {
		t.Fatalf("expected no list request, got %d", len(fb.listCalls)-calls)
	}
}

func TestThemePicker_SendsUpdate(t *testing.T) {
	fb := &fakeBackend{}
	m := loaded(t, newTestModel(t, fb))

	m, _ = update(t, m, keyRunes("t"))
	if !m.browser.themes.open {
		t.Fatalf("expected theme picker to open")
	}
	// Science is index 1; move to Technology.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.browser.themes.open {
		t.Fatalf("expected picker to close")
	}
	if cmd == nil {
		t.Fatalf("expected update command")
	}
	msg := cmd()
	if got := fb.patches["e1-aaaaaaaa"].Theme; got != "Technology" {
		t.Fatalf("expected Technology patch, got %q", got)
	}
	m, _ = update(t, m, msg)
	if !m.browser.query.Loading {
		t.Fatalf("expected refresh after theme update")
	}
}

func TestDetailPane_RendersCaption(t *testing.T) {
	m := loaded(t, newTestModel(t, &fakeBackend{}))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.browser.detail {
		t.Fatalf("expected detail pane")
	}
	if out := ansi.Strip(m.View()); !strings.Contains(out, "A comet") {
		t.Fatalf("expected caption in detail view:\n%s", out)
	}
}
