package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"atlas-cli/internal/browse"
	"atlas-cli/internal/model"
)

var pageSizes = []int{5, 10, 20, 50, 100}

var errNoBackend = errors.New("no backend configured")

type themePicker struct {
	open    bool
	entryID string
	cursor  int
}

type browserState struct {
	query *browse.Query

	table     table.Model
	pager     paginator.Model
	search    textinput.Model
	searching bool
	detail    bool
	themes    themePicker

	width  int
	height int
}

func newBrowserState(pageSize int) browserState {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "keyword"
	ti.CharLimit = 200

	pg := paginator.New()
	pg.Type = paginator.Dots
	pg.ActiveDot = lipgloss.NewStyle().Foreground(colorAccent).Render("•")
	pg.InactiveDot = styleMuted().Render("•")

	return browserState{
		query:  browse.NewQuery(pageSize),
		table:  newTable(),
		pager:  pg,
		search: ti,
	}
}

func newTable() table.Model {
	t := table.New(table.WithFocused(true))
	st := table.DefaultStyles()
	st.Header = st.Header.Bold(true).Foreground(colorSurfaceFg).BorderForeground(colorMuted).BorderBottom(true)
	st.Selected = st.Selected.Foreground(colorSurfaceFg).Background(colorSelected).Bold(true)
	t.SetStyles(st)
	return t
}

func (b *browserState) inputActive() bool {
	return b.searching || b.themes.open
}

func (b *browserState) resize(width, height int) {
	b.width = width
	b.height = height
	b.search.Width = width - 4

	// ID, Theme, Type, Date, Stage, Updated; every cell carries 2 columns of padding.
	fixed := 10 + 12 + 6 + 8 + 16 + 16 + 7*2
	caption := width - fixed
	if caption < 12 {
		caption = 12
	}
	b.table.SetColumns([]table.Column{
		{Title: "ID", Width: 10},
		{Title: "Theme", Width: 12},
		{Title: "Type", Width: 6},
		{Title: "Date", Width: 8},
		{Title: "Stage", Width: 16},
		{Title: "Caption", Width: caption},
		{Title: "Updated", Width: 16},
	})

	th := height - 3
	if b.detail || b.themes.open {
		th = height / 2
	}
	if th < 3 {
		th = 3
	}
	b.table.SetHeight(th)
}

func stageLabel(s model.Stage) string {
	switch s {
	case model.StageComplete:
		return "● " + string(s)
	case model.StageError:
		return "✗ " + string(s)
	case model.StageUploaded:
		return "○ " + string(s)
	case "":
		return "? Unknown"
	default:
		return "◐ " + string(s)
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (b *browserState) syncRows() {
	rows := make([]table.Row, 0, len(b.query.Rows))
	for _, e := range b.query.Rows {
		rows = append(rows, table.Row{
			shortID(e.ID),
			e.Theme,
			string(e.SourceType),
			e.EntryDate,
			stageLabel(e.Stage),
			oneLine(e.SummaryCaption),
			e.UpdatedAt.Short(),
		})
	}
	b.table.SetRows(rows)
	if c := b.table.Cursor(); c >= len(rows) {
		b.table.SetCursor(max(len(rows)-1, 0))
	}

	pages := b.query.Pages()
	b.pager.Type = paginator.Dots
	if pages > 12 {
		b.pager.Type = paginator.Arabic
	}
	b.pager.PerPage = b.query.PageSize
	b.pager.TotalPages = pages
	b.pager.Page = b.query.Page - 1
}

func (b *browserState) selected() (model.Entry, bool) {
	i := b.table.Cursor()
	if i < 0 || i >= len(b.query.Rows) {
		return model.Entry{}, false
	}
	return b.query.Rows[i], true
}

// fetch runs req in the background; the response is applied in Update.
func (m *appModel) fetch(req browse.Request) tea.Cmd {
	return tea.Batch(m.loadCmd(req), m.spinner.Tick)
}

func (m *appModel) loadCmd(req browse.Request) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		if backend == nil {
			return entriesLoadedMsg{req: req, err: errNoBackend}
		}
		page, err := browse.Run(ctx, backend, req)
		return entriesLoadedMsg{req: req, page: page, err: err}
	}
}

func (m appModel) onEntriesLoaded(msg entriesLoadedMsg) (tea.Model, tea.Cmd) {
	q := m.browser.query
	if !q.Apply(msg.req, msg.page, msg.err) {
		m.log.Debug(m.ctx, "dropped stale entry page", "seq", msg.req.Seq, "latest", q.Seq())
		return m, nil
	}
	m.browser.syncRows()
	if msg.err != nil {
		m.log.Warn(m.ctx, "list entries failed", "page", msg.req.Page, "err", msg.err)
		return m, m.showError(msg.err)
	}
	// The page emptied under us (entries removed elsewhere); step back to the last one.
	if len(q.Rows) == 0 && q.Total > 0 && q.Page > q.Pages() {
		last := q.Pages()
		return m, m.fetch(q.Paginate(&last, nil))
	}
	return m, nil
}

func nextPageSize(cur int, grow bool) int {
	if grow {
		for _, s := range pageSizes {
			if s > cur {
				return s
			}
		}
		return cur
	}
	for i := len(pageSizes) - 1; i >= 0; i-- {
		if pageSizes[i] < cur {
			return pageSizes[i]
		}
	}
	return cur
}

func (m appModel) browserKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	q := m.browser.query
	switch {
	case key.Matches(msg, m.keys.Search):
		m.browser.searching = true
		m.browser.search.SetValue(q.Keyword)
		m.browser.search.CursorEnd()
		return m, m.browser.search.Focus()

	case key.Matches(msg, m.keys.NextPage):
		if q.Page >= q.Pages() {
			return m, nil
		}
		return m, m.fetch(q.NextPage())

	case key.Matches(msg, m.keys.PrevPage):
		if q.Page <= 1 {
			return m, nil
		}
		return m, m.fetch(q.PrevPage())

	case key.Matches(msg, m.keys.Bigger), key.Matches(msg, m.keys.Smaller):
		size := nextPageSize(q.PageSize, key.Matches(msg, m.keys.Bigger))
		if size == q.PageSize {
			return m, nil
		}
		return m, tea.Batch(m.fetch(q.Paginate(nil, &size)), m.showMinibuffer(fmt.Sprintf("%d rows per page", size)))

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetch(q.Refresh())

	case key.Matches(msg, m.keys.Reprocess):
		return m.startReprocess()

	case key.Matches(msg, m.keys.Theme):
		e, ok := m.browser.selected()
		if !ok {
			return m, m.showMinibuffer("No entry selected")
		}
		cur := 0
		for i, t := range m.cfg.Themes {
			if t == e.Theme {
				cur = i
			}
		}
		m.browser.themes = themePicker{open: true, entryID: e.ID, cursor: cur}
		m.browser.resize(m.browser.width, m.browser.height)
		return m, nil

	case key.Matches(msg, m.keys.Detail):
		m.browser.detail = !m.browser.detail
		m.browser.resize(m.browser.width, m.browser.height)
		return m, nil
	}

	var cmd tea.Cmd
	m.browser.table, cmd = m.browser.table.Update(msg)
	return m, cmd
}

func (m appModel) browserInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.browser.themes.open {
		return m.themePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.browser.searching = false
		m.browser.search.Blur()
		return m, m.fetch(m.browser.query.Search(m.browser.search.Value()))
	case key.Matches(msg, m.keys.Cancel):
		m.browser.searching = false
		m.browser.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.browser.search, cmd = m.browser.search.Update(msg)
	return m, cmd
}

func (m appModel) themePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tp := &m.browser.themes
	switch msg.String() {
	case "up", "k":
		if tp.cursor > 0 {
			tp.cursor--
		}
		return m, nil
	case "down", "j", "t":
		if tp.cursor < len(m.cfg.Themes)-1 {
			tp.cursor++
		} else if msg.String() == "t" {
			tp.cursor = 0
		}
		return m, nil
	case "esc", "q":
		*tp = themePicker{}
		m.browser.resize(m.browser.width, m.browser.height)
		return m, nil
	case "enter":
		id := tp.entryID
		theme := m.cfg.Themes[tp.cursor]
		*tp = themePicker{}
		m.browser.resize(m.browser.width, m.browser.height)
		return m, m.updateThemeCmd(id, theme)
	}
	return m, nil
}

func (m *appModel) updateThemeCmd(id, theme string) tea.Cmd {
	backend, ctx, themes := m.backend, m.ctx, m.cfg.Themes
	return func() tea.Msg {
		if backend == nil {
			return themeUpdatedMsg{id: id, theme: theme, err: errNoBackend}
		}
		err := browse.UpdateTheme(ctx, backend, themes, id, theme)
		return themeUpdatedMsg{id: id, theme: theme, err: err}
	}
}

func (m appModel) onThemeUpdated(msg themeUpdatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.log.Warn(m.ctx, "theme update failed", "entry", msg.id, "err", msg.err)
		return m, m.showError(msg.err)
	}
	m.log.Info(m.ctx, "theme updated", "entry", msg.id, "theme", msg.theme)
	return m, tea.Batch(
		m.showMinibuffer(fmt.Sprintf("Theme of %s set to %s", shortID(msg.id), msg.theme)),
		m.fetch(m.browser.query.Refresh()),
	)
}

func (m appModel) startReprocess() (tea.Model, tea.Cmd) {
	e, ok := m.browser.selected()
	if !ok {
		return m, m.showMinibuffer("No entry selected")
	}
	if !e.Stage.Reprocessable() {
		return m, m.showMinibuffer(fmt.Sprintf("%s is already complete", shortID(e.ID)))
	}
	return m, tea.Batch(m.reprocessCmd(e), m.showMinibuffer("Reprocessing "+shortID(e.ID)+"…"))
}

func (m *appModel) reprocessCmd(e model.Entry) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		if backend == nil {
			return reprocessDoneMsg{id: e.ID, err: errNoBackend}
		}
		return reprocessDoneMsg{id: e.ID, err: browse.Reprocess(ctx, backend, e)}
	}
}

func (m appModel) onReprocessDone(msg reprocessDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.log.Warn(m.ctx, "reprocess failed", "entry", msg.id, "err", msg.err)
		return m, m.showError(msg.err)
	}
	m.log.Info(m.ctx, "reprocess triggered", "entry", msg.id)
	return m, tea.Batch(
		m.showMinibuffer("Reprocess started for "+shortID(msg.id)),
		m.fetch(m.browser.query.Refresh()),
	)
}

func (m appModel) renderBrowser() string {
	b := &m.browser
	q := b.query
	var out []string

	switch {
	case b.searching:
		out = append(out, b.search.View())
	case q.Keyword != "":
		out = append(out, styleMuted().Render("filter: ")+q.Keyword)
	default:
		out = append(out, styleMuted().Render("all entries"))
	}

	if q.Err != nil && len(q.Rows) == 0 {
		out = append(out, styleError().Render("Could not load entries: "+errorText(q.Err)))
	} else if len(q.Rows) == 0 && !q.Loading {
		out = append(out, styleMuted().Render("No entries."))
	} else {
		out = append(out, b.table.View())
	}

	status := fmt.Sprintf("page %d/%d · total %d · %d per page", q.Page, q.Pages(), q.Total, q.PageSize)
	line := b.pager.View() + "  " + styleMuted().Render(status)
	if q.Loading {
		line += "  " + m.spinner.View() + " loading"
	}
	out = append(out, line)

	if b.themes.open {
		out = append(out, m.renderThemePicker())
	} else if b.detail {
		if e, ok := b.selected(); ok {
			out = append(out, renderEntryDetail(e, b.width))
		}
	}
	return strings.Join(out, "\n")
}

func (m appModel) renderThemePicker() string {
	tp := m.browser.themes
	cur := ""
	if e, ok := m.browser.query.Find(tp.entryID); ok {
		cur = e.Theme
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Render("Theme for " + shortID(tp.entryID))}
	for i, t := range m.cfg.Themes {
		prefix := "  "
		if i == tp.cursor {
			prefix = "› "
		}
		label := t
		if t == cur {
			label += styleMuted().Render(" (current)")
		}
		if i == tp.cursor {
			label = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render(label)
		}
		lines = append(lines, prefix+label)
	}
	lines = append(lines, styleMuted().Render("enter apply · esc cancel"))
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1).Render(strings.Join(lines, "\n"))
}

func entryMarkdown(e model.Entry) string {
	var b strings.Builder
	src := e.SourceURL
	if src == "" {
		src = e.FileStoragePath
	}
	fmt.Fprintf(&b, "## %s\n\n", orDash(e.Theme))
	if e.SummaryCaption != "" {
		fmt.Fprintf(&b, "%s\n\n", e.SummaryCaption)
	} else {
		b.WriteString("_No summary yet._\n\n")
	}
	if e.ExplainLikeImFive != "" {
		fmt.Fprintf(&b, "### Explain like I'm 5\n\n%s\n\n", e.ExplainLikeImFive)
	}
	if len(e.Tags) > 0 {
		tags := make([]string, len(e.Tags))
		for i, t := range e.Tags {
			tags[i] = "`" + t + "`"
		}
		fmt.Fprintf(&b, "**Tags:** %s\n\n", strings.Join(tags, " "))
	}
	fmt.Fprintf(&b, "**Source:** %s (%s)  \n**Date:** %s  \n**Created:** %s\n",
		orDash(src), orDash(string(e.SourceType)), orDash(e.EntryDate), e.CreatedAt.Short())
	return b.String()
}

func renderEntryDetail(e model.Entry, width int) string {
	w := width - 4
	head := stageBadge(e.Stage) + "  " + styleMuted().Render(ansi.Truncate(e.ID, max(w-20, 8), "…"))
	body := renderMarkdown(entryMarkdown(e), w)
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1).Render(head + "\n" + body)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
