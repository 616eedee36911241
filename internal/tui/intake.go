package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"atlas-cli/internal/config"
	"atlas-cli/internal/logging"
	"atlas-cli/internal/model"
	"atlas-cli/internal/staging"
	"atlas-cli/internal/submit"
)

type intakeMode int

const (
	intakeList intakeMode = iota
	intakePicking
	intakeLinks
	intakeDate
)

type intakeState struct {
	store  *staging.Store
	seq    *submit.Sequencer
	themes []string

	table table.Model
	mode  intakeMode

	picker    filepicker.Model
	pickerDir string
	// selection mirrors the picker's toggled files; AddFiles reconciles against it.
	selection []staging.FileRef

	links   textarea.Model
	date    textinput.Model
	dateFor string

	submitting bool
	failures   []submit.Failure

	width  int
	height int
}

func newIntakeState(cfg config.Config, up submit.Uploader, log logging.Logger, now func() time.Time) intakeState {
	opts := []staging.Option{staging.WithThemes(cfg.Themes)}
	if now != nil {
		opts = append(opts, staging.WithClock(now))
	}

	ta := textarea.New()
	ta.Placeholder = "One link per line"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0

	di := textinput.New()
	di.Prompt = "date (YYYY-MM): "
	di.CharLimit = 7

	return intakeState{
		store:  staging.New(cfg.DefaultTheme, opts...),
		seq:    &submit.Sequencer{Uploader: up, Logger: log.With("component", "submit"), KeepFailed: cfg.KeepFailed},
		themes: cfg.Themes,
		table:  newTable(),
		links:  ta,
		date:   di,
	}
}

func (in *intakeState) resize(width, height int) {
	in.width = width
	in.height = height

	fixed := 4 + 6 + 12 + 8 + 5*2
	name := width - fixed
	if name < 16 {
		name = 16
	}
	in.table.SetColumns([]table.Column{
		{Title: "#", Width: 4},
		{Title: "Kind", Width: 6},
		{Title: "Name", Width: name},
		{Title: "Theme", Width: 12},
		{Title: "Date", Width: 8},
	})
	th := height - 3
	if in.mode != intakeList || len(in.failures) > 0 {
		th = height / 2
	}
	if th < 3 {
		th = 3
	}
	in.table.SetHeight(th)

	in.links.SetWidth(max(width-4, 20))
	in.links.SetHeight(max(height/2-3, 3))
	in.picker.Height = max(height/2-2, 4)
}

func (in *intakeState) syncRows() {
	items := in.store.Items()
	rows := make([]table.Row, 0, len(items))
	for i, it := range items {
		rows = append(rows, table.Row{
			fmt.Sprint(i + 1),
			string(it.Kind()),
			it.Name(),
			it.Theme(),
			it.Date().String(),
		})
	}
	in.table.SetRows(rows)
	if c := in.table.Cursor(); c >= len(rows) {
		in.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (in *intakeState) selected() (staging.Item, bool) {
	items := in.store.Items()
	i := in.table.Cursor()
	if i < 0 || i >= len(items) {
		return staging.Item{}, false
	}
	return items[i], true
}

// syncSelection drops picker selections whose staged item is gone.
func (in *intakeState) syncSelection() {
	in.selection = in.store.Files()
}

func (in *intakeState) setMode(mode intakeMode) {
	in.mode = mode
	in.resize(in.width, in.height)
}

func (m appModel) intakeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	in := &m.intake
	mutating := key.Matches(msg, m.keys.Files) || key.Matches(msg, m.keys.Links) ||
		key.Matches(msg, m.keys.Theme) || key.Matches(msg, m.keys.Date) ||
		key.Matches(msg, m.keys.Remove) || key.Matches(msg, m.keys.Submit)
	if mutating && in.submitting {
		return m, m.showMinibuffer("Submit in progress")
	}

	switch {
	case key.Matches(msg, m.keys.Files):
		return m, m.openFilePicker()

	case key.Matches(msg, m.keys.Links):
		in.links.Reset()
		in.setMode(intakeLinks)
		return m, in.links.Focus()

	case key.Matches(msg, m.keys.Theme):
		it, ok := in.selected()
		if !ok {
			return m, m.showMinibuffer("Nothing staged")
		}
		in.store.UpdateField(it.ID(), staging.FieldTheme, model.NextTheme(in.themes, it.Theme()))
		in.syncRows()
		return m, nil

	case key.Matches(msg, m.keys.Date):
		it, ok := in.selected()
		if !ok {
			return m, m.showMinibuffer("Nothing staged")
		}
		in.dateFor = it.ID()
		in.date.SetValue(it.Date().String())
		in.date.CursorEnd()
		in.setMode(intakeDate)
		return m, in.date.Focus()

	case key.Matches(msg, m.keys.Remove):
		it, ok := in.selected()
		if !ok {
			return m, nil
		}
		in.store.Remove(it.ID())
		in.syncSelection()
		in.syncRows()
		return m, m.showMinibuffer("Removed " + it.Name())

	case key.Matches(msg, m.keys.Submit):
		return m, m.startSubmit()
	}

	var cmd tea.Cmd
	in.table, cmd = in.table.Update(msg)
	return m, cmd
}

func (m appModel) intakeInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	in := &m.intake
	switch in.mode {
	case intakeLinks:
		switch {
		case key.Matches(msg, m.keys.Stage):
			n := in.store.AddLinksFromText(in.links.Value())
			in.links.Reset()
			in.syncRows()
			return m, m.showMinibuffer(fmt.Sprintf("Staged %d link(s)", n))
		case key.Matches(msg, m.keys.Cancel):
			in.links.Blur()
			in.setMode(intakeList)
			return m, nil
		}
		var cmd tea.Cmd
		in.links, cmd = in.links.Update(msg)
		return m, cmd

	case intakeDate:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			v := strings.TrimSpace(in.date.Value())
			ok := in.store.UpdateField(in.dateFor, staging.FieldDate, v)
			in.date.Blur()
			in.setMode(intakeList)
			in.syncRows()
			if !ok {
				cmd := m.showMinibuffer(fmt.Sprintf("Invalid date %q (want YYYY-MM)", v))
				m.minibufferErr = true
				return m, cmd
			}
			return m, nil
		case key.Matches(msg, m.keys.Cancel):
			in.date.Blur()
			in.setMode(intakeList)
			return m, nil
		}
		var cmd tea.Cmd
		in.date, cmd = in.date.Update(msg)
		return m, cmd

	case intakePicking:
		if key.Matches(msg, m.keys.Cancel) || msg.String() == "q" {
			in.pickerDir = in.picker.CurrentDirectory
			in.setMode(intakeList)
			return m, nil
		}
		var cmd tea.Cmd
		in.picker, cmd = in.picker.Update(msg)
		if ok, path := in.picker.DidSelectFile(msg); ok {
			return m, tea.Batch(cmd, m.toggleFile(path))
		}
		return m, cmd
	}
	return m, nil
}

func (m *appModel) openFilePicker() tea.Cmd {
	in := &m.intake
	fp := filepicker.New()
	fp.AllowedTypes = model.ImageExtensions
	fp.FileAllowed = true
	fp.DirAllowed = false
	fp.ShowHidden = false
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.AutoHeight = false
	fp.Cursor = "›"
	fp.KeyMap.Back = key.NewBinding(key.WithKeys("h", "backspace", "left"), key.WithHelp("h", "up"))

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(colorAccent)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(colorAccent)
	fp.Styles.DisabledFile = styleMuted()
	fp.Styles.FileSize = styleMuted().Width(fp.Styles.FileSize.GetWidth()).Align(lipgloss.Right)

	dir := strings.TrimSpace(in.pickerDir)
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		} else {
			dir = "."
		}
	}
	fp.CurrentDirectory = dir

	in.picker = fp
	in.setMode(intakePicking)
	return fp.Init()
}

// toggleFile flips path in the picker selection and reconciles the staged images.
func (m *appModel) toggleFile(path string) tea.Cmd {
	in := &m.intake
	var size int64
	if fi, err := os.Stat(path); err == nil {
		size = fi.Size()
	}
	ref := staging.NewFileRef(path, size)

	kept := in.selection[:0:0]
	found := false
	for _, f := range in.selection {
		if f.PickerID == ref.PickerID {
			found = true
			continue
		}
		kept = append(kept, f)
	}
	if !found {
		kept = append(kept, ref)
	}
	in.selection = kept

	added, removed := in.store.AddFiles(in.selection)
	in.syncRows()
	m.log.Debug(m.ctx, "picker selection changed", "file", ref.Path, "added", added, "removed", removed)
	if removed > 0 {
		return m.showMinibuffer("Unstaged " + filepath.Base(ref.Path))
	}
	return m.showMinibuffer("Staged " + filepath.Base(ref.Path))
}

func (m *appModel) startSubmit() tea.Cmd {
	in := &m.intake
	if in.submitting {
		return m.showMinibuffer("Submit in progress")
	}
	if in.store.Len() == 0 {
		return m.showError(submit.ErrNothingStaged)
	}
	in.submitting = true
	in.failures = nil
	items := in.store.Items()
	return tea.Batch(
		m.submitCmd(items),
		m.spinner.Tick,
		m.showMinibuffer(fmt.Sprintf("Submitting %d item(s)…", len(items))),
	)
}

// submitCmd uploads a snapshot of the staged items; the store is only touched
// again when submitDoneMsg arrives.
func (m *appModel) submitCmd(items []staging.Item) tea.Cmd {
	seq, ctx := m.intake.seq, m.ctx
	return func() tea.Msg {
		res, done := seq.Run(ctx, items)
		return submitDoneMsg{res: res, done: done}
	}
}

func (m appModel) onSubmitDone(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	in := &m.intake
	in.submitting = false
	in.seq.Apply(in.store, msg.res, msg.done)
	in.failures = msg.res.Failures
	in.syncSelection()
	in.syncRows()
	in.resize(in.width, in.height)

	cmd := m.showMinibuffer(msg.res.Summary())
	if !msg.res.OK() {
		m.minibufferErr = true
		return m, cmd
	}
	return m, tea.Batch(cmd, m.fetch(m.browser.query.Refresh()))
}

func (m appModel) renderIntake() string {
	in := &m.intake
	var out []string

	head := fmt.Sprintf("%d staged · default theme %s", in.store.Len(), in.store.DefaultTheme())
	if in.submitting {
		head += "  " + m.spinner.View() + " submitting"
	}
	out = append(out, styleMuted().Render(head))

	if in.store.Len() == 0 {
		out = append(out, styleMuted().Render("Nothing staged. Press f to pick images or l to paste links."))
	} else {
		out = append(out, in.table.View())
	}

	switch in.mode {
	case intakePicking:
		title := lipgloss.NewStyle().Bold(true).Render("Pick images") +
			styleMuted().Render(fmt.Sprintf("  %s · enter toggles · esc done", in.picker.CurrentDirectory))
		out = append(out, title, in.picker.View())
	case intakeLinks:
		out = append(out, lipgloss.NewStyle().Bold(true).Render("Links")+styleMuted().Render("  ctrl+s stage · esc close"), in.links.View())
	case intakeDate:
		out = append(out, in.date.View())
	}

	if len(in.failures) > 0 && in.mode == intakeList {
		out = append(out, styleError().Render(fmt.Sprintf("%d failed:", len(in.failures))))
		for _, f := range in.failures {
			out = append(out, "  "+f.Name+": "+errorText(f.Err))
		}
	}
	return strings.Join(out, "\n")
}
