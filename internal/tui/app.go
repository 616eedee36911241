package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"atlas-cli/internal/api"
	"atlas-cli/internal/browse"
	"atlas-cli/internal/config"
	"atlas-cli/internal/logging"
	"atlas-cli/internal/submit"
)

const minibufferAutoClearAfter = 4 * time.Second

// Backend is everything the dashboard needs from the REST API.
type Backend interface {
	browse.Lister
	browse.Reprocessor
	browse.Updater
	submit.Uploader
}

type Options struct {
	Backend Backend
	Config  config.Config
	Logger  logging.Logger
	// Context bounds every request issued by the dashboard.
	Context context.Context
	Now     func() time.Time
	// APILabel is shown in the header.
	APILabel string
}

type appModel struct {
	ctx     context.Context
	backend Backend
	log     logging.Logger
	cfg     config.Config
	label   string

	view   view
	width  int
	height int

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	showHelp bool

	browser browserState
	intake  intakeState

	minibufferText string
	minibufferErr  bool
	minibufferSeq  int
}

func newAppModel(opts Options) appModel {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	cfg := opts.Config
	if len(cfg.Themes) == 0 {
		cfg.Themes = config.Defaults().Themes
	}
	if strings.TrimSpace(cfg.DefaultTheme) == "" {
		cfg.DefaultTheme = cfg.Themes[0]
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	m := appModel{
		ctx:     ctx,
		backend: opts.Backend,
		log:     log,
		cfg:     cfg,
		label:   opts.APILabel,
		view:    viewBrowser,
		width:   100,
		height:  30,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		browser: newBrowserState(cfg.PageSize),
		intake:  newIntakeState(cfg, opts.Backend, log, opts.Now),
	}
	m.layout()
	return m
}

func (m appModel) Init() tea.Cmd {
	return m.fetch(m.browser.query.Fetch())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case flashDoneMsg:
		if msg.seq == m.minibufferSeq {
			m.minibufferText = ""
			m.minibufferErr = false
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case entriesLoadedMsg:
		return m.onEntriesLoaded(msg)

	case reprocessDoneMsg:
		return m.onReprocessDone(msg)

	case themeUpdatedMsg:
		return m.onThemeUpdated(msg)

	case submitDoneMsg:
		return m.onSubmitDone(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Directory listings and other widget-internal messages.
	if m.intake.mode == intakePicking {
		var cmd tea.Cmd
		m.intake.picker, cmd = m.intake.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	// Open inputs own every key.
	if m.browser.inputActive() {
		return m.browserInputKey(msg)
	}
	if m.intake.mode != intakeList {
		return m.intakeInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.SwitchView):
		if m.view == viewBrowser {
			m.view = viewIntake
		} else {
			m.view = viewBrowser
		}
		return m, nil
	case key.Matches(msg, m.keys.Entries):
		m.view = viewBrowser
		return m, nil
	case key.Matches(msg, m.keys.Intake):
		m.view = viewIntake
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		return m, nil
	}

	if m.view == viewIntake {
		return m.intakeKey(msg)
	}
	return m.browserKey(msg)
}

func (m appModel) busy() bool {
	return m.browser.query.Loading || m.intake.submitting
}

// showMinibuffer sets the transient status line and schedules its removal.
func (m *appModel) showMinibuffer(text string) tea.Cmd {
	m.minibufferSeq++
	m.minibufferText = text
	m.minibufferErr = false
	seq := m.minibufferSeq
	return tea.Tick(minibufferAutoClearAfter, func(time.Time) tea.Msg {
		return flashDoneMsg{seq: seq}
	})
}

func (m *appModel) showError(err error) tea.Cmd {
	cmd := m.showMinibuffer(errorText(err))
	m.minibufferErr = true
	return cmd
}

// errorText prefers the backend's detail message over the full request line.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	var se *api.StatusError
	if errors.As(err, &se) && se.Detail != "" {
		return fmt.Sprintf("Error %d: %s", se.StatusCode, se.Detail)
	}
	return "Error: " + err.Error()
}

const (
	headerHeight = 2
	footerHeight = 2
)

func (m *appModel) bodyHeight() int {
	h := m.height - headerHeight - footerHeight
	if m.showHelp {
		h -= 2
	}
	if h < 5 {
		h = 5
	}
	return h
}

func (m *appModel) layout() {
	m.help.Width = m.width
	m.browser.resize(m.width, m.bodyHeight())
	m.intake.resize(m.width, m.bodyHeight())
}

func (m appModel) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	body := m.renderBrowser()
	if m.view == viewIntake {
		body = m.renderIntake()
	}
	b.WriteString(lipgloss.NewStyle().Height(m.bodyHeight()).MaxHeight(m.bodyHeight()).Render(body))
	b.WriteString("\n")
	b.WriteString(m.renderMinibuffer())
	b.WriteString("\n")

	hk := m.keys.browserHelp()
	if m.view == viewIntake {
		hk = m.keys.intakeHelp()
	}
	b.WriteString(m.help.View(hk))
	return b.String()
}

func (m appModel) renderHeader() string {
	staged := "Intake"
	if n := m.intake.store.Len(); n > 0 {
		staged = fmt.Sprintf("Intake (%d)", n)
	}
	parts := []string{
		styleTitle().Render("atlas"),
		styleTab(m.view == viewBrowser).Render("1 Entries"),
		styleTab(m.view == viewIntake).Render("2 " + staged),
	}
	if m.label != "" {
		parts = append(parts, styleMuted().Render(m.label))
	}
	return strings.Join(parts, " ")
}

func (m appModel) renderMinibuffer() string {
	if m.minibufferText == "" {
		return ""
	}
	if m.minibufferErr {
		return styleError().Render(m.minibufferText)
	}
	return lipgloss.NewStyle().Foreground(colorSurfaceFg).Render(m.minibufferText)
}
