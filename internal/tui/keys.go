package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	SwitchView key.Binding
	Entries    key.Binding
	Intake     key.Binding
	Help       key.Binding

	// Entries view.
	Search    key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Bigger    key.Binding
	Smaller   key.Binding
	Refresh   key.Binding
	Reprocess key.Binding
	Theme     key.Binding
	Detail    key.Binding

	// Intake view.
	Files  key.Binding
	Links  key.Binding
	Date   key.Binding
	Remove key.Binding
	Submit key.Binding

	// Inputs.
	Confirm key.Binding
	Cancel  key.Binding
	Stage   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		SwitchView: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
		Entries:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "entries")),
		Intake:     key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "intake")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),

		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		NextPage:  key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next page")),
		PrevPage:  key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "prev page")),
		Bigger:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more rows")),
		Smaller:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "fewer rows")),
		Refresh:   key.NewBinding(key.WithKeys("g", "ctrl+r"), key.WithHelp("g", "refresh")),
		Reprocess: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reprocess")),
		Theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Detail:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),

		Files:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "pick images")),
		Links:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "add links")),
		Date:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "date")),
		Remove: key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		Submit: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "submit")),

		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Stage:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "stage links")),
	}
}

// bindings adapts a flat binding list to help.KeyMap.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

func (k keyMap) browserHelp() bindings {
	return bindings{k.Search, k.NextPage, k.PrevPage, k.Bigger, k.Smaller, k.Refresh, k.Reprocess, k.Theme, k.Detail, k.SwitchView, k.Help, k.Quit}
}

func (k keyMap) intakeHelp() bindings {
	return bindings{k.Files, k.Links, k.Theme, k.Date, k.Remove, k.Submit, k.SwitchView, k.Help, k.Quit}
}
